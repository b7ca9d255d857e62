package magetasks

import (
	"errors"
	"io/fs"
	"os/exec"
	"strings"
	"syscall"
)

// IsCommandNotFound reports whether err means a command could not be started
// because it does not exist. sh.Exec formats the underlying *exec.Error with
// %v, so after errors.Is the sentinel messages are matched too.
func IsCommandNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, exec.ErrNotFound.Error()) || strings.Contains(msg, syscall.ENOENT.Error())
}
