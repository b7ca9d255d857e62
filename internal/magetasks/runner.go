package magetasks

import (
	"io"
	"os"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// ExitCommandNotFound is the status used when a command could not be started.
const ExitCommandNotFound = 127

// execCommand runs a command and reports whether it started. Tests swap it
// for a recorder.
var execCommand func(env map[string]string, stdout, stderr io.Writer, cmd string, args ...string) (bool, error) = sh.Exec

// Run executes cmd once with stdout and stderr passed through. A non-zero
// exit becomes an mg.Fatal error carrying the same status.
func Run(cmd string, args ...string) error {
	return runTo(os.Stdout, cmd, args...)
}

func runTo(stdout io.Writer, cmd string, args ...string) error {
	PrintInfo(strings.Join(append([]string{cmd}, args...), " "))
	ran, err := execCommand(nil, stdout, os.Stderr, cmd, args...)
	return exitError(cmd, ran, err)
}

func exitError(cmd string, ran bool, err error) error {
	if err == nil {
		return nil
	}
	if !ran {
		if IsCommandNotFound(err) {
			PrintWarning(cmd + " not found on PATH")
		}
		return mg.Fatalf(ExitCommandNotFound, "%s: %v", cmd, err)
	}
	// sh.Exec already reports the status through mg.Fatal; keep it.
	return mg.Fatalf(mg.ExitStatus(err), "%v", err)
}
