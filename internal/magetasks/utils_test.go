package magetasks

import (
	"fmt"
	"io"
	"io/fs"
	"os/exec"
	"syscall"
	"testing"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// shExecError builds the error sh.Exec returns when a command never started.
func shExecError(cmd string, err error) error {
	return fmt.Errorf(`failed to run "%s : %v"`, cmd, err)
}

func TestIsCommandNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "sentinel", err: exec.ErrNotFound, want: true},
		{
			name: "wrapped lookup error",
			err:  fmt.Errorf("run: %w", &exec.Error{Name: "go", Err: exec.ErrNotFound}),
			want: true,
		},
		{
			name: "sh.Exec lookup failure",
			err:  shExecError("go", &exec.Error{Name: "go", Err: exec.ErrNotFound}),
			want: true,
		},
		{
			name: "sh.Exec missing path",
			err:  shExecError("./bin/cowtree", &fs.PathError{Op: "fork/exec", Path: "./bin/cowtree", Err: syscall.ENOENT}),
			want: true,
		},
		{
			name: "sh.Exec permission denied",
			err:  shExecError("./bin/cowtree", &fs.PathError{Op: "fork/exec", Path: "./bin/cowtree", Err: syscall.EACCES}),
			want: false,
		},
		{
			name: "non-zero exit",
			err:  mg.Fatalf(1, `running "go build -v ./..." failed with exit code 1`),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCommandNotFound(tt.err); got != tt.want {
				t.Errorf("IsCommandNotFound(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsCommandNotFound_RealExec(t *testing.T) {
	ran, err := sh.Exec(nil, io.Discard, io.Discard, "cowtree-no-such-tool", "--version")
	if ran {
		t.Fatal("sh.Exec reported a missing command as started")
	}
	if !IsCommandNotFound(err) {
		t.Fatalf("IsCommandNotFound(%v) = false, want true", err)
	}
	if got := mg.ExitStatus(exitError("cowtree-no-such-tool", ran, err)); got != ExitCommandNotFound {
		t.Errorf("exit status = %d, want %d", got, ExitCommandNotFound)
	}
}
