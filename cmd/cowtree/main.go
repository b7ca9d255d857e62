// cowtree is a command-line client for copy-on-write B+tree databases.
//
// Usage:
//
//	cowtree put greeting hello
//	cowtree get greeting
//	cowtree scan --prefix gr
//	cowtree del greeting
//	cowtree print
//	cowtree browse
//
// The database path, branching parameter and output settings come from
// flags, COWTREE_* environment variables or .cowtree.yaml.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	root := a.rootCmd()
	root.SetArgs(args)

	err := root.Execute()
	if a.tree != nil {
		if cerr := a.tree.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err == nil {
		return exitOK
	}

	fmt.Fprintf(stderr, "cowtree: %v\n", err)
	var ue usageError
	if errors.As(err, &ue) || strings.HasPrefix(err.Error(), "unknown command") {
		fmt.Fprintln(stderr, "Run 'cowtree --help' for usage.")
		return exitUsage
	}
	return exitFailure
}

// usageError marks errors caused by how cowtree was invoked.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }
