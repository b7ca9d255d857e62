//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"

	"github.com/dkoosis/cowtree/internal/magetasks"
)

// Default target - build every package
var Default = Build

func init() {
	if err := magetasks.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: %v\n", err)
		os.Exit(1)
	}
}

// Build compiles every package with verbose output (go build -v ./...)
func Build() error {
	return magetasks.BuildAll()
}

// Test runs all tests on a single worker (go test -p 1 -parallel 1 -v ./...)
func Test() error {
	return magetasks.TestAll()
}

// Release builds ./bin/cowtree with version information
func Release() error {
	return magetasks.Release()
}

// Clean removes build artifacts
func Clean() error {
	return magetasks.Clean()
}

// Lint namespace for linting commands
type Lint mg.Namespace

// All runs all linters
func (Lint) All() error {
	return magetasks.LintAll()
}

// Vet runs go vet
func (Lint) Vet() error {
	return magetasks.LintVet()
}

// Fmt lists files that need gofmt
func (Lint) Fmt() error {
	return magetasks.LintFormat()
}
