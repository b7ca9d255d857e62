package magetasks

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/magefile/mage/sh"
)

// BuildAll compiles every package in the module with verbose output.
func BuildAll() error {
	PrintH2Header("Build")

	if err := Run("go", "build", "-v", "./..."); err != nil {
		PrintError("Build failed")
		return err
	}

	PrintSuccess("Build succeeded")
	return nil
}

// Release builds the cowtree binary with version information stamped in.
func Release() error {
	PrintH2Header("Release")

	ldflags := fmt.Sprintf("-s -w -X '%s/internal/version.Version=%s' -X '%s/internal/version.CommitHash=%s' -X '%s/internal/version.BuildDate=%s'",
		ModulePath, gitVersion(), ModulePath, gitCommit(), ModulePath, time.Now().UTC().Format(time.RFC3339))

	if err := Run("go", "build", "-ldflags", ldflags, "-o", BinPath, MainPackage); err != nil {
		PrintError("Release build failed")
		return err
	}

	PrintSuccess(fmt.Sprintf("Built: %s", BinPath))
	return nil
}

// Clean removes build artifacts and the build cache.
func Clean() error {
	PrintH2Header("Clean")

	if err := os.RemoveAll("./bin"); err != nil {
		return err
	}
	if err := Run("go", "clean", "-cache"); err != nil {
		return err
	}

	PrintSuccess("Cleaned build artifacts")
	return nil
}

var gitOutput = sh.Output

func gitVersion() string {
	out, err := gitOutput("git", "describe", "--tags", "--always", "--dirty", "--match=v*")
	if err != nil || out == "" {
		return "dev"
	}
	return strings.TrimSpace(out)
}

func gitCommit() string {
	out, err := gitOutput("git", "rev-parse", "--short", "HEAD")
	if err != nil || out == "" {
		return "unknown"
	}
	return strings.TrimSpace(out)
}
