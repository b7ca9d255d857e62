package magetasks

import (
	"bytes"
	"errors"
	"strings"

	"github.com/magefile/mage/mg"
)

// formatTargets are the paths checked by LintFormat. The example and
// reference trees are left out.
var formatTargets = []string{"cmd", "internal", "pkg", "magefile.go"}

// LintAll runs every linter and reports all failures.
func LintAll() error {
	PrintH1Header("Lint")
	if err := errors.Join(LintVet(), LintFormat()); err != nil {
		PrintError("Lint failed")
		return err
	}
	PrintSuccess("All linters passed")
	return nil
}

// LintVet runs go vet.
func LintVet() error {
	PrintH2Header("Vet")
	return Run("go", "vet", "./...")
}

// LintFormat fails when gofmt would rewrite any file.
func LintFormat() error {
	PrintH2Header("Format")

	var out bytes.Buffer
	args := append([]string{"-l"}, formatTargets...)
	if err := runTo(&out, "gofmt", args...); err != nil {
		return err
	}

	files := strings.Fields(out.String())
	if len(files) > 0 {
		for _, f := range files {
			PrintWarning("needs gofmt: " + f)
		}
		return mg.Fatalf(1, "%d file(s) need gofmt", len(files))
	}

	PrintSuccess("Formatting is clean")
	return nil
}
