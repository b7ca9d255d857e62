package magetasks

// TestAll runs the whole test suite on a single worker: -p 1 serializes
// packages, -parallel 1 serializes tests within a package and -v shows the
// output of passing tests.
func TestAll() error {
	PrintH2Header("Tests")

	if err := Run("go", "test", "-p", "1", "-parallel", "1", "-v", "./..."); err != nil {
		PrintError("Tests failed")
		return err
	}

	PrintSuccess("All tests passed")
	return nil
}
