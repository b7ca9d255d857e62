package magetasks

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitialize(t *testing.T) {
	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	defer os.Chdir(originalDir)

	tmpDir := t.TempDir()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change to temp directory: %v", err)
	}

	err = Initialize()
	if err != nil {
		t.Errorf("Initialize() returned error: %v", err)
	}

	// Verify bin directory was created
	binDir := filepath.Join(tmpDir, "bin")
	if _, err := os.Stat(binDir); os.IsNotExist(err) {
		t.Errorf("Initialize() should create bin directory, but it doesn't exist")
	}

	// Verify ProjectRoot is set (use filepath.EvalSymlinks to handle symlinks)
	expectedRoot, _ := filepath.EvalSymlinks(tmpDir)
	actualRoot, _ := filepath.EvalSymlinks(ProjectRoot)
	if actualRoot != expectedRoot {
		t.Errorf("ProjectRoot = %s, want %s", actualRoot, expectedRoot)
	}
}

func TestModulePath(t *testing.T) {
	if ModulePath == "" {
		t.Error("ModulePath should not be empty")
	}
	if ModulePath != "github.com/dkoosis/cowtree" {
		t.Errorf("ModulePath = %s, want github.com/dkoosis/cowtree", ModulePath)
	}
}

func TestBinPath(t *testing.T) {
	if BinPath == "" {
		t.Error("BinPath should not be empty")
	}
	if BinPath != "./bin/cowtree" {
		t.Errorf("BinPath = %s, want ./bin/cowtree", BinPath)
	}
	if MainPackage != "./cmd/cowtree" {
		t.Errorf("MainPackage = %s, want ./cmd/cowtree", MainPackage)
	}
}
