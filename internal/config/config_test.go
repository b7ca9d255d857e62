package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestFindConfigFile_WalksUp(t *testing.T) {
	root := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "xdg"))
	writeFile(t, filepath.Join(root, "project", FileName), "b: 4\n")
	nested := filepath.Join(root, "project", "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	t.Chdir(nested)

	got, err := filepath.EvalSymlinks(FindConfigFile())
	require.NoError(t, err)
	want, err := filepath.EvalSymlinks(filepath.Join(root, "project", FileName))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFindConfigFile_FallsBackToUserConfigDir(t *testing.T) {
	root := t.TempDir()
	xdg := filepath.Join(root, "xdg")
	t.Setenv("XDG_CONFIG_HOME", xdg)
	writeFile(t, filepath.Join(xdg, "cowtree", FileName), "theme: mono\n")
	t.Chdir(root)

	assert.Equal(t, filepath.Join(xdg, "cowtree", FileName), FindConfigFile())

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "mono", cfg.Theme)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("all keys", func(t *testing.T) {
		path := filepath.Join(dir, "full.yaml")
		writeFile(t, path, "path: data/my.db\nb: 3\nsync: false\ntheme: mono\nno_color: true\ndebug: true\n")

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "data/my.db", cfg.Path)
		assert.Equal(t, 3, cfg.B)
		require.NotNil(t, cfg.Sync)
		assert.False(t, *cfg.Sync)
		require.NotNil(t, cfg.NoColor)
		assert.True(t, *cfg.NoColor)
		assert.Equal(t, path, cfg.File)
	})

	t.Run("explicit file must exist", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		writeFile(t, path, "b: [unterminated\n")
		_, err := LoadConfig(path)
		assert.ErrorContains(t, err, "parse config")
	})
}
