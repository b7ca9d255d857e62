package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"COWTREE_PATH", "COWTREE_B", "COWTREE_SYNC", "COWTREE_THEME",
		"COWTREE_NO_COLOR", "NO_COLOR", "COWTREE_DEBUG",
	} {
		t.Setenv(key, "")
	}
}

func boolPtr(b bool) *bool { return &b }

func TestResolve_Defaults(t *testing.T) {
	clearEnv(t)

	r, err := resolve(CliFlags{}, &AppConfig{})
	require.NoError(t, err)
	assert.Equal(t, DefaultPath, r.Path)
	assert.Equal(t, DefaultB, r.B)
	assert.True(t, r.Sync)
	assert.Equal(t, DefaultTheme, r.Theme)
	assert.False(t, r.NoColor)
	assert.False(t, r.Debug)
	for _, src := range []string{r.PathSource, r.BSource, r.SyncSource, r.ThemeSource, r.NoColorSource, r.DebugSource} {
		assert.Equal(t, SourceDefault, src)
	}
}

func TestResolve_PriorityOrder(t *testing.T) {
	file := &AppConfig{Path: "file.db", B: 3, Sync: boolPtr(false), Theme: "mono", NoColor: boolPtr(true), Debug: boolPtr(true)}

	tests := []struct {
		name  string
		flags CliFlags
		env   map[string]string
		check func(t *testing.T, r *ResolvedConfig)
	}{
		{
			name: "file beats defaults",
			check: func(t *testing.T, r *ResolvedConfig) {
				assert.Equal(t, "file.db", r.Path)
				assert.Equal(t, SourceFile, r.PathSource)
				assert.Equal(t, 3, r.B)
				assert.False(t, r.Sync)
				assert.True(t, r.Debug)
				assert.Equal(t, SourceFile, r.DebugSource)
			},
		},
		{
			name: "env beats file",
			env:  map[string]string{"COWTREE_PATH": "env.db", "COWTREE_B": "5", "COWTREE_SYNC": "true", "COWTREE_THEME": "default"},
			check: func(t *testing.T, r *ResolvedConfig) {
				assert.Equal(t, "env.db", r.Path)
				assert.Equal(t, SourceEnv, r.PathSource)
				assert.Equal(t, 5, r.B)
				assert.Equal(t, SourceEnv, r.BSource)
				assert.True(t, r.Sync)
				assert.Equal(t, "default", r.Theme)
			},
		},
		{
			name:  "cli beats env",
			flags: CliFlags{Path: "cli.db", PathSet: true, B: 2, BSet: true, NoColor: false, NoColorSet: true, Debug: false, DebugSet: true},
			env:   map[string]string{"COWTREE_PATH": "env.db", "COWTREE_B": "5", "NO_COLOR": "1", "COWTREE_DEBUG": "1"},
			check: func(t *testing.T, r *ResolvedConfig) {
				assert.Equal(t, "cli.db", r.Path)
				assert.Equal(t, SourceCLI, r.PathSource)
				assert.Equal(t, 2, r.B)
				assert.False(t, r.NoColor)
				assert.Equal(t, SourceCLI, r.NoColorSource)
				assert.False(t, r.Debug)
			},
		},
		{
			name: "NO_COLOR with any value",
			env:  map[string]string{"NO_COLOR": "yes please"},
			check: func(t *testing.T, r *ResolvedConfig) {
				assert.True(t, r.NoColor)
				assert.Equal(t, SourceEnv, r.NoColorSource)
			},
		},
		{
			name: "COWTREE_NO_COLOR false beats NO_COLOR",
			env:  map[string]string{"NO_COLOR": "1", "COWTREE_NO_COLOR": "false"},
			check: func(t *testing.T, r *ResolvedConfig) {
				assert.False(t, r.NoColor)
			},
		},
		{
			name:  "no-sync flag",
			flags: CliFlags{NoSync: true, NoSyncSet: true},
			check: func(t *testing.T, r *ResolvedConfig) {
				assert.False(t, r.Sync)
				assert.Equal(t, SourceCLI, r.SyncSource)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			r, err := resolve(tt.flags, file)
			require.NoError(t, err)
			tt.check(t, r)
		})
	}
}

func TestResolve_Validation(t *testing.T) {
	tests := []struct {
		name  string
		flags CliFlags
		env   map[string]string
		want  string
	}{
		{name: "b too small", flags: CliFlags{B: 1, BSet: true}, want: "b must be between"},
		{name: "b too large", flags: CliFlags{B: 500, BSet: true}, want: "b must be between"},
		{name: "bad b in env", env: map[string]string{"COWTREE_B": "eight"}, want: "COWTREE_B"},
		{name: "unknown theme", flags: CliFlags{Theme: "neon", ThemeSet: true}, want: "invalid theme"},
		{name: "empty path", flags: CliFlags{PathSet: true}, want: "path cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := resolve(tt.flags, &AppConfig{})
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestResolve_ReadsConfigFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	writeFile(t, path, "b: 4\ndebug: true\n")

	r, err := Resolve(CliFlags{ConfigFile: path})
	require.NoError(t, err)
	assert.Equal(t, 4, r.B)
	assert.True(t, r.Debug)
	assert.Equal(t, path, r.File)
}
