package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/dkoosis/cowtree/internal/render"
	"github.com/dkoosis/cowtree/pkg/btree"
)

// Value sources, highest priority first.
const (
	SourceCLI     = "cli"
	SourceEnv     = "env"
	SourceFile    = "file"
	SourceDefault = "default"
)

// CliFlags holds command-line flag values. The *Set fields record whether the
// user passed the flag explicitly.
type CliFlags struct {
	ConfigFile string

	Path    string
	B       int
	NoSync  bool
	Theme   string
	NoColor bool
	Debug   bool

	PathSet    bool
	BSet       bool
	NoSyncSet  bool
	ThemeSet   bool
	NoColorSet bool
	DebugSet   bool
}

// ResolvedConfig is the final configuration.
type ResolvedConfig struct {
	Path    string
	B       int
	Sync    bool
	Theme   string
	NoColor bool
	Debug   bool

	// File is the config file that was read, if any.
	File string

	PathSource    string
	BSource       string
	SyncSource    string
	ThemeSource   string
	NoColorSource string
	DebugSource   string
}

// Resolve merges flags, environment, config file and defaults.
func Resolve(flags CliFlags) (*ResolvedConfig, error) {
	file, err := LoadConfig(flags.ConfigFile)
	if err != nil {
		return nil, err
	}
	return resolve(flags, file)
}

func resolve(flags CliFlags, file *AppConfig) (*ResolvedConfig, error) {
	r := &ResolvedConfig{File: file.File}

	r.Path, r.PathSource = resolveString(flags.PathSet, flags.Path, "COWTREE_PATH", file.Path, DefaultPath)
	r.Theme, r.ThemeSource = resolveString(flags.ThemeSet, flags.Theme, "COWTREE_THEME", file.Theme, DefaultTheme)

	switch {
	case flags.BSet:
		r.B, r.BSource = flags.B, SourceCLI
	case os.Getenv("COWTREE_B") != "":
		b, err := strconv.Atoi(os.Getenv("COWTREE_B"))
		if err != nil {
			return nil, fmt.Errorf("COWTREE_B: %w", err)
		}
		r.B, r.BSource = b, SourceEnv
	case file.B != 0:
		r.B, r.BSource = file.B, SourceFile
	default:
		r.B, r.BSource = DefaultB, SourceDefault
	}

	r.Sync, r.SyncSource = true, SourceDefault
	if flags.NoSyncSet {
		r.Sync, r.SyncSource = !flags.NoSync, SourceCLI
	} else if v := envBool("COWTREE_SYNC"); v != nil {
		r.Sync, r.SyncSource = *v, SourceEnv
	} else if file.Sync != nil {
		r.Sync, r.SyncSource = *file.Sync, SourceFile
	}

	r.NoColor, r.NoColorSource = false, SourceDefault
	if flags.NoColorSet {
		r.NoColor, r.NoColorSource = flags.NoColor, SourceCLI
	} else if v := envBool("COWTREE_NO_COLOR"); v != nil {
		r.NoColor, r.NoColorSource = *v, SourceEnv
	} else if os.Getenv("NO_COLOR") != "" {
		r.NoColor, r.NoColorSource = true, SourceEnv
	} else if file.NoColor != nil {
		r.NoColor, r.NoColorSource = *file.NoColor, SourceFile
	}

	r.Debug, r.DebugSource = false, SourceDefault
	if flags.DebugSet {
		r.Debug, r.DebugSource = flags.Debug, SourceCLI
	} else if raw := os.Getenv("COWTREE_DEBUG"); raw != "" {
		v, err := strconv.ParseBool(raw)
		r.Debug, r.DebugSource = err != nil || v, SourceEnv
	} else if file.Debug != nil {
		r.Debug, r.DebugSource = *file.Debug, SourceFile
	}

	if err := validate(r); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return r, nil
}

func resolveString(cliSet bool, cli, envKey, file, def string) (string, string) {
	if cliSet {
		return cli, SourceCLI
	}
	if v := os.Getenv(envKey); v != "" {
		return v, SourceEnv
	}
	if file != "" {
		return file, SourceFile
	}
	return def, SourceDefault
}

// envBool reads a boolean environment variable. It returns nil when the
// variable is unset or not a boolean.
func envBool(key string) *bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return &b
		}
	}
	return nil
}

func validate(r *ResolvedConfig) error {
	if r.Path == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if r.B < btree.MinB || r.B > btree.MaxB() {
		return fmt.Errorf("b must be between %d and %d, got %d (from %s)", btree.MinB, btree.MaxB(), r.B, r.BSource)
	}
	if names := render.ThemeNames(); !slices.Contains(names, r.Theme) {
		return fmt.Errorf("invalid theme %q (from %s): must be one of %s", r.Theme, r.ThemeSource, strings.Join(names, ", "))
	}
	return nil
}
