package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dkoosis/cowtree/pkg/btree"
)

// FileName is the name of the config file looked up by LoadConfig.
const FileName = ".cowtree.yaml"

// Defaults.
const (
	DefaultPath  = "cowtree.db"
	DefaultB     = btree.DefaultB
	DefaultTheme = "default"
)

// AppConfig mirrors .cowtree.yaml. Pointer fields distinguish "unset" from
// the zero value.
type AppConfig struct {
	Path    string `yaml:"path"`
	B       int    `yaml:"b"`
	Sync    *bool  `yaml:"sync"`
	Theme   string `yaml:"theme"`
	NoColor *bool  `yaml:"no_color"`
	Debug   *bool  `yaml:"debug"`

	// File is where the config was read from; empty when none was found.
	File string `yaml:"-"`
}

// LoadConfig reads the config file. An explicit path must exist; otherwise
// the file is discovered with FindConfigFile and a missing file yields an
// empty AppConfig.
func LoadConfig(explicit string) (*AppConfig, error) {
	path := explicit
	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return &AppConfig{}, nil
		}
	}

	data, err := os.ReadFile(path) // #nosec G304 - user-selected config file
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.File = path
	return &cfg, nil
}

// FindConfigFile looks for .cowtree.yaml in the working directory and its
// parents, then in the user config directory. It returns "" when there is
// none.
func FindConfigFile() string {
	if dir, err := os.Getwd(); err == nil {
		if path := walkUp(dir); path != "" {
			return path
		}
	}

	configHome, err := os.UserConfigDir()
	if err != nil || configHome == "" || configHome == "/" {
		return ""
	}
	path := filepath.Join(configHome, "cowtree", FileName)
	if isFile(path) {
		return path
	}
	return ""
}

func walkUp(dir string) string {
	for {
		path := filepath.Join(dir, FileName)
		if isFile(path) {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
