// Package config resolves settings for the provenance CLI. Values come
// from three layers: built-in defaults, an optional TOML file, and
// PROVENANCE_* environment variables, each layer overriding the last.
//
// Only the CLI reads configuration. Library callers wire tools and
// options explicitly.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// EnvConfigPath names the environment variable that points at an
// alternate config file.
const EnvConfigPath = "PROVENANCE_CONFIG"

// Config carries tool locations and output settings for the CLI.
type Config struct {
	// GitBin is the executable invoked for repository inspection.
	GitBin string `toml:"git_bin" env:"PROVENANCE_GIT_BIN"`

	// PipBin is the executable invoked to list installed packages.
	PipBin string `toml:"pip_bin" env:"PROVENANCE_PIP_BIN"`

	// PipArgs are the arguments passed to PipBin. The environment
	// form is space-separated.
	PipArgs []string `toml:"pip_args" env:"PROVENANCE_PIP_ARGS" envSeparator:" "`

	// Format selects the default render format, "json" or "yaml".
	Format string `toml:"format" env:"PROVENANCE_FORMAT"`

	// CPUInfo includes the processor record in snapshots.
	CPUInfo bool `toml:"cpuinfo" env:"PROVENANCE_CPUINFO"`

	// Packages records the installed package list in every snapshot.
	Packages bool `toml:"packages" env:"PROVENANCE_PACKAGES"`

	// HistoryDir is where saved snapshots are kept. Empty selects
	// ~/.provenance/history.
	HistoryDir string `toml:"history_dir" env:"PROVENANCE_HISTORY_DIR"`
}

// Default returns the configuration used when no file and no
// environment overrides are present.
func Default() Config {
	return Config{
		GitBin:  "git",
		PipBin:  "pip",
		PipArgs: []string{"freeze", "-qq"},
		Format:  "json",
		CPUInfo: true,
	}
}

// DefaultPath returns the conventional config file location,
// ~/.config/provenance/config.toml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "provenance", "config.toml")
	}
	return filepath.Join(home, ".config", "provenance", "config.toml")
}

// ResolvePath picks the config file to load: the explicit flag value if
// set, else $PROVENANCE_CONFIG from environ, else DefaultPath.
func ResolvePath(flagValue string, environ []string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := lookup(environ, EnvConfigPath); v != "" {
		return v
	}
	return DefaultPath()
}

// Load builds the effective configuration: Default, overlaid by the
// TOML file at path when one exists, overlaid by PROVENANCE_* variables
// from environ. A missing file is not an error; an unreadable or
// malformed one is.
func Load(path string, environ []string) (Config, error) {
	cfg := Default()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	err := env.ParseWithOptions(&cfg, env.Options{Environment: environMap(environ)})
	if err != nil {
		return Config{}, fmt.Errorf("apply environment overrides: %w", err)
	}

	return cfg, nil
}

// environMap converts os.Environ form ("KEY=value" entries) into a
// lookup map for env.Options.
func environMap(environ []string) map[string]string {
	m := make(map[string]string, len(environ))
	for _, entry := range environ {
		if k, v, ok := strings.Cut(entry, "="); ok {
			m[k] = v
		}
	}
	return m
}

func lookup(environ []string, key string) string {
	prefix := key + "="
	for _, entry := range environ {
		if v, ok := strings.CutPrefix(entry, prefix); ok {
			return v
		}
	}
	return ""
}
