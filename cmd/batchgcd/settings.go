package main

import (
	"runtime"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Settings are the tunables of one scan, loadable from a TOML file with
// command-line flags taking precedence.
type Settings struct {
	// Workers is the size of the worker pool shared by all phases.
	Workers int `toml:"workers"`
	// Base10 parses moduli in decimal instead of the default hex.
	Base10 bool `toml:"base10"`
	// Store is the directory backing the level store. Empty means a
	// temporary directory removed after the run.
	Store string `toml:"store"`
	// Out is the directory for compromised.csv and duplicates.csv.
	Out string `toml:"out"`
	// KeepStore leaves the persisted tree levels on disk after a
	// successful run.
	KeepStore bool `toml:"keepStore"`
	// Resolve runs the pairwise refinement scan over full-overlap leaves.
	Resolve bool `toml:"resolveOverlaps"`
	// Verbose enables per-level debug logging.
	Verbose bool `toml:"verbose"`
}

func defaultSettings() Settings {
	return Settings{
		Workers: runtime.NumCPU(),
		Out:     ".",
	}
}

func loadSettings(path string) (Settings, error) {
	s := defaultSettings()
	if path == "" {
		return s, nil
	}
	if _, err := toml.DecodeFile(path, &s); err != nil {
		return s, errors.Wrapf(err, "load settings %q", path)
	}
	return s, nil
}

func (s *Settings) base() int {
	if s.Base10 {
		return 10
	}
	return 16
}
