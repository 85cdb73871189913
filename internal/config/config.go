// Package config handles application configuration and setup
package config

import (
	"fmt"
	"os"

	"github.com/retroenv/nesrle/internal/format"
	"github.com/retroenv/retrogolib/log"
)

// CreateLogger creates a logger with appropriate settings
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

// LoadCatalog returns the built-in format catalog, extended by the
// definitions of the given YAML file if a path is set.
func LoadCatalog(formatsPath string) (*format.Catalog, error) {
	catalog, err := format.Builtin()
	if err != nil {
		return nil, fmt.Errorf("loading built-in formats: %w", err)
	}
	if formatsPath == "" {
		return catalog, nil
	}

	file, err := os.Open(formatsPath)
	if err != nil {
		return nil, fmt.Errorf("opening formats file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	defs, err := format.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parsing formats file '%s': %w", formatsPath, err)
	}
	extended, err := catalog.Extend(defs...)
	if err != nil {
		return nil, fmt.Errorf("extending formats: %w", err)
	}
	return extended, nil
}
