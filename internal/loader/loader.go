// Package loader handles reading the input files of the compression tool.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/retroenv/nesrle/internal/filespec"
	"github.com/retroenv/nesrle/internal/ppu"
	"github.com/retroenv/retrogolib/arch/system/nes/cartridge"
)

// ErrNoCHR is returned for cartridges without CHR ROM.
var ErrNoCHR = errors.New("cartridge has no CHR ROM")

// Loader handles loading input files from disk.
type Loader struct{}

// New creates a new loader.
func New() *Loader {
	return &Loader{}
}

// Load reads the file range described by the spec.
func (l *Loader) Load(spec filespec.Spec) ([]byte, error) {
	data, err := os.ReadFile(spec.Path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", spec.Path, err)
	}

	part, err := spec.Slice(data)
	if err != nil {
		return nil, fmt.Errorf("selecting input range: %w", err)
	}
	return part, nil
}

// LoadPatternTables reads an iNES ROM file and returns the start of its
// CHR ROM, at most the size of both pattern tables.
func (l *Loader) LoadPatternTables(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return l.PatternTablesFromBytes(data)
}

// PatternTablesFromBytes parses iNES ROM data and returns the start of its
// CHR ROM, at most the size of both pattern tables.
func (l *Loader) PatternTablesFromBytes(data []byte) ([]byte, error) {
	cart, err := cartridge.LoadFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("loading cartridge: %w", err)
	}
	if len(cart.CHR) == 0 {
		return nil, ErrNoCHR
	}

	size := min(len(cart.CHR), 2*ppu.PatternTableSize)
	chr := make([]byte, size)
	copy(chr, cart.CHR)
	return chr, nil
}
