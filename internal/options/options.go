// Package options contains the program options.
package options

import (
	"github.com/retroenv/nesrle/internal/filespec"
	"github.com/retroenv/nesrle/internal/ppu"
)

// Mode selects the operation that the program performs.
type Mode int

// Program modes.
const (
	ModeNone Mode = iota
	ModeCompress
	ModeDecompress
	ModeList
)

func (m Mode) String() string {
	switch m {
	case ModeCompress:
		return "compress"
	case ModeDecompress:
		return "decompress"
	case ModeList:
		return "list"
	default:
		return "none"
	}
}

// RegionOutput is a PPU region that gets written to a target file.
type RegionOutput struct {
	Region ppu.Region
	Target filespec.Spec
}

// Program options of the tool.
type Program struct {
	Mode   Mode
	Input  filespec.Spec
	Method string

	PPUAddress int            // base address for compression and start address for decompression
	Output     *filespec.Spec // compressed stream or full decoded image
	Regions    []RegionOutput // decoded regions to write

	Fill    byte
	CHR     string // iNES file to preload the pattern tables from
	Formats string // YAML file with additional format definitions

	Verify bool
	Debug  bool
	Quiet  bool
}
