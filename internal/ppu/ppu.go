// Package ppu models the address space of the NES picture processing unit
// that decoded graphics data is written to.
package ppu

import (
	"errors"
	"fmt"
)

// Address space layout.
const (
	Size = 0x4000

	PatternTable0 = 0x0000
	PatternTable1 = 0x1000
	Nametable0    = 0x2000
	Nametable1    = 0x2400
	Nametable2    = 0x2800
	Nametable3    = 0x2C00
	BackgroundPal = 0x3F00
	SpritePal     = 0x3F10

	PatternTableSize = 0x1000
	NametableSize    = 0x0400
	TileAreaSize     = 0x03C0 // tile indexes of a nametable, followed by the attribute table
	PaletteSize      = 0x0010
)

// ErrImageSize is returned when a buffer is not a full image.
var ErrImageSize = errors.New("buffer is not a full PPU image")

// Image is a simulated PPU address space.
type Image [Size]byte

// NewImage returns an image with the tile areas of all four nametables
// set to the fill byte.
func NewImage(fill byte) *Image {
	img := &Image{}
	for _, base := range []int{Nametable0, Nametable1, Nametable2, Nametable3} {
		tiles := img[base : base+TileAreaSize]
		for i := range tiles {
			tiles[i] = fill
		}
	}
	return img
}

// Bytes returns the image as a byte slice sharing the image memory.
func (img *Image) Bytes() []byte {
	return img[:]
}

// Region is a named fixed window of the address space.
type Region struct {
	Name   string
	Offset int
	Size   int
}

func (r Region) String() string {
	return fmt.Sprintf("%s ($%04X-$%04X)", r.Name, r.Offset, r.Offset+r.Size-1)
}

// Regions that can be extracted from an image.
var (
	RegionPatternTable0 = Region{Name: "pt0", Offset: PatternTable0, Size: PatternTableSize}
	RegionPatternTable1 = Region{Name: "pt1", Offset: PatternTable1, Size: PatternTableSize}
	RegionNametable0    = Region{Name: "nt0", Offset: Nametable0, Size: NametableSize}
	RegionNametable1    = Region{Name: "nt1", Offset: Nametable1, Size: NametableSize}
	RegionNametable2    = Region{Name: "nt2", Offset: Nametable2, Size: NametableSize}
	RegionNametable3    = Region{Name: "nt3", Offset: Nametable3, Size: NametableSize}
	RegionBackgroundPal = Region{Name: "bkpal", Offset: BackgroundPal, Size: PaletteSize}
	RegionSpritePal     = Region{Name: "spritepal", Offset: SpritePal, Size: PaletteSize}
	RegionFull          = Region{Name: "ppudump", Offset: 0, Size: Size}
)

// Regions returns all known regions in address order, the full image last.
func Regions() []Region {
	return []Region{
		RegionPatternTable0,
		RegionPatternTable1,
		RegionNametable0,
		RegionNametable1,
		RegionNametable2,
		RegionNametable3,
		RegionBackgroundPal,
		RegionSpritePal,
		RegionFull,
	}
}

// Extract returns a copy of the region of a buffer that has to be a full image.
func Extract(buf []byte, region Region) ([]byte, error) {
	if len(buf) != Size {
		return nil, fmt.Errorf("%w: size is %d instead of %d", ErrImageSize, len(buf), Size)
	}
	if region.Offset < 0 || region.Size < 0 || region.Offset+region.Size > Size {
		return nil, fmt.Errorf("region %s is outside of the address space", region.Name)
	}

	data := make([]byte, region.Size)
	copy(data, buf[region.Offset:region.Offset+region.Size])
	return data, nil
}
