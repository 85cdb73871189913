package ppu

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestNewImageFill(t *testing.T) {
	img := NewImage(0x24)

	assert.Equal(t, byte(0), img[PatternTable0])
	assert.Equal(t, byte(0x24), img[Nametable0])
	assert.Equal(t, byte(0x24), img[Nametable0+TileAreaSize-1])
	// attribute tables are not filled
	assert.Equal(t, byte(0), img[Nametable0+TileAreaSize])
	assert.Equal(t, byte(0x24), img[Nametable3+TileAreaSize-1])
	assert.Equal(t, byte(0), img[Nametable3+TileAreaSize])
	assert.Equal(t, byte(0), img[BackgroundPal])
}

func TestExtract(t *testing.T) {
	img := NewImage(0)
	for i := range img {
		img[i] = byte(i >> 8)
	}

	tests := []struct {
		region Region
		first  byte
		size   int
	}{
		{RegionPatternTable1, 0x10, PatternTableSize},
		{RegionNametable0, 0x20, NametableSize},
		{RegionNametable1, 0x24, NametableSize},
		{RegionNametable2, 0x28, NametableSize},
		{RegionNametable3, 0x2C, NametableSize},
		{RegionBackgroundPal, 0x3F, PaletteSize},
		{RegionSpritePal, 0x3F, PaletteSize},
		{RegionFull, 0x00, Size},
	}

	for _, tt := range tests {
		t.Run(tt.region.Name, func(t *testing.T) {
			data, err := Extract(img.Bytes(), tt.region)
			assert.NoError(t, err)
			assert.Equal(t, tt.size, len(data))
			assert.Equal(t, tt.first, data[0])
		})
	}
}

func TestExtractCopies(t *testing.T) {
	img := NewImage(0x01)
	data, err := Extract(img.Bytes(), RegionNametable0)
	assert.NoError(t, err)
	data[0] = 0xFF
	assert.Equal(t, byte(0x01), img[Nametable0])
}

func TestExtractErrors(t *testing.T) {
	_, err := Extract(make([]byte, Size-1), RegionNametable0)
	assert.True(t, errors.Is(err, ErrImageSize))

	_, err = Extract(make([]byte, Size), Region{Name: "beyond", Offset: SpritePal, Size: NametableSize})
	assert.ErrorContains(t, err, "outside of the address space")
	assert.Equal(t, "nt1 ($2400-$27FF)", RegionNametable1.String())
}
