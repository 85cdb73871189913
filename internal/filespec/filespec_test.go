package filespec

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		text     string
		expected Spec
	}{
		{"rom.nes", Spec{Path: "rom.nes"}},
		{"rom.nes:0x10", Spec{Path: "rom.nes", Offset: 0x10}},
		{"rom.nes:$8010:1024", Spec{Path: "rom.nes", Offset: 0x8010, Length: 1024}},
		{"rom.nes:16:0x400", Spec{Path: "rom.nes", Offset: 16, Length: 0x400}},
		{`C:\roms\game.nes:0x10`, Spec{Path: `C:\roms\game.nes`, Offset: 0x10}},
		{"a:b", Spec{Path: "a:b"}},
		{"dir:1:2:3", Spec{Path: "dir:1", Offset: 2, Length: 3}},
		{"out.bin:10-20", Spec{Path: "out.bin:10-20"}},
		{"file:0x10:", Spec{Path: "file", Offset: 0x10}},
		{"rom.nes::0x400", Spec{Path: "rom.nes", Length: 0x400}},
		{"rom.nes:0X1F", Spec{Path: "rom.nes", Offset: 0x1F}},
		{"rom.nes:+5", Spec{Path: "rom.nes:+5"}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			spec, err := Parse(tt.text)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, spec)
		})
	}
}

func TestParseInvalid(t *testing.T) {
	for _, text := range []string{"", ":0x10", ":1:2"} {
		_, err := Parse(text)
		assert.True(t, errors.Is(err, ErrInvalidSpec), text)
	}
}

func TestSpecString(t *testing.T) {
	assert.Equal(t, "a.bin", Spec{Path: "a.bin"}.String())
	assert.Equal(t, "a.bin:0x10", Spec{Path: "a.bin", Offset: 16}.String())
	assert.Equal(t, "a.bin:0x0:0x400", Spec{Path: "a.bin", Length: 0x400}.String())
}

func TestSlice(t *testing.T) {
	data := []byte{0, 1, 2, 3, 4, 5}

	part, err := Spec{Offset: 2}.Slice(data)
	assert.NoError(t, err)
	assert.Equal(t, []byte{2, 3, 4, 5}, part)

	part, err = Spec{Offset: 1, Length: 2}.Slice(data)
	assert.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, part)

	_, err = Spec{Offset: 7}.Slice(data)
	assert.True(t, errors.Is(err, ErrInvalidSpec))
	_, err = Spec{Offset: 4, Length: 3}.Slice(data)
	assert.True(t, errors.Is(err, ErrInvalidSpec))
}

func TestWriteFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bin")
	assert.NoError(t, os.WriteFile(path, []byte{9, 9, 9, 9, 9}, 0o644))

	target := Spec{Path: path}.Target()
	_, ok := target.(Fresh)
	assert.True(t, ok)

	n, err := Write(target, []byte{1, 2})
	assert.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, data)
}

func TestWritePatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rom.nes")
	assert.NoError(t, os.WriteFile(path, make([]byte, 8), 0o644))

	tests := []struct {
		name     string
		spec     Spec
		written  int
		expected []byte
	}{
		{"until data ends", Spec{Path: path, Offset: 2}, 3, []byte{0, 0, 1, 2, 3, 0, 0, 0}},
		{"limited length", Spec{Path: path, Offset: 6, Length: 1}, 1, []byte{0, 0, 1, 2, 3, 0, 1, 0}},
		{"offset zero with length", Spec{Path: path, Length: 2}, 2, []byte{1, 2, 1, 2, 3, 0, 1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := tt.spec.Target()
			_, ok := target.(PatchInto)
			assert.True(t, ok)

			n, err := Write(target, []byte{1, 2, 3})
			assert.NoError(t, err)
			assert.Equal(t, tt.written, n)

			data, err := os.ReadFile(path)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, data)
		})
	}
}

func TestWritePatchMissingFile(t *testing.T) {
	target := PatchInto{Path: filepath.Join(t.TempDir(), "missing.nes"), Offset: 4}
	_, err := Write(target, []byte{1})
	assert.Error(t, err)
}
