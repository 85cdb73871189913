package verification

import (
	"errors"
	"testing"

	"github.com/retroenv/nesrle/internal/format"
	"github.com/retroenv/nesrle/internal/ppu"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

// newMismatchLogger returns a logger for paths that log mismatches at error
// level, which would fail a test logger.
func newMismatchLogger() *log.Logger {
	return log.NewWithConfig(log.DefaultConfig())
}

func TestVerifyCompressed(t *testing.T) {
	catalog, err := format.Builtin()
	assert.NoError(t, err)
	def, err := catalog.Lookup("konami")
	assert.NoError(t, err)

	input := []byte{0x01, 0x02, 0x03, 0x03, 0x03}

	tests := []struct {
		name       string
		compressed []byte
		address    int
		wantErr    bool
	}{
		{"matching stream", []byte{0x82, 0x01, 0x02, 0x03, 0x03, 0xFF}, ppu.Nametable0, false},
		{"matching stream at other nametable", []byte{0x82, 0x01, 0x02, 0x03, 0x03, 0xFF}, ppu.Nametable2, false},
		{"wrong value", []byte{0x82, 0x01, 0x02, 0x03, 0x04, 0xFF}, ppu.Nametable0, true},
		{"missing end", []byte{0x82, 0x01, 0x02, 0x03, 0x03}, ppu.Nametable0, true},
		{"trailing data", []byte{0x82, 0x01, 0x02, 0x03, 0x03, 0xFF, 0x00}, ppu.Nametable0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := log.NewTestLogger(t)
			if tt.wantErr {
				logger = newMismatchLogger()
			}

			err := VerifyCompressed(logger, def, tt.compressed, input, tt.address)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrMismatch))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCheckBufferEqual(t *testing.T) {
	assert.NoError(t, checkBufferEqual(log.NewTestLogger(t), []byte{1, 2}, []byte{1, 2}, 0))

	logger := newMismatchLogger()

	err := checkBufferEqual(logger, []byte{1, 2}, []byte{1}, 0)
	assert.ErrorContains(t, err, "mismatched lengths")

	err = checkBufferEqual(logger, []byte{1, 2, 3}, []byte{0, 2, 0}, 0x2000)
	assert.ErrorContains(t, err, "2 offset mismatches")
}
