// Package encoder implements greedy run-length compressors that produce
// streams for the formats of the built-in catalog.
package encoder

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/retroenv/nesrle/internal/ppu"
)

var (
	// ErrNoEncoder is returned for formats that can only be decoded.
	ErrNoEncoder = errors.New("no encoder for format")
	// ErrAddressRange is returned when the data does not fit into the
	// address space at the base address.
	ErrAddressRange = errors.New("data does not fit at base address")
)

// minRun is the shortest run that is emitted as a repeat record.
const minRun = 3

// Encoder compresses raw bytes into the stream of one format.
type Encoder interface {
	// Key returns the key of the format definition the stream decodes with.
	Key() string
	// Encode compresses raw data that is decoded to the base address.
	Encode(raw []byte, baseAddress int) ([]byte, error)
}

var encoders = map[string]Encoder{
	konamiKey:  Konami{},
	konami2Key: Konami2{},
	kemkoKey:   Kemko{},
}

// ForFormat returns the encoder for the case insensitive format key.
func ForFormat(key string) (Encoder, error) {
	enc, ok := encoders[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return nil, fmt.Errorf("%w '%s', supported formats: %s", ErrNoEncoder, key, strings.Join(Keys(), ", "))
	}
	return enc, nil
}

// Keys returns the sorted keys of all formats that can be encoded.
func Keys() []string {
	keys := make([]string, 0, len(encoders))
	for key := range encoders {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// runLength returns the number of consecutive bytes starting at index i that
// equal buf[i], at most limit.
func runLength(buf []byte, i, limit int) int {
	n := 1
	for i+n < len(buf) && n < limit && buf[i+n] == buf[i] {
		n++
	}
	return n
}

func checkRange(raw []byte, baseAddress int) error {
	if baseAddress < 0 || baseAddress >= ppu.Size || baseAddress+len(raw) > ppu.Size {
		return fmt.Errorf("%w: %d bytes at $%04X", ErrAddressRange, len(raw), baseAddress)
	}
	return nil
}
