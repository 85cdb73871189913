package encoder

import (
	"fmt"
)

const (
	konamiKey  = "konami"
	konami2Key = "konami2"

	konamiMaxRun  = 0x7E
	konamiMaxCopy = 0x7E
	konamiCopy    = 0x80 // copy record opcode base, count is added
	konamiEnd     = 0xFF
)

// Konami encodes Konami RLE streams. The stream contains no address, it is
// decoded to wherever the decoder starts writing.
type Konami struct{}

// Key returns the format key.
func (Konami) Key() string {
	return konamiKey
}

// Encode compresses raw into a Konami RLE stream.
func (Konami) Encode(raw []byte, baseAddress int) ([]byte, error) {
	if err := checkRange(raw, baseAddress); err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(raw)/2+1)
	out = encodeKonamiRecords(out, raw)
	return append(out, konamiEnd), nil
}

// Konami2 encodes Konami RLE 2 streams as used by Life Force, which start
// with the little endian base address.
type Konami2 struct{}

// Key returns the format key.
func (Konami2) Key() string {
	return konami2Key
}

// Encode compresses raw into a Konami RLE 2 stream.
func (Konami2) Encode(raw []byte, baseAddress int) ([]byte, error) {
	if err := checkRange(raw, baseAddress); err != nil {
		return nil, err
	}
	// the header is only recognized for addresses $2000-$3FFF
	if baseAddress < 0x2000 {
		return nil, fmt.Errorf("%w: header address $%04X is below $2000", ErrAddressRange, baseAddress)
	}

	out := make([]byte, 0, len(raw)/2+3)
	out = append(out, byte(baseAddress), byte(baseAddress>>8))
	out = encodeKonamiRecords(out, raw)
	return append(out, konamiEnd), nil
}

// encodeKonamiRecords appends the repeat and copy records that both Konami
// variants share.
func encodeKonamiRecords(out, raw []byte) []byte {
	for i := 0; i < len(raw); {
		run := runLength(raw, i, len(raw))
		if run >= minRun {
			// runs longer than a record are split, the tail stays a repeat record
			for run > 0 {
				n := min(run, konamiMaxRun)
				out = append(out, byte(n), raw[i])
				i += n
				run -= n
			}
			continue
		}

		start := i
		for i < len(raw) && i-start < konamiMaxCopy && runLength(raw, i, minRun) < minRun {
			i++
		}
		out = append(out, byte(konamiCopy+i-start))
		out = append(out, raw[start:i]...)
	}
	return out
}
