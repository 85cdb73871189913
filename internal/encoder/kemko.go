package encoder

const (
	kemkoKey = "kemko"

	kemkoMarker = 0xFF // starts a repeat or end record
	kemkoMaxRun = 0xFF
)

// Kemko encodes Kemko RLE streams.
type Kemko struct{}

// Key returns the format key.
func (Kemko) Key() string {
	return kemkoKey
}

// Encode compresses raw into a Kemko RLE stream. Literal bytes are stored
// as they are, except for the marker byte that is always stored as a repeat
// record.
func (Kemko) Encode(raw []byte, baseAddress int) ([]byte, error) {
	if err := checkRange(raw, baseAddress); err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(raw)+3)
	for i := 0; i < len(raw); {
		value := raw[i]
		run := runLength(raw, i, kemkoMaxRun)

		if run >= minRun || value == kemkoMarker {
			out = append(out, kemkoMarker, value, byte(run))
			i += run
			continue
		}

		for i < len(raw) && raw[i] != kemkoMarker && runLength(raw, i, minRun) < minRun {
			out = append(out, raw[i])
			i++
		}
	}

	return append(out, kemkoMarker, 0x00, 0x00), nil
}
