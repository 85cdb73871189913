// Package verification verifies that a compressed stream recreates its input.
package verification

import (
	"errors"
	"fmt"

	"github.com/retroenv/nesrle/internal/decoder"
	"github.com/retroenv/nesrle/internal/format"
	"github.com/retroenv/retrogolib/log"
)

// ErrMismatch is returned when the decoded data differs from the input.
var ErrMismatch = errors.New("decoded data does not match input")

// maxReportedDiffs limits the logged offset mismatches.
const maxReportedDiffs = 10

// VerifyCompressed decodes the compressed stream with the format definition
// and checks that the bytes written from the base address equal the input.
func VerifyCompressed(logger *log.Logger, def *format.Definition, compressed, input []byte, baseAddress int) error {
	opts := decoder.DefaultOptions()
	opts.StartAddress = baseAddress

	dec := decoder.New(logger)
	result, err := dec.Decode(def, compressed, opts)
	if err != nil {
		return fmt.Errorf("decoding compressed data: %w", err)
	}
	if !result.Ended {
		return fmt.Errorf("%w: stream has no end marker", ErrMismatch)
	}
	if result.Position != len(compressed) {
		return fmt.Errorf("%w: decoding ended after %d of %d bytes", ErrMismatch, result.Position, len(compressed))
	}

	end := baseAddress + len(input)
	if end > len(result.Image) {
		return fmt.Errorf("%w: %d bytes do not fit at $%04X", ErrMismatch, len(input), baseAddress)
	}
	return checkBufferEqual(logger, input, result.Image[baseAddress:end], baseAddress)
}

func checkBufferEqual(logger *log.Logger, input, output []byte, baseAddress int) error {
	if len(input) != len(output) {
		return fmt.Errorf("%w: mismatched lengths, %d != %d", ErrMismatch, len(input), len(output))
	}

	var diffs uint64
	for i := range input {
		if input[i] == output[i] {
			continue
		}

		diffs++
		if diffs <= maxReportedDiffs {
			logger.Error("Offset mismatch",
				log.Hex("offset", i),
				log.Hex("address", baseAddress+i),
				log.Hex("expected", input[i]),
				log.Hex("got", output[i]))
		}
	}
	if diffs == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d offset mismatches", ErrMismatch, diffs)
}
