// Package decoder implements the table driven decoder that interprets the
// operations of a format definition against a compressed byte stream.
package decoder

import (
	"errors"
	"fmt"

	"github.com/retroenv/nesrle/internal/format"
	"github.com/retroenv/nesrle/internal/ppu"
	"github.com/retroenv/retrogolib/log"
)

var (
	// ErrInvalidOperation is returned when the bytes at the decode cursor
	// match no operation of the format.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrStartOffset is returned for a start offset outside of the input.
	ErrStartOffset = errors.New("start offset outside of input")
)

// DefaultStartAddress is the output address a decode run starts at.
const DefaultStartAddress = ppu.Nametable0

// Options control a decode run.
type Options struct {
	StartOffset  int    // input position to start decoding at
	StartAddress int    // initial output address
	Fill         byte   // pre-fill value of the nametable tile areas
	Pattern      []byte // pattern table data preloaded at address 0
}

// DefaultOptions returns the options for decoding from the input start.
func DefaultOptions() Options {
	return Options{
		StartAddress: DefaultStartAddress,
	}
}

// Result is the outcome of a decode run.
type Result struct {
	Image *ppu.Image

	Position      int  // input position the decoding stopped at
	Operations    int  // number of executed operations
	SkippedWrites int  // writes outside of the address space
	Truncated     bool // a copy ran out of input
	Ended         bool // an end operation was reached
}

// Consumed returns the number of input bytes that were decoded.
func (r *Result) Consumed(startOffset int) int {
	return r.Position - startOffset
}

// Decoder decodes compressed streams into PPU images.
type Decoder struct {
	logger *log.Logger
}

// New returns a new decoder.
func New(logger *log.Logger) *Decoder {
	return &Decoder{
		logger: logger,
	}
}

type state struct {
	logger *log.Logger
	def    *format.Definition
	ops    []format.Operation
	input  []byte
	result *Result

	position int
	address  int
	atStart  bool
	finished bool
}

// Decode decodes the input using the operations of the format definition.
// On an ErrInvalidOperation error the partially decoded result is returned
// together with the error.
func (d *Decoder) Decode(def *format.Definition, input []byte, opts Options) (*Result, error) {
	if opts.StartOffset < 0 || opts.StartOffset > len(input) {
		return nil, fmt.Errorf("%w: offset %d, input size %d", ErrStartOffset, opts.StartOffset, len(input))
	}

	img := ppu.NewImage(opts.Fill)
	copy(img[:ppu.Nametable0], opts.Pattern)

	s := &state{
		logger:   d.logger,
		def:      def,
		ops:      def.Operations(),
		input:    input,
		result:   &Result{Image: img},
		position: opts.StartOffset,
		address:  opts.StartAddress,
		atStart:  true,
	}

	for s.position < len(s.input) && !s.finished {
		if err := s.pass(); err != nil {
			s.result.Position = s.position
			return s.result, err
		}
	}

	s.result.Position = min(s.position, len(s.input))
	if s.result.SkippedWrites > 0 {
		d.logger.Warn("Skipped writes outside of the PPU address space",
			log.String("format", def.Key()),
			log.Int("count", s.result.SkippedWrites))
	}
	return s.result, nil
}

// pass scans the operation list once. Operations are tried in order, the
// scan ends after the first matching operation unless that operation is a
// no-break address operation, in which case the scan continues with the next
// operation at the advanced cursor.
func (s *state) pass() error {
	startPosition := s.position
	fired := false

	for i := range s.ops {
		op := &s.ops[i]
		lookahead := format.NewLookahead(s.input, s.position)
		if !op.Matches(lookahead, s.atStart) {
			continue
		}

		fired = true
		continueScan, err := s.execute(op, lookahead)
		if err != nil {
			return err
		}
		if !continueScan {
			break
		}
	}

	if !fired {
		return fmt.Errorf("%w: no '%s' operation matches bytes [% X] at offset $%04X",
			ErrInvalidOperation, s.def.Key(), s.lookaheadBytes(), s.position)
	}
	if s.position == startPosition && !s.finished {
		return fmt.Errorf("%w: '%s' operations at offset $%04X do not consume input",
			ErrInvalidOperation, s.def.Key(), s.position)
	}
	return nil
}

// execute applies an operation and returns whether the operation scan of
// the current pass continues.
func (s *state) execute(op *format.Operation, lookahead format.Lookahead) (bool, error) {
	values, err := op.Evaluate(lookahead)
	if err != nil {
		return false, fmt.Errorf("operation %s at offset $%04X: %w", op, s.position, err)
	}
	if values.Size < 0 {
		return false, fmt.Errorf("%w: operation %s at offset $%04X has negative size %d",
			ErrInvalidOperation, op, s.position, values.Size)
	}

	noBreak := op.Kind == format.Address && op.NoBreak
	if !noBreak {
		s.atStart = false
	}
	s.result.Operations++

	switch op.Kind {
	case format.Address:
		s.address = values.Operands[0]
		s.logger.Debug("Output address set",
			log.Hex("offset", s.position),
			log.Hex("address", s.address))

	case format.Repeat:
		value, count := byte(values.Operands[0]), values.Operands[1]
		s.repeat(value, count, values.Step)

	case format.Copy:
		count, offset := values.Operands[0], values.Operands[1]
		s.copy(count, offset, values.Step)

	case format.End:
		s.finished = true
		s.result.Ended = true
	}

	s.position += values.Size
	return noBreak, nil
}

func (s *state) repeat(value byte, count, step int) {
	firstAddress := s.address
	skipped := 0
	for j := 0; j < count; j++ {
		if !s.write(value) {
			skipped++
		}
		s.address += step
	}
	s.logSkipped(firstAddress, skipped)
}

func (s *state) copy(count, offset, step int) {
	firstAddress := s.address
	skipped := 0
	for j := 0; j < count; j++ {
		source := s.position + j + offset
		if source < 0 || source >= len(s.input) {
			s.logger.Debug("Copy source exceeds input, ending decoding",
				log.Hex("offset", s.position),
				log.Int("copied", j),
				log.Int("requested", count))
			s.result.Truncated = true
			s.finished = true
			break
		}

		if !s.write(s.input[source]) {
			skipped++
		}
		s.address += step
	}
	s.logSkipped(firstAddress, skipped)
}

// write stores a byte at the current output address and returns false if
// the address is outside of the address space.
func (s *state) write(value byte) bool {
	if s.address < 0 || s.address >= ppu.Size {
		s.result.SkippedWrites++
		return false
	}
	s.result.Image[s.address] = value
	return true
}

func (s *state) logSkipped(firstAddress, skipped int) {
	if skipped == 0 {
		return
	}
	s.logger.Debug("Skipped out of bounds writes",
		log.Hex("offset", s.position),
		log.Hex("address", firstAddress),
		log.Int("count", skipped))
}

func (s *state) lookaheadBytes() []byte {
	if s.position >= len(s.input) {
		return nil
	}
	end := min(s.position+format.LookaheadSize, len(s.input))
	return s.input[s.position:end]
}
