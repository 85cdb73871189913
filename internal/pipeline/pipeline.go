// Package pipeline orchestrates the compression and decompression workflow stages.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/retroenv/nesrle/internal/decoder"
	"github.com/retroenv/nesrle/internal/encoder"
	"github.com/retroenv/nesrle/internal/filespec"
	"github.com/retroenv/nesrle/internal/format"
	"github.com/retroenv/nesrle/internal/loader"
	"github.com/retroenv/nesrle/internal/options"
	"github.com/retroenv/nesrle/internal/ppu"
	"github.com/retroenv/nesrle/internal/verification"
	"github.com/retroenv/retrogolib/log"
)

// ErrUnsupportedMode is returned for options without a mode to execute.
var ErrUnsupportedMode = errors.New("unsupported mode")

// Pipeline orchestrates the complete workflow.
type Pipeline struct {
	logger  *log.Logger
	catalog *format.Catalog
	loader  *loader.Loader
	decoder *decoder.Decoder
}

// New creates a new pipeline for the formats of the catalog.
func New(logger *log.Logger, catalog *format.Catalog) *Pipeline {
	return &Pipeline{
		logger:  logger,
		catalog: catalog,
		loader:  loader.New(),
		decoder: decoder.New(logger),
	}
}

// Execute runs the operation selected by the options.
func (p *Pipeline) Execute(ctx context.Context, opts options.Program) error {
	switch opts.Mode {
	case options.ModeCompress:
		return p.compress(ctx, opts)
	case options.ModeDecompress:
		return p.decompress(ctx, opts)
	case options.ModeList:
		p.ListFormats()
		return nil
	default:
		return fmt.Errorf("%w '%s'", ErrUnsupportedMode, opts.Mode)
	}
}

// ListFormats logs all formats of the catalog.
func (p *Pipeline) ListFormats() {
	for _, def := range p.catalog.Definitions() {
		encoding := "no"
		if _, err := encoder.ForFormat(def.Key()); err == nil {
			encoding = "yes"
		}
		p.logger.Info("Format",
			log.String("key", def.Key()),
			log.String("name", def.Name()),
			log.Int("operations", def.Len()),
			log.String("discouraged", joinInts(def.Discouraged())),
			log.String("compression", encoding))
	}
}

func (p *Pipeline) decompress(ctx context.Context, opts options.Program) error {
	def, err := p.catalog.Lookup(opts.Method)
	if err != nil {
		return fmt.Errorf("selecting format: %w", err)
	}

	// the input is decoded from its offset so that positions stay file offsets
	file := filespec.Spec{Path: opts.Input.Path}
	if opts.Input.Length > 0 {
		file.Length = opts.Input.Offset + opts.Input.Length
	}
	input, err := p.loader.Load(file)
	if err != nil {
		return fmt.Errorf("loading input: %w", err)
	}

	decodeOpts := decoder.DefaultOptions()
	decodeOpts.StartOffset = opts.Input.Offset
	decodeOpts.StartAddress = opts.PPUAddress
	decodeOpts.Fill = opts.Fill
	if opts.CHR != "" {
		decodeOpts.Pattern, err = p.loader.LoadPatternTables(opts.CHR)
		if err != nil {
			return fmt.Errorf("loading pattern tables: %w", err)
		}
	}

	p.logger.Info("Decompressing",
		log.String("input", opts.Input.String()),
		log.String("format", def.Name()),
		log.Hex("address", opts.PPUAddress))

	result, err := p.decoder.Decode(def, input, decodeOpts)
	if err != nil {
		if result != nil {
			return fmt.Errorf("decoding stopped after %d operations: %w", result.Operations, err)
		}
		return fmt.Errorf("decoding: %w", err)
	}

	p.logger.Info("Decompressed",
		log.Int("compressed size", result.Consumed(decodeOpts.StartOffset)),
		log.Hex("end offset", result.Position),
		log.Int("operations", result.Operations))
	if result.Truncated {
		p.logger.Warn("Copy operation ran out of input data")
	}
	if !result.Ended {
		p.logger.Warn("Input ended without an end operation")
	}

	if opts.Output != nil {
		if err := p.write(ctx, opts.Output.Target(), result.Image.Bytes()); err != nil {
			return err
		}
	}
	for _, output := range opts.Regions {
		data, err := ppu.Extract(result.Image.Bytes(), output.Region)
		if err != nil {
			return fmt.Errorf("extracting %s: %w", output.Region.Name, err)
		}
		if err := p.write(ctx, output.Target.Target(), data); err != nil {
			return fmt.Errorf("writing %s: %w", output.Region.Name, err)
		}
	}
	return nil
}

func (p *Pipeline) compress(ctx context.Context, opts options.Program) error {
	if opts.Output == nil {
		return errors.New("no output file given")
	}

	def, err := p.catalog.Lookup(opts.Method)
	if err != nil {
		return fmt.Errorf("selecting format: %w", err)
	}
	enc, err := encoder.ForFormat(def.Key())
	if err != nil {
		return fmt.Errorf("selecting encoder: %w", err)
	}

	raw, err := p.loader.Load(opts.Input)
	if err != nil {
		return fmt.Errorf("loading input: %w", err)
	}

	compressed, err := enc.Encode(raw, opts.PPUAddress)
	if err != nil {
		return fmt.Errorf("encoding: %w", err)
	}

	p.logger.Info("Compressed",
		log.String("input", opts.Input.String()),
		log.String("format", def.Name()),
		log.Int("input size", len(raw)),
		log.Int("compressed size", len(compressed)))

	if opts.Verify {
		if err := verification.VerifyCompressed(p.logger, def, compressed, raw, opts.PPUAddress); err != nil {
			return fmt.Errorf("verification failed: %w", err)
		}
		p.logger.Info("Verification successful")
	}

	return p.write(ctx, opts.Output.Target(), compressed)
}

func (p *Pipeline) write(ctx context.Context, target filespec.WriteTarget, data []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("writing %s: %w", target, err)
	}

	n, err := filespec.Write(target, data)
	if err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	p.logger.Info("Written output", log.String("file", target.String()), log.Int("bytes", n))
	if n < len(data) {
		p.logger.Warn("Output was cut to the target length",
			log.String("file", target.String()),
			log.Int("dropped", len(data)-n))
	}
	return nil
}

func joinInts(values []int) string {
	if len(values) == 0 {
		return "-"
	}
	s := make([]string, len(values))
	for i, value := range values {
		s[i] = fmt.Sprint(value)
	}
	return strings.Join(s, ",")
}
