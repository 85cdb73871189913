// Package cli handles command line interface logic
package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/retroenv/nesrle/internal/expression"
	"github.com/retroenv/nesrle/internal/filespec"
	"github.com/retroenv/nesrle/internal/options"
	"github.com/retroenv/nesrle/internal/ppu"
	"github.com/urfave/cli/v2"
)

// ErrInfoShown is returned when help or version information was printed
// instead of parsing options for a run.
var ErrInfoShown = errors.New("information shown")

// UsageError represents an error that should show usage information
type UsageError struct {
	ctx *cli.Context
	msg string
}

func (e *UsageError) Error() string {
	return e.msg
}

// ShowUsage prints the help text of the application.
func (e *UsageError) ShowUsage() {
	if e.ctx != nil {
		_ = cli.ShowAppHelp(e.ctx)
	}
}

const (
	flagCompress   = "compress"
	flagDecompress = "decompress"
	flagMethod     = "method"
	flagPPUAddress = "ppuaddr"
	flagOutput     = "outputfile"
	flagFill       = "fill"
	flagCHR        = "chr"
	flagFormats    = "formats"
	flagVerify     = "verify"
	flagList       = "list"
	flagDebug      = "debug"
	flagQuiet      = "quiet"
)

// ParseFlags parses the command line arguments, args[0] being the program
// name. Output of help and version information goes to w.
func ParseFlags(w io.Writer, args []string, version string) (options.Program, error) {
	var (
		opts   options.Program
		parsed bool
	)

	app := &cli.App{
		Name:            "nesrle",
		Usage:           "compress and decompress NES RLE graphics data",
		UsageText:       "nesrle --decompress:<file[:offset]> --method:<key> --nt0:<file> | --compress:<file[:offset[:length]]> --method:<key> --outputfile:<file>",
		Version:         version,
		Flags:           appFlags(),
		HideHelpCommand: true,
		Writer:          w,
		ErrWriter:       w,
		OnUsageError: func(ctx *cli.Context, err error, _ bool) error {
			return &UsageError{ctx: ctx, msg: err.Error()}
		},
		Action: func(ctx *cli.Context) error {
			parsed = true
			var err error
			opts, err = readOptions(ctx)
			return err
		},
	}

	if err := app.Run(NormalizeArgs(args)); err != nil {
		return opts, err
	}
	if !parsed {
		return opts, ErrInfoShown
	}
	return opts, nil
}

// NormalizeArgs converts flags written as --name:value to --name=value.
func NormalizeArgs(args []string) []string {
	normalized := make([]string, 0, len(args))
	for i, arg := range args {
		if i == 0 || !strings.HasPrefix(arg, "-") {
			normalized = append(normalized, arg)
			continue
		}

		colon := strings.IndexByte(arg, ':')
		equals := strings.IndexByte(arg, '=')
		if colon < 0 || (equals >= 0 && equals < colon) {
			normalized = append(normalized, arg)
			continue
		}
		normalized = append(normalized, arg[:colon]+"="+arg[colon+1:])
	}
	return normalized
}

func appFlags() []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{Name: flagCompress, Usage: "compress the `file[:offset[:length]]`"},
		&cli.StringFlag{Name: flagDecompress, Usage: "decompress the `file[:offset]`"},
		&cli.StringFlag{Name: flagMethod, Usage: "format `key` of the compression method"},
		&cli.StringFlag{Name: flagPPUAddress, Value: "0x2000", Usage: "PPU `address` that the data is decoded to or compressed from"},
		&cli.StringFlag{Name: flagOutput, Usage: "write the compressed stream or the decoded image to `file[:offset[:length]]`"},
		&cli.StringFlag{Name: flagFill, Value: "0", Usage: "`byte` that the nametable tile areas are filled with before decoding"},
		&cli.StringFlag{Name: flagCHR, Usage: "preload the pattern tables from the CHR ROM of an iNES `file`"},
		&cli.StringFlag{Name: flagFormats, Usage: "load additional format definitions from a YAML `file`"},
		&cli.BoolFlag{Name: flagVerify, Usage: "verify the compressed stream by decoding it and comparing to the input"},
		&cli.BoolFlag{Name: flagList, Usage: "list the supported formats"},
		&cli.BoolFlag{Name: flagDebug, Usage: "enable debug logging"},
		&cli.BoolFlag{Name: flagQuiet, Aliases: []string{"q"}, Usage: "quiet mode"},
	}

	for _, region := range ppu.Regions() {
		flags = append(flags, &cli.StringFlag{
			Name:  region.Name,
			Usage: fmt.Sprintf("write the decoded %s to `file[:offset[:length]]`", region),
		})
	}
	return flags
}

func readOptions(ctx *cli.Context) (options.Program, error) {
	opts := options.Program{
		Method:  ctx.String(flagMethod),
		CHR:     ctx.String(flagCHR),
		Formats: ctx.String(flagFormats),
		Verify:  ctx.Bool(flagVerify),
		Debug:   ctx.Bool(flagDebug),
		Quiet:   ctx.Bool(flagQuiet),
	}

	if ctx.NArg() > 0 {
		return opts, usageError(ctx, "unexpected argument '%s'", ctx.Args().First())
	}

	if ctx.Bool(flagList) {
		opts.Mode = options.ModeList
		return opts, nil
	}

	if err := readMode(ctx, &opts); err != nil {
		return opts, err
	}
	if opts.Method == "" {
		return opts, usageError(ctx, "no compression method given")
	}
	if err := readNumbers(ctx, &opts); err != nil {
		return opts, err
	}
	if err := readOutputs(ctx, &opts); err != nil {
		return opts, err
	}
	return opts, nil
}

func readMode(ctx *cli.Context, opts *options.Program) error {
	compress := ctx.String(flagCompress)
	decompress := ctx.String(flagDecompress)

	var input string
	switch {
	case compress != "" && decompress != "":
		return usageError(ctx, "--%s and --%s can not be combined", flagCompress, flagDecompress)
	case compress != "":
		opts.Mode = options.ModeCompress
		input = compress
	case decompress != "":
		opts.Mode = options.ModeDecompress
		input = decompress
	default:
		return usageError(ctx, "no input file given")
	}

	spec, err := filespec.Parse(input)
	if err != nil {
		return fmt.Errorf("parsing input file argument: %w", err)
	}
	opts.Input = spec
	return nil
}

func readNumbers(ctx *cli.Context, opts *options.Program) error {
	address, err := expression.Evaluate(ctx.String(flagPPUAddress))
	if err != nil {
		return fmt.Errorf("parsing --%s: %w", flagPPUAddress, err)
	}
	if address < 0 || address >= ppu.Size {
		return usageError(ctx, "PPU address $%X is outside of $0000-$%04X", address, ppu.Size-1)
	}
	opts.PPUAddress = address

	fill, err := expression.Evaluate(ctx.String(flagFill))
	if err != nil {
		return fmt.Errorf("parsing --%s: %w", flagFill, err)
	}
	if fill < 0 || fill > 0xFF {
		return usageError(ctx, "fill value %d is not a byte", fill)
	}
	opts.Fill = byte(fill)
	return nil
}

func readOutputs(ctx *cli.Context, opts *options.Program) error {
	if output := ctx.String(flagOutput); output != "" {
		spec, err := filespec.Parse(output)
		if err != nil {
			return fmt.Errorf("parsing --%s: %w", flagOutput, err)
		}
		opts.Output = &spec
	}

	for _, region := range ppu.Regions() {
		value := ctx.String(region.Name)
		if value == "" {
			continue
		}
		spec, err := filespec.Parse(value)
		if err != nil {
			return fmt.Errorf("parsing --%s: %w", region.Name, err)
		}
		opts.Regions = append(opts.Regions, options.RegionOutput{Region: region, Target: spec})
	}

	switch opts.Mode {
	case options.ModeCompress:
		if opts.Output == nil {
			return usageError(ctx, "compression needs an --%s", flagOutput)
		}
		if len(opts.Regions) > 0 {
			return usageError(ctx, "region outputs are only supported for decompression")
		}
	case options.ModeDecompress:
		if opts.Output == nil && len(opts.Regions) == 0 {
			return usageError(ctx, "decompression needs at least one output file")
		}
		if opts.Verify {
			return usageError(ctx, "--%s is only supported for compression", flagVerify)
		}
	}
	return nil
}

func usageError(ctx *cli.Context, format string, args ...any) error {
	return &UsageError{ctx: ctx, msg: fmt.Sprintf(format, args...)}
}
