// Package main implements the main entry point for the NES RLE graphics compression tool
package main

import (
	"context"
	"errors"
	"os"

	"github.com/retroenv/nesrle/internal/cli"
	"github.com/retroenv/nesrle/internal/config"
	"github.com/retroenv/nesrle/internal/pipeline"
	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/log"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	ctx := app.Context()

	opts, err := cli.ParseFlags(os.Stdout, os.Args, version)
	if err != nil {
		if errors.Is(err, cli.ErrInfoShown) {
			return
		}

		logger := config.CreateLogger(opts.Debug, opts.Quiet)
		var usageErr *cli.UsageError
		if errors.As(err, &usageErr) {
			pipeline.PrintBanner(logger, opts.Quiet, version, commit, date)
			logger.Error(usageErr.Error())
			usageErr.ShowUsage()
		} else {
			logger.Error("Parsing options failed", log.Err(err))
		}
		os.Exit(1)
	}

	logger := config.CreateLogger(opts.Debug, opts.Quiet)
	pipeline.PrintBanner(logger, opts.Quiet, version, commit, date)

	catalog, err := config.LoadCatalog(opts.Formats)
	if err != nil {
		logger.Error("Loading formats failed", log.Err(err))
		os.Exit(1)
	}

	p := pipeline.New(logger, catalog)
	if err := p.Execute(ctx, opts); err != nil {
		// Handle context cancellation (Ctrl+C) gracefully
		if errors.Is(err, context.Canceled) {
			logger.Info("Operation cancelled")
			return
		}
		logger.Error("Processing failed", log.String("mode", opts.Mode.String()), log.Err(err))
		os.Exit(1)
	}
}
