package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/scholarnotion/aggregator/pkg/aggregator"
	"github.com/scholarnotion/aggregator/pkg/config"
	"github.com/scholarnotion/aggregator/pkg/draft"
	"github.com/scholarnotion/aggregator/pkg/feed"
	"github.com/scholarnotion/aggregator/pkg/ledger"
)

// Opts with all CLI options
type Opts struct {
	Config       string `short:"c" long:"config" env:"CONFIG" default:"config.yml" description:"config file"`
	MaxPerSource int    `long:"max-per-source" env:"MAX_PER_SOURCE" default:"5" description:"max accepted entries per source per run"`
	Timeout      int    `long:"timeout" env:"TIMEOUT" default:"20" description:"feed fetch timeout, seconds"`
	DryRun       bool   `long:"dry-run" description:"report new items without writing archive or drafts"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	setupLog(opts.Debug)

	log.Printf("[INFO] starting aggregator version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	// config load failure is the only fatal error before fetching starts
	cfg, err := config.Load(opts.Config)
	if err != nil {
		log.Printf("[ERROR] failed to load config %s: %v", opts.Config, err)
		os.Exit(1)
	}

	runner := aggregator.NewRunner(aggregator.RunnerConfig{
		Sources:      cfg.Sources,
		Fetcher:      feed.NewFetcher(time.Duration(opts.Timeout)*time.Second, cfg.Fetch.UserAgent),
		Parser:       feed.NewParser(),
		Archive:      ledger.New(cfg.Paths.Archive),
		Drafter:      draft.NewMaterializer(cfg.Paths.Drafts),
		BatchPath:    cfg.Paths.Batch,
		MaxPerSource: opts.MaxPerSource,
		DryRun:       opts.DryRun,
	})

	res, err := runner.Run(ctx)
	cancel()

	if err != nil {
		log.Printf("[ERROR] run failed: %v", err)
		os.Exit(1)
	}

	if opts.DryRun {
		fmt.Printf("dry-run: %d new items\n", len(res.Batch))
		return
	}

	fmt.Printf("new_items=%d\n", len(res.Batch))
	fmt.Printf("drafts_created=%d\n", len(res.Drafts))
	for _, d := range res.Drafts {
		fmt.Printf("- %s\n", d)
	}
}

func setupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))
	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
