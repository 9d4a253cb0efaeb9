package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ficlab/fic-etl/constants"
	"github.com/ficlab/fic-etl/internal/batch"
	"github.com/ficlab/fic-etl/internal/common"
	"github.com/ficlab/fic-etl/internal/extract"
	"github.com/ficlab/fic-etl/internal/gemini"
	"github.com/ficlab/fic-etl/internal/whisper"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	// Parse CLI flags
	var (
		folder        = flag.String("folder", "", "folder containing factsheet PDFs")
		input         = flag.String("input", "", "alias for --folder")
		single        = flag.String("single", "", "process a single PDF instead of a folder")
		output        = flag.String("output", "", "directory for raw JSON output (required)")
		workers       = flag.Int("workers", 0, "number of concurrent workers (default 3)")
		timeout       = flag.Duration("timeout", 0, "soft per-item timeout, e.g. 8m (0 disables)")
		skipList      = flag.String("skip-list", "", "path to a skip-list file")
		skipFiles     = flag.String("skip-files", "", "comma-separated keys to skip")
		doneList      = flag.String("done-list", "", "write processed keys here for later --skip-list use")
		includeFailed = flag.Bool("include-failed", false, "include failed keys in the done list")
	)
	flag.Parse()

	if *folder == "" {
		*folder = *input
	}
	if *folder == "" && *single == "" {
		printError("Error: one of --folder or --single is required\n")
		os.Exit(batch.ExitFatal)
	}
	if *output == "" {
		printError("Error: --output is required\n")
		os.Exit(batch.ExitFatal)
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := common.LoadConfig()
	if err := cfg.ValidateExtract(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(batch.ExitFatal)
	}

	// Build the item catalog before touching any collaborator so a bad
	// folder or skip list fails the run up front.
	items, err := catalog(*folder, *single)
	if err != nil {
		logger.Error("failed to build work item catalog", "error", err)
		os.Exit(batch.ExitFatal)
	}
	skip, err := batch.BuildSkipSet(*skipList, *skipFiles)
	if err != nil {
		logger.Error("failed to read skip list", "error", err)
		os.Exit(batch.ExitFatal)
	}

	texts := whisper.NewClient(whisper.Config{
		BaseURL:      cfg.Whisper.BaseURL,
		APIKey:       cfg.Whisper.APIKey,
		PollInterval: cfg.Whisper.PollInterval,
		MaxWait:      cfg.Whisper.MaxWait,
	}, logger)
	structurer := gemini.NewClient(gemini.Config{
		BaseURL: cfg.Gemini.BaseURL,
		APIKey:  cfg.Gemini.APIKey,
		Model:   cfg.Gemini.Model,
		Timeout: cfg.Gemini.Timeout,
	}, logger)

	processor := extract.NewProcessor(texts, structurer, *output, logger,
		extract.WithMaxRetries(cfg.Whisper.MaxRetries))

	runner := batch.NewRunner(processor, logger,
		batch.WithWorkers(*workers),
		batch.WithItemTimeout(*timeout))

	logger.Info("starting extract run",
		"items", len(items), "skipped_keys", skip.Len(), "output", *output)
	start := time.Now()
	summary := runner.Run(ctx, items, skip)
	logger.Info("extract run finished",
		"succeeded", summary.Succeeded, "failed", summary.Failed,
		"skipped", summary.Skipped, "elapsed", time.Since(start).String())

	batch.Print(os.Stdout, "EXTRACTION SUMMARY", summary)
	if *doneList != "" {
		if err := batch.WriteDoneList(*doneList, summary, *includeFailed); err != nil {
			logger.Error("failed to write done list", "path", *doneList, "error", err)
		}
	}
	os.Exit(batch.ExitCode(summary))
}

func catalog(folder, single string) ([]batch.Item, error) {
	if single != "" {
		return batch.Single(single)
	}
	return batch.List(folder, constants.ExtractExtensions...)
}
