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
	"github.com/ficlab/fic-etl/internal/transform"
)

func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		folder        = flag.String("folder", "", "folder containing raw extraction JSON")
		input         = flag.String("input", "", "alias for --folder")
		single        = flag.String("single", "", "transform a single raw JSON file")
		output        = flag.String("output", "", "directory for normalized JSON output (required)")
		workers       = flag.Int("workers", 0, "number of concurrent workers (default 3)")
		timeout       = flag.Duration("timeout", 0, "soft per-item timeout (0 disables)")
		skipList      = flag.String("skip-list", "", "path to a skip-list file")
		skipFiles     = flag.String("skip-files", "", "comma-separated keys to skip")
		resume        = flag.Bool("resume", false, "skip inputs whose transformed artifact already exists in --output")
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

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	items, err := catalog(*folder, *single)
	if err != nil {
		logger.Error("failed to build work item catalog", "error", err)
		os.Exit(batch.ExitFatal)
	}
	// The transform writes into the same kind of folder it reads from, so
	// its own previous outputs must never re-enter the catalog.
	items = batch.Exclude(items, constants.TransformedSuffix)

	skip, err := batch.BuildSkipSet(*skipList, *skipFiles)
	if err != nil {
		logger.Error("failed to read skip list", "error", err)
		os.Exit(batch.ExitFatal)
	}
	if *resume {
		done, err := batch.FromDir(*output, constants.SourceKeyFromTransformed)
		if err != nil {
			logger.Error("failed to scan output directory for resume", "error", err)
			os.Exit(batch.ExitFatal)
		}
		logger.Info("resuming previous run", "already_transformed", done.Len())
		skip.Union(done)
	}

	processor := transform.NewProcessor(*output, logger)
	runner := batch.NewRunner(processor, logger,
		batch.WithWorkers(*workers),
		batch.WithItemTimeout(*timeout))

	logger.Info("starting transform run",
		"items", len(items), "skipped_keys", skip.Len(), "output", *output)
	start := time.Now()
	summary := runner.Run(ctx, items, skip)
	logger.Info("transform run finished",
		"succeeded", summary.Succeeded, "failed", summary.Failed,
		"skipped", summary.Skipped, "elapsed", time.Since(start).String())

	batch.Print(os.Stdout, "TRANSFORMATION SUMMARY", summary)
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
	return batch.List(folder, constants.JSONExtensions...)
}
