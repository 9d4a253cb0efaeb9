package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ficlab/fic-etl/constants"
	"github.com/ficlab/fic-etl/internal/batch"
	"github.com/ficlab/fic-etl/internal/common"
	"github.com/ficlab/fic-etl/internal/load"
	"github.com/ficlab/fic-etl/internal/repository"
)

func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		folder        = flag.String("folder", "", "folder containing normalized (transformed) JSON")
		input         = flag.String("input", "", "alias for --folder")
		single        = flag.String("single", "", "load a single transformed JSON file")
		workers       = flag.Int("workers", 0, "number of concurrent workers (default 3)")
		timeout       = flag.Duration("timeout", 0, "soft per-item timeout (0 disables)")
		skipList      = flag.String("skip-list", "", "path to a skip-list file")
		skipFiles     = flag.String("skip-files", "", "comma-separated keys to skip")
		doneList      = flag.String("done-list", "", "write processed keys here for later --skip-list use")
		includeFailed = flag.Bool("include-failed", false, "include failed keys in the done list")
		inmem         = flag.Bool("inmem", false, "use an in-memory SQLite database")
	)
	flag.Parse()

	if *folder == "" {
		*folder = *input
	}
	if *folder == "" && *single == "" {
		printError("Error: one of --folder or --single is required\n")
		os.Exit(batch.ExitFatal)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := common.LoadConfig()
	if !*inmem {
		if err := cfg.ValidateLoad(); err != nil {
			logger.Error("invalid configuration", "error", err)
			os.Exit(batch.ExitFatal)
		}
	}

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

	dbResult, err := common.InitDatabase(ctx, cfg, *inmem, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(batch.ExitFatal)
	}
	defer dbResult.Cleanup()

	if err := repository.Migrate(ctx, dbResult.DB, dbResult.Dialect); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(batch.ExitFatal)
	}

	funds := repository.NewFundRepository(dbResult.DB, logger)
	processor := load.NewProcessor(funds, logger)
	runner := batch.NewRunner(processor, logger,
		batch.WithWorkers(*workers),
		batch.WithItemTimeout(*timeout))

	logger.Info("starting load run", "items", len(items), "skipped_keys", skip.Len())
	start := time.Now()
	summary := runner.Run(ctx, items, skip)
	logger.Info("load run finished",
		"succeeded", summary.Succeeded, "failed", summary.Failed,
		"skipped", summary.Skipped, "elapsed", time.Since(start).String())

	batch.Print(os.Stdout, "LOAD SUMMARY", summary)
	if *doneList != "" {
		if err := batch.WriteDoneList(*doneList, summary, *includeFailed); err != nil {
			logger.Error("failed to write done list", "path", *doneList, "error", err)
		}
	}
	os.Exit(batch.ExitCode(summary))
}

// catalog keeps only transformed artifacts when enumerating a folder, since
// extract and transform outputs may share a directory.
func catalog(folder, single string) ([]batch.Item, error) {
	if single != "" {
		return batch.Single(single)
	}
	items, err := batch.List(folder, constants.JSONExtensions...)
	if err != nil {
		return nil, err
	}
	transformed := items[:0]
	for _, it := range items {
		if strings.HasSuffix(it.Path, constants.TransformedSuffix) {
			transformed = append(transformed, it)
		}
	}
	return transformed, nil
}
