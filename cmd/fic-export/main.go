package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ficlab/fic-etl/internal/common"
	"github.com/ficlab/fic-etl/internal/export"
	"github.com/ficlab/fic-etl/internal/repository"
)

func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		out     = flag.String("out", "funds.xlsx", "output XLSX file path")
		fromStr = flag.String("from", "", "from cutoff date YYYY-MM-DD")
		toStr   = flag.String("to", "", "to cutoff date YYYY-MM-DD")
		inmem   = flag.Bool("inmem", false, "use an in-memory SQLite database")
	)
	flag.Parse()

	var from, to *time.Time
	if *fromStr != "" {
		parsed, err := time.Parse("2006-01-02", *fromStr)
		if err != nil {
			printError("Error: invalid --from date format, use YYYY-MM-DD: %v\n", err)
			os.Exit(1)
		}
		from = &parsed
	}
	if *toStr != "" {
		parsed, err := time.Parse("2006-01-02", *toStr)
		if err != nil {
			printError("Error: invalid --to date format, use YYYY-MM-DD: %v\n", err)
			os.Exit(1)
		}
		to = &parsed
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	cfg := common.LoadConfig()
	if !*inmem {
		if err := cfg.ValidateLoad(); err != nil {
			logger.Error("invalid configuration", "error", err)
			os.Exit(1)
		}
	}

	dbResult, err := common.InitDatabase(ctx, cfg, *inmem, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer dbResult.Cleanup()

	funds := repository.NewFundRepository(dbResult.DB, logger)
	service := export.NewService(funds, logger)

	logger.Info("exporting funds to XLSX", "output", *out)
	xlsxBytes, err := service.ExportFundsXLSX(ctx, from, to)
	if err != nil {
		logger.Error("failed to export funds", "error", err)
		os.Exit(1)
	}

	if dir := filepath.Dir(*out); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Error("failed to create output directory", "dir", dir, "error", err)
			os.Exit(1)
		}
	}
	if err := os.WriteFile(*out, xlsxBytes, 0644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	logger.Info("export complete", "output_file", *out, "bytes", len(xlsxBytes))
	fmt.Printf("Export complete: %s\n", *out)
}
