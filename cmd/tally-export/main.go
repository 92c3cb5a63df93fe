// tally-export renders a backup or statement from the command line, without
// going through the HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"tally/internal/config"
	"tally/internal/core"
	"tally/internal/services"
	"tally/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	var (
		monthFlag  = flag.String("month", "", "statement month as YYYY-MM (default: previous month)")
		formatFlag = flag.String("format", "pdf", "output format: pdf or json")
		outFlag    = flag.String("out", "", "output directory (default: EXPORT_DIR)")
	)
	flag.Parse()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fatal("invalid configuration: %v", err)
	}
	if *outFlag != "" {
		cfg.ExportDir = *outFlag
		if err := os.MkdirAll(cfg.ExportDir, 0755); err != nil {
			fatal("create output directory: %v", err)
		}
	}

	month := previousMonth()
	if *monthFlag != "" {
		parsed, err := core.ParseYearMonth(*monthFlag)
		if err != nil {
			fatal("invalid -month: %v", err)
		}
		month = parsed
	}

	store, err := storage.Open(cfg.SQLiteDBPath)
	if err != nil {
		fatal("open store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	tracker := services.NewTracker(
		store,
		storage.NewTransactionRepository(ctx, store),
		storage.NewPlannedExpenseRepository(ctx, store),
		nil,
		cfg.ExportDir,
	)

	switch *formatFlag {
	case "pdf":
		path, err := tracker.SaveMonthStatement(ctx, month)
		if err != nil {
			fatal("export statement: %v", err)
		}
		fmt.Println(path)

	case "json":
		name, data, err := tracker.ExportJSON(ctx)
		if err != nil {
			fatal("export backup: %v", err)
		}
		path := filepath.Join(cfg.ExportDir, name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			fatal("write backup: %v", err)
		}
		fmt.Println(path)

	default:
		fatal("unknown -format %q: must be pdf or json", *formatFlag)
	}
}

func previousMonth() core.YearMonth {
	firstOfCurrent := core.YearMonthOf(time.Now()).FirstDay()
	return core.YearMonthOf(firstOfCurrent.AddDate(0, 0, -1))
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "tally-export: "+format+"\n", args...)
	os.Exit(1)
}
