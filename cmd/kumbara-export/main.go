// Command kumbara-export appends one month's budget summary to a Google
// spreadsheet. It hydrates a read-only engine from the configured durable
// store, so it can run while the server is down.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"kumbara/internal/backend"
	"kumbara/internal/catalog"
	"kumbara/internal/config"
	"kumbara/internal/core"
	"kumbara/internal/engine"
	"kumbara/internal/export/sheets"
	applog "kumbara/internal/log"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Level: slog.LevelInfo, Component: applog.ComponentExport})
	applog.SetDefault(logger)

	monthFlag := flag.String("month", time.Now().UTC().Format("2006-01"), "month to export (2006-01)")
	flag.Parse()

	month, err := core.ParseMonth(*monthFlag)
	if err != nil {
		logger.Error("invalid month flag", applog.FieldMonth, *monthFlag)
		os.Exit(1)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	result, err := backend.Open(cfg, logger)
	if err != nil {
		logger.Error("failed to open durable store", applog.FieldError, err)
		os.Exit(1)
	}
	defer func() {
		if result.Cleanup != nil {
			_ = result.Cleanup()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	eng, err := engine.New(ctx, engine.Config{
		Store:   result.Store,
		Catalog: catalog.NewFromFile(cfg.DataDir),
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to build engine", applog.FieldError, err)
		os.Exit(1)
	}

	exporter, err := sheets.NewFromEnv(ctx, logger)
	if err != nil {
		logger.Error("failed to initialize sheets exporter", applog.FieldError, err)
		os.Exit(1)
	}

	summary := eng.MonthlySummary(ctx, month)
	if err := exporter.ExportSummary(ctx, summary); err != nil {
		logger.Error("export failed", applog.FieldError, err, applog.FieldMonth, month.String())
		os.Exit(1)
	}

	logger.Info("export complete",
		applog.FieldMonth, month.String(),
		applog.FieldBudgetCount, len(summary.Budgets))
}
