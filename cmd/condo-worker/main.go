package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"condo/internal/cache"
	"condo/internal/cli"
	"condo/internal/log"
	"condo/internal/sheets"
	"condo/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, os.Stdout)
	logger.Info("Starting condo-worker", log.FieldOperation, log.OpStartup)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	store, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open store", log.FieldError, err)
		os.Exit(1)
	}
	defer store.Close()

	client, err := cli.ConnectAMQP(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	var payroll sheets.PayrollExporter
	exporter, err := cli.NewSheetsExporter(ctx, cfg)
	switch {
	case err != nil:
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	case exporter != nil:
		payroll = exporter
		logger.Info("Payroll previews will be exported", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	default:
		logger.Info("Google Sheets disabled - payroll previews are only logged")
	}

	svc := cli.NewServices(store, cfg, logger, nil, nil)

	seen := cache.NewLRUCache[time.Time](cfg.EventDedupSize, cfg.EventDedupTTL)
	caches := cache.NewManager(logger.Logger.With(log.FieldComponent, log.ComponentWorker))
	caches.Register(seen)
	caches.StartCleanup(cfg.EventDedupTTL)
	defer caches.Stop()

	w := worker.NewClockWorker(svc.Attendance, seen, payroll, logger)

	err = client.ConsumeClockEvents(ctx, w.HandleClockEvent)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete", log.FieldOperation, log.OpShutdown)
}
