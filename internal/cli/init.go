// Package cli holds the start-up wiring shared by cmd/condo, cmd/condo-worker
// and cmd/condoctl.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"condo/internal/amqp"
	"condo/internal/attendance"
	"condo/internal/backend"
	"condo/internal/config"
	"condo/internal/finance"
	"condo/internal/log"
	"condo/internal/metrics"
	gsheet "condo/internal/sheets/google"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig reads the environment and rejects invalid settings.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT, writing
// to out, and installs it as the slog default.
func SetupLogger(cfg *config.Config, out io.Writer) *log.Logger {
	lc := log.DefaultConfig()
	lc.Level = log.ParseLevel(cfg.LogLevel)
	lc.Format = cfg.LogFormat
	lc.Output = out
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// OpenStore opens the configured backend.
func OpenStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (backend.Store, error) {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	return backend.Open(ctx, bc, logger)
}

// ConnectAMQP returns nil when AMQP is not configured. A broker that cannot
// be reached is reported as an error so the caller decides whether it is fatal.
func ConnectAMQP(cfg *config.Config, logger *log.Logger) (*amqp.Client, error) {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP disabled - no AMQP_URL provided")
		return nil, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return nil, fmt.Errorf("connect AMQP: %w", err)
	}
	logger.WithComponent(log.ComponentAMQP).Info("Initialized AMQP client",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	return client, nil
}

// NewSheetsExporter returns nil when no spreadsheet is configured.
func NewSheetsExporter(ctx context.Context, cfg *config.Config) (*gsheet.Client, error) {
	if !cfg.SheetsEnabled() {
		return nil, nil
	}
	creds, err := cfg.ServiceAccountCredentials()
	if err != nil {
		return nil, err
	}
	return gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleReportSheetName, creds)
}

// Services bundles the two report services over one store.
type Services struct {
	Finance    *finance.Service
	Attendance *attendance.Service
}

// NewServices wires the report services. m and publisher may be nil.
func NewServices(store backend.Store, cfg *config.Config, logger *log.Logger, m *metrics.Metrics, publisher attendance.Publisher) Services {
	attOpts := []attendance.Option{
		attendance.WithPeople(store),
		attendance.WithLocation(cfg.Location()),
		attendance.WithTimeout(cfg.ReportTimeout),
		attendance.WithLogger(logger),
		attendance.WithMetrics(m),
	}
	if publisher != nil {
		attOpts = append(attOpts, attendance.WithPublisher(publisher))
	}

	return Services{
		Finance: finance.NewService(store, cfg.AdminIdentity,
			finance.WithPeople(store),
			finance.WithTimeout(cfg.ReportTimeout),
			finance.WithLogger(logger),
			finance.WithMetrics(m)),
		Attendance: attendance.NewService(store, attOpts...),
	}
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)
	}()
	return ctx, stop
}
