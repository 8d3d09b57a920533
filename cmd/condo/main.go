package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"condo/internal/attendance"
	"condo/internal/cli"
	apphttp "condo/internal/http"
	"condo/internal/log"
	"condo/internal/metrics"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, os.Stdout)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	store, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open store", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer store.Close()

	// Publishing is best effort; the API keeps working without a broker.
	var publisher attendance.Publisher
	client, err := cli.ConnectAMQP(cfg, logger)
	if err != nil {
		logger.Warn("Continuing without clock event publishing", log.FieldError, err)
	}
	if client != nil {
		defer client.Close()
		publisher = client
	}

	m := metrics.New()
	svc := cli.NewServices(store, cfg, logger, m, publisher)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Finance:    svc.Finance,
		Attendance: svc.Attendance,
		Store:      store,
		Metrics:    m,
		Logger:     logger,
	})
	srv.MaxHeaderBytes = 1 << 16

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting condo server",
			log.FieldOperation, log.OpStartup,
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"timezone", cfg.Timezone)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", log.FieldError, err)
	}
	logger.Info("Server stopped gracefully")
}
