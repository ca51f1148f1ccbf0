package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"emipilot/internal/backend"
	"emipilot/internal/cli"
	apphttp "emipilot/internal/http"
	emilog "emipilot/internal/log"
	"emipilot/internal/services"
)

func main() {
	cfg := cli.LoadConfig()
	logger := cli.SetupLogger(cfg, emilog.ComponentApp)
	cli.MustValidate(logger, cfg.Validate)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", emilog.FieldError, err)
		os.Exit(1)
	}

	result, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", emilog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", emilog.FieldError, err)
		}
	}()

	emis := services.NewEMIService(result.Store, result.Publisher, logger)
	income := services.NewIncomeService(result.Store, cfg.InstanceID, result.Publisher, logger)
	insights := services.NewInsightService(emis, income, logger)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:                   ":" + cfg.Port,
		APIPrefix:              cfg.APIPrefix,
		CORSAllowedOrigin:      cfg.CORSAllowedOrigin,
		WriteRequestsPerMinute: cfg.RateLimitPerMinute,
		Logger:                 logger,
	}, emis, income, insights)
	srv.MaxHeaderBytes = 1 << 16

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", emilog.FieldError, err)
		}
	}()

	logger.Info("Starting emipilot server",
		"port", cfg.Port,
		"api_prefix", cfg.APIPrefix,
		"backend", cfg.DataBackend,
		emilog.FieldInstance, cfg.InstanceID,
		"events_enabled", cfg.AMQPURL != "")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", emilog.FieldError, err, "port", cfg.Port)
		cancel()
		<-done
		os.Exit(1)
	}

	<-done
	m := srv.Metrics()
	logger.Info("Server stopped gracefully", "requests_served", m.TotalRequests, "panics", m.Panics)
}
