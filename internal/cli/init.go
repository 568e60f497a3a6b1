// Package cli holds the bootstrap steps shared by the dompet commands.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dompet/internal/backend"
	"dompet/internal/config"
	dlog "dompet/internal/log"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
)

// SetupLogger installs a text slog handler on stdout at the given level
// (debug|info|warn|error) and returns the component-stamped wrapper.
func SetupLogger(level, component string) *dlog.Logger {
	logger := dlog.New(dlog.Config{
		Level:     dlog.ParseLevel(level),
		Component: component,
		Output:    os.Stdout,
	})
	dlog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *dlog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitSentry enables error reporting when dsn is set. The returned flush
// must run before exit; it is a no-op when Sentry is disabled.
func InitSentry(logger *dlog.Logger, dsn, release string) (flush func(), err error) {
	if dsn == "" {
		return func() {}, nil
	}
	err = sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Release:          release,
		AttachStacktrace: true,
		TracesSampleRate: 0,
	})
	if err != nil {
		return func() {}, fmt.Errorf("init sentry: %w", err)
	}
	logger.Info("Sentry error reporting enabled", "release", release)
	return func() { sentry.Flush(2 * time.Second) }, nil
}

// InitBackend builds the Record Store selected by cfg.
// Returns the backend or exits the process on failure.
func InitBackend(ctx context.Context, logger *dlog.Logger, cfg *config.Config) *backend.BackendResult {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.WithComponent(dlog.ComponentBackend).Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return res
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that closes once cleanup has finished or timed out.
func GracefulShutdown(logger *dlog.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup(shutdownCtx)
			}
			close(finished)
		}()

		select {
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		case <-finished:
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup is done.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}

// LogStartup writes the common startup line.
func LogStartup(logger *dlog.Logger, name string, cfg *config.Config) {
	logger.Log(context.Background(), slog.LevelInfo, "Starting "+name,
		"backend", cfg.DataBackend,
		"timezone", cfg.Timezone,
		"default_user", cfg.DefaultUser,
		"amqp_enabled", cfg.AMQPURL != "",
		"sheets_enabled", cfg.SheetsEnabled())
}
