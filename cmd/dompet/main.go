package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"dompet/internal/cache"
	"dompet/internal/cli"
	"dompet/internal/core"
	apphttp "dompet/internal/http"
	dlog "dompet/internal/log"
	"dompet/internal/services"
	"dompet/internal/tabular"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(cli.SetupLogger("info", dlog.ComponentApp))
	logger := cli.SetupLogger(cfg.LogLevel, dlog.ComponentApp)
	cli.LogStartup(logger, "dompet server", cfg)

	flushSentry, err := cli.InitSentry(logger, cfg.SentryDSN, version)
	if err != nil {
		logger.Error("Sentry disabled", "error", err)
	}
	defer flushSentry()

	be := cli.InitBackend(context.Background(), logger, cfg)

	policy, err := tabular.ParsePolicy(cfg.ImportInvalidAmount)
	if err != nil {
		logger.Error("Invalid import policy", "error", err)
		os.Exit(1)
	}

	// Monthly report cache, swept in the background.
	reports := cache.NewLRUCache[core.MonthOverview](100, 5*time.Minute)
	caches := cache.NewManager()
	caches.Register(reports)
	caches.StartCleanup(10 * time.Minute)

	loc := cfg.Location()
	opts := []services.Option{
		services.WithLocation(loc),
		services.WithImportPolicy(policy),
		services.WithStrictCategories(cfg.StrictCategories),
		services.WithReportCache(reports),
		services.WithLogger(logger.WithComponent(dlog.ComponentLedger)),
	}
	// A nil *amqp.Client must not reach the interface.
	if be.Publisher != nil {
		opts = append(opts, services.WithPublisher(be.Publisher))
	}
	ledgerSvc := services.NewLedgerService(be.Store, opts...)
	studySvc := services.NewStudyService(be.Store, opts...)

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		DefaultUser:        cfg.DefaultUser,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Location:           loc,
		Ready:              be.Ping,
		Logger:             logger.WithComponent(dlog.ComponentHTTP),
	}, ledgerSvc, studySvc)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		requests, limits := srv.Metrics()
		logger.Info("Request totals",
			"requests", requests.TotalRequests,
			"server_errors", requests.ServerErrors,
			"panics", requests.Panics,
			"rate_limited", limits.LimitedRequests)
		caches.Stop()
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Listening", "port", cfg.Port, "version", version)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		flushSentry()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
