package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"asesor/internal/auth"
	"asesor/internal/backend"
	"asesor/internal/cache"
	"asesor/internal/cli"
	apphttp "asesor/internal/http"
	"asesor/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)
	engine := cli.LoadEngine(logger, cfg.PolicyFile)

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendConfig)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		logger.Error("Failed to initialize token manager", "error", err)
		os.Exit(1)
	}

	dashboards := cache.NewLRUCache[services.Dashboard](cfg.CacheSize, cfg.CacheTTL)
	cacheManager := cache.NewManager(logger)
	cacheManager.Register(dashboards)
	if cfg.CacheTTL > 0 {
		cacheManager.StartCleanup(cfg.CacheTTL)
	}

	st := result.Store
	advisor := services.NewAdvisorService(st, st, engine, dashboards, logger)
	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Advisor:  advisor,
		Recorder: services.NewTransactionService(st, result.Publisher, advisor, logger),
		Budgets:  services.NewBudgetService(st, engine, advisor, logger),
		Accounts: services.NewAuthService(st, tokens, logger),
		Tokens:   tokens,
		Ready:    st,
	}, logger, apphttp.Options{})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cacheManager.Stop()
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Starting asesor server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
