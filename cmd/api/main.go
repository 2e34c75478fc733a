package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"ledger-service/config"
	httpHandler "ledger-service/internal/adapter/http/handler"
	"ledger-service/internal/adapter/http/middleware"
	pgStorage "ledger-service/internal/adapter/storage/postgres"
	redisStorage "ledger-service/internal/adapter/storage/redis"
	"ledger-service/internal/core/ports"
	"ledger-service/internal/service"
	"ledger-service/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load(os.Getenv("LEDGER_CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	gin.SetMode(cfg.Server.Mode)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting ledger service")

	ctx := context.Background()

	if cfg.Database.MigrateOnStart {
		if err := pgStorage.Migrate(cfg.Database.DSN(), log); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
	}

	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	healthCheckers := []ports.HealthChecker{pgStorage.NewHealthCheck(pool)}

	// Redis only backs rate limiting; the ledger runs without it.
	var limiter middleware.Limiter
	if cfg.RateLimit.Enabled {
		rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, rate limiting disabled")
		} else {
			defer rdb.Close()
			log.Info().Msg("Redis connected")
			limiter = redisStorage.NewRateLimitStore(rdb)
			healthCheckers = append(healthCheckers, redisStorage.NewHealthCheck(rdb))
		}
	}

	// Repositories
	accountRepo := pgStorage.NewAccountRepo(pool)
	movementRepo := pgStorage.NewMovementRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Services
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	accountSvc := service.NewAccountService(accountRepo, service.NewCredentialStore(), logger.Component(log, "accounts"))
	authSvc := service.NewAuthService(accountSvc, tokenSvc, logger.Component(log, "auth"))
	gate := service.NewSessionGate(tokenSvc, accountSvc, logger.Component(log, "session"))
	ledgerSvc := service.NewLedgerService(accountRepo, movementRepo, transactor, cfg.Ledger.OperationTimeout, logger.Component(log, "ledger"))
	historySvc := service.NewHistoryService(movementRepo, cfg.Ledger.PageSize)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		SessionGate:    gate,
		LedgerSvc:      ledgerSvc,
		HistoryReader:  historySvc,
		RateLimiter:    limiter,
		RateLimitRules: middleware.RateLimitRules(cfg.RateLimit),
		HealthCheckers: healthCheckers,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		RequestTimeout: cfg.Server.RequestTimeout,
		Logger:         logger.Component(log, "http"),
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.RequestTimeout,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
