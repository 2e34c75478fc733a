package handler

import (
	"time"

	"ledger-service/internal/adapter/http/middleware"
	"ledger-service/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	SessionGate    ports.SessionGate
	LedgerSvc      ports.LedgerService
	HistoryReader  ports.HistoryReader
	RateLimiter    middleware.Limiter // nil = rate limiting disabled
	RateLimitRules map[string]middleware.RateLimitRule
	HealthCheckers []ports.HealthChecker
	MaxBodyBytes   int64
	RequestTimeout time.Duration
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	if deps.MaxBodyBytes > 0 {
		r.Use(middleware.MaxBodySize(deps.MaxBodyBytes))
	}
	r.Use(middleware.RequestTimeout(deps.RequestTimeout))

	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimiter == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := deps.RateLimitRules[group]
		if !ok || rule.Limit <= 0 {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimiter, group, rule, deps.Logger)
	}

	bearer := middleware.BearerAuth(deps.SessionGate, deps.Logger)
	authHandler := NewAuthHandler(deps.AuthSvc)
	ledgerHandler := NewLedgerHandler(deps.LedgerSvc, deps.HistoryReader)

	r.POST("/auth/token", rl(middleware.GroupLogin), authHandler.Token)

	clients := r.Group("/clients")
	{
		clients.POST("", rl(middleware.GroupRegister), authHandler.CreateClient)
		clients.GET("", bearer, authHandler.GetClient)
	}

	r.POST("/topup", ledgerHandler.Topup)

	transfers := r.Group("/transfers", bearer)
	{
		transfers.POST("", rl(middleware.GroupTransfer), ledgerHandler.Transfer)
		transfers.GET("", ledgerHandler.ListTransfers)
	}

	return r
}
