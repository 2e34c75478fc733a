package middleware

import (
	"net/http"
	"strings"
	"time"

	"ledger-service/internal/core/domain"
	"ledger-service/internal/core/ports"
	"ledger-service/pkg/apperror"
	"ledger-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// HeaderRequestID carries the request id in and out.
	HeaderRequestID = "X-Request-ID"

	// CtxAccount holds the *domain.Account resolved from the bearer token.
	CtxAccount = "account"
)

// BearerAuth resolves the Authorization bearer token to an account through
// the session gate and stores it under CtxAccount.
func BearerAuth(gate ports.SessionGate, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Error(c, apperror.ErrUnauthenticated())
			c.Abort()
			return
		}

		acc, err := gate.Resolve(c.Request.Context(), token)
		if err != nil {
			if !apperror.Is(err, apperror.KindUnauthenticated) {
				log.Error().Err(err).Msg("session resolution failed")
			}
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(CtxAccount, acc)
		c.Next()
	}
}

// Actor returns the account BearerAuth stored on the context.
func Actor(c *gin.Context) (*domain.Account, bool) {
	v, ok := c.Get(CtxAccount)
	if !ok {
		return nil, false
	}
	acc, ok := v.(*domain.Account)
	return acc, ok && acc != nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequestID propagates an incoming X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > 64 {
			id = uuid.New().String()
		}
		c.Set(response.RequestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// RequestLogger creates a middleware that logs every HTTP request.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		} else if status >= http.StatusBadRequest {
			event = log.Warn()
		}

		if acc, ok := Actor(c); ok {
			event = event.Int64("account_id", acc.ID)
		}

		event.
			Str("request_id", response.RequestID(c)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}

// Recovery creates a panic recovery middleware.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("path", c.Request.URL.Path).Msg("panic recovered")
				response.Error(c, apperror.InternalError(nil))
				c.Abort()
			}
		}()
		c.Next()
	}
}
