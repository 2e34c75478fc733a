package response

import (
	"errors"
	"net/http"
	"time"

	"ledger-service/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDKey is the gin context key carrying the request id.
const RequestIDKey = "request_id"

// SuccessResponse is the standard success envelope.
type SuccessResponse struct {
	Data      interface{} `json:"data"`
	RequestID string      `json:"request_id"`
	Timestamp string      `json:"timestamp"`
}

// ErrorBody is the client-visible part of an AppError.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error     ErrorBody `json:"error"`
	RequestID string    `json:"request_id"`
	Timestamp string    `json:"timestamp"`
}

// OK sends a 200 response with data.
func OK(c *gin.Context, data interface{}) {
	JSON(c, http.StatusOK, data)
}

// Created sends a 201 response with data.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data)
}

// JSON sends data wrapped in the success envelope with the given status.
func JSON(c *gin.Context, status int, data interface{}) {
	c.JSON(status, SuccessResponse{
		Data:      data,
		RequestID: RequestID(c),
		Timestamp: now(),
	})
}

// Error sends an error response. Anything that is not an *apperror.AppError
// is reported as an opaque internal error.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		appErr = apperror.InternalError(err)
	}

	if appErr.Kind == apperror.KindUnauthenticated || appErr.Kind == apperror.KindAuthFailed {
		c.Header("WWW-Authenticate", "Bearer")
	}

	c.JSON(appErr.HTTPStatus, ErrorResponse{
		Error: ErrorBody{
			Code:    appErr.Code,
			Message: appErr.Message,
		},
		RequestID: RequestID(c),
		Timestamp: now(),
	})
}

// RequestID returns the request id stored on the context, generating and
// storing one when the RequestID middleware did not run.
func RequestID(c *gin.Context) string {
	if id, exists := c.Get(RequestIDKey); exists {
		if s, ok := id.(string); ok && s != "" {
			return s
		}
	}
	id := uuid.New().String()
	c.Set(RequestIDKey, id)
	return id
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
