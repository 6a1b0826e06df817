// Package handlers implements the HTTP endpoints: the chat front end, the
// dialog code hook, health probes and the admin ingestion routes.
//
// The front end speaks the browser client's {message} shape in both
// directions, including for errors. Every other route fails with the
// ErrorResponse envelope:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "route not found"
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-dining-concierge/internal/http/middleware"
)

// ErrorResponse is the error envelope for non front-end routes.
type ErrorResponse struct {
	// Echo of X-Request-ID
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go)
	Code string `json:"code" example:"not_found"`
	// Human-readable message
	Message string `json:"message" example:"route not found"`
}

// MessageBody is the front-end request and response body.
type MessageBody struct {
	Message string `json:"message" example:"I want Italian food in New York"`
}

// fail aborts with an ErrorResponse. 5xx responses are logged.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// Fail is fail for callers outside the package (router fallbacks).
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// reply aborts the front-end call with a {message} body.
func reply(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, MessageBody{Message: msg})
}

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
