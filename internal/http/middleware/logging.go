// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides the request ID injector, panic recovery and access to the
// request-scoped logger installed by RedactingLogger:
//
//   - RequestID() ensures every request carries a correlation ID
//     (X-Request-ID, also stored in the Gin context).
//   - Recovery() converts panics into the JSON error envelope, logs the stack
//     with the request logger and counts them in http_panics_total.
//   - LoggerFrom() returns the request-scoped logger for handlers.
//
// Recommended order: RequestID, RedactingLogger, Recovery.
package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// requestIDKey is the Gin context key under which the request ID is stored.
	requestIDKey = "requestID"
	// requestIDHeader is the HTTP header used to propagate the correlation ID.
	requestIDHeader = "X-Request-ID"
	// loggerKey holds the request-scoped *zerolog.Logger.
	loggerKey = "logger"
	// maxRequestIDLength bounds client-supplied ids before they reach logs.
	maxRequestIDLength = 128
)

// RequestID attaches (or propagates) a correlation identifier per request.
// An incoming X-Request-ID is reused when it is at most 128 bytes; otherwise
// a new UUIDv4 is generated.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" || len(rid) > maxRequestIDLength {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// Recovery intercepts panics and answers with
//
//	{ "request_id": "...", "code": "internal_error", "message": "internal server error" }
//
// unless the response was already started, in which case only the status is
// recorded. Place it after RedactingLogger so the panic is logged with the
// request fields.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			rid, _ := c.Get(requestIDKey)
			uid, _ := c.Get("userID")
			route := c.FullPath()
			if route == "" {
				route = unmatchedPath
			}
			panicsTotal.WithLabelValues(route).Inc()

			LoggerFrom(c).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Str("request_id", asString(rid)).
				Str("user_id", asString(uid)).
				Msg("panic recovered")

			if c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.Header(requestIDHeader, asString(rid))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"request_id": asString(rid),
				"code":       "internal_error",
				"message":    "internal server error",
			})
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped zerolog.Logger, or the global logger
// when none was attached.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
