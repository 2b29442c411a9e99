package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// UUIDs go first so the loose phone pattern never eats their digit groups.
var (
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

var defaultMaskedHeaders = []string{"authorization", "cookie", "set-cookie"}

// RedactOptions configures RedactingLogger.
type RedactOptions struct {
	// MaskHeaders are replaced with "[REDACTED]" in addition to
	// Authorization, Cookie and Set-Cookie. Case-insensitive.
	MaskHeaders []string
	// SkipPaths are routes (or raw paths) that never produce an access log
	// line, typically health probes and the metrics scrape.
	SkipPaths []string
}

func redactPII(s string) string {
	if s == "" {
		return s
	}
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

// RedactingLogger writes one structured access log line per request with
// emails, phone numbers and UUIDs scrubbed from the query and headers, and
// credential headers masked. Bodies are never logged.
//
// It also installs the request-scoped logger (request_id, method, route) used
// by LoggerFrom and zerolog.Ctx. The level follows the status: info, warn for
// 4xx and error for 5xx.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	masked := make(map[string]struct{}, len(defaultMaskedHeaders)+len(opts.MaskHeaders))
	for _, h := range append(defaultMaskedHeaders, opts.MaskHeaders...) {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			masked[h] = struct{}{}
		}
	}
	skip := make(map[string]struct{}, len(opts.SkipPaths))
	for _, p := range opts.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		scoped := log.With().
			Str("request_id", requestIDOf(c)).
			Str("method", c.Request.Method).
			Str("path", path).
			Logger()
		c.Set(loggerKey, &scoped)
		c.Request = c.Request.WithContext(scoped.WithContext(c.Request.Context()))

		c.Next()

		if _, ok := skip[path]; ok {
			return
		}

		headers := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := masked[strings.ToLower(k)]; ok {
				headers[k] = "[REDACTED]"
				continue
			}
			headers[k] = redactPII(strings.Join(vv, ", "))
		}

		status := c.Writer.Status()
		var ev *zerolog.Event
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		default:
			ev = log.Info()
		}

		uid, _ := c.Get(ctxKeyUserID)
		ev.
			Str("request_id", requestIDOf(c)).
			Str("user_id", asString(uid)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", redactPII(c.Request.URL.RawQuery)).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", headers).
			Msg("http_request")
	}
}

// requestIDOf prefers the id RequestID put on the response over the raw
// client header.
func requestIDOf(c *gin.Context) string {
	if rid := c.Writer.Header().Get(requestIDHeader); rid != "" {
		return rid
	}
	return c.GetHeader(requestIDHeader)
}
