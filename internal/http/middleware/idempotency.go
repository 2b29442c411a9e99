// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file validates the Idempotency-Key header accepted by POST /orders. A
// valid key is stashed for the handler (GetIdempotencyKey); when the caller
// already completed an order under that key the request is exempted from the
// order rate limiter (IsRateBypass).
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header carrying the client key.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyRateBypass = "rate.bypass" // bool: a live record exists for (caller, key)

	defaultIdemMaxLen = 200
)

var defaultIdemPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the validated key, if any.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IdempotencyOptions configures IdempotencyValidator.
type IdempotencyOptions struct {
	// MaxLen caps the key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters; nil means ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
	// Scope names the operation keys are recorded under (e.g. "orders").
	Scope string
}

// IdempotencyLookup reports whether a still-valid record exists for
// (userID, scope, key) at now. TTL is enforced by the implementation.
type IdempotencyLookup func(ctx context.Context, userID int64, scope, key string, now time.Time) (exists bool, err error)

// IdempotencyValidator validates and stashes the Idempotency-Key header.
//
//   - No header: no-op.
//   - Malformed header: 400 bad_idempotency_key.
//   - Authenticated caller with a live record: the rate-bypass flag is set. Lookup failures are logged and the request proceeds normally;
//     the service still deduplicates inside its transaction.
//
// Install it after Authenticate so the caller is known.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = defaultIdemMaxLen
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultIdemPattern
	}

	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey))
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			if p, ok := PrincipalFrom(c); ok {
				exists, err := lookup(c.Request.Context(), p.ID, opts.Scope, key, time.Now().UTC())
				switch {
				case err != nil:
					LoggerFrom(c).Warn().Err(err).Str("scope", opts.Scope).Msg("idempotency lookup failed")
				case exists:
					c.Set(ctxKeyRateBypass, true)
				}
			}
		}

		c.Next()
	}
}
