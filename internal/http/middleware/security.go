package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const defaultHSTSMaxAge = 180 * 24 * time.Hour

// SecurityOptions configures SecurityHeaders.
type SecurityOptions struct {
	// EnableHSTS emits Strict-Transport-Security on HTTPS requests only.
	EnableHSTS bool
	// HSTSMaxAge defaults to 180 days when <= 0.
	HSTSMaxAge time.Duration
	// NoStore adds Cache-Control: no-store plus the legacy Pragma/Expires pair.
	NoStore bool
	// EnablePolicy adds Permissions-Policy and X-Permitted-Cross-Domain-Policies.
	EnablePolicy bool
	// ContentSecurityPolicy is sent verbatim on responses outside APIPrefix,
	// i.e. the storefront bundle and its fallback document.
	ContentSecurityPolicy string
	// APIPrefix identifies JSON routes (e.g. "/api").
	APIPrefix string
}

// SecurityHeaders attaches hardening headers to every response:
//
//	X-Content-Type-Options: nosniff
//	X-Frame-Options: DENY
//	Referrer-Policy: no-referrer
//
// plus the optional groups selected in opt. X-Request-ID is added to
// Access-Control-Expose-Headers so the storefront can quote it in bug reports.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := opt.HSTSMaxAge
	if maxAge <= 0 {
		maxAge = defaultHSTSMaxAge
	}
	hsts := "max-age=" + strconv.FormatInt(int64(maxAge/time.Second), 10) + "; includeSubDomains; preload"

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}
		if opt.NoStore {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		}
		if opt.ContentSecurityPolicy != "" && !isAPIPath(c.Request.URL.Path, opt.APIPrefix) {
			h.Set("Content-Security-Policy", opt.ContentSecurityPolicy)
		}
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}
		if h.Get(requestIDHeader) != "" {
			exposeHeader(h, requestIDHeader)
		}

		c.Next()
	}
}

// exposeHeader appends name to Access-Control-Expose-Headers once.
func exposeHeader(h http.Header, name string) {
	const key = "Access-Control-Expose-Headers"
	cur := h.Get(key)
	switch {
	case cur == "":
		h.Set(key, name)
	case !strings.Contains(cur, name):
		h.Set(key, cur+", "+name)
	}
}

func isAPIPath(path, prefix string) bool {
	if prefix == "" || prefix == "/" {
		return false
	}
	return path == prefix || strings.HasPrefix(path, strings.TrimSuffix(prefix, "/")+"/")
}

// isHTTPS reports whether the request arrived over TLS, directly or behind a
// proxy that set X-Forwarded-Proto.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
