// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the auth gateway: Authenticate verifies the bearer
// access token and stores the caller identity in the Gin context, and
// RequireRoles restricts a route to a set of roles.
//
// Context keys:
//   - "claims": *auth.Claims of the verified access token
//   - "userID": the caller id as a decimal string (rate limiting, logging)
package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/LulDrako/playmarket-docker/internal/auth"
	"github.com/LulDrako/playmarket-docker/internal/domain"
)

const (
	ctxKeyClaims = "claims"
	ctxKeyUserID = "userID"
)

// AccessVerifier validates access tokens.
type AccessVerifier interface {
	VerifyAccess(raw string) (*auth.Claims, error)
}

// Authenticate requires "Authorization: Bearer <token>". A missing token is
// answered with 401 and an invalid or expired one with 403.
func Authenticate(v AccessVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			abortAuth(c, http.StatusUnauthorized, "unauthorized", "missing token")
			return
		}
		claims, err := v.VerifyAccess(raw)
		if err != nil {
			abortAuth(c, http.StatusForbidden, "forbidden", "invalid or expired token")
			return
		}
		c.Set(ctxKeyClaims, claims)
		c.Set(ctxKeyUserID, strconv.FormatInt(claims.UserID, 10))
		c.Next()
	}
}

// RequireRoles allows the request through only when the authenticated
// principal holds one of roles. It must run after Authenticate.
func RequireRoles(roles ...domain.Role) gin.HandlerFunc {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			abortAuth(c, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}
		for _, r := range roles {
			if p.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"request_id":     c.Writer.Header().Get(requestIDHeader),
			"code":           "forbidden",
			"message":        "insufficient role",
			"required_roles": names,
			"user_role":      string(p.Role),
		})
	}
}

// RequireAdmin restricts a route to administrators.
func RequireAdmin() gin.HandlerFunc { return RequireRoles(domain.RoleAdmin) }

// PrincipalFrom returns the caller identity stored by Authenticate.
func PrincipalFrom(c *gin.Context) (auth.Principal, bool) {
	v, ok := c.Get(ctxKeyClaims)
	if !ok {
		return auth.Principal{}, false
	}
	claims, ok := v.(*auth.Claims)
	if !ok || claims == nil {
		return auth.Principal{}, false
	}
	return claims.Principal(), true
}

// ClaimsFrom returns the verified access token claims, if any.
func ClaimsFrom(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(ctxKeyClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok && claims != nil
}

func bearerToken(h string) string {
	scheme, token, found := strings.Cut(strings.TrimSpace(h), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func abortAuth(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       code,
		"message":    msg,
	})
}
