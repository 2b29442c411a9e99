// Package auth issues and verifies the JWT pair used by the API: a short-lived
// access token sent as a bearer header and a long-lived refresh token carried
// in an httpOnly cookie. Tokens are stateless; there is no revocation store.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/LulDrako/playmarket-docker/internal/config"
	"github.com/LulDrako/playmarket-docker/internal/domain"
)

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid or expired token")

// Token types carried in the typ claim.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Principal identifies the authenticated caller.
type Principal struct {
	ID    int64       `json:"id"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// IsAdmin reports whether the principal has the admin role.
func (p Principal) IsAdmin() bool { return p.Role.IsAdmin() }

// PrincipalOf returns the principal for a stored user.
func PrincipalOf(u *domain.User) Principal {
	return Principal{ID: u.ID, Email: u.Email, Role: u.Role}
}

// Claims is the JWT payload of both token types.
type Claims struct {
	UserID int64       `json:"id"`
	Email  string      `json:"email"`
	Role   domain.Role `json:"role"`
	Type   string      `json:"typ"`
	jwt.RegisteredClaims
}

// Principal extracts the caller identity from verified claims.
func (c *Claims) Principal() Principal {
	return Principal{ID: c.UserID, Email: c.Email, Role: c.Role}
}

// TokenPair is the result of a successful login, registration or refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

// TokenService signs and verifies tokens with two distinct HMAC secrets.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	now           func() time.Time
}

// NewTokenService builds a TokenService from configuration.
func NewTokenService(cfg config.JWTConfig) *TokenService {
	return &TokenService{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		issuer:        cfg.Issuer,
		now:           time.Now,
	}
}

// RefreshTTL is the lifetime of refresh tokens (and of the cookie carrying them).
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

// IssuePair signs a fresh access/refresh pair for p.
func (s *TokenService) IssuePair(p Principal) (TokenPair, error) {
	access, err := s.sign(p, TypeAccess, s.accessSecret, s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.sign(p, TypeRefresh, s.refreshSecret, s.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessTTL:    s.accessTTL,
		RefreshTTL:   s.refreshTTL,
	}, nil
}

func (s *TokenService) sign(p Principal, typ string, secret []byte, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: p.ID,
		Email:  p.Email,
		Role:   p.Role,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   fmt.Sprint(p.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// VerifyAccess validates an access token and returns its claims.
func (s *TokenService) VerifyAccess(raw string) (*Claims, error) {
	return s.verify(raw, TypeAccess, s.accessSecret)
}

// VerifyRefresh validates a refresh token and returns its claims.
func (s *TokenService) VerifyRefresh(raw string) (*Claims, error) {
	return s.verify(raw, TypeRefresh, s.refreshSecret)
}

func (s *TokenService) verify(raw, typ string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != typ || claims.UserID <= 0 || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
