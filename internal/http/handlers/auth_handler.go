// Session HTTP handlers.
//
// This file exposes the authentication endpoints:
//   - POST /auth/register
//   - POST /auth/login
//   - POST /auth/refresh   (reads the refresh cookie)
//   - GET  /auth/me        (requires an access token)
//   - POST /auth/logout
//
// The refresh token only ever travels in the httpOnly cookie; bodies carry
// the access token.
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LulDrako/playmarket-docker/internal/domain"
	"github.com/LulDrako/playmarket-docker/internal/http/middleware"
	"github.com/LulDrako/playmarket-docker/internal/services"
)

// RefreshCookie is the name of the cookie carrying the refresh token.
const RefreshCookie = "refreshToken"

const defaultRefreshMaxAge = 7 * 24 * time.Hour

//
// DTOs
//

// SessionResponse is returned by register and login.
type SessionResponse struct {
	Message     string       `json:"message" example:"Connexion réussie"`
	User        *domain.User `json:"user"`
	AccessToken string       `json:"accessToken"`
}

// RefreshResponse is returned by refresh.
type RefreshResponse struct {
	Message     string `json:"message" example:"Token rafraîchi avec succès"`
	AccessToken string `json:"accessToken"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message" example:"Déconnexion réussie"`
}

// setRefreshCookie writes the refresh cookie; maxAge < 0 deletes it.
func (h *Handlers) setRefreshCookie(c *gin.Context, value string, maxAge time.Duration) {
	secs := int(maxAge / time.Second)
	if maxAge < 0 {
		secs = -1
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     RefreshCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   secs,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handlers) openSession(c *gin.Context, status int, msg string, s *services.Session) {
	ttl := s.Tokens.RefreshTTL
	if ttl <= 0 {
		ttl = defaultRefreshMaxAge
	}
	h.setRefreshCookie(c, s.Tokens.RefreshToken, ttl)
	ok(c, status, SessionResponse{Message: msg, User: s.User, AccessToken: s.Tokens.AccessToken})
}

// Register godoc
// @ID          register
// @Summary     Create an account
// @Description Registers a user, sets the refresh cookie and returns an access token.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body     services.RegisterInput  true  "Account"
// @Success     201   {object} handlers.SessionResponse
// @Failure     400   {object} handlers.ErrorResponse "Validation failed"
// @Failure     409   {object} handlers.ErrorResponse "Email already registered"
// @Failure     429   {object} handlers.ErrorResponse "Too many attempts"
// @Router      /auth/register [post]
func (h *Handlers) Register(c *gin.Context) {
	var in services.RegisterInput
	if !bindJSON(c, &in) {
		return
	}
	s, err := h.auth.Register(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	h.openSession(c, http.StatusCreated, "Inscription réussie", s)
}

// Login godoc
// @ID          login
// @Summary     Log in
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body     services.LoginInput  true  "Credentials"
// @Success     200   {object} handlers.SessionResponse
// @Failure     400   {object} handlers.ErrorResponse "Validation failed"
// @Failure     401   {object} handlers.ErrorResponse "Invalid email or password"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var in services.LoginInput
	if !bindJSON(c, &in) {
		return
	}
	s, err := h.auth.Login(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	h.openSession(c, http.StatusOK, "Connexion réussie", s)
}

// Refresh godoc
// @ID          refresh
// @Summary     Rotate the session
// @Description Exchanges the refresh cookie for a new access token and a new refresh cookie.
// @Tags        Auth
// @Produce     json
// @Success     200  {object} handlers.RefreshResponse
// @Failure     400  {object} handlers.ErrorResponse "Missing refresh cookie"
// @Failure     403  {object} handlers.ErrorResponse "Invalid or expired refresh token"
// @Failure     404  {object} handlers.ErrorResponse "User no longer exists"
// @Router      /auth/refresh [post]
func (h *Handlers) Refresh(c *gin.Context) {
	raw, err := c.Cookie(RefreshCookie)
	if err != nil || strings.TrimSpace(raw) == "" {
		badRequest(c, "refresh token cookie is required")
		return
	}
	s, err := h.auth.Refresh(c.Request.Context(), raw)
	if err != nil {
		writeError(c, err)
		return
	}
	ttl := s.Tokens.RefreshTTL
	if ttl <= 0 {
		ttl = defaultRefreshMaxAge
	}
	h.setRefreshCookie(c, s.Tokens.RefreshToken, ttl)
	ok(c, http.StatusOK, RefreshResponse{Message: "Token rafraîchi avec succès", AccessToken: s.Tokens.AccessToken})
}

// Me godoc
// @ID          me
// @Summary     Current principal
// @Tags        Auth
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object} map[string]any
// @Failure     401  {object} handlers.ErrorResponse
// @Failure     403  {object} handlers.ErrorResponse
// @Router      /auth/me [get]
func (h *Handlers) Me(c *gin.Context) {
	claims, found := middleware.ClaimsFrom(c)
	if !found {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}
	ok(c, http.StatusOK, gin.H{"user": claims})
}

// Logout godoc
// @ID          logout
// @Summary     Log out
// @Description Clears the refresh cookie. Issued access tokens stay valid until they expire.
// @Tags        Auth
// @Produce     json
// @Success     200  {object} handlers.MessageResponse
// @Router      /auth/logout [post]
func (h *Handlers) Logout(c *gin.Context) {
	h.setRefreshCookie(c, "", -1)
	ok(c, http.StatusOK, MessageResponse{Message: "Déconnexion réussie"})
}
