// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, error
// reporting, metrics, compression, CORS, security headers, authentication,
// idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Credentialed CORS restricted to known origins (the refresh cookie
//     needs it)
package httpapi

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/LulDrako/playmarket-docker/docs" // registers the OpenAPI document
	"github.com/LulDrako/playmarket-docker/internal/auth"
	"github.com/LulDrako/playmarket-docker/internal/config"
	"github.com/LulDrako/playmarket-docker/internal/docstore"
	"github.com/LulDrako/playmarket-docker/internal/domain"
	"github.com/LulDrako/playmarket-docker/internal/events"
	"github.com/LulDrako/playmarket-docker/internal/http/handlers"
	"github.com/LulDrako/playmarket-docker/internal/http/middleware"
	"github.com/LulDrako/playmarket-docker/internal/repo"
	"github.com/LulDrako/playmarket-docker/internal/services"
)

// Content-Security-Policy for the hosted SPA bundle.
const spaCSP = "default-src 'self'; img-src 'self' data: https:; media-src 'self' https:; " +
	"frame-src https://www.youtube.com https://www.youtube-nocookie.com; " +
	"style-src 'self' 'unsafe-inline'; connect-src 'self'; object-src 'none'; base-uri 'self'"

// Rate-limit messages shown to clients.
const (
	globalLimitMessage  = "Trop de requêtes, veuillez réessayer plus tard"
	authLimitMessage    = "Trop de tentatives de connexion, veuillez réessayer plus tard"
	refreshLimitMessage = "Trop de demandes de rafraîchissement, veuillez réessayer plus tard"
)

// userRepoShim adapts the repository free functions to the services.UserRepo
// interface expected by the AuthService. This keeps services decoupled from
// the concrete repo package while reusing existing functions.
type userRepoShim struct{}

// CreateUser proxies repo.CreateUser.
func (userRepoShim) CreateUser(ctx context.Context, db *gorm.DB, email, passwordHash, name string, role domain.Role) (*domain.User, error) {
	return repo.CreateUser(ctx, db, email, passwordHash, name, role)
}

// FindUserByEmail proxies repo.FindUserByEmail.
func (userRepoShim) FindUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	return repo.FindUserByEmail(ctx, db, email)
}

// GetUser proxies repo.GetUser.
func (userRepoShim) GetUser(ctx context.Context, db *gorm.DB, id int64) (*domain.User, error) {
	return repo.GetUser(ctx, db, id)
}

// Deps carries the long-lived handles built by the process entrypoint.
type Deps struct {
	DB     *gorm.DB
	Docs   *docstore.Store    // nil leaves /mongo unmounted and disables enrichment
	Tokens *auth.TokenService // signs and verifies both token types
	Events events.Publisher   // nil disables order events
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics, error reporting),
// rate limiting, CORS and security headers, health, status and metrics
// endpoints, Swagger UI and the optional SPA bundle, and then mounts the
// public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Sentry (when configured): report, then re-panic into Recovery
//  6. Body size limiter
//  7. Metrics
//  8. Compression
//  9. Global rate limiter (per IP)
//  10. CORS and Security headers
//
// Authentication, role checks, idempotency validation and the stricter rate
// limiters are installed per route, after the principal is known.
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	limits := cfg.Env != config.EnvTest

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		SkipPaths: []string{"/health", "/metrics"},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Error reporting
	if cfg.Sentry.DSN != "" {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}

	// 6) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Compression
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 9) Token-bucket rate limiter per IP (user ids are unknown this early)
	if limits {
		r.Use(middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP()).WithMessage(globalLimitMessage).Handler())
	}

	// 10) CORS posture
	r.Use(cors.New(corsConfig(cfg)))

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:            cfg.Security.EnableHSTS,
		HSTSMaxAge:            cfg.Security.HSTSMaxAge,
		NoStore:               false,
		EnablePolicy:          true,
		ContentSecurityPolicy: spaCSP,
		APIPrefix:             cfg.APIBasePath,
	}))

	// Fallbacks
	spa := spaFallback(cfg.StaticDir, cfg.APIBasePath)
	r.NoRoute(func(c *gin.Context) {
		if spa != nil && spa(c) {
			return
		}
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API docs
	if cfg.SwaggerEnabled {
		r.GET("/api-docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/docstore/events
	catalog := &services.CatalogService{DB: deps.DB}
	orders := &services.OrderService{DB: deps.DB, Events: deps.Events, IdempotencyTTL: cfg.IdempotencyTTL}
	stores := map[string]handlers.Pinger{
		"relational": func(ctx context.Context) error { return repo.Ping(ctx, deps.DB) },
	}
	var engagement handlers.EngagementService
	if deps.Docs != nil {
		catalog.Details = deps.Docs
		engagement = &services.EngagementService{Store: deps.Docs}
		stores["document"] = deps.Docs.Ping
	}

	h := handlers.New(handlers.Services{
		Auth:          services.NewAuthService(deps.DB, userRepoShim{}, deps.Tokens, cfg.BcryptCost),
		Catalog:       catalog,
		Orders:        orders,
		Users:         &services.UserService{DB: deps.DB},
		Engagement:    engagement,
		Stores:        stores,
		SecureCookies: cfg.IsProduction(),
		Version:       cfg.Version,
	})

	authn := middleware.Authenticate(deps.Tokens)
	admin := []gin.HandlerFunc{authn, middleware.RequireAdmin()}

	// Per-route limiters; no-ops in tests.
	authLimit, refreshLimit, orderLimit := passThrough, passThrough, passThrough
	if limits {
		authLimit = middleware.NewWindowLimiter("auth", cfg.AuthRate.Max, cfg.AuthRate.Window, authLimitMessage, middleware.KeyByIP()).Handler()
		refreshLimit = middleware.NewWindowLimiter("refresh", cfg.RefreshRate.Max, cfg.RefreshRate.Window, refreshLimitMessage, middleware.KeyByIP()).Handler()
		orderLimit = middleware.NewRateLimiter(cfg.OrderRateRPS, cfg.OrderRateBurst, middleware.KeyByUserOrIP()).Named("orders").Handler()
	}

	// Idempotency validation (after auth: keys are scoped per user; before the
	// order limiter so replays bypass it)
	idem := middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200, Scope: repo.IdempotencyScopeOrders},
		func(ctx context.Context, userID int64, _ string, key string, _ time.Time) (bool, error) {
			return orders.Replayed(ctx, userID, key)
		},
	)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath) // e.g. "/api"
	{
		api.GET("/status", h.Status)

		// Session
		a := api.Group("/auth")
		a.POST("/register", authLimit, h.Register)
		a.POST("/login", authLimit, h.Login)
		a.POST("/refresh", refreshLimit, h.Refresh)
		a.GET("/me", authn, h.Me)
		a.POST("/logout", h.Logout)

		// Catalog
		api.GET("/games", h.ListGames)
		api.GET("/games/search", h.SearchGames)
		api.GET("/games/:id", h.GetGame)
		api.POST("/games", append(admin, h.CreateGame)...)
		api.PATCH("/games/:id/stock", append(admin, h.UpdateStock)...)

		// Orders
		api.POST("/orders", authn, idem, orderLimit, h.CreateOrder)
		api.GET("/orders", append(admin, h.ListOrders)...)
		api.GET("/orders/user/:userId", authn, h.ListUserOrders)
		api.GET("/orders/:id", authn, h.GetOrder)

		// Users
		api.GET("/users", append(admin, h.ListUsers)...)
		api.GET("/users/:id", append(admin, h.GetUser)...)

		// Documents
		if engagement != nil {
			m := api.Group("/mongo")
			m.GET("/gamedetails", h.ListGameDetails)
			m.GET("/gamedetails/:gameId", h.GetGameDetails)
			m.POST("/gamedetails", append(admin, h.CreateGameDetails)...)
			m.PUT("/gamedetails/:gameId", append(admin, h.UpdateGameDetails)...)

			m.POST("/activity", authn, h.RecordActivity)
			m.GET("/activity", append(admin, h.ListActivity)...)
			m.GET("/activity/:userId", authn, h.ListUserActivity)

			m.GET("/recommendations", append(admin, h.ListRecommendations)...)
			m.GET("/recommendations/:userId", authn, h.GetRecommendation)
			m.PUT("/recommendations/:userId", authn, h.ReplaceRecommendation)
		}
	}
}

func passThrough(c *gin.Context) { c.Next() }

// corsConfig echoes allowed origins with credentials. In development any
// localhost origin is accepted in addition to the configured list.
func corsConfig(cfg config.Config) cors.Config {
	allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
	for _, o := range cfg.CORS.AllowedOrigins {
		allowed[strings.TrimRight(o, "/")] = struct{}{}
	}
	dev := cfg.IsDevelopment()

	return cors.Config{
		AllowOriginFunc: func(origin string) bool {
			if _, ok := allowed[origin]; ok {
				return true
			}
			return dev && isLocalOrigin(origin)
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

func isLocalOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

// spaFallback serves files from dir for unknown GET routes outside the API
// and falls back to index.html so client-side routes resolve. It returns nil
// when dir is unset.
func spaFallback(dir, apiPrefix string) func(*gin.Context) bool {
	if dir == "" {
		return nil
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil
	}
	index := filepath.Join(root, "index.html")

	return func(c *gin.Context) bool {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			return false
		}
		p := c.Request.URL.Path
		if apiPrefix != "" && apiPrefix != "/" && (p == apiPrefix || strings.HasPrefix(p, apiPrefix+"/")) {
			return false
		}
		// Clean before joining so ".." cannot escape root.
		name := filepath.Join(root, filepath.FromSlash(pathClean(p)))
		if fi, err := os.Stat(name); err == nil && !fi.IsDir() {
			c.File(name)
			return true
		}
		if _, err := os.Stat(index); err != nil {
			return false
		}
		c.File(index)
		return true
	}
}

func pathClean(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return filepath.ToSlash(filepath.Clean(p))
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
