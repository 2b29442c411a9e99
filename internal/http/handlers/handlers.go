// Package handlers exposes the marketplace REST endpoints.
//
// Handlers are transport-thin: they bind input, read the principal set by the
// auth middleware, call application services and translate the results
// (including conditional responses and the refresh cookie) into HTTP.
package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LulDrako/playmarket-docker/internal/auth"
	"github.com/LulDrako/playmarket-docker/internal/domain"
	"github.com/LulDrako/playmarket-docker/internal/services"
	"github.com/LulDrako/playmarket-docker/internal/utils"
)

//
// Service contracts (context-aware)
//

// AuthService opens sessions.
type AuthService interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.Session, error)
	Login(ctx context.Context, in services.LoginInput) (*services.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*services.Session, error)
}

// CatalogService serves the enriched catalog and its admin writes.
type CatalogService interface {
	// ETag returns the weak validator of the enriched list.
	ETag(ctx context.Context) (string, error)
	List(ctx context.Context) ([]domain.CatalogGame, error)
	Get(ctx context.Context, id int64) (*domain.CatalogGame, error)
	Search(ctx context.Context, q string, limit int) ([]domain.CatalogGame, error)
	Create(ctx context.Context, in services.CreateGameInput) (*domain.Game, error)
	UpdateStock(ctx context.Context, id int64, in services.StockInput) (*domain.Game, error)
}

// OrderService places and reads orders on behalf of a principal.
type OrderService interface {
	// Create returns replayed=true when idemKey matched an earlier order.
	Create(ctx context.Context, actor auth.Principal, in services.CreateOrderInput, idemKey string) (*domain.Order, bool, error)
	Get(ctx context.Context, actor auth.Principal, id int64) (*domain.Order, error)
	ListAll(ctx context.Context, actor auth.Principal) ([]domain.Order, error)
	ListByUser(ctx context.Context, actor auth.Principal, userID int64) ([]domain.Order, error)
}

// UserService is the admin account directory.
type UserService interface {
	List(ctx context.Context) ([]domain.User, error)
	Get(ctx context.Context, id int64) (*domain.User, error)
}

// EngagementService manages the document side: details, activity and
// recommendations.
type EngagementService interface {
	ListDetails(ctx context.Context) ([]domain.GameDetails, error)
	GetDetails(ctx context.Context, gameID int64) (*domain.GameDetails, error)
	CreateDetails(ctx context.Context, in services.CreateDetailsInput) (*domain.GameDetails, error)
	UpdateDetails(ctx context.Context, gameID int64, in services.UpdateDetailsInput) (*domain.GameDetails, error)

	RecordActivity(ctx context.Context, actor auth.Principal, in services.ActivityInput) (*domain.ActivityLog, error)
	ListActivity(ctx context.Context, actor auth.Principal) ([]domain.ActivityLog, error)
	ListUserActivity(ctx context.Context, actor auth.Principal, userID int64) ([]domain.ActivityLog, error)

	ListRecommendations(ctx context.Context, actor auth.Principal) ([]domain.Recommendation, error)
	GetRecommendation(ctx context.Context, actor auth.Principal, userID int64) (*domain.Recommendation, error)
	ReplaceRecommendation(ctx context.Context, actor auth.Principal, userID int64, in services.RecommendationsInput) (*domain.Recommendation, error)
}

// Pinger checks one backing store.
type Pinger func(ctx context.Context) error

//
// Handler wiring
//

// Services bundles the dependencies of Handlers. Nil services leave their
// routes unregistered by the router.
type Services struct {
	Auth       AuthService
	Catalog    CatalogService
	Orders     OrderService
	Users      UserService
	Engagement EngagementService

	// Stores answer the /api/status probe.
	Stores map[string]Pinger

	// SecureCookies marks the refresh cookie Secure (production).
	SecureCookies bool
	Version       string
}

// Handlers groups every HTTP endpoint of the API.
type Handlers struct {
	auth       AuthService
	catalog    CatalogService
	orders     OrderService
	users      UserService
	engagement EngagementService

	stores        map[string]Pinger
	secureCookies bool
	version       string
	now           func() time.Time
}

// New constructs and returns a Handlers instance bound to the given services.
func New(s Services) *Handlers {
	return &Handlers{
		auth:          s.Auth,
		catalog:       s.Catalog,
		orders:        s.Orders,
		users:         s.Users,
		engagement:    s.Engagement,
		stores:        s.Stores,
		secureCookies: s.SecureCookies,
		version:       s.Version,
		now:           time.Now,
	}
}

//
// Helpers
//

// pathID parses a positive integer path parameter. On failure it writes a 400
// validation error naming the parameter and returns false.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, ok := utils.ParseID(c.Param(name))
	if !ok {
		writeError(c, &services.ValidationError{Fields: []services.FieldError{
			{Field: name, Message: "must be a positive integer"},
		}})
		return 0, false
	}
	return id, true
}

// bindJSON decodes the request body into dst and answers 400 on malformed
// JSON. Field validation is left to the services.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "invalid JSON body")
		return false
	}
	return true
}
