package services

import (
	"github.com/shopspring/decimal"

	"github.com/LulDrako/playmarket-docker/internal/domain"
)

// RegisterInput is the body of POST /auth/register.
type RegisterInput struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128,strongpassword"`
	Name     string `json:"name"     validate:"required,min=2,max=100"`
	Role     string `json:"role"     validate:"omitempty,oneof=user admin"`
}

// LoginInput is the body of POST /auth/login.
type LoginInput struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// OrderLineInput is one requested order line. UnitPrice accepts a JSON number
// or a decimal string.
type OrderLineInput struct {
	GameID    int64            `json:"game_id"    validate:"required,gte=1"`
	Quantity  int              `json:"quantity"   validate:"required,gte=1"`
	UnitPrice *decimal.Decimal `json:"unit_price" validate:"required,money"`
}

// CreateOrderInput is the body of POST /orders. UserID is optional; when set
// and different from the caller it requires the admin role.
type CreateOrderInput struct {
	UserID *int64           `json:"user_id,omitempty" validate:"omitempty,gte=1"`
	Items  []OrderLineInput `json:"items"             validate:"required,min=1,dive"`
}

// CreateGameInput is the body of POST /games.
type CreateGameInput struct {
	Title    string           `json:"title"     validate:"required,min=1,max=255"`
	Price    *decimal.Decimal `json:"price"     validate:"required,money"`
	Stock    *int             `json:"stock"     validate:"omitempty,gte=0"`
	ImageURL *string          `json:"image_url" validate:"omitempty,url,max=512"`
	Rating   *float64         `json:"rating"    validate:"omitempty,gte=0,lte=5"`
}

// StockInput is the body of PATCH /games/:id/stock.
type StockInput struct {
	Stock *int `json:"stock" validate:"required,gte=0"`
}

// VideoInput is one video link of a details document.
type VideoInput struct {
	Title string `json:"title" validate:"required,max=255"`
	URL   string `json:"url"   validate:"required,url,max=512"`
}

// CreateDetailsInput is the body of POST /mongo/gamedetails.
type CreateDetailsInput struct {
	GameID      int64        `json:"gameId"      validate:"required,gte=1"`
	Description string       `json:"description" validate:"required,max=5000"`
	Tags        []string     `json:"tags"        validate:"omitempty,max=50,dive,min=1,max=50"`
	Videos      []VideoInput `json:"videos"      validate:"omitempty,max=20,dive"`
}

// UpdateDetailsInput is the body of PUT /mongo/gamedetails/:gameId. Absent
// fields are left unchanged.
type UpdateDetailsInput struct {
	Description *string      `json:"description" validate:"omitempty,min=1,max=5000"`
	Tags        []string     `json:"tags"        validate:"omitempty,max=50,dive,min=1,max=50"`
	Videos      []VideoInput `json:"videos"      validate:"omitempty,max=20,dive"`
}

// ActivityInput is the body of POST /mongo/activity.
type ActivityInput struct {
	Event  string `json:"event"  validate:"required,max=64"`
	GameID *int64 `json:"gameId" validate:"omitempty,gte=1"`
	UserID *int64 `json:"userId" validate:"omitempty,gte=1"`
}

// RecommendationItemInput is one scored suggestion.
type RecommendationItemInput struct {
	GameID int64   `json:"gameId" validate:"required,gte=1"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason" validate:"max=500"`
}

// RecommendationsInput is the body of PUT /mongo/recommendations/:userId.
type RecommendationsInput struct {
	Items []RecommendationItemInput `json:"items" validate:"required,dive"`
}

func toVideos(in []VideoInput) []domain.Video {
	if in == nil {
		return nil
	}
	out := make([]domain.Video, 0, len(in))
	for _, v := range in {
		out = append(out, domain.Video{Title: v.Title, URL: v.URL})
	}
	return out
}
