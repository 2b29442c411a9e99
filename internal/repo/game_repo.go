package repo

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/LulDrako/playmarket-docker/internal/domain"
)

// NewGame carries the columns accepted when creating a catalog row.
type NewGame struct {
	Title    string
	Price    decimal.Decimal
	Stock    int
	ImageURL *string
	Rating   *float64
}

// ListGames returns all catalog rows ordered by id.
func ListGames(ctx context.Context, db *gorm.DB) ([]domain.Game, error) {
	var out []domain.Game
	err := db.WithContext(ctx).Order("id asc").Find(&out).Error
	return out, err
}

// GetGame fetches a catalog row by id or returns ErrNotFound.
func GetGame(ctx context.Context, db *gorm.DB, id int64) (*domain.Game, error) {
	var g domain.Game
	if err := db.WithContext(ctx).First(&g, id).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

// CreateGame inserts a catalog row with the price rounded to cents.
func CreateGame(ctx context.Context, db *gorm.DB, in NewGame) (*domain.Game, error) {
	now := time.Now().UTC()
	g := &domain.Game{
		Title:     in.Title,
		Price:     in.Price.Round(2),
		Stock:     in.Stock,
		ImageURL:  in.ImageURL,
		Rating:    in.Rating,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(g).Error; err != nil {
		return nil, err
	}
	return g, nil
}

// UpdateGameStock sets the stock of a game and bumps updated_at. It returns
// ErrNotFound when no row matches.
func UpdateGameStock(ctx context.Context, db *gorm.DB, id int64, stock int) (*domain.Game, error) {
	res := db.WithContext(ctx).
		Model(&domain.Game{}).
		Where("id = ?", id).
		Updates(map[string]any{"stock": stock, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return GetGame(ctx, db, id)
}
