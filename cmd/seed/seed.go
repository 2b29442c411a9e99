package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/LulDrako/playmarket-docker/internal/domain"
	"github.com/LulDrako/playmarket-docker/internal/repo"
)

//go:embed seed.json
var seedJSON []byte

type seedGame struct {
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	ImageURL *string         `json:"image_url"`
	Rating   *float64        `json:"rating"`
}

type seedData struct {
	Games   []seedGame           `json:"games"`
	Details []domain.GameDetails `json:"details"`
}

// detailsWriter is the part of the document store the seeder needs.
type detailsWriter interface {
	DeleteAllDetails(ctx context.Context) (int64, error)
	UpsertDetails(ctx context.Context, d domain.GameDetails) error
}

func loadSeed(raw []byte) (seedData, error) {
	var d seedData
	if err := json.Unmarshal(raw, &d); err != nil {
		return d, fmt.Errorf("parse seed data: %w", err)
	}
	return d, nil
}

// seedGames inserts the demo catalog when the games table is empty, so the
// detail documents keyed 1..N line up with fresh sequence ids. It returns the
// number of rows inserted.
func seedGames(ctx context.Context, db *gorm.DB, games []seedGame) (int, error) {
	var n int64
	if err := db.WithContext(ctx).Model(&domain.Game{}).Count(&n).Error; err != nil {
		return 0, err
	}
	if n > 0 {
		log.Info().Int64("existing", n).Msg("games table not empty, skipping demo catalog")
		return 0, nil
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, g := range games {
			if _, err := repo.CreateGame(ctx, tx, repo.NewGame{
				Title:    g.Title,
				Price:    g.Price,
				Stock:    g.Stock,
				ImageURL: g.ImageURL,
				Rating:   g.Rating,
			}); err != nil {
				return fmt.Errorf("insert %q: %w", g.Title, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(games), nil
}

// seedDetails replaces the details collection. With reset unset existing
// documents are kept and the seed rows are upserted over them.
func seedDetails(ctx context.Context, w detailsWriter, details []domain.GameDetails, reset bool) (int, error) {
	if reset {
		n, err := w.DeleteAllDetails(ctx)
		if err != nil {
			return 0, fmt.Errorf("clear details: %w", err)
		}
		log.Info().Int64("deleted", n).Msg("previous game details removed")
	}
	for _, d := range details {
		if err := w.UpsertDetails(ctx, d); err != nil {
			return 0, fmt.Errorf("upsert details for game %d: %w", d.GameID, err)
		}
	}
	return len(details), nil
}
