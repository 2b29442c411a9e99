// Package repo implements the relational persistence layer for domain
// entities, backed by GORM. This file provides small aggregate queries used
// for conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/LulDrako/playmarket-docker/internal/domain"
)

// GamesStats returns the number of catalog rows and the greatest UpdatedAt
// among them. When the catalog is empty, count is 0 and maxUpdatedAt is nil.
func GamesStats(ctx context.Context, db *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Game{})

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = db.WithContext(ctx).Model(&domain.Game{}).Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
