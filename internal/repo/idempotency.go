// Package repo implements the relational persistence layer for domain
// entities, backed by GORM. This file provides repository helpers for the
// Idempotency model used to implement safe-retry semantics for POST endpoints.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/LulDrako/playmarket-docker/internal/domain"
)

// ErrDuplicate indicates that an idempotency record already exists for the
// given (user_id, scope, key) tuple.
var ErrDuplicate = errors.New("duplicate")

// IdempotencyScopeOrders names the order creation operation.
const IdempotencyScopeOrders = "orders"

// idempotencyTuple matches (user_id, scope, key). Map conditions let the
// dialect quote "key", which is reserved in MySQL.
func idempotencyTuple(userID int64, scope, key string) map[string]any {
	return map[string]any{"user_id": userID, "scope": scope, "key": key}
}

// GetIdempotency returns a non-expired record or ErrNotFound.
func GetIdempotency(ctx context.Context, db *gorm.DB, userID int64, scope, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := db.WithContext(ctx).
		Where(idempotencyTuple(userID, scope, key)).
		Where("expires_at > ?", now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateIdempotency inserts a record and returns ErrDuplicate on unique
// violation. An expired record for the same tuple is removed first so the
// key can be reused before the janitor runs; call it inside the transaction
// that writes the resource.
func CreateIdempotency(ctx context.Context, db *gorm.DB, userID int64, scope, key string, resourceID int64, status int, ttl time.Duration) (*domain.Idempotency, error) {
	now := time.Now().UTC()
	if err := db.WithContext(ctx).
		Where(idempotencyTuple(userID, scope, key)).
		Where("expires_at <= ?", now).
		Delete(&domain.Idempotency{}).Error; err != nil {
		return nil, err
	}
	rec := &domain.Idempotency{
		ID:         uuid.NewString(),
		UserID:     userID,
		Scope:      scope,
		Key:        key,
		ResourceID: resourceID,
		Status:     status,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}

// PurgeExpiredIdempotency deletes records whose TTL elapsed before now.
func PurgeExpiredIdempotency(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.Idempotency{})
	return res.RowsAffected, res.Error
}
