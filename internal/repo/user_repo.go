// Package repo implements the relational persistence layer for domain
// entities, backed by GORM. This file provides repository functions for the
// User model (the credential store).
//
// Error semantics:
//   - When a user is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - Unique violations on email surface as driver errors; use
//     IsUniqueViolation to classify them.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/LulDrako/playmarket-docker/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateUser inserts a user. Email is stored as given; callers normalize it.
func CreateUser(ctx context.Context, db *gorm.DB, email, passwordHash, name string, role domain.Role) (*domain.User, error) {
	u := &domain.User{
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// FindUserByEmail returns the user with the given (already normalized) email.
func FindUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUser fetches a user by primary key.
func GetUser(ctx context.Context, db *gorm.DB, id int64) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns every user ordered by id.
func ListUsers(ctx context.Context, db *gorm.DB) ([]domain.User, error) {
	var out []domain.User
	err := db.WithContext(ctx).Order("id asc").Find(&out).Error
	return out, err
}
