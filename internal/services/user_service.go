package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/LulDrako/playmarket-docker/internal/domain"
	"github.com/LulDrako/playmarket-docker/internal/repo"
)

// UserService exposes the account directory to administrators.
type UserService struct {
	DB *gorm.DB
}

// List returns every user ordered by id.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	out, err := repo.ListUsers(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.User{}
	}
	return out, nil
}

// Get returns one user by id.
func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	if id <= 0 {
		return nil, invalid("id", "must be a positive integer")
	}
	u, err := repo.GetUser(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	return u, err
}
