// Package services – EngagementService
//
// EngagementService fronts the document store: game descriptions, the
// append-only activity log and per-user recommendations. Reads and writes on
// another user's activity or recommendations require the admin role.
package services

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/LulDrako/playmarket-docker/internal/auth"
	"github.com/LulDrako/playmarket-docker/internal/docstore"
	"github.com/LulDrako/playmarket-docker/internal/domain"
)

// DocumentStore is the subset of the document store used by the service.
type DocumentStore interface {
	ListDetails(ctx context.Context) ([]domain.GameDetails, error)
	GetDetails(ctx context.Context, gameID int64) (*domain.GameDetails, error)
	CreateDetails(ctx context.Context, d domain.GameDetails) (*domain.GameDetails, error)
	UpdateDetails(ctx context.Context, gameID int64, p domain.DetailsPatch) (*domain.GameDetails, error)

	AppendActivity(ctx context.Context, a domain.ActivityLog) (*domain.ActivityLog, error)
	ListActivity(ctx context.Context) ([]domain.ActivityLog, error)
	ListActivityByUser(ctx context.Context, userID int64) ([]domain.ActivityLog, error)

	ListRecommendations(ctx context.Context) ([]domain.Recommendation, error)
	GetRecommendation(ctx context.Context, userID int64) (*domain.Recommendation, error)
	UpsertRecommendation(ctx context.Context, userID int64, items []domain.RecommendationItem) (*domain.Recommendation, error)
}

// EngagementService implements the /mongo endpoints.
type EngagementService struct {
	Store DocumentStore
}

func storeErr(err error) error {
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, docstore.ErrDuplicate):
		return ErrDuplicate
	default:
		return err
	}
}

// selfOrAdmin rejects access to another user's documents for non-admins.
func selfOrAdmin(actor auth.Principal, userID int64) error {
	if userID <= 0 {
		return invalid("userId", "must be a positive integer")
	}
	if userID != actor.ID && !actor.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

// ListDetails returns every details document.
func (s *EngagementService) ListDetails(ctx context.Context) ([]domain.GameDetails, error) {
	out, err := s.Store.ListDetails(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.GameDetails{}
	}
	return out, nil
}

// GetDetails returns the details of one game.
func (s *EngagementService) GetDetails(ctx context.Context, gameID int64) (*domain.GameDetails, error) {
	if gameID <= 0 {
		return nil, invalid("gameId", "must be a positive integer")
	}
	d, err := s.Store.GetDetails(ctx, gameID)
	return d, storeErr(err)
}

// CreateDetails stores a new details document; a second document for the
// same game is rejected with ErrDuplicate.
func (s *EngagementService) CreateDetails(ctx context.Context, in CreateDetailsInput) (*domain.GameDetails, error) {
	ctx, span := otel.Tracer("services/EngagementService").Start(ctx, "CreateDetails",
		trace.WithAttributes(attribute.Int64("game.id", in.GameID)),
	)
	defer span.End()

	in.Description = strings.TrimSpace(in.Description)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	d, err := s.Store.CreateDetails(ctx, domain.GameDetails{
		GameID:      in.GameID,
		Description: in.Description,
		Tags:        in.Tags,
		Videos:      toVideos(in.Videos),
	})
	return d, storeErr(err)
}

// UpdateDetails applies a partial update and refreshes updatedAt.
func (s *EngagementService) UpdateDetails(ctx context.Context, gameID int64, in UpdateDetailsInput) (*domain.GameDetails, error) {
	ctx, span := otel.Tracer("services/EngagementService").Start(ctx, "UpdateDetails",
		trace.WithAttributes(attribute.Int64("game.id", gameID)),
	)
	defer span.End()

	if gameID <= 0 {
		return nil, invalid("gameId", "must be a positive integer")
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	p := domain.DetailsPatch{Description: in.Description, Tags: in.Tags, Videos: toVideos(in.Videos)}
	if p.Empty() {
		return nil, invalid("body", "at least one of description, tags or videos is required")
	}
	d, err := s.Store.UpdateDetails(ctx, gameID, p)
	return d, storeErr(err)
}

// RecordActivity appends an event. UserID defaults to the caller; recording
// for someone else requires the admin role.
func (s *EngagementService) RecordActivity(ctx context.Context, actor auth.Principal, in ActivityInput) (*domain.ActivityLog, error) {
	ctx, span := otel.Tracer("services/EngagementService").Start(ctx, "RecordActivity",
		trace.WithAttributes(attribute.String("event", in.Event)),
	)
	defer span.End()

	in.Event = strings.TrimSpace(in.Event)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	userID := actor.ID
	if in.UserID != nil {
		userID = *in.UserID
	}
	if err := selfOrAdmin(actor, userID); err != nil {
		return nil, err
	}
	return s.Store.AppendActivity(ctx, domain.ActivityLog{
		UserID: userID,
		Event:  in.Event,
		GameID: in.GameID,
	})
}

// ListActivity returns the whole log, newest first. Admin only.
func (s *EngagementService) ListActivity(ctx context.Context, actor auth.Principal) ([]domain.ActivityLog, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	out, err := s.Store.ListActivity(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.ActivityLog{}
	}
	return out, nil
}

// ListUserActivity returns one user's events, newest first.
func (s *EngagementService) ListUserActivity(ctx context.Context, actor auth.Principal, userID int64) ([]domain.ActivityLog, error) {
	if err := selfOrAdmin(actor, userID); err != nil {
		return nil, err
	}
	out, err := s.Store.ListActivityByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.ActivityLog{}
	}
	return out, nil
}

// ListRecommendations returns every stored list. Admin only.
func (s *EngagementService) ListRecommendations(ctx context.Context, actor auth.Principal) ([]domain.Recommendation, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	out, err := s.Store.ListRecommendations(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Recommendation{}
	}
	return out, nil
}

// GetRecommendation returns one user's list.
func (s *EngagementService) GetRecommendation(ctx context.Context, actor auth.Principal, userID int64) (*domain.Recommendation, error) {
	if err := selfOrAdmin(actor, userID); err != nil {
		return nil, err
	}
	r, err := s.Store.GetRecommendation(ctx, userID)
	return r, storeErr(err)
}

// ReplaceRecommendation replaces a user's list and stamps generatedAt.
// Scores are stored as given.
func (s *EngagementService) ReplaceRecommendation(ctx context.Context, actor auth.Principal, userID int64, in RecommendationsInput) (*domain.Recommendation, error) {
	ctx, span := otel.Tracer("services/EngagementService").Start(ctx, "ReplaceRecommendation",
		trace.WithAttributes(attribute.Int64("user.id", userID), attribute.Int("items", len(in.Items))),
	)
	defer span.End()

	if err := selfOrAdmin(actor, userID); err != nil {
		return nil, err
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	items := make([]domain.RecommendationItem, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, domain.RecommendationItem{GameID: it.GameID, Score: it.Score, Reason: it.Reason})
	}
	r, err := s.Store.UpsertRecommendation(ctx, userID, items)
	return r, storeErr(err)
}
