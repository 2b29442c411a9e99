// Package services – CatalogService
//
// CatalogService serves the relational catalog merged with the descriptive
// documents of the document store. Enrichment is best effort: a game whose
// details are missing, or whose lookup failed, is returned as a bare row.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/LulDrako/playmarket-docker/internal/domain"
	"github.com/LulDrako/playmarket-docker/internal/repo"
	"github.com/LulDrako/playmarket-docker/internal/search"
	"github.com/LulDrako/playmarket-docker/internal/utils"
)

// Search limits.
const (
	DefaultSearchLimit = 5
	MaxSearchLimit     = 20
)

// DetailsSource answers details lookups for enrichment.
type DetailsSource interface {
	LookupDetails(ctx context.Context, gameID int64) domain.DetailsLookup
	DetailsFor(ctx context.Context, gameIDs []int64) (map[int64]*domain.GameDetails, error)
	// DetailsVersion returns the document count and latest updatedAt.
	DetailsVersion(ctx context.Context) (int64, *time.Time, error)
}

// CatalogService provides catalog reads, search and admin writes.
type CatalogService struct {
	DB      *gorm.DB
	Details DetailsSource // nil disables enrichment
}

// ETag returns the weak validator of the enriched list. It covers the game
// rows and, when enrichment is on, the details documents, so editing a
// description invalidates cached lists. An error means no validator.
func (s *CatalogService) ETag(ctx context.Context) (string, error) {
	count, maxTS, err := repo.GamesStats(ctx, s.DB)
	if err != nil {
		return "", err
	}
	if s.Details == nil {
		return fmt.Sprintf(`W/"games:%d:%d"`, count, unixNanoOrZero(maxTS)), nil
	}
	dcount, dmaxTS, err := s.Details.DetailsVersion(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`W/"games:%d:%d:details:%d:%d"`,
		count, unixNanoOrZero(maxTS), dcount, unixNanoOrZero(dmaxTS)), nil
}

func unixNanoOrZero(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.UnixNano()
}

// List returns every game ordered by id, enriched in a single batch lookup.
func (s *CatalogService) List(ctx context.Context) ([]domain.CatalogGame, error) {
	ctx, span := otel.Tracer("services/CatalogService").Start(ctx, "List")
	defer span.End()

	games, err := repo.ListGames(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("games.count", len(games)))
	return s.enrichAll(ctx, games), nil
}

func (s *CatalogService) enrichAll(ctx context.Context, games []domain.Game) []domain.CatalogGame {
	out := make([]domain.CatalogGame, 0, len(games))
	if s.Details == nil || len(games) == 0 {
		for _, g := range games {
			out = append(out, domain.Enrich(g, domain.NotFound()))
		}
		return out
	}

	ids := make([]int64, 0, len(games))
	for _, g := range games {
		ids = append(ids, g.ID)
	}
	found, err := s.Details.DetailsFor(ctx, ids)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Int("games", len(games)).Msg("catalog enrichment failed, serving bare rows")
		enrichment.WithLabelValues(domain.DetailsLookupFailed.String()).Add(float64(len(games)))
		for _, g := range games {
			out = append(out, domain.Enrich(g, domain.LookupFailed(err)))
		}
		return out
	}
	for _, g := range games {
		l := domain.Found(found[g.ID])
		enrichment.WithLabelValues(l.Outcome.String()).Inc()
		out = append(out, domain.Enrich(g, l))
	}
	return out
}

// Get returns one enriched game.
func (s *CatalogService) Get(ctx context.Context, id int64) (*domain.CatalogGame, error) {
	ctx, span := otel.Tracer("services/CatalogService").Start(ctx, "Get",
		trace.WithAttributes(attribute.Int64("game.id", id)),
	)
	defer span.End()

	if id <= 0 {
		return nil, invalid("id", "must be a positive integer")
	}
	g, err := repo.GetGame(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	l := domain.NotFound()
	if s.Details != nil {
		l = s.Details.LookupDetails(ctx, id)
		enrichment.WithLabelValues(l.Outcome.String()).Inc()
		if l.Outcome == domain.DetailsLookupFailed {
			zerolog.Ctx(ctx).Warn().Err(l.Err).Int64("game_id", id).Msg("details lookup failed, serving bare row")
		}
	}
	out := domain.Enrich(*g, l)
	return &out, nil
}

// Search ranks the enriched catalog against q. Aliases such as "gta" are
// expanded; limit defaults to DefaultSearchLimit and is capped at
// MaxSearchLimit.
func (s *CatalogService) Search(ctx context.Context, q string, limit int) ([]domain.CatalogGame, error) {
	ctx, span := otel.Tracer("services/CatalogService").Start(ctx, "Search",
		trace.WithAttributes(attribute.String("query", q), attribute.Int("limit", limit)),
	)
	defer span.End()

	q = strings.TrimSpace(q)
	if q == "" {
		return nil, invalid("q", "is required")
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	limit = utils.ClampInt(limit, 1, MaxSearchLimit)

	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]domain.CatalogGame, len(all))
	docs := make([]search.Document, 0, len(all))
	for _, g := range all {
		byID[g.ID] = g
		text := ""
		if g.Details != nil {
			text = g.Details.Description + " " + strings.Join(g.Details.Tags, " ")
		}
		docs = append(docs, search.Document{ID: g.ID, Title: g.Title, Text: text})
	}

	hits := search.NewIndex(docs).TopK(q, limit)
	out := make([]domain.CatalogGame, 0, len(hits))
	for _, h := range hits {
		out = append(out, byID[h.ID])
	}
	return out, nil
}

// Create validates and stores a new catalog row.
func (s *CatalogService) Create(ctx context.Context, in CreateGameInput) (*domain.Game, error) {
	ctx, span := otel.Tracer("services/CatalogService").Start(ctx, "Create")
	defer span.End()

	in.Title = strings.TrimSpace(in.Title)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	ng := repo.NewGame{
		Title:    in.Title,
		Price:    *in.Price,
		ImageURL: in.ImageURL,
		Rating:   in.Rating,
	}
	if in.Stock != nil {
		ng.Stock = *in.Stock
	}
	return repo.CreateGame(ctx, s.DB, ng)
}

// UpdateStock sets the stock of a game.
func (s *CatalogService) UpdateStock(ctx context.Context, id int64, in StockInput) (*domain.Game, error) {
	ctx, span := otel.Tracer("services/CatalogService").Start(ctx, "UpdateStock",
		trace.WithAttributes(attribute.Int64("game.id", id)),
	)
	defer span.End()

	if id <= 0 {
		return nil, invalid("id", "must be a positive integer")
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	g, err := repo.UpdateGameStock(ctx, s.DB, id, *in.Stock)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	return g, err
}
