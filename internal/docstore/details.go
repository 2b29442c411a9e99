package docstore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/LulDrako/playmarket-docker/internal/domain"
)

// ListDetails returns every details document ordered by gameId.
func (s *Store) ListDetails(ctx context.Context) ([]domain.GameDetails, error) {
	cur, err := s.details.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "gameId", Value: 1}}))
	if err != nil {
		return nil, err
	}
	out := []domain.GameDetails{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetDetails returns the details of one game or ErrNotFound.
func (s *Store) GetDetails(ctx context.Context, gameID int64) (*domain.GameDetails, error) {
	var d domain.GameDetails
	if err := s.details.FindOne(ctx, bson.D{{Key: "gameId", Value: gameID}}).Decode(&d); err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

// LookupDetails classifies the details lookup for catalog enrichment.
func (s *Store) LookupDetails(ctx context.Context, gameID int64) domain.DetailsLookup {
	d, err := s.GetDetails(ctx, gameID)
	switch {
	case err == nil:
		return domain.Found(d)
	case errors.Is(err, ErrNotFound):
		return domain.NotFound()
	default:
		return domain.LookupFailed(err)
	}
}

// DetailsFor fetches the details of several games in one query, keyed by
// gameId. Games without details are absent from the map.
func (s *Store) DetailsFor(ctx context.Context, gameIDs []int64) (map[int64]*domain.GameDetails, error) {
	out := make(map[int64]*domain.GameDetails, len(gameIDs))
	if len(gameIDs) == 0 {
		return out, nil
	}
	cur, err := s.details.Find(ctx, bson.D{{Key: "gameId", Value: bson.D{{Key: "$in", Value: gameIDs}}}})
	if err != nil {
		return nil, err
	}
	var docs []domain.GameDetails
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	for i := range docs {
		out[docs[i].GameID] = &docs[i]
	}
	return out, nil
}

// DetailsVersion returns the number of details documents and the latest
// updatedAt among them (nil when the collection is empty).
func (s *Store) DetailsVersion(ctx context.Context) (int64, *time.Time, error) {
	n, err := s.details.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, nil, err
	}
	if n == 0 {
		return 0, nil, nil
	}
	var last domain.GameDetails
	err = s.details.FindOne(ctx, bson.D{},
		options.FindOne().
			SetSort(bson.D{{Key: "updatedAt", Value: -1}}).
			SetProjection(bson.D{{Key: "updatedAt", Value: 1}}),
	).Decode(&last)
	if err != nil {
		return 0, nil, translate(err)
	}
	ts := last.UpdatedAt.UTC()
	return n, &ts, nil
}

// CreateDetails inserts a details document. A second document for the same
// gameId yields ErrDuplicate.
func (s *Store) CreateDetails(ctx context.Context, d domain.GameDetails) (*domain.GameDetails, error) {
	d.ID = primitive.NilObjectID
	d.UpdatedAt = s.now()
	if d.Tags == nil {
		d.Tags = []string{}
	}
	if d.Videos == nil {
		d.Videos = []domain.Video{}
	}
	res, err := s.details.InsertOne(ctx, d)
	if err != nil {
		return nil, translate(err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		d.ID = oid
	}
	return &d, nil
}

// UpdateDetails applies a partial update and refreshes updatedAt. It returns
// the document after the update, or ErrNotFound.
func (s *Store) UpdateDetails(ctx context.Context, gameID int64, p domain.DetailsPatch) (*domain.GameDetails, error) {
	set := bson.D{{Key: "updatedAt", Value: s.now()}}
	if p.Description != nil {
		set = append(set, bson.E{Key: "description", Value: *p.Description})
	}
	if p.Tags != nil {
		set = append(set, bson.E{Key: "tags", Value: p.Tags})
	}
	if p.Videos != nil {
		set = append(set, bson.E{Key: "videos", Value: p.Videos})
	}

	var d domain.GameDetails
	err := s.details.FindOneAndUpdate(ctx,
		bson.D{{Key: "gameId", Value: gameID}},
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

// UpsertDetails replaces (or inserts) the details of d.GameID. Used by the
// seeder to make repeated runs converge.
func (s *Store) UpsertDetails(ctx context.Context, d domain.GameDetails) error {
	d.ID = primitive.NilObjectID
	d.UpdatedAt = s.now()
	_, err := s.details.ReplaceOne(ctx,
		bson.D{{Key: "gameId", Value: d.GameID}},
		d,
		options.Replace().SetUpsert(true),
	)
	return translate(err)
}

// DeleteAllDetails empties the collection.
func (s *Store) DeleteAllDetails(ctx context.Context) (int64, error) {
	res, err := s.details.DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
