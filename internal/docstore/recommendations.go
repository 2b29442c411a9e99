package docstore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/LulDrako/playmarket-docker/internal/domain"
)

// ListRecommendations returns every stored recommendation list.
func (s *Store) ListRecommendations(ctx context.Context) ([]domain.Recommendation, error) {
	cur, err := s.recommendations.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "userId", Value: 1}}))
	if err != nil {
		return nil, err
	}
	out := []domain.Recommendation{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetRecommendation returns the list stored for userID or ErrNotFound.
func (s *Store) GetRecommendation(ctx context.Context, userID int64) (*domain.Recommendation, error) {
	var r domain.Recommendation
	if err := s.recommendations.FindOne(ctx, bson.D{{Key: "userId", Value: userID}}).Decode(&r); err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

// UpsertRecommendation replaces the items of userID's list (creating it when
// absent) and stamps a fresh generatedAt.
func (s *Store) UpsertRecommendation(ctx context.Context, userID int64, items []domain.RecommendationItem) (*domain.Recommendation, error) {
	if items == nil {
		items = []domain.RecommendationItem{}
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "userId", Value: userID},
		{Key: "items", Value: items},
		{Key: "generatedAt", Value: s.now()},
	}}}

	var r domain.Recommendation
	err := s.recommendations.FindOneAndUpdate(ctx,
		bson.D{{Key: "userId", Value: userID}},
		update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&r)
	if err != nil {
		return nil, translate(err)
	}
	return &r, nil
}
