package docstore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/LulDrako/playmarket-docker/internal/domain"
)

// AppendActivity stores a new activity record. CreatedAt defaults to now.
func (s *Store) AppendActivity(ctx context.Context, a domain.ActivityLog) (*domain.ActivityLog, error) {
	a.ID = primitive.NilObjectID
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	res, err := s.activity.InsertOne(ctx, a)
	if err != nil {
		return nil, translate(err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		a.ID = oid
	}
	return &a, nil
}

// RecordPurchase stores a purchase line once per (orderId, gameId). It
// reports whether a new record was written; a redelivered line leaves the
// existing record untouched.
func (s *Store) RecordPurchase(ctx context.Context, a domain.ActivityLog) (bool, error) {
	if a.OrderID == nil || a.GameID == nil {
		return false, errors.New("purchase activity needs orderId and gameId")
	}
	a.ID = primitive.NilObjectID
	a.Event = domain.EventPurchase
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	res, err := s.activity.UpdateOne(ctx,
		bson.D{{Key: "orderId", Value: *a.OrderID}, {Key: "gameId", Value: *a.GameID}},
		bson.D{{Key: "$setOnInsert", Value: a}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		// Two upserts racing on the unique index: the other one won.
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return res.UpsertedCount > 0, nil
}

// ListActivity returns all activity, newest first.
func (s *Store) ListActivity(ctx context.Context) ([]domain.ActivityLog, error) {
	return s.findActivity(ctx, bson.D{})
}

// ListActivityByUser returns one user's activity, newest first.
func (s *Store) ListActivityByUser(ctx context.Context, userID int64) ([]domain.ActivityLog, error) {
	return s.findActivity(ctx, bson.D{{Key: "userId", Value: userID}})
}

func (s *Store) findActivity(ctx context.Context, filter bson.D) ([]domain.ActivityLog, error) {
	cur, err := s.activity.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	out := []domain.ActivityLog{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
