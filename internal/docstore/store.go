// Package docstore implements the document side of the marketplace on
// MongoDB: game details, activity logs and recommendations.
//
// Functions are context-aware and keep to persistence concerns only; access
// rules live in the services layer. Missing documents surface as ErrNotFound
// (an alias of mongo.ErrNoDocuments) and unique-key conflicts as ErrDuplicate.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/LulDrako/playmarket-docker/internal/config"
)

// Collection names.
const (
	CollGameDetails     = "gameDetails"
	CollActivityLogs    = "activityLogs"
	CollRecommendations = "recommendations"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = mongo.ErrNoDocuments

// ErrDuplicate is returned when a unique key (gameId, userId) already exists.
var ErrDuplicate = errors.New("duplicate document")

// Store groups the collections of the document database.
type Store struct {
	db              *mongo.Database
	details         *mongo.Collection
	activity        *mongo.Collection
	recommendations *mongo.Collection
	now             func() time.Time
}

// New wraps an existing database handle.
func New(db *mongo.Database) *Store {
	return &Store{
		db:              db,
		details:         db.Collection(CollGameDetails),
		activity:        db.Collection(CollActivityLogs),
		recommendations: db.Collection(CollRecommendations),
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Connect dials MongoDB with the configured pool and timeouts, verifies the
// connection with a ping and returns the client (owned by the caller) and a
// Store bound to cfg.Database.
func Connect(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, *Store, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout).
		SetMaxPoolSize(cfg.MaxPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, New(client.Database(cfg.Database)), nil
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
}

// EnsureIndexes creates the unique and lookup indexes the store relies on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.details.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "gameId", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("ux_gameId"),
	}); err != nil {
		return fmt.Errorf("index %s: %w", CollGameDetails, err)
	}
	if _, err := s.recommendations.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("ux_userId"),
	}); err != nil {
		return fmt.Errorf("index %s: %w", CollRecommendations, err)
	}
	if _, err := s.activity.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("idx_user_createdAt"),
	}); err != nil {
		return fmt.Errorf("index %s: %w", CollActivityLogs, err)
	}
	// Only purchase lines carry an orderId.
	if _, err := s.activity.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "orderId", Value: 1}, {Key: "gameId", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetName("ux_order_game").
			SetPartialFilterExpression(bson.D{{Key: "orderId", Value: bson.D{{Key: "$exists", Value: true}}}}),
	}); err != nil {
		return fmt.Errorf("index %s: %w", CollActivityLogs, err)
	}
	return nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	default:
		return err
	}
}
