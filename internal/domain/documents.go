package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Video is a media link attached to game details.
type Video struct {
	Title string `bson:"title" json:"title"`
	URL   string `bson:"url"   json:"url"`
}

// GameDetails is the descriptive document for a catalog game, keyed by the
// relational game id (unique).
type GameDetails struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	GameID      int64              `bson:"gameId"        json:"gameId"`
	Description string             `bson:"description"   json:"description"`
	Tags        []string           `bson:"tags"          json:"tags"`
	Videos      []Video            `bson:"videos"        json:"videos"`
	UpdatedAt   time.Time          `bson:"updatedAt"     json:"updatedAt"`
}

// DetailsPatch carries a partial update of GameDetails; nil fields are left
// untouched.
type DetailsPatch struct {
	Description *string  `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Videos      []Video  `json:"videos,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p DetailsPatch) Empty() bool {
	return p.Description == nil && p.Tags == nil && p.Videos == nil
}

// Activity events recorded by the platform itself.
const (
	EventPurchase = "purchase"
	EventView     = "view"
)

// ActivityLog is an append-only record of a user event.
type ActivityLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"    json:"_id,omitempty"`
	UserID    int64              `bson:"userId"           json:"userId"`
	Event     string             `bson:"event"            json:"event"`
	GameID    *int64             `bson:"gameId,omitempty" json:"gameId,omitempty"`
	OrderID   *int64             `bson:"orderId,omitempty" json:"orderId,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"        json:"createdAt"`
}

// RecommendationItem is a single scored suggestion.
type RecommendationItem struct {
	GameID int64   `bson:"gameId"           json:"gameId"`
	Score  float64 `bson:"score"            json:"score"`
	Reason string  `bson:"reason,omitempty" json:"reason,omitempty"`
}

// Recommendation is the stored suggestion list for one user (unique per user).
type Recommendation struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"_id,omitempty"`
	UserID      int64                `bson:"userId"        json:"userId"`
	GeneratedAt time.Time            `bson:"generatedAt"   json:"generatedAt"`
	Items       []RecommendationItem `bson:"items"         json:"items"`
}
