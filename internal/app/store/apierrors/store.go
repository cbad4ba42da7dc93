// Package apierrors stores failed API requests for debugging client
// integrations. Only requests that end in an error status are captured.
package apierrors

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the MongoDB collection for API error entries.
const CollectionName = "api_errors"

// Entry records a single failed API request.
type Entry struct {
	ID primitive.ObjectID `bson:"_id,omitempty"`

	RequestID string `bson:"request_id"` // generated UUID
	Method    string `bson:"method"`
	Path      string `bson:"path"`
	Query     string `bson:"query,omitempty"`
	RemoteIP  string `bson:"remote_ip"`

	StatusCode  int    `bson:"status_code"`
	ErrorBody   string `bson:"error_body,omitempty"`   // response body, truncated
	BodyPreview string `bson:"body_preview,omitempty"` // request body, truncated

	DurationMs int64     `bson:"duration_ms"`
	OccurredAt time.Time `bson:"occurred_at"`
}

// Store provides API error persistence.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(CollectionName)}
}

// EnsureIndexes creates indexes for efficient queries.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "occurred_at", Value: -1}},
			Options: options.Index().SetName("idx_apierrors_occurred"),
		},
		{
			Keys:    bson.D{{Key: "request_id", Value: 1}},
			Options: options.Index().SetName("idx_apierrors_request_id"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create inserts a new error entry.
func (s *Store) Create(ctx context.Context, entry Entry) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	_, err := s.c.InsertOne(ctx, entry)
	return err
}

// ListRecent returns the most recent error entries, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int64) ([]Entry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "occurred_at", Value: -1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var entries []Entry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
