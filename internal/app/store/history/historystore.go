// internal/app/store/history/historystore.go
package historystore

import (
	"context"
	"fmt"

	"github.com/dalemusser/strataconvert/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the MongoDB collection holding conversion records.
const CollectionName = "conversion_history"

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(CollectionName)}
}

// EnsureIndexes creates indexes for efficient querying.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		// Per-user history (latest-first)
		{
			Keys:    bson.D{{Key: "email", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_history_email_timestamp"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Append inserts a ConversionRecord. If Timestamp is zero, it is set to the
// current time in epoch milliseconds. Records are never updated afterwards.
func (s *Store) Append(ctx context.Context, rec models.ConversionRecord) (models.ConversionRecord, error) {
	if rec.Timestamp == 0 {
		rec.Timestamp = models.NowMillis()
	}
	res, err := s.c.InsertOne(ctx, rec)
	if err != nil {
		return models.ConversionRecord{}, fmt.Errorf("append conversion record: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		rec.ID = oid
	}
	return rec, nil
}

// ListByEmail retrieves all conversion records for an email, newest first.
// An email with no records yields an empty (non-nil) slice, not an error.
func (s *Store) ListByEmail(ctx context.Context, email string) ([]models.ConversionRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}})

	cur, err := s.c.Find(ctx, bson.M{"email": email}, opts)
	if err != nil {
		return nil, fmt.Errorf("list conversion history: %w", err)
	}
	defer cur.Close(ctx)

	var records []models.ConversionRecord
	if err := cur.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode conversion history: %w", err)
	}
	if records == nil {
		records = []models.ConversionRecord{}
	}
	return records, nil
}

// CountByEmail returns the number of records stored for an email.
func (s *Store) CountByEmail(ctx context.Context, email string) (int64, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		return 0, fmt.Errorf("count conversion history: %w", err)
	}
	return n, nil
}
