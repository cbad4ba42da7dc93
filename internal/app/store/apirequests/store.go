// Package apirequests stores per-operation API request statistics, bucketed
// by time so the service's traffic can be inspected without a metrics stack.
package apirequests

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the MongoDB collection for API request statistics.
const CollectionName = "api_request_stats"

// Operation identifies the API operation being tracked.
type Operation string

const (
	OpAuth        Operation = "auth"
	OpHistorySave Operation = "history_save"
	OpHistoryList Operation = "history_list"
	OpConvert     Operation = "convert"
	OpCurrencies  Operation = "currencies"
)

// Bucket is one time bucket of aggregated request statistics.
type Bucket struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Bucket         time.Time          `bson:"bucket"`          // bucket start time
	BucketDuration string             `bson:"bucket_duration"` // e.g. "1h", "15m"
	Operation      Operation          `bson:"operation"`
	Requests       int64              `bson:"requests"`
	Errors         int64              `bson:"errors"` // responses with status >= 400
	TotalMs        int64              `bson:"total_ms"`
	MinMs          int64              `bson:"min_ms"`
	MaxMs          int64              `bson:"max_ms"`
	UpdatedAt      time.Time          `bson:"updated_at"`
}

// AvgMs returns the average response time in milliseconds.
func (b *Bucket) AvgMs() float64 {
	if b.Requests == 0 {
		return 0
	}
	return float64(b.TotalMs) / float64(b.Requests)
}

// Store provides request-statistics persistence.
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
			Keys: bson.D{
				{Key: "bucket", Value: 1},
				{Key: "operation", Value: 1},
				{Key: "bucket_duration", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("idx_bucket_operation_duration"),
		},
		{
			Keys: bson.D{
				{Key: "operation", Value: 1},
				{Key: "bucket", Value: 1},
			},
			Options: options.Index().SetName("idx_operation_bucket"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Record upserts one request's timing into the bucket covering now.
func (s *Store) Record(ctx context.Context, op Operation, bucketDuration time.Duration, durationMs int64, isError bool) error {
	now := time.Now().UTC()
	bucket := now.Truncate(bucketDuration)
	durationStr := bucketDuration.String()

	update := bson.M{
		"$inc": bson.M{
			"requests": 1,
			"total_ms": durationMs,
		},
		"$set": bson.M{
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"bucket":          bucket,
			"bucket_duration": durationStr,
			"operation":       op,
		},
		"$min": bson.M{
			"min_ms": durationMs,
		},
		"$max": bson.M{
			"max_ms": durationMs,
		},
	}
	if isError {
		update["$inc"].(bson.M)["errors"] = 1
	}

	opts := options.Update().SetUpsert(true)
	_, err := s.c.UpdateOne(ctx, bson.M{
		"bucket":          bucket,
		"operation":       op,
		"bucket_duration": durationStr,
	}, update, opts)
	return err
}

// GetRange retrieves buckets for one operation within a time range,
// oldest first.
func (s *Store) GetRange(ctx context.Context, op Operation, startTime, endTime time.Time) ([]Bucket, error) {
	filter := bson.M{
		"operation": op,
		"bucket": bson.M{
			"$gte": startTime.UTC(),
			"$lte": endTime.UTC(),
		},
	}

	opts := options.Find().SetSort(bson.D{{Key: "bucket", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var buckets []Bucket
	if err := cur.All(ctx, &buckets); err != nil {
		return nil, err
	}
	return buckets, nil
}
