// internal/domain/models/conversion.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ConversionRecord is one currency conversion performed by a signed-in user.
//
// Email is always the identity resolved from a verified token, never a value
// taken from the request body. Timestamp is milliseconds since epoch, assigned
// by the server at write time. Records are append-only; there is no update or
// delete path anywhere in the application.
type ConversionRecord struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Email     string             `bson:"email"         json:"email"`
	From      string             `bson:"from"          json:"from"`
	To        string             `bson:"to"            json:"to"`
	Amount    float64            `bson:"amount"        json:"amount"`
	Rate      float64            `bson:"rate"          json:"rate"`
	Result    float64            `bson:"result"        json:"result"`
	Timestamp int64              `bson:"timestamp"     json:"timestamp"`
}

// NowMillis returns the current wall clock in the record's timestamp unit.
func NowMillis() int64 {
	return time.Now().UTC().UnixMilli()
}
