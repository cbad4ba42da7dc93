// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dalemusser/strataconvert/internal/app/system/idtoken"
	"github.com/dalemusser/strataconvert/internal/app/system/rates"
)

// DBDeps holds database and backend dependencies for this WAFFLE app.
//
// This struct is created in ConnectDB and passed to subsequent lifecycle
// hooks: EnsureSchema, Startup, BuildHandler, and Shutdown. It serves as
// the central place to store all database clients and backend connections
// that the application needs.
//
// The Shutdown hook is responsible for closing these connections gracefully
// when the application terminates.
type DBDeps struct {
	// MongoDB client and database
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Redis client for the exchange-rate cache. Nil when no Redis address
	// is configured; the rates client then uses an in-process cache.
	RedisClient *redis.Client

	// Verifier checks identity-provider tokens on protected routes.
	Verifier idtoken.Verifier

	// Rates looks up exchange rates from the upstream API.
	Rates *rates.Client
}
