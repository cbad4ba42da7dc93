// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dalemusser/strataconvert/internal/app/system/idtoken"
	"github.com/dalemusser/strataconvert/internal/app/system/indexes"
	"github.com/dalemusser/strataconvert/internal/app/system/rates"
)

// ConnectDB connects to databases or other backends.
//
// WAFFLE calls this after configuration is loaded but before EnsureSchema and
// Startup. This is the place to establish connections to:
//   - Databases (MongoDB, PostgreSQL, MySQL, SQLite, etc.)
//   - Caches (Redis, Memcached)
//   - External services that require persistent connections
//
// Best practices:
//   - Use coreCfg.DBConnectTimeout to set connection timeouts
//   - Log connection attempts and successes for debugging
//   - Return descriptive errors if connections fail
//   - Store clients in the DBDeps struct for use in handlers
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	// Configure MongoDB connection pool
	poolCfg := wafflemongo.DefaultPoolConfig()
	if appCfg.MongoMaxPoolSize > 0 {
		poolCfg.MaxPoolSize = appCfg.MongoMaxPoolSize
	}
	if appCfg.MongoMinPoolSize > 0 {
		poolCfg.MinPoolSize = appCfg.MongoMinPoolSize
	}

	client, err := wafflemongo.ConnectWithPool(ctx, appCfg.MongoURI, appCfg.MongoDatabase, poolCfg)
	if err != nil {
		return DBDeps{}, err
	}

	db := client.Database(appCfg.MongoDatabase)

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool_size", poolCfg.MaxPoolSize),
		zap.Uint64("min_pool_size", poolCfg.MinPoolSize),
	)

	// Optional Redis cache for exchange rates. A missing address is not an
	// error: the rates client falls back to an in-process cache.
	var redisClient *redis.Client
	var rateCache rates.Cache
	if appCfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     appCfg.RedisAddr,
			Password: appCfg.RedisPassword,
			DB:       appCfg.RedisDB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return DBDeps{}, err
		}
		rateCache = rates.NewRedisCache(redisClient)
		logger.Info("connected to Redis", zap.String("addr", appCfg.RedisAddr))
	} else {
		rateCache = rates.NewMemoryCache()
		logger.Info("using in-memory rate cache")
	}

	// Token verifier for the configured identity project.
	verifier := idtoken.NewGoogleVerifier(idtoken.Config{
		ProjectID: appCfg.IdentityProjectID,
		APIKey:    appCfg.IdentityAPIKey,
		CertsURL:  appCfg.IdentityCertsURL,
		LookupURL: appCfg.IdentityLookupURL,
	}, logger)
	logger.Info("initialized token verifier", zap.String("project_id", appCfg.IdentityProjectID))

	// Exchange rate client over the upstream API.
	ratesClient := rates.NewClient(rates.Config{
		BaseURL:  appCfg.RateAPIURL,
		Timeout:  appCfg.RateTimeout,
		CacheTTL: appCfg.RateCacheTTL,
	}, rateCache, logger)
	logger.Info("initialized rate client", zap.String("base_url", appCfg.RateAPIURL))

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: db,
		RedisClient:   redisClient,
		Verifier:      verifier,
		Rates:         ratesClient,
	}, nil
}

// EnsureSchema sets up indexes or schema as needed.
//
// This runs after ConnectDB succeeds but before Startup and before the HTTP
// handler is built. The context has a timeout based on coreCfg.IndexBootTimeout,
// so long-running work should respect context cancellation.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	// Ensure database indexes for query performance.
	logger.Info("ensuring database indexes")
	if err := indexes.EnsureAll(ctx, db); err != nil {
		logger.Error("failed to ensure indexes", zap.Error(err))
		return err
	}

	logger.Info("database schema ensured successfully")
	return nil
}
