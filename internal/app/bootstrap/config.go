// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"

	"github.com/dalemusser/strataconvert/internal/app/system/rates"
)

// EnvVarPrefix is the prefix for environment variables.
// Change this constant when forking strataconvert for a new project.
const EnvVarPrefix = "STRATACONVERT"

// appConfigKeys defines the configuration keys for this application.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, identity_project_id, etc.
//   - Environment variables: STRATACONVERT_MONGO_URI, STRATACONVERT_IDENTITY_PROJECT_ID, etc.
//   - Command-line flags: --mongo_uri, --identity_project_id, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "strataconvert", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Identity provider configuration
	{Name: "identity_project_id", Default: "", Desc: "Identity provider project ID (token issuer/audience)"},
	{Name: "identity_api_key", Default: "", Desc: "Identity provider web API key for the REST lookup fallback"},
	{Name: "identity_certs_url", Default: "", Desc: "Override for the token signing-cert endpoint (blank uses the default)"},
	{Name: "identity_lookup_url", Default: "", Desc: "Override for the token REST lookup endpoint (blank uses the default)"},

	// Exchange rate API configuration
	{Name: "rate_api_url", Default: rates.DefaultBaseURL, Desc: "Base URL of the exchange rate API"},
	{Name: "rate_timeout", Default: "10s", Desc: "Timeout for upstream rate API calls"},
	{Name: "rate_cache_ttl", Default: "5m", Desc: "How long cached exchange rates stay fresh"},

	// Redis cache configuration
	{Name: "redis_addr", Default: "", Desc: "Redis address for the rate cache (blank uses in-memory cache)"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},

	// API stats configuration
	{Name: "api_stats_bucket", Default: "1h", Desc: "API stats bucket duration (e.g., '1m', '15m', '1h', '24h')"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
// CoreConfig comes from the shared WAFFLE layer; AppConfig is specific
// to this app and can be extended as the app grows.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, STRATACONVERT_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		// Identity provider
		IdentityProjectID: appValues.String("identity_project_id"),
		IdentityAPIKey:    appValues.String("identity_api_key"),
		IdentityCertsURL:  appValues.String("identity_certs_url"),
		IdentityLookupURL: appValues.String("identity_lookup_url"),

		// Exchange rates
		RateAPIURL:   appValues.String("rate_api_url"),
		RateTimeout:  appValues.Duration("rate_timeout", 10*time.Second),
		RateCacheTTL: appValues.Duration("rate_cache_ttl", 5*time.Minute),

		// Redis
		RedisAddr:     appValues.String("redis_addr"),
		RedisPassword: appValues.String("redis_password"),
		RedisDB:       appValues.Int("redis_db"),

		// API stats
		APIStatsBucket: appValues.Duration("api_stats_bucket", 1*time.Hour),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// This is the right place to enforce required fields or invariants that
// involve both the core and app configs.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.IdentityProjectID == "" {
		logger.Error("identity_project_id is required")
		return fmt.Errorf("identity_project_id is required: tokens cannot be verified without it")
	}

	if appCfg.RateAPIURL == "" {
		return fmt.Errorf("rate_api_url must not be empty")
	}

	return nil
}
