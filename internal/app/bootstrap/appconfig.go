// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//   - Database connection timeouts
//
// AppConfig is where everything specific to this application lives:
// database connection strings, identity-provider credentials, the rate
// API endpoint, and cache backends.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Maximum connections in pool (default: 100)
	MongoMinPoolSize uint64 // Minimum connections to keep warm (default: 10)

	// Identity provider configuration. Tokens issued by the provider for
	// IdentityProjectID are the only accepted credentials on /api routes.
	IdentityProjectID string // Provider project ID (token issuer/audience)
	IdentityAPIKey    string // Web API key for the REST lookup fallback
	IdentityCertsURL  string // Override for the signing-cert endpoint (blank uses the default)
	IdentityLookupURL string // Override for the REST lookup endpoint (blank uses the default)

	// Exchange rate API configuration
	RateAPIURL   string        // Base URL of the exchange rate API
	RateTimeout  time.Duration // Timeout for upstream rate API calls (default: 10s)
	RateCacheTTL time.Duration // How long cached rates stay fresh (default: 5m)

	// Redis cache configuration. When RedisAddr is blank the rate cache
	// falls back to an in-process memory cache.
	RedisAddr     string // Redis address (e.g., localhost:6379)
	RedisPassword string // Redis password (blank for none)
	RedisDB       int    // Redis database number

	// API stats configuration
	APIStatsBucket time.Duration // Duration of each API stats bucket (default: 1h)
}
