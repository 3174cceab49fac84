// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS, logging,
// CORS, body limits). Everything specific to teamgather lives here and is
// passed to every lifecycle hook.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI      string // MongoDB connection string; transactions need a replica set
	MongoDatabase string
	MongoMaxPool  uint64

	// Cache configuration
	CacheBackend  string // "redis" or "memory"
	CacheTTL      time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Access tokens and the auth cookie
	JWTSecret      string
	JWTIssuer      string
	AccessTokenTTL time.Duration
	CookieSecret   string // hash key for the signed form of the auth cookie
	AuthCookieName string
	CookieDomain   string // blank means current host

	SigninRatePerMinute int
}
