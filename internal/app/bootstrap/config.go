// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

const (
	devJWTSecret    = "dev-only-jwt-secret-change-me-0123456789"
	devCookieSecret = "dev-only-cookie-secret-change-me-012345"
	minSecretLen    = 32
)

// appConfigKeys defines the configuration keys for teamgather.
//   - Config files: mongo_uri, cache_backend, etc.
//   - Environment variables: TEAMGATHER_MONGO_URI, TEAMGATHER_CACHE_BACKEND, etc.
//   - Command-line flags: --mongo_uri, --cache_backend, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017/?replicaSet=rs0", Desc: "MongoDB connection URI (replica set required for transactions)"},
	{Name: "mongo_database", Default: "teamgather", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},

	// Cache
	{Name: "cache_backend", Default: "memory", Desc: "Cache backend: 'redis' or 'memory'"},
	{Name: "cache_ttl", Default: "10m", Desc: "Cache entry TTL (e.g., 10m, 1h); 0 disables expiry"},
	{Name: "redis_addr", Default: "", Desc: "Redis address host:port (required when cache_backend=redis)"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis logical database"},

	// Auth
	{Name: "jwt_secret", Default: devJWTSecret, Desc: "HS256 signing secret for access tokens (must be strong in production)"},
	{Name: "jwt_issuer", Default: "teamgather", Desc: "Access token issuer"},
	{Name: "access_token_ttl", Default: "24h", Desc: "Access token lifetime"},
	{Name: "cookie_secret", Default: devCookieSecret, Desc: "Hash key for signed auth cookies (must be strong in production)"},
	{Name: "auth_cookie_name", Default: "teamgather-token", Desc: "Auth cookie name"},
	{Name: "cookie_domain", Default: "", Desc: "Auth cookie domain (blank means current host)"},
	{Name: "signin_rate_per_minute", Default: 10, Desc: "Sign-in attempts allowed per client IP per minute"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, TEAMGATHER_* for app) and flags,
// merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "TEAMGATHER", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:      appValues.String("mongo_uri"),
		MongoDatabase: appValues.String("mongo_database"),
		MongoMaxPool:  uint64(appValues.Int("mongo_max_pool_size")),

		CacheBackend:  appValues.String("cache_backend"),
		CacheTTL:      appValues.Duration("cache_ttl", 10*time.Minute),
		RedisAddr:     appValues.String("redis_addr"),
		RedisPassword: appValues.String("redis_password"),
		RedisDB:       appValues.Int("redis_db"),

		JWTSecret:      appValues.String("jwt_secret"),
		JWTIssuer:      appValues.String("jwt_issuer"),
		AccessTokenTTL: appValues.Duration("access_token_ttl", 24*time.Hour),
		CookieSecret:   appValues.String("cookie_secret"),
		AuthCookieName: appValues.String("auth_cookie_name"),
		CookieDomain:   appValues.String("cookie_domain"),

		SigninRatePerMinute: appValues.Int("signin_rate_per_minute"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// The MongoDB URI format is checked before any connection is attempted.
// In prod the built-in development secrets are refused.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	switch appCfg.CacheBackend {
	case cacheRedis:
		if appCfg.RedisAddr == "" {
			return fmt.Errorf("cache_backend=redis requires redis_addr")
		}
	case cacheMemory:
	default:
		return fmt.Errorf("cache_backend must be %q or %q, got %q", cacheRedis, cacheMemory, appCfg.CacheBackend)
	}

	if appCfg.AccessTokenTTL <= 0 {
		return fmt.Errorf("access_token_ttl must be positive")
	}
	if appCfg.SigninRatePerMinute < 1 {
		return fmt.Errorf("signin_rate_per_minute must be at least 1")
	}

	if coreCfg != nil && coreCfg.Env == "prod" {
		if appCfg.JWTSecret == devJWTSecret || len(appCfg.JWTSecret) < minSecretLen {
			return fmt.Errorf("jwt_secret must be set to at least %d characters in prod", minSecretLen)
		}
		if appCfg.CookieSecret == devCookieSecret || len(appCfg.CookieSecret) < minSecretLen {
			return fmt.Errorf("cookie_secret must be set to at least %d characters in prod", minSecretLen)
		}
	}

	return nil
}
