package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"golang.org/x/crypto/bcrypt"
)

// Session store backends
const (
	SessionStoreMongo = "mongo"
	SessionStoreRedis = "redis"
)

// Config holds all configuration for the auth module.
type Config struct {
	// MongoDB Configuration
	MongoDBURI   string `env:"MONGODB_URI" envDefault:"mongodb://127.0.0.1:27017"`
	DatabaseName string `env:"DATABASE_NAME" envDefault:"System"`

	// Session Configuration
	SessionSecret string        `env:"SESSION_SECRET,required"`
	SessionIssuer string        `env:"SESSION_ISSUER" envDefault:"bus-tracker"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	SessionStore  string        `env:"SESSION_STORE" envDefault:"mongo"`

	// Redis Configuration, used when SessionStore is "redis"
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Cookie Configuration
	CookieName     string `env:"COOKIE_NAME" envDefault:"connect.sid"`
	CookiePath     string `env:"COOKIE_PATH" envDefault:"/"`
	CookieDomain   string `env:"COOKIE_DOMAIN" envDefault:""`
	CookieSecure   bool   `env:"COOKIE_SECURE" envDefault:"false"`
	CookieHTTPOnly bool   `env:"COOKIE_HTTP_ONLY" envDefault:"true"`
	CookieSameSite string `env:"COOKIE_SAME_SITE" envDefault:"Lax"`

	// Credentials
	BcryptCost     int `env:"BCRYPT_COST" envDefault:"10"`
	LoginRateLimit int `env:"LOGIN_RATE_LIMIT" envDefault:"20"`
}

// LoadConfig loads configuration from environment variables and applies defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.New("failed to load configuration from environment: " + err.Error() +
			". Please ensure all required environment variables are set.")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints and normalizes values in place.
func (c *Config) Validate() error {
	if c.SessionSecret == "" {
		return errors.New("session_secret is required")
	}
	if c.MongoDBURI == "" {
		return errors.New("mongodb_uri is required")
	}
	if c.SessionTTL <= 0 {
		return errors.New("session_ttl must be positive")
	}
	if c.CookieName == "" {
		return errors.New("cookie_name is required")
	}

	c.CookieSameSite = normalizeSameSite(c.CookieSameSite)
	if !(c.CookieSameSite == "Lax" || c.CookieSameSite == "Strict" || c.CookieSameSite == "None") {
		return errors.New("cookie_same_site must be one of 'Lax', 'Strict', or 'None'")
	}

	c.SessionStore = strings.ToLower(strings.TrimSpace(c.SessionStore))
	if c.SessionStore != SessionStoreMongo && c.SessionStore != SessionStoreRedis {
		return fmt.Errorf("session_store must be %q or %q", SessionStoreMongo, SessionStoreRedis)
	}

	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.LoginRateLimit <= 0 {
		return errors.New("login_rate_limit must be positive")
	}
	return nil
}

func normalizeSameSite(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return v
	}
	return strings.ToUpper(v[:1]) + v[1:]
}
