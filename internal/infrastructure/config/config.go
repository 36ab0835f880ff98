package config

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,       default=8080"`
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	ListingCacheTTL time.Duration `env:"LISTING_CACHE_TTL, default=30s"`
	FormWait        time.Duration `env:"FORM_WAIT,         default=3s"`
	AuditWorkers    int           `env:"AUDIT_WORKERS,     default=4"`

	Session   SessionConfig
	Directory DirectoryConfig
	Mongo     MongoConfig
	Redis     RedisConfig
}

// SessionConfig holds the cookie keys. Keys are base64 encoded; the block
// key is optional and enables cookie encryption when set.
type SessionConfig struct {
	HashKey      string        `env:"SESSION_HASH_KEY, required"`
	BlockKey     string        `env:"SESSION_BLOCK_KEY"`
	TTL          time.Duration `env:"SESSION_TTL,      default=12h"`
	CookieSecure bool          `env:"COOKIE_SECURE,    default=true"`
}

type DirectoryConfig struct {
	BaseURL     string        `env:"DIRECTORY_BASE_URL,     required"`
	Timeout     time.Duration `env:"DIRECTORY_TIMEOUT,      default=10s"`
	ReadRetries int           `env:"DIRECTORY_READ_RETRIES, default=2"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=report_console"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,      default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,        default=0"`
	PoolSize int    `env:"REDIS_POOL_SIZE, default=10"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if _, _, err := cfg.Session.Keys(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsDevelopment reports whether the console runs outside production.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "dev"
}

// Keys decodes the cookie keys.
func (s SessionConfig) Keys() (hash, block []byte, err error) {
	hash, err = base64.StdEncoding.DecodeString(s.HashKey)
	if err != nil {
		return nil, nil, fmt.Errorf("SESSION_HASH_KEY: %w", err)
	}
	if s.BlockKey != "" {
		block, err = base64.StdEncoding.DecodeString(s.BlockKey)
		if err != nil {
			return nil, nil, fmt.Errorf("SESSION_BLOCK_KEY: %w", err)
		}
	}
	return hash, block, nil
}
