package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the directory search service
type Config struct {
	// Server configuration
	Port        int      `envconfig:"PORT" default:"5001"`
	MetricsPort int      `envconfig:"METRICS_PORT" default:"9090"`
	LogLevel    string   `envconfig:"LOG_LEVEL" default:"info"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:5173"`

	// Storage configuration
	DatabasePath string `envconfig:"DATABASE_PATH" default:"friendly-ad.db"`

	// Credential encryption key, 64 hex characters (AES-256). The service
	// refuses to start without it: generating one on the fly would orphan
	// every password already encrypted in the domains table.
	EncryptionKey string `envconfig:"ENCRYPTION_KEY" required:"true"`

	// Directory search configuration
	ConnTimeout   time.Duration `envconfig:"LDAP_CONN_TIMEOUT" default:"10s"`
	SearchTimeout time.Duration `envconfig:"LDAP_SEARCH_TIMEOUT" default:"30s"`
	PageSize      uint32        `envconfig:"LDAP_PAGE_SIZE" default:"1000"`
	MaxPages      int           `envconfig:"LDAP_MAX_PAGES" default:"1000"`

	// Response cache configuration
	NoCache  bool          `envconfig:"NO_CACHE" default:"false"`
	CacheTTL time.Duration `envconfig:"CACHE_TTL" default:"24h"`

	// Graceful shutdown timeout
	ShutdownTimeout int `envconfig:"SHUTDOWN_TIMEOUT" default:"30"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return &cfg, nil
}
