package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config is the full configuration of the salesdesk API server. Values come
// from SALESDESK_-prefixed environment variables, command-line flags, or a
// YAML file, in that order of precedence.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (SALESDESK_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	TimeZone     string `default:"UTC" usage:"IANA time zone for analytics date bucketing" flag:"time-zone"`
	APIKeyPepper string `usage:"HMAC pepper for API key hashing (SALESDESK_API_KEY_PEPPER)" flag:"api-key-pepper"`
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// RateLimitConfig sizes the per-client sliding window limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig lists the origins the browser surface may call from.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig times the shutdown sequence: readiness is dropped first so
// load balancers stop routing, then the server drains.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig resolves the configuration and validates the pieces the server
// cannot start without.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "SALESDESK",
		Files:     []string{"config.yaml", "/etc/salesdesk/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.adoptHostEnv()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set SALESDESK_DATABASE_URL or DATABASE_URL")
	}

	return &cfg, nil
}

// adoptHostEnv picks up the unprefixed DATABASE_URL and PORT variables that
// hosting platforms inject, without overriding anything set explicitly.
func (c *Config) adoptHostEnv() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
