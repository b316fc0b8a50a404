// Package config builds the immutable configuration record the worker runs
// with. Everything comes from environment variables (optionally seeded from
// a .env file); the record is constructed once at startup and handed to
// components explicitly, so there is no lazily-initialized global state.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults for the service surface.
const (
	DefaultPort           = 3501
	DefaultCacheDirName   = "TRICACHE"
	DefaultRequestTimeout = 5 * time.Minute
	DefaultHTTPTimeout    = 2 * time.Minute
	DefaultMaxRequestSize = 1 << 20 // 1 MiB body cap on POST /dl
	DefaultUpstreamURL    = "https://zvuk.com/api/v1/graphql"
	DefaultUserAgent      = "tri-zvuk/1.0"
)

// Config is the complete, validated worker configuration.
type Config struct {
	Environment string
	ServiceName string
	LogLevel    string
	Platform    string // "http", "lambda", or "" for auto-detection

	Port int

	Upstream UpstreamConfig
	HTTP     HTTPConfig
	Cache    CacheConfig
	Handler  HandlerConfig
	Lambda   LambdaConfig
}

// UpstreamConfig describes the zvuk GraphQL endpoint.
type UpstreamConfig struct {
	Endpoint   string
	Quality    string
	EncodeType string
}

// HTTPConfig holds outbound HTTP client settings.
type HTTPConfig struct {
	Timeout   time.Duration
	UserAgent string
}

// CacheConfig selects and parameterizes the cache backend.
type CacheConfig struct {
	Backend  string // "fs" or "s3"
	Root     string // fs: directory holding <hash>/zvuk/... entries
	S3Bucket string
	S3Region string
	// S3Endpoint overrides the AWS endpoint, for local object stores.
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
}

// HandlerConfig bounds one request's processing.
type HandlerConfig struct {
	Timeout        time.Duration
	MaxRequestSize int64
	EnableMetrics  bool
	EnableTracing  bool
}

// LambdaConfig holds Lambda-specific settings.
type LambdaConfig struct {
	EnablePartialBatchFailure bool
}

// Load reads a .env file if one is present, then builds and validates the
// configuration from the environment.
func Load() (*Config, error) {
	// Missing .env is fine; the environment is authoritative.
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("TRI_ENV", "development"),
		ServiceName: getEnv("TRI_SERVICE_NAME", "tri-zvuk"),
		LogLevel:    getEnv("TRI_LOG_LEVEL", "info"),
		Platform:    getEnv("TRI_PLATFORM", ""),
		Port:        getInt("TRI_ZVUK_PORT", DefaultPort),
		Upstream: UpstreamConfig{
			Endpoint:   getEnv("TRI_ZVUK_UPSTREAM", DefaultUpstreamURL),
			Quality:    getEnv("TRI_ZVUK_QUALITY", "hq"),
			EncodeType: getEnv("TRI_ZVUK_ENCODE_TYPE", "wv"),
		},
		HTTP: HTTPConfig{
			Timeout:   getDuration("TRI_HTTP_TIMEOUT", DefaultHTTPTimeout),
			UserAgent: getEnv("TRI_HTTP_USER_AGENT", DefaultUserAgent),
		},
		Cache: CacheConfig{
			Backend:     strings.ToLower(getEnv("TRI_CACHE_BACKEND", "fs")),
			Root:        getEnv("TRI_CACHE", ""),
			S3Bucket:    getEnv("TRI_S3_BUCKET", ""),
			S3Region:    getEnv("TRI_S3_REGION", "us-east-1"),
			S3Endpoint:  getEnv("TRI_S3_ENDPOINT", ""),
			S3AccessKey: getEnv("TRI_S3_ACCESS_KEY", ""),
			S3SecretKey: getEnv("TRI_S3_SECRET_KEY", ""),
		},
		Handler: HandlerConfig{
			Timeout:        getDuration("TRI_ZVUK_TIMEOUT", DefaultRequestTimeout),
			MaxRequestSize: getInt64("TRI_MAX_REQUEST_SIZE", DefaultMaxRequestSize),
			EnableMetrics:  getBool("TRI_ENABLE_METRICS", true),
			EnableTracing:  getBool("TRI_ENABLE_TRACING", true),
		},
		Lambda: LambdaConfig{
			EnablePartialBatchFailure: getBool("TRI_LAMBDA_PARTIAL_BATCH", true),
		},
	}

	if cfg.Cache.Root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolving working directory: %w", err)
		}
		cfg.Cache.Root = filepath.Join(wd, DefaultCacheDirName)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	var problems []string

	if c.Port <= 0 || c.Port > 65535 {
		problems = append(problems, "TRI_ZVUK_PORT must be a valid port")
	}
	if c.Upstream.Endpoint == "" {
		problems = append(problems, "TRI_ZVUK_UPSTREAM must not be empty")
	}
	if c.Handler.Timeout <= 0 {
		problems = append(problems, "TRI_ZVUK_TIMEOUT must be positive")
	}
	if c.Handler.MaxRequestSize <= 0 {
		problems = append(problems, "TRI_MAX_REQUEST_SIZE must be positive")
	}
	switch c.Cache.Backend {
	case "fs":
		if c.Cache.Root == "" {
			problems = append(problems, "TRI_CACHE must not be empty")
		}
	case "s3":
		if c.Cache.S3Bucket == "" {
			problems = append(problems, "TRI_S3_BUCKET is required with the s3 backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown cache backend %q", c.Cache.Backend))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Addr returns the listen address for the HTTP adapter.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// IsProduction reports whether the worker runs in a production environment.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Environment)
	return env == "production" || env == "prod"
}

// DetectPlatform picks the runtime platform: explicit configuration wins,
// then Lambda environment markers, then plain HTTP.
func (c *Config) DetectPlatform() string {
	if c.Platform != "" {
		return c.Platform
	}
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" || os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		return "lambda"
	}
	return "http"
}
