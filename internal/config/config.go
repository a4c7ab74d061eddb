package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/moneytides/backend-go/internal/retry"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Environment        string
	LogLevel           zerolog.Level
	HTTPTimeout        time.Duration
	Retry              retry.Policy
	NOAABaseURL        string
	StationTimeZone    string
	StationBucket      string
	Port               string
	CORSAllowedOrigins []string
}

type Option func(*Config)

// WithEnvironment allows setting the environment
func WithEnvironment(env string) Option {
	return func(c *Config) {
		c.Environment = env
	}
}

// WithLogLevel allows setting the log level
func WithLogLevel(level string) Option {
	return func(c *Config) {
		parsedLevel, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil || level == "" {
			parsedLevel = zerolog.InfoLevel
		}
		c.LogLevel = parsedLevel
	}
}

// WithHTTPTimeout allows setting the HTTP timeout
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.HTTPTimeout = timeout
	}
}

// WithRetryPolicy sets how often a failed NOAA fetch is retried. Non-positive
// values keep the defaults.
func WithRetryPolicy(maxAttempts int, baseDelay time.Duration) Option {
	return func(c *Config) {
		if maxAttempts > 0 {
			c.Retry.MaxAttempts = maxAttempts
		}
		if baseDelay > 0 {
			c.Retry.BaseDelay = baseDelay
		}
	}
}

func WithNOAABaseURL(url string) Option {
	return func(c *Config) {
		c.NOAABaseURL = strings.TrimSuffix(url, "/")
	}
}

func WithStationTimeZone(name string) Option {
	return func(c *Config) {
		c.StationTimeZone = name
	}
}

// WithStationBucket names the S3 bucket holding the cached station list.
func WithStationBucket(bucket string) Option {
	return func(c *Config) {
		c.StationBucket = bucket
	}
}

func WithPort(port string) Option {
	return func(c *Config) {
		c.Port = port
	}
}

func WithCORSAllowedOrigins(origins ...string) Option {
	return func(c *Config) {
		c.CORSAllowedOrigins = origins
	}
}

// New creates a new configuration with default values
func New(opts ...Option) *Config {
	cfg := &Config{
		Environment:     "production",
		LogLevel:        zerolog.InfoLevel,
		HTTPTimeout:     10 * time.Second,
		Retry:           retry.DefaultPolicy(),
		NOAABaseURL:     "https://api.tidesandcurrents.noaa.gov",
		StationTimeZone: "America/Los_Angeles",
		Port:            "8080",
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// Location loads the station time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.StationTimeZone)
	if err != nil {
		return nil, fmt.Errorf("loading station time zone %q: %w", c.StationTimeZone, err)
	}
	return loc, nil
}

// IsLocal reports whether the service runs on a developer machine.
func (c *Config) IsLocal() bool {
	return c.Environment == "local" || c.Environment == "development"
}

// InitializeLogging sets up logging based on the configuration
func (c *Config) InitializeLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(c.LogLevel)

	// Setup console logger for development environments
	if c.IsLocal() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}

func newEnv() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	return v
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	v := newEnv()
	v.SetDefault("ENV", "production")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_TIMEOUT", "10s")
	v.SetDefault("FETCH_MAX_ATTEMPTS", retry.DefaultMaxAttempts)
	v.SetDefault("FETCH_RETRY_DELAY", retry.DefaultBaseDelay.String())
	v.SetDefault("NOAA_BASE_URL", "https://api.tidesandcurrents.noaa.gov")
	v.SetDefault("STATION_TIME_ZONE", "America/Los_Angeles")
	v.SetDefault("PORT", "8080")

	return New(
		WithEnvironment(v.GetString("ENV")),
		WithLogLevel(v.GetString("LOG_LEVEL")),
		WithHTTPTimeout(getDuration(v, "HTTP_TIMEOUT", 10*time.Second)),
		WithRetryPolicy(getEnvInt(v, "FETCH_MAX_ATTEMPTS", retry.DefaultMaxAttempts), getDuration(v, "FETCH_RETRY_DELAY", retry.DefaultBaseDelay)),
		WithNOAABaseURL(v.GetString("NOAA_BASE_URL")),
		WithStationTimeZone(v.GetString("STATION_TIME_ZONE")),
		WithStationBucket(v.GetString("STATION_CACHE_BUCKET")),
		WithPort(v.GetString("PORT")),
		WithCORSAllowedOrigins(splitList(v.GetString("CORS_ALLOWED_ORIGINS"))...),
	)
}

func getDuration(v *viper.Viper, key string, defaultValue time.Duration) time.Duration {
	if value := v.GetString(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Warn().Str("key", key).Msg("Invalid duration value in environment variable, using default")
	}
	return defaultValue
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
