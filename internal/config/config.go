package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the mediavault server.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Vision   VisionConfig
	Ingest   IngestConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

// StorageConfig configures the S3-compatible artifact store.
type StorageConfig struct {
	Endpoint   string
	Region     string
	Bucket     string
	AccessKey  string
	SecretKey  string
	PresignTTL time.Duration
}

type VisionConfig struct {
	Provider         string
	InferenceTimeout time.Duration
	OpenAI           OpenAIConfig
	Anthropic        AnthropicConfig
}

type OpenAIConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

type AnthropicConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// IngestConfig holds the pipeline policy knobs: file limits, thumbnail box,
// and the synchronizer's timing constants.
type IngestConfig struct {
	MaxFileBytes    int64
	ThumbnailWidth  int
	ThumbnailHeight int
	PollInterval    time.Duration
	StuckTimeout    time.Duration
	EvictGrace      time.Duration
}

var validProviders = map[string]bool{
	"openai":    true,
	"anthropic": true,
	"mock":      true,
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("MEDIAVAULT_PORT", 8080),
			Env:  envString("MEDIAVAULT_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Storage: StorageConfig{
			Endpoint:   os.Getenv("S3_ENDPOINT"),
			Region:     envString("S3_REGION", "us-east-1"),
			Bucket:     os.Getenv("S3_BUCKET"),
			AccessKey:  os.Getenv("S3_ACCESS_KEY"),
			SecretKey:  os.Getenv("S3_SECRET_KEY"),
			PresignTTL: envDuration("S3_PRESIGN_TTL", 15*time.Minute),
		},
		Vision: VisionConfig{
			Provider:         os.Getenv("VISION_PROVIDER"),
			InferenceTimeout: envDurationSecs("VISION_INFERENCE_TIMEOUT_SECS", 60*time.Second),
			OpenAI: OpenAIConfig{
				BaseURL: envString("OPENAI_BASE_URL", "https://api.openai.com"),
				APIKey:  os.Getenv("OPENAI_API_KEY"),
				Model:   envString("OPENAI_MODEL", "gpt-4o"),
			},
			Anthropic: AnthropicConfig{
				BaseURL: envString("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
				APIKey:  os.Getenv("ANTHROPIC_API_KEY"),
				Model:   envString("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
			},
		},
		Ingest: IngestConfig{
			MaxFileBytes:    envInt64("INGEST_MAX_FILE_BYTES", 10<<20),
			ThumbnailWidth:  envInt("INGEST_THUMBNAIL_WIDTH", 320),
			ThumbnailHeight: envInt("INGEST_THUMBNAIL_HEIGHT", 320),
			PollInterval:    envDuration("INGEST_POLL_INTERVAL", 2*time.Second),
			StuckTimeout:    envDuration("INGEST_STUCK_TIMEOUT", 5*time.Minute),
			EvictGrace:      envDuration("INGEST_EVICT_GRACE", 5*time.Second),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Storage.Endpoint == "" {
		return fmt.Errorf("S3_ENDPOINT is required")
	}
	if !strings.HasPrefix(c.Storage.Endpoint, "http://") && !strings.HasPrefix(c.Storage.Endpoint, "https://") {
		return fmt.Errorf("S3_ENDPOINT must start with http:// or https://, got %q", c.Storage.Endpoint)
	}
	if c.Storage.Bucket == "" {
		return fmt.Errorf("S3_BUCKET is required")
	}
	if c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
		return fmt.Errorf("S3_ACCESS_KEY and S3_SECRET_KEY are required")
	}

	if c.Vision.Provider == "" {
		return fmt.Errorf("VISION_PROVIDER is required")
	}
	if !validProviders[c.Vision.Provider] {
		return fmt.Errorf("VISION_PROVIDER must be one of openai, anthropic, mock; got %q", c.Vision.Provider)
	}

	if c.Vision.Provider == "openai" && c.Vision.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when VISION_PROVIDER is openai")
	}
	if c.Vision.Provider == "anthropic" && c.Vision.Anthropic.APIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required when VISION_PROVIDER is anthropic")
	}

	if c.Ingest.MaxFileBytes <= 0 {
		return fmt.Errorf("INGEST_MAX_FILE_BYTES must be positive")
	}
	if c.Ingest.PollInterval <= 0 || c.Ingest.StuckTimeout <= 0 {
		return fmt.Errorf("INGEST_POLL_INTERVAL and INGEST_STUCK_TIMEOUT must be positive")
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
