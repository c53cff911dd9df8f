package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	MinStoryDurationHours = 1
	MaxStoryDurationHours = 168
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	AWS      AWSConfig      `yaml:"aws"`
	JWT      JWTConfig      `yaml:"jwt"`
	Log      LogConfig      `yaml:"log"`
	Story    StoryConfig    `yaml:"story"`
	APNs     APNsConfig     `yaml:"apns"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         int           `yaml:"port"`
	Host         string        `yaml:"host"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int32  `yaml:"max_conns"`
}

// AWSConfig holds S3 configuration for story media
type AWSConfig struct {
	Region        string `yaml:"region"`
	S3Bucket      string `yaml:"s3_bucket"`
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
	Endpoint      string `yaml:"endpoint"`        // S3-compatible providers
	DisableSSL    bool   `yaml:"disable_ssl"`
	PublicBaseURL string `yaml:"public_base_url"` // CDN in front of the bucket
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret     string `yaml:"secret"`
	ExpiryDays int    `yaml:"expiry_days"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console, json
}

// StoryConfig holds the limits of the story subsystem
type StoryConfig struct {
	DefaultDurationHours      int           `yaml:"default_duration_hours"`
	MaxFileSizeBytes          int64         `yaml:"max_file_size_bytes"`
	MaxImageWidth             int           `yaml:"max_image_width"`
	MaxImageHeight            int           `yaml:"max_image_height"`
	MaxImagePixels            int64         `yaml:"max_image_pixels"`
	QuotaLimitBytes           int64         `yaml:"quota_limit_bytes"`
	ArchivedSizeEstimateBytes int64         `yaml:"archived_size_estimate_bytes"`
	SweepInterval             time.Duration `yaml:"sweep_interval"`
	FeedLimit                 int           `yaml:"feed_limit"`
}

// APNsConfig holds Apple push configuration
type APNsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	KeyFile    string `yaml:"key_file"`
	KeyID      string `yaml:"key_id"`
	TeamID     string `yaml:"team_id"`
	Topic      string `yaml:"topic"`
	Production bool   `yaml:"production"`
}

// Load reads configuration from a YAML file. A .env file next to the binary,
// if present, is loaded first so that secrets can stay out of the YAML.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	cfg.applyEnv()
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Parse decodes YAML without touching the environment.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"DATABASE_PASSWORD": &c.Database.Password,
		"JWT_SECRET":        &c.JWT.Secret,
		"AWS_ACCESS_KEY":    &c.AWS.AccessKey,
		"AWS_SECRET_KEY":    &c.AWS.SecretKey,
		"APNS_KEY_FILE":     &c.APNs.KeyFile,
	}
	for key, target := range overrides {
		if value := os.Getenv(key); value != "" {
			*target = value
		}
	}
}

// ApplyDefaults fills every zero value that has a sensible default.
func (c *Config) ApplyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 60 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}

	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = 20
	}

	if c.AWS.Region == "" {
		c.AWS.Region = "us-east-1"
	}

	if c.JWT.ExpiryDays == 0 {
		c.JWT.ExpiryDays = 365
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}

	s := &c.Story
	if s.DefaultDurationHours == 0 {
		s.DefaultDurationHours = 24
	}
	if s.MaxFileSizeBytes == 0 {
		s.MaxFileSizeBytes = 100 * 1024 * 1024
	}
	if s.MaxImageWidth == 0 {
		s.MaxImageWidth = 1920
	}
	if s.MaxImageHeight == 0 {
		s.MaxImageHeight = 1080
	}
	if s.MaxImagePixels == 0 {
		s.MaxImagePixels = 50_000_000
	}
	if s.QuotaLimitBytes == 0 {
		s.QuotaLimitBytes = 1024 * 1024 * 1024
	}
	if s.ArchivedSizeEstimateBytes == 0 {
		s.ArchivedSizeEstimateBytes = 5 * 1024 * 1024
	}
	if s.SweepInterval == 0 {
		s.SweepInterval = 5 * time.Minute
	}
	if s.FeedLimit == 0 {
		s.FeedLimit = 100
	}
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.AWS.S3Bucket == "" {
		return fmt.Errorf("aws.s3_bucket is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	if d := c.Story.DefaultDurationHours; d < MinStoryDurationHours || d > MaxStoryDurationHours {
		return fmt.Errorf("story.default_duration_hours must be between %d and %d, got %d",
			MinStoryDurationHours, MaxStoryDurationHours, d)
	}
	if c.Story.MaxFileSizeBytes < 0 || c.Story.QuotaLimitBytes < 0 {
		return fmt.Errorf("story size limits must not be negative")
	}
	if c.Story.MaxImageWidth < 0 || c.Story.MaxImageHeight < 0 || c.Story.MaxImagePixels < 0 {
		return fmt.Errorf("story image bounds must not be negative")
	}
	if c.Story.SweepInterval < 0 {
		return fmt.Errorf("story.sweep_interval must not be negative, got %s", c.Story.SweepInterval)
	}
	if c.Story.FeedLimit < 0 {
		return fmt.Errorf("story.feed_limit must not be negative, got %d", c.Story.FeedLimit)
	}
	if c.APNs.Enabled && (c.APNs.KeyFile == "" || c.APNs.KeyID == "" || c.APNs.TeamID == "" || c.APNs.Topic == "") {
		return fmt.Errorf("apns.key_file, key_id, team_id and topic are required when apns is enabled")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode, c.MaxConns)
}
