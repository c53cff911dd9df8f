package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: 9000
database:
  host: db
  user: stories
  password: secret
  dbname: stories
aws:
  s3_bucket: story-media
jwt:
  secret: top-secret
story:
  default_duration_hours: 12
  sweep_interval: 30s
`

func TestParseAndDefaults(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 12, cfg.Story.DefaultDurationHours)
	assert.Equal(t, 30*time.Second, cfg.Story.SweepInterval)
	assert.Equal(t, int64(100*1024*1024), cfg.Story.MaxFileSizeBytes)
	assert.Equal(t, 1920, cfg.Story.MaxImageWidth)
	assert.Equal(t, 1080, cfg.Story.MaxImageHeight)
	assert.Equal(t, int64(50_000_000), cfg.Story.MaxImagePixels)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing bucket", func(c *Config) { c.AWS.S3Bucket = "" }, "s3_bucket"},
		{"missing secret", func(c *Config) { c.JWT.Secret = "" }, "jwt.secret"},
		{"duration too long", func(c *Config) { c.Story.DefaultDurationHours = 169 }, "default_duration_hours"},
		{"apns incomplete", func(c *Config) { c.APNs.Enabled = true }, "apns"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"negative sweep interval", func(c *Config) { c.Story.SweepInterval = -time.Minute }, "sweep_interval"},
		{"negative feed limit", func(c *Config) { c.Story.FeedLimit = -1 }, "feed_limit"},
		{"negative pixel cap", func(c *Config) { c.Story.MaxImagePixels = -1 }, "image bounds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(sampleYAML))
			require.NoError(t, err)
			cfg.ApplyDefaults()
			tt.mutate(cfg)

			err = cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("DATABASE_PASSWORD", "env-password")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, "env-password", cfg.Database.Password)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestDSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "stories", SSLMode: "disable", MaxConns: 10}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=stories sslmode=disable pool_max_conns=10", db.DSN())
}
