package config

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the complete server configuration. Values load from
// CHATRELAY_* environment variables; main applies flag overrides on
// top.
type Config struct {
	Addr               string        `envconfig:"ADDR" default:"localhost:8000"`
	MongoURI           string        `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDatabase      string        `envconfig:"MONGO_DATABASE" default:"chatrelay"`
	SigningSecret      string        `envconfig:"SIGNING_SECRET"`
	AllowedOrigins     []string      `envconfig:"ALLOWED_ORIGINS"`
	DedupTTL           time.Duration `envconfig:"DEDUP_TTL" default:"10s"`
	DedupSweepInterval time.Duration `envconfig:"DEDUP_SWEEP_INTERVAL" default:"5s"`

	// SigningKey is the decoded form of SigningSecret.
	SigningKey []byte `ignored:"true"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("chatrelay", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	return &cfg, nil
}

// Validate checks required fields and decodes the signing secret.
// Called after flag overrides are applied.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("server address cannot be empty")
	}
	if c.MongoURI == "" {
		return fmt.Errorf("mongo URI cannot be empty")
	}
	if c.MongoDatabase == "" {
		return fmt.Errorf("mongo database cannot be empty")
	}
	if c.SigningSecret == "" {
		return fmt.Errorf("signing secret cannot be empty")
	}
	if c.DedupTTL <= 0 {
		return fmt.Errorf("dedup TTL must be positive")
	}
	if c.DedupSweepInterval <= 0 {
		return fmt.Errorf("dedup sweep interval must be positive")
	}

	signingKey, err := base64.StdEncoding.DecodeString(c.SigningSecret)
	if err != nil {
		return fmt.Errorf("decode signing secret: %w", err)
	}
	c.SigningKey = signingKey

	return nil
}
