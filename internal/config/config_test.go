package config

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, "localhost:8000", cfg.Addr)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "chatrelay", cfg.MongoDatabase)
	assert.Equal(t, 10*time.Second, cfg.DedupTTL)
	assert.Equal(t, 5*time.Second, cfg.DedupSweepInterval)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CHATRELAY_ADDR", ":9090")
	t.Setenv("CHATRELAY_MONGO_DATABASE", "chat_test")
	t.Setenv("CHATRELAY_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("CHATRELAY_DEDUP_TTL", "30s")

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "chat_test", cfg.MongoDatabase)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 30*time.Second, cfg.DedupTTL)
}

func TestConfigValidate(t *testing.T) {
	secret := base64.StdEncoding.EncodeToString([]byte("test-signing-key"))

	valid := func() *Config {
		return &Config{
			Addr:               "localhost:8000",
			MongoURI:           "mongodb://localhost:27017",
			MongoDatabase:      "chatrelay",
			SigningSecret:      secret,
			DedupTTL:           10 * time.Second,
			DedupSweepInterval: 5 * time.Second,
		}
	}

	t.Run("valid config decodes signing key", func(t *testing.T) {
		cfg := valid()
		assert.NoError(t, cfg.Validate())
		assert.Equal(t, []byte("test-signing-key"), cfg.SigningKey)
	})

	t.Run("missing signing secret", func(t *testing.T) {
		cfg := valid()
		cfg.SigningSecret = ""
		assert.ErrorContains(t, cfg.Validate(), "signing secret")
	})

	t.Run("secret must be base64", func(t *testing.T) {
		cfg := valid()
		cfg.SigningSecret = "not base64!!"
		assert.ErrorContains(t, cfg.Validate(), "decode signing secret")
	})

	t.Run("missing address", func(t *testing.T) {
		cfg := valid()
		cfg.Addr = ""
		assert.ErrorContains(t, cfg.Validate(), "address")
	})

	t.Run("missing mongo URI", func(t *testing.T) {
		cfg := valid()
		cfg.MongoURI = ""
		assert.ErrorContains(t, cfg.Validate(), "mongo URI")
	})

	t.Run("non-positive dedup TTL", func(t *testing.T) {
		cfg := valid()
		cfg.DedupTTL = 0
		assert.ErrorContains(t, cfg.Validate(), "dedup TTL")
	})
}
