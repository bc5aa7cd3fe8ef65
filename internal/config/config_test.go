package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LOQED_SIGNING_SECRET", "")
	t.Setenv("LOQED_TOKEN_VALIDITY_SECONDS", "")

	cfg := Load()
	assert.Equal(t, ":5000", cfg.ListenAddr)
	assert.Equal(t, DefaultTokenValidity, cfg.TokenValidity)
	assert.Error(t, cfg.Validate(), "a signing secret is mandatory")
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LOQED_SIGNING_SECRET", "s3cret")
	t.Setenv("LOQED_TOKEN_VALIDITY_SECONDS", "60")
	t.Setenv("LOQED_CACHE_DIR", "/tmp/cache")

	cfg := Load()
	assert.Equal(t, "s3cret", cfg.SigningSecret)
	assert.Equal(t, 60*time.Second, cfg.TokenValidity)
	assert.Equal(t, "/tmp/cache", cfg.CacheDir)
	assert.NoError(t, cfg.Validate())
}

func TestGetEnvIntRejectsGarbage(t *testing.T) {
	t.Setenv("LOQED_MAX_UPLOAD_MB", "12abc")
	assert.Equal(t, 10, Load().MaxUploadMB)
}
