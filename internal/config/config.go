package config

import (
	"errors"
	"os"
	"time"
)

// DefaultTokenValidity is the capability token lifetime used when
// LOQED_TOKEN_VALIDITY_SECONDS is unset.
const DefaultTokenValidity = 300 * time.Second

type Config struct {
	ListenAddr    string
	DBPath        string
	CacheDir      string
	BaseURL       string
	SigningSecret string
	TokenValidity time.Duration
	MaxUploadMB   int

	LLMBaseURL   string
	LLMAPIKey    string
	LLMModel     string
	LLMTimeout   time.Duration
	AskPerMinute int
}

// Load reads the configuration from the environment.
func Load() *Config {
	return &Config{
		ListenAddr:    getEnv("LOQED_LISTEN_ADDR", ":5000"),
		DBPath:        getEnv("LOQED_DB_PATH", "/data/db/loqed.db"),
		CacheDir:      getEnv("LOQED_CACHE_DIR", "/data/cached_images"),
		BaseURL:       getEnv("LOQED_BASE_URL", "http://localhost:5000"),
		SigningSecret: getEnv("LOQED_SIGNING_SECRET", ""),
		TokenValidity: time.Duration(getEnvInt("LOQED_TOKEN_VALIDITY_SECONDS", int(DefaultTokenValidity/time.Second))) * time.Second,
		MaxUploadMB:   getEnvInt("LOQED_MAX_UPLOAD_MB", 10),

		LLMBaseURL:   getEnv("LOQED_LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMAPIKey:    getEnv("LOQED_LLM_API_KEY", ""),
		LLMModel:     getEnv("LOQED_LLM_MODEL", "gpt-4o-mini"),
		LLMTimeout:   time.Duration(getEnvInt("LOQED_LLM_TIMEOUT_SECONDS", 30)) * time.Second,
		AskPerMinute: getEnvInt("LOQED_ASK_PER_MINUTE", 20),
	}
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	if c.SigningSecret == "" {
		return errors.New("LOQED_SIGNING_SECRET must be set")
	}
	if c.TokenValidity <= 0 {
		return errors.New("LOQED_TOKEN_VALIDITY_SECONDS must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	var result int
	for _, c := range v {
		if c < '0' || c > '9' {
			return defaultValue
		}
		result = result*10 + int(c-'0')
	}
	return result
}
