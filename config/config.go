package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

const (
	AppName     = "lapak-ai"
	EnvFileName = "config.env"
)

// Config holds everything the process needs. Required fields are checked by
// FromEnv; the rest have defaults suitable for local development.
type Config struct {
	GeminiAPIKey string

	// Google Custom Search credentials. Search is disabled when either is
	// empty; analysis then runs without market grounding.
	SearchAPIKey   string
	SearchEngineID string

	// Passphrase for encrypting marketplace credentials at rest.
	CredentialKey string

	DBPath     string
	ListenAddr string

	LLMTimeout    time.Duration
	SearchTimeout time.Duration

	// Base URLs for the mock marketplace APIs. Empty means use the
	// in-process mock publishers.
	ShopeeBaseURL    string
	TokopediaBaseURL string
	TikTokBaseURL    string
}

// LoadEnvFile loads environment variables from the config file in the user's
// config directory. Errors are ignored since the file may not exist.
func LoadEnvFile() {
	configBase, err := os.UserConfigDir()
	if err != nil {
		return
	}
	configPath := filepath.Join(configBase, AppName, EnvFileName)
	_ = godotenv.Load(configPath)
}

// FromEnv builds a Config from environment variables.
func FromEnv() (Config, error) {
	cfg := Config{
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		SearchAPIKey:     os.Getenv("GOOGLE_SEARCH_API_KEY"),
		SearchEngineID:   os.Getenv("GOOGLE_SEARCH_ENGINE_ID"),
		CredentialKey:    os.Getenv("LAPAK_CREDENTIAL_KEY"),
		DBPath:           envOr("LAPAK_DB_PATH", "lapak.db"),
		ListenAddr:       envOr("LAPAK_LISTEN_ADDR", ":8080"),
		LLMTimeout:       envDuration("LAPAK_LLM_TIMEOUT", 90*time.Second),
		SearchTimeout:    envDuration("LAPAK_SEARCH_TIMEOUT", 10*time.Second),
		ShopeeBaseURL:    os.Getenv("SHOPEE_API_BASE_URL"),
		TokopediaBaseURL: os.Getenv("TOKOPEDIA_API_BASE_URL"),
		TikTokBaseURL:    os.Getenv("TIKTOK_API_BASE_URL"),
	}

	var missing []string
	if cfg.GeminiAPIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	if cfg.CredentialKey == "" {
		missing = append(missing, "LAPAK_CREDENTIAL_KEY")
	}
	if len(missing) > 0 {
		return cfg, fmt.Errorf("missing required config: %v", missing)
	}

	return cfg, nil
}

// SearchEnabled reports whether Google Custom Search credentials are present.
func (c Config) SearchEnabled() bool {
	return c.SearchAPIKey != "" && c.SearchEngineID != ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
