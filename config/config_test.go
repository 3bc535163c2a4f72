package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("LAPAK_CREDENTIAL_KEY", "secret")
	t.Setenv("GOOGLE_SEARCH_API_KEY", "search-key")
	t.Setenv("GOOGLE_SEARCH_ENGINE_ID", "cx-id")
	t.Setenv("LAPAK_LLM_TIMEOUT", "30s")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "gemini-key", cfg.GeminiAPIKey)
	assert.Equal(t, "secret", cfg.CredentialKey)
	assert.True(t, cfg.SearchEnabled())
	assert.Equal(t, 30*time.Second, cfg.LLMTimeout)

	// Defaults.
	assert.Equal(t, "lapak.db", cfg.DBPath)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 10*time.Second, cfg.SearchTimeout)
}

func TestFromEnvMissingRequired(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("LAPAK_CREDENTIAL_KEY", "")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
	assert.Contains(t, err.Error(), "LAPAK_CREDENTIAL_KEY")
}

func TestSearchEnabled(t *testing.T) {
	assert.False(t, Config{}.SearchEnabled())
	assert.False(t, Config{SearchAPIKey: "k"}.SearchEnabled())
	assert.False(t, Config{SearchEngineID: "cx"}.SearchEnabled())
	assert.True(t, Config{SearchAPIKey: "k", SearchEngineID: "cx"}.SearchEnabled())
}

func TestEnvDurationFallback(t *testing.T) {
	t.Setenv("LAPAK_TEST_DURATION", "not-a-duration")
	assert.Equal(t, time.Minute, envDuration("LAPAK_TEST_DURATION", time.Minute))

	t.Setenv("LAPAK_TEST_DURATION", "45s")
	assert.Equal(t, 45*time.Second, envDuration("LAPAK_TEST_DURATION", time.Minute))
}
