package common

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("EXTRACT_MAX_ATTEMPTS", "")
	t.Setenv("PDF_MAX_BYTES", "")
	t.Setenv("LLM_PROVIDER", "")

	cfg := LoadConfig()
	assert.Equal(t, "sqlite://./caselaw.db", cfg.Database.URL)
	assert.Equal(t, 3, cfg.Extract.MaxAttempts)
	assert.Equal(t, int64(50*1024*1024), cfg.PDF.MaxBytes)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.NoError(t, cfg.Validate(false))
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("EXTRACT_BACKOFF", "250ms")
	t.Setenv("EXTRACT_RPS", "1.5")

	cfg := LoadConfig()
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 250*time.Millisecond, cfg.Extract.Backoff)
	assert.Equal(t, 1.5, cfg.Extract.RequestsPerSecond)
	assert.NoError(t, cfg.Validate(true))
}

func TestValidateRequiresProviderKey(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "")

	cfg := LoadConfig()
	err := cfg.Validate(true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "CONFIG_ERROR", appErr.Code)
}
