package openai

import (
	"net/http"
	"os"
	"time"

	"github.com/joseph-ayodele/caselaw-ingest/internal/logger"
)

// Config for the OpenAI client.
type Config struct {
	APIKey      string        // if empty, falls back to env OPENAI_API_KEY
	BaseURL     string        // default https://api.openai.com/v1
	Model       string        // e.g., "gpt-4o-mini"
	Temperature float32       // 0..2
	Timeout     time.Duration // http client timeout
	// JSONMode requests response_format json_object.
	JSONMode bool
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *logger.Logger
}

func NewClient(cfg Config, log *logger.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger.OrNop(log).With("provider", "openai"),
	}
}
