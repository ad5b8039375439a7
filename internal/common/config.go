package common

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	LLM      LLMConfig
	Extract  ExtractConfig
	PDF      PDFConfig
	Intake   IntakeConfig
	Log      LogConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// LLMConfig selects and configures the text-understanding provider.
type LLMConfig struct {
	Provider     string // gemini | openai
	GeminiAPIKey string
	GeminiModel  string
	OpenAIAPIKey string
	OpenAIModel  string
	OpenAIURL    string
	Temperature  float32
	Timeout      time.Duration
}

// ExtractConfig tunes the extraction client and the orchestrator.
type ExtractConfig struct {
	MaxAttempts       int
	Backoff           time.Duration
	RequestsPerSecond float64
	Concurrency       int
}

// PDFConfig tunes the PDF fetch collaborator.
type PDFConfig struct {
	MaxBytes  int64
	Timeout   time.Duration
	Pdftotext string
}

// IntakeConfig tunes raw capture.
type IntakeConfig struct {
	FetchConcurrency int
	Workers          int
}

type LogConfig struct {
	Mode string
	File string
}

// LoadConfig loads configuration from environment variables. A .env file in
// the working directory is read first when present; real env vars win.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Database: DatabaseConfig{
			URL:              getEnv("DATABASE_URL", "sqlite://./caselaw.db"),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		LLM: LLMConfig{
			Provider:     strings.ToLower(getEnv("LLM_PROVIDER", "gemini")),
			GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
			GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			OpenAIURL:    getEnv("OPENAI_BASE_URL", ""),
			Temperature:  getEnvAsFloat32("LLM_TEMPERATURE", 0.0),
			Timeout:      getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
		},
		Extract: ExtractConfig{
			MaxAttempts:       getEnvAsInt("EXTRACT_MAX_ATTEMPTS", 3),
			Backoff:           getEnvAsDuration("EXTRACT_BACKOFF", 2*time.Second),
			RequestsPerSecond: getEnvAsFloat64("EXTRACT_RPS", 0),
			Concurrency:       getEnvAsInt("EXTRACT_CONCURRENCY", 4),
		},
		PDF: PDFConfig{
			MaxBytes:  int64(getEnvAsInt("PDF_MAX_BYTES", 50*1024*1024)),
			Timeout:   getEnvAsDuration("PDF_TIMEOUT", 60*time.Second),
			Pdftotext: getEnv("PDFTOTEXT_BIN", "pdftotext"),
		},
		Intake: IntakeConfig{
			FetchConcurrency: getEnvAsInt("FETCH_CONCURRENCY", 4),
			Workers:          getEnvAsInt("INTAKE_WORKERS", 2),
		},
		Log: LogConfig{
			Mode: getEnv("LOG_MODE", "dev"),
			File: getEnv("LOG_FILE", ""),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks the settings every command needs. Provider credentials are
// only required when requireLLM is set.
func (c *Config) Validate(requireLLM bool) error {
	if c.Database.URL == "" {
		return NewAppError("CONFIG_ERROR", "DATABASE_URL is required", ErrInvalidInput)
	}
	if c.Extract.MaxAttempts < 1 {
		return NewAppError("CONFIG_ERROR", "EXTRACT_MAX_ATTEMPTS must be >= 1", ErrInvalidInput)
	}
	if c.PDF.MaxBytes <= 0 {
		return NewAppError("CONFIG_ERROR", "PDF_MAX_BYTES must be positive", ErrInvalidInput)
	}
	if !requireLLM {
		return nil
	}
	switch c.LLM.Provider {
	case "gemini":
		if c.LLM.GeminiAPIKey == "" {
			return NewAppError("CONFIG_ERROR", "GEMINI_API_KEY is required", ErrInvalidInput)
		}
	case "openai":
		if c.LLM.OpenAIAPIKey == "" {
			return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", "unknown LLM_PROVIDER "+c.LLM.Provider, ErrInvalidInput)
	}
	return nil
}
