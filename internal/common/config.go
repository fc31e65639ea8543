package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Recovery  RecoveryConfig
	OCR       OCRConfig
	LLM       LLMConfig
	Traversal TraversalConfig
	TenderID  TenderIDConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	ListenAddr string
}

// RecoveryConfig holds text-recovery configuration
type RecoveryConfig struct {
	MinTextLen  int    // minimum recovered length for a strategy to win
	ArtifactDir string // raw-text side-channel store
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Tesseract string
	Lang      string
	DPI       int
	MaxPages  int
}

// LLMConfig holds LLM refinement configuration
type LLMConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
}

// TraversalConfig bounds recursive hyperlink discovery
type TraversalConfig struct {
	MaxDepth     int
	MaxDocs      int
	FetchTimeout time.Duration
}

// TenderIDConfig holds identifier generation configuration
type TenderIDConfig struct {
	CounterDir   string // file-backed counter store; empty -> SQL store
	DegradedMode bool   // allow timestamp fallback on counter store failure
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			ListenAddr: getEnv("HTTP_ADDR", ":8080"),
		},
		Recovery: RecoveryConfig{
			MinTextLen:  getEnvAsInt("RECOVERY_MIN_TEXT_LEN", 50),
			ArtifactDir: getEnv("ARTIFACT_DIR", "./artifacts"),
		},
		OCR: OCRConfig{
			Tesseract: getEnv("TESSERACT_BIN", "tesseract"),
			Lang:      getEnv("OCR_LANG", "eng"),
			DPI:       getEnvAsInt("OCR_DPI", 300),
			MaxPages:  getEnvAsInt("OCR_MAX_PAGES", 0),
		},
		LLM: LLMConfig{
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", ""),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.3),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
		},
		Traversal: TraversalConfig{
			MaxDepth:     getEnvAsInt("LINK_MAX_DEPTH", 2),
			MaxDocs:      getEnvAsInt("LINK_MAX_DOCS", 16),
			FetchTimeout: getEnvAsDuration("LINK_FETCH_TIMEOUT", 30*time.Second),
		},
		TenderID: TenderIDConfig{
			CounterDir:   getEnv("TENDER_COUNTER_DIR", ""),
			DegradedMode: getEnvAsBool("TENDER_ID_DEGRADED_MODE", false),
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
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

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Server.ListenAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Traversal.MaxDocs <= 0 {
		return NewAppError("CONFIG_ERROR", "LINK_MAX_DOCS must be positive", ErrInvalidInput)
	}
	return nil
}
