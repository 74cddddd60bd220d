// Package config loads runtime configuration from the environment, with an
// optional .env file for development and an optional YAML file for
// deployments that prefer checked-in configuration over flags.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the RagMesh server.
type Config struct {
	Port      string `yaml:"port"`
	Env       string `yaml:"env"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Model selection: "mock", "openai" or "anthropic".
	ModelProvider string `yaml:"model_provider"`
	ModelName     string `yaml:"model_name"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// Pipeline tuning
	TopK              int           `yaml:"top_k"`
	IngestionTimeout  time.Duration `yaml:"ingestion_timeout"`
	RetrievalTimeout  time.Duration `yaml:"retrieval_timeout"`
	GenerationTimeout time.Duration `yaml:"generation_timeout"`
}

// Load reads configuration from the environment. A .env file is loaded first
// if present (development convenience). If RAGMESH_CONFIG names a YAML file,
// its values are applied before environment overrides.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:              "8000",
		Env:               "development",
		LogLevel:          "info",
		LogFormat:         "json",
		ModelProvider:     "mock",
		MaxUploadBytes:    50 * 1024 * 1024,
		TopK:              5,
		IngestionTimeout:  60 * time.Second,
		RetrievalTimeout:  30 * time.Second,
		GenerationTimeout: 60 * time.Second,
	}

	if path := os.Getenv("RAGMESH_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Env = getEnv("ENV", cfg.Env)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.ModelProvider = getEnv("MODEL_PROVIDER", cfg.ModelProvider)
	cfg.ModelName = getEnv("MODEL_NAME", cfg.ModelName)
	cfg.MaxUploadBytes = getEnvInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.TopK = getEnvInt("TOP_K", cfg.TopK)
	cfg.IngestionTimeout = getEnvDuration("INGESTION_TIMEOUT", cfg.IngestionTimeout)
	cfg.RetrievalTimeout = getEnvDuration("RETRIEVAL_TIMEOUT", cfg.RetrievalTimeout)
	cfg.GenerationTimeout = getEnvDuration("GENERATION_TIMEOUT", cfg.GenerationTimeout)

	return cfg, nil
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool { return c.Env == "development" }

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
