// Package config loads service configuration from an optional YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the pipeline orchestrator.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Ollama struct {
		BaseURL string `yaml:"base_url"`
		Model   string `yaml:"model"`
	} `yaml:"ollama"`

	Codegen struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"codegen"`

	Timeouts struct {
		ClassifySeconds int `yaml:"classify_seconds"`
		GenerateSeconds int `yaml:"generate_seconds"`
	} `yaml:"timeouts"`

	LogLevel string `yaml:"log_level"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	cfg := &Config{}
	cfg.Server.Port = "8080"
	cfg.Ollama.BaseURL = "http://localhost:11434"
	cfg.Ollama.Model = "deepseek-coder:33b"
	cfg.Codegen.BaseURL = "http://localhost:8000"
	cfg.Timeouts.ClassifySeconds = 30
	cfg.Timeouts.GenerateSeconds = 120
	cfg.LogLevel = "info"
	return cfg
}

// Load builds configuration from defaults, then the YAML file at path (if it
// exists), then environment variables. An empty path skips the file step.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Ollama.BaseURL = getEnv("OLLAMA_BASE_URL", cfg.Ollama.BaseURL)
	cfg.Ollama.Model = getEnv("OLLAMA_MODEL", cfg.Ollama.Model)
	cfg.Codegen.BaseURL = getEnv("CODEGEN_URL", cfg.Codegen.BaseURL)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.Timeouts.ClassifySeconds = getEnvInt("CLASSIFY_TIMEOUT_SECONDS", cfg.Timeouts.ClassifySeconds)
	cfg.Timeouts.GenerateSeconds = getEnvInt("GENERATE_TIMEOUT_SECONDS", cfg.Timeouts.GenerateSeconds)

	if cfg.Timeouts.ClassifySeconds <= 0 || cfg.Timeouts.GenerateSeconds <= 0 {
		return nil, fmt.Errorf("timeouts must be positive")
	}

	return cfg, nil
}

// ClassifyTimeout is the deadline for a single classifier call.
func (c *Config) ClassifyTimeout() time.Duration {
	return time.Duration(c.Timeouts.ClassifySeconds) * time.Second
}

// GenerateTimeout is the deadline for a single code-generation service call.
func (c *Config) GenerateTimeout() time.Duration {
	return time.Duration(c.Timeouts.GenerateSeconds) * time.Second
}

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
