// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port           string
	DatabaseURL    string
	BankAPIBaseURL string
	BankAPIKey     string
	LogLevel       string
	LogJSON        bool
	RequestTimeout time.Duration

	// Balance confirmation polling after money movement. The poll gives up
	// after BalancePollAttempts and returns the last observed balance.
	BalancePollAttempts int
	BalancePollDelay    time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:           os.Getenv("PORT"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		BankAPIBaseURL: os.Getenv("BANK_API_BASE_URL"),
		BankAPIKey:     os.Getenv("BANK_API_KEY"),
		LogLevel:       os.Getenv("LOG_LEVEL"),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.BankAPIBaseURL == "" {
		cfg.BankAPIBaseURL = "http://api.nessieisreal.com"
	}

	cfg.LogJSON = os.Getenv("LOG_JSON") == "true"

	cfg.RequestTimeout = 10 * time.Second
	if secStr := os.Getenv("REQUEST_TIMEOUT_SECONDS"); secStr != "" {
		if sec, err := strconv.Atoi(secStr); err == nil && sec > 0 {
			cfg.RequestTimeout = time.Duration(sec) * time.Second
		}
	}

	cfg.BalancePollAttempts = 5
	if attemptsStr := os.Getenv("BALANCE_POLL_ATTEMPTS"); attemptsStr != "" {
		if n, err := strconv.Atoi(attemptsStr); err == nil && n > 0 {
			cfg.BalancePollAttempts = n
		}
	}

	cfg.BalancePollDelay = 500 * time.Millisecond
	if delayStr := os.Getenv("BALANCE_POLL_DELAY_MS"); delayStr != "" {
		if ms, err := strconv.Atoi(delayStr); err == nil && ms > 0 {
			cfg.BalancePollDelay = time.Duration(ms) * time.Millisecond
		}
	}

	// Validate required configuration.
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks that all required configuration is present.
func (c *Config) validate() error {
	var errs []string

	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}

	if c.BankAPIKey == "" {
		errs = append(errs, "BANK_API_KEY is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
