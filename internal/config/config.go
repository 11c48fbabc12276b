// Package config loads service configuration from environment variables
// with sensible defaults, plus an optional YAML rules file for station
// aliases and selector window overrides. Environment values win over the
// file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the API service.
type Config struct {
	// HTTP
	Port           string
	AllowedOrigins []string

	// Storage: DatabaseURL selects the Postgres backend; otherwise the
	// embedded SQLite store at DatabasePath is used.
	DatabaseURL  string
	DatabasePath string

	// Query pipeline
	MaxResults int // primary-tier cap per request
	RulesPath  string

	Rules Rules
}

// Rules is the optional YAML-configurable part: colloquial station aliases
// and selector boundaries.
type Rules struct {
	Aliases  map[string]string `yaml:"aliases"`
	Selector SelectorRules     `yaml:"selector"`
}

// SelectorRules overrides the selector's numeric window boundaries. Zero
// values keep the built-in defaults.
type SelectorRules struct {
	LookbackMinutes    int `yaml:"lookback_minutes"`
	DefaultWindowHours int `yaml:"default_window_hours"`
	MaxWindowHours     int `yaml:"max_window_hours"`
	NearMarginMinutes  int `yaml:"near_margin_minutes"`
	MinResults         int `yaml:"min_results"`
	MaxDurationHours   int `yaml:"max_duration_hours"`
}

// Load reads configuration from environment variables and, when
// QUERY_RULES points at a YAML file, merges the rules from it.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8081"),
		AllowedOrigins: []string{getEnv("ALLOWED_ORIGIN", "*")},
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		DatabasePath:   getEnv("SQLITE_DATABASE", "data/railquery.db"),
		MaxResults:     getEnvInt("QUERY_MAX_RESULTS", 5),
		RulesPath:      getEnv("QUERY_RULES", ""),
	}

	if cfg.RulesPath != "" {
		rules, err := loadRules(cfg.RulesPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load query rules: %w", err)
		}
		cfg.Rules = *rules
	}
	return cfg, nil
}

func loadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	return &rules, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
