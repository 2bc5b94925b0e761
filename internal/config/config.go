// Package config loads the application configuration and household input
// files from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/taxatlas/taxgo/internal/domain"
)

// AppConfig is the service configuration.
type AppConfig struct {
	DataDir         string `yaml:"data_dir"`
	ListenAddr      string `yaml:"listen_addr"`
	RedisAddr       string `yaml:"redis_addr"`
	PostcodeBaseURL string `yaml:"postcode_base_url"`
	PostcodeLookup  bool   `yaml:"postcode_lookup"`
}

// DefaultAppConfig returns the configuration used when no file is given.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		DataDir:        "data/processed",
		ListenAddr:     ":8080",
		PostcodeLookup: true,
	}
}

// LoadAppConfig reads an application configuration file, filling unset fields
// from the defaults.
func LoadAppConfig(filename string) (AppConfig, error) {
	cfg := DefaultAppConfig()
	data, err := os.ReadFile(filename)
	if err != nil {
		return cfg, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "data/processed"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	return cfg, nil
}

// InputParser handles parsing of household input files.
type InputParser struct{}

// NewInputParser creates a new input parser.
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadFromFile loads a household request from a YAML file, applies the
// service defaults and validates the result.
func (ip *InputParser) LoadFromFile(filename string) (*domain.TaxEstimateRequest, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	var req domain.TaxEstimateRequest
	if err := yaml.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	req.ApplyDefaults()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("household validation failed: %w", err)
	}
	return &req, nil
}
