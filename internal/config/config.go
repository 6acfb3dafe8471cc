package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const configFileName = "ghi_config.yaml"

// defaultKeepDays controls how far in the past forwarding events are kept
// before the loader garbage-collects them remotely.
const defaultKeepDays = 2

// WorkbookConfig locates the duty table inside the monthly workbook.
type WorkbookConfig struct {
	FilenamePattern string   `yaml:"filenamePattern" validate:"required"`
	SheetIndex      int      `yaml:"sheetIndex" validate:"min=0"`
	StartRow        int      `yaml:"startRow" validate:"required,min=1"`
	StartColumn     int      `yaml:"startColumn" validate:"required,min=1"`
	PrimaryDutyTags []string `yaml:"primaryDutyTags" validate:"required,min=1"`
}

// WebexConfig holds the OAuth integration credentials for the Webex
// telephony API. The token itself lives in TokenFile, not here.
type WebexConfig struct {
	ClientID     string `yaml:"clientID" validate:"required"`
	ClientSecret string `yaml:"clientSecret" validate:"required"`
	RedirectURI  string `yaml:"redirectURI" validate:"required,url"`
	TokenFile    string `yaml:"tokenFile,omitempty"`
}

// Config represents the application configuration
type Config struct {
	Workbook WorkbookConfig `yaml:"workbook"`
	Webex    WebexConfig    `yaml:"webex"`
	KeepDays int            `yaml:"keepDays,omitempty" validate:"min=0"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from ghi_config.yaml.
// It looks for the config file in the current directory first, then in the
// user's home directory.
func Load() (*Config, error) {
	configPath, err := findConfigFile()
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.KeepDays == 0 {
		cfg.KeepDays = defaultKeepDays
	}
	if cfg.Webex.TokenFile == "" {
		if homeDir, err := os.UserHomeDir(); err == nil {
			cfg.Webex.TokenFile = filepath.Join(homeDir, "ghi_token.json")
		} else {
			cfg.Webex.TokenFile = "ghi_token.json"
		}
	}
}

// findConfigFile searches for ghi_config.yaml in the current directory and
// the home directory.
func findConfigFile() (string, error) {
	// Check current directory
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("config file not found in current directory or home directory")
}
