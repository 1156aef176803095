// =============================================================================
// SDI Invoice Sender - Configuration Module
// =============================================================================
//
// This module loads the main application configuration from a YAML file,
// applies defaults and validates the result.
//
// CONFIGURATION FILE (config.yaml):
//   - The two invoice trees (to send, already sent)
//   - Logging and report output
//   - TS Digital endpoints and client identity
//   - Where to read the login credentials from
//
// Credentials themselves are never stored in this file; see the credentials
// package.
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Credential sources.
const (
	CredentialsFromEnv  = "env"
	CredentialsFromFile = "file"
	CredentialsFromAWS  = "aws"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// INVOICE TREES
	// =========================================================================

	// SourceDir is the tree the billing system writes invoices to.
	// Expected layout: YYYY/YYYY-MM/*.xml
	SourceDir string `yaml:"source_dir"`

	// SentDir is the tree of invoices already transmitted. Successfully
	// submitted documents are copied here, mirroring their place in SourceDir.
	SentDir string `yaml:"sent_dir"`

	// CurrentYearOnly restricts scanning to the current calendar year's
	// folder. Default: false (any YYYY folder is scanned).
	CurrentYearOnly bool `yaml:"current_year_only"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// LogFile is the path to the application log file.
	// Default: "./send_invoice.log"
	LogFile string `yaml:"log_file"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// ReportFile is an optional XLSX file listing the invoices sent in a run.
	ReportFile string `yaml:"report_file"`

	// =========================================================================
	// REMOTE SERVICE
	// =========================================================================

	API APIConfig `yaml:"api"`

	Credentials CredentialsConfig `yaml:"credentials"`
}

// APIConfig describes the TS Digital endpoints.
type APIConfig struct {
	// LoginURL is the base URL of the portal API (nonce and login).
	// Default: "https://ts-portale-api.agyo.io"
	LoginURL string `yaml:"login_url"`

	// ConsoleURL is the base URL of the console API (extraction, submission).
	// Default: "https://ts-console-api.agyo.io"
	ConsoleURL string `yaml:"console_url"`

	// AppName and AppVersion are sent as client identity headers.
	// Defaults: "PORTALE", "1.0"
	AppName    string `yaml:"app_name"`
	AppVersion string `yaml:"app_version"`

	// FlowType is the transmission flow classification.
	// Default: "SDI"
	FlowType string `yaml:"flow_type"`

	// Timeout bounds every HTTP request.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`
}

// CredentialsConfig selects where the login credentials come from.
type CredentialsConfig struct {
	// Source is one of "env", "file" or "aws".
	// Default: "env"
	Source string `yaml:"source"`

	// EnvFile is an optional dotenv file loaded before reading the
	// environment. Missing files are ignored.
	// Default: ".env"
	EnvFile string `yaml:"env_file"`

	// File is a YAML credentials file, used when Source is "file".
	File string `yaml:"file"`

	// AWSSecretID and AWSRegion locate a Secrets Manager secret, used when
	// Source is "aws". An empty region uses the default AWS configuration.
	AWSSecretID string `yaml:"aws_secret_id"`
	AWSRegion   string `yaml:"aws_region"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read, parsed or validated.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseMainConfig(data)
}

// ParseMainConfig parses, defaults and validates a YAML configuration.
func ParseMainConfig(data []byte) (*MainConfig, error) {
	var config MainConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// ResolvePaths makes the invoice trees and the report file absolute,
// relative to the working directory.
func (c *MainConfig) ResolvePaths() error {
	for _, p := range []*string{&c.SourceDir, &c.SentDir, &c.ReportFile} {
		if *p == "" {
			continue
		}
		abs, err := filepath.Abs(*p)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", *p, err)
		}
		*p = abs
	}
	return nil
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.LogFile == "" {
		config.LogFile = "./send_invoice.log"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.API.LoginURL == "" {
		config.API.LoginURL = "https://ts-portale-api.agyo.io"
	}
	if config.API.ConsoleURL == "" {
		config.API.ConsoleURL = "https://ts-console-api.agyo.io"
	}
	if config.API.AppName == "" {
		config.API.AppName = "PORTALE"
	}
	if config.API.AppVersion == "" {
		config.API.AppVersion = "1.0"
	}
	if config.API.FlowType == "" {
		config.API.FlowType = "SDI"
	}
	if config.API.Timeout == 0 {
		config.API.Timeout = 60 * time.Second
	}
	if config.Credentials.Source == "" {
		config.Credentials.Source = CredentialsFromEnv
	}
	if config.Credentials.EnvFile == "" {
		config.Credentials.EnvFile = ".env"
	}
}

// validateMainConfig validates the main configuration.
//
// The invoice trees are not checked here; a missing tree is reported by the
// scanner when the run starts.
func validateMainConfig(config *MainConfig) error {
	if config.SourceDir == "" {
		return fmt.Errorf("source_dir is required")
	}
	if config.SentDir == "" {
		return fmt.Errorf("sent_dir is required")
	}
	if filepath.Clean(config.SourceDir) == filepath.Clean(config.SentDir) {
		return fmt.Errorf("source_dir and sent_dir must be different directories")
	}

	switch config.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", config.LogLevel)
	}

	if config.API.Timeout < 0 {
		return fmt.Errorf("api.timeout cannot be negative")
	}

	switch config.Credentials.Source {
	case CredentialsFromEnv:
	case CredentialsFromFile:
		if config.Credentials.File == "" {
			return fmt.Errorf("credentials.file is required when credentials.source is %q", CredentialsFromFile)
		}
	case CredentialsFromAWS:
		if config.Credentials.AWSSecretID == "" {
			return fmt.Errorf("credentials.aws_secret_id is required when credentials.source is %q", CredentialsFromAWS)
		}
	default:
		return fmt.Errorf("unknown credentials.source %q", config.Credentials.Source)
	}

	return nil
}
