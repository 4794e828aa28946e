package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"auditctl/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/auditctl"
	configFileName = "config.yaml"

	// EnvAddress overrides server.address.
	EnvAddress = "AUDITCTL_ADDRESS"
	// EnvClientSecret overrides azure.clientSecret so it can stay out of the file.
	EnvClientSecret = "AUDITCTL_CLIENT_SECRET"
	// EnvUsername overrides server.username.
	EnvUsername = "AUDITCTL_USERNAME"
	// EnvPassword is the only source of the service account password.
	EnvPassword = "AUDITCTL_PASSWORD"
)

// osUserHomeDir is replaced in tests.
var osUserHomeDir = os.UserHomeDir

// GetDefaultConfigPath returns ~/.config/auditctl.
func GetDefaultConfigPath() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

// ConfigFilePath returns the config.yaml location inside configPath.
func ConfigFilePath(configPath string) string {
	return filepath.Join(configPath, configFileName)
}

// LoadConfig loads config.yaml from configPath on top of the defaults and
// applies environment overrides. A missing file is not an error.
func LoadConfig(configPath string) (AuditctlConfig, error) {
	configFilePath := ConfigFilePath(configPath)
	config := GetDefaultConfig()

	data, err := os.ReadFile(configFilePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logging.Info("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
	case err != nil:
		logging.Info("ConfigLoader", "Error loading config.yaml from %s: %s", configFilePath, err)
		return AuditctlConfig{}, NewConfigurationError(configFilePath, "io", err.Error())
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return AuditctlConfig{}, NewConfigurationError(configFilePath, "parse", err.Error())
		}
		logging.Info("ConfigLoader", "Loaded configuration from %s", configFilePath)
	}

	applyEnvOverrides(&config)
	return config, nil
}

func applyEnvOverrides(config *AuditctlConfig) {
	if v := os.Getenv(EnvAddress); v != "" {
		logging.Debug("ConfigLoader", "Using %s from environment", EnvAddress)
		config.Server.Address = v
	}
	if v := os.Getenv(EnvClientSecret); v != "" {
		logging.Debug("ConfigLoader", "Using %s from environment", EnvClientSecret)
		config.Azure.ClientSecret = v
	}
	if v := os.Getenv(EnvUsername); v != "" {
		logging.Debug("ConfigLoader", "Using %s from environment", EnvUsername)
		config.Server.Username = v
	}
	config.Server.Password = os.Getenv(EnvPassword)
}

// SaveConfig writes config to configPath/config.yaml, creating the directory.
// The file may hold a client secret and is written with 0600 permissions.
func SaveConfig(configPath string, config AuditctlConfig) error {
	if err := os.MkdirAll(configPath, 0700); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", configPath, err)
	}
	data, err := yaml.Marshal(&config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	path := ConfigFilePath(configPath)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	logging.Info("ConfigLoader", "Wrote configuration to %s", path)
	return nil
}
