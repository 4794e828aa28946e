package config

import (
	"fmt"
	"strings"
)

// ConfigurationError is a config.yaml that could not be read, parsed or validated.
type ConfigurationError struct {
	FilePath    string   `json:"filePath"`
	ErrorType   string   `json:"errorType"` // io, parse or validation
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Error implements the error interface.
func (ce *ConfigurationError) Error() string {
	if ce.FilePath == "" {
		return fmt.Sprintf("configuration %s error: %s", ce.ErrorType, ce.Message)
	}
	return fmt.Sprintf("configuration %s error in %s: %s", ce.ErrorType, ce.FilePath, ce.Message)
}

// DetailedError returns the message followed by the suggestions, one per line.
func (ce *ConfigurationError) DetailedError() string {
	parts := []string{ce.Error()}
	if len(ce.Suggestions) > 0 {
		parts = append(parts, "Suggestions:")
		for _, suggestion := range ce.Suggestions {
			parts = append(parts, fmt.Sprintf("  - %s", suggestion))
		}
	}
	return strings.Join(parts, "\n")
}

// Is allows errors.Is() to work with wrapped errors.
func (ce *ConfigurationError) Is(target error) bool {
	_, ok := target.(*ConfigurationError)
	return ok
}

// NewConfigurationError creates a configuration error without suggestions.
func NewConfigurationError(filePath, errorType, message string) *ConfigurationError {
	return &ConfigurationError{
		FilePath:  filePath,
		ErrorType: errorType,
		Message:   message,
	}
}
