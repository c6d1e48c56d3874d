package config

import (
	"fmt"
	"strings"
)

// ConfigurationError reports a missing or malformed configuration value.
type ConfigurationError struct {
	Key     string
	Missing []string
	Message string
	Cause   error
}

func (e *ConfigurationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("configuration error: missing required parameters: %s", strings.Join(e.Missing, ", "))
	}
	if e.Key != "" {
		if e.Cause != nil {
			return fmt.Sprintf("configuration error: %s: %s: %v", e.Key, e.Message, e.Cause)
		}
		return fmt.Sprintf("configuration error: %s: %s", e.Key, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Message, e.Cause)
	}
	return "configuration error: " + e.Message
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}
