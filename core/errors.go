package core

import (
	"errors"
	"fmt"
)

// ConfigError represents a configuration-related error with actionable instructions.
type ConfigError struct {
	Code    string // Error code for programmatic handling
	Message string // Human-readable error message
	Action  string // Actionable instruction for resolution
}

func (e *ConfigError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s. %s", e.Message, e.Action)
	}
	return e.Message
}

// Error codes for configuration errors
const (
	ErrCodeEnvFileMissing       = "ENV_FILE_MISSING"
	ErrCodeUnsupportedProvider  = "UNSUPPORTED_PROVIDER"
	ErrCodeMissingAuth          = "MISSING_AUTH"
	ErrCodeInvalidValue         = "INVALID_VALUE"
	ErrCodeBackendUnreachable   = "BACKEND_UNREACHABLE"
	ErrCodeDirectoryNotWritable = "DIRECTORY_NOT_WRITABLE"
)

// ErrEnvFileMissing returns an error for missing .env file
func ErrEnvFileMissing(path string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeEnvFileMissing,
		Message: fmt.Sprintf("Configuration file not found: %s", path),
		Action:  "Copy example.env to .env and set AI_PROVIDER and its API key",
	}
}

// ErrUnsupportedProvider returns an error for an AI_PROVIDER value we cannot serve.
func ErrUnsupportedProvider(provider string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeUnsupportedProvider,
		Message: fmt.Sprintf("Unsupported AI provider: %s", provider),
		Action:  "Set AI_PROVIDER to one of: openai, groq, anthropic",
	}
}

// ErrMissingAuth returns an error for a provider without credentials.
func ErrMissingAuth(provider string) *ConfigError {
	var action string
	switch provider {
	case ProviderOpenAI:
		action = "Set OPENAI_API_KEY in your .env file (or point BASE_LLM_URL at a local server)"
	case ProviderGroq:
		action = "Set GROQ_API_KEY in your .env file"
	case ProviderAnthropic:
		action = "Set ANTHROPIC_API_KEY in your .env file"
	default:
		action = fmt.Sprintf("Set the API key for %s in your .env file", provider)
	}
	return &ConfigError{
		Code:    ErrCodeMissingAuth,
		Message: fmt.Sprintf("Missing API key for provider %s", provider),
		Action:  action,
	}
}

// ErrInvalidValue returns an error for an out-of-range setting.
func ErrInvalidValue(varName, reason string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeInvalidValue,
		Message: fmt.Sprintf("Invalid %s: %s", varName, reason),
		Action:  fmt.Sprintf("Fix %s in your .env file", varName),
	}
}

// ErrBackendUnreachable returns an error when the completion endpoint cannot be reached.
func ErrBackendUnreachable(url, reason string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeBackendUnreachable,
		Message: fmt.Sprintf("Cannot reach completion backend at %s: %s", url, reason),
		Action:  "Check BASE_LLM_URL and network access. For self-signed certificates, set ALLOW_SELF_SIGNED_CERTS=true",
	}
}

// ErrDirectoryNotWritable returns an error when a working directory cannot be used.
func ErrDirectoryNotWritable(varName, dir, reason string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeDirectoryNotWritable,
		Message: fmt.Sprintf("Directory %s (%s) is not writable: %s", dir, varName, reason),
		Action:  fmt.Sprintf("Create the directory or change %s", varName),
	}
}

// IsConfigError checks if an error is a ConfigError and returns it if so
func IsConfigError(err error) (*ConfigError, bool) {
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return configErr, true
	}
	return nil, false
}

// GetErrorCode extracts the error code from an error if it's a ConfigError
func GetErrorCode(err error) string {
	if configErr, ok := IsConfigError(err); ok {
		return configErr.Code
	}
	return ""
}
