package core

import (
	"fmt"
	"strings"
	"testing"
)

func TestConfigError_Error(t *testing.T) {
	err := ErrMissingAuth(ProviderGroq)
	if !strings.Contains(err.Error(), "GROQ_API_KEY") {
		t.Errorf("Error() = %q, want action mentioning GROQ_API_KEY", err.Error())
	}

	bare := &ConfigError{Code: "X", Message: "only message"}
	if bare.Error() != "only message" {
		t.Errorf("Error() = %q, want %q", bare.Error(), "only message")
	}
}

func TestConfigErrorConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *ConfigError
		code string
	}{
		{"env file", ErrEnvFileMissing(".env"), ErrCodeEnvFileMissing},
		{"provider", ErrUnsupportedProvider("cohere"), ErrCodeUnsupportedProvider},
		{"auth openai", ErrMissingAuth(ProviderOpenAI), ErrCodeMissingAuth},
		{"auth anthropic", ErrMissingAuth(ProviderAnthropic), ErrCodeMissingAuth},
		{"auth other", ErrMissingAuth("other"), ErrCodeMissingAuth},
		{"value", ErrInvalidValue("PORT", "too big"), ErrCodeInvalidValue},
		{"backend", ErrBackendUnreachable("http://x", "refused"), ErrCodeBackendUnreachable},
		{"directory", ErrDirectoryNotWritable("TEMP_DIR", "/tmp/x", "denied"), ErrCodeDirectoryNotWritable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.code)
			}
			if tt.err.Action == "" {
				t.Error("Action is empty, want remediation text")
			}
		})
	}
}

func TestIsConfigError_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("startup: %w", ErrUnsupportedProvider("x"))

	cfgErr, ok := IsConfigError(wrapped)
	if !ok {
		t.Fatal("IsConfigError() = false for wrapped ConfigError")
	}
	if cfgErr.Code != ErrCodeUnsupportedProvider {
		t.Errorf("Code = %q, want %q", cfgErr.Code, ErrCodeUnsupportedProvider)
	}
	if GetErrorCode(fmt.Errorf("plain")) != "" {
		t.Error("GetErrorCode() of plain error should be empty")
	}
}
