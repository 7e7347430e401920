package logging

import (
	"regexp"
	"strings"
)

// RedactedPlaceholder replaces sensitive values in log output.
const RedactedPlaceholder = "[REDACTED]"

var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(sk-ant-[a-zA-Z0-9_-]{20,})`),         // Anthropic keys
	regexp.MustCompile(`(sk-[a-zA-Z0-9_-]{20,})`),             // OpenAI keys
	regexp.MustCompile(`(gsk_[a-zA-Z0-9]{20,})`),              // Groq keys
	regexp.MustCompile(`(?i)(bearer\s+[a-zA-Z0-9._-]{20,})`),  // Bearer tokens
	regexp.MustCompile(`(?i)(basic\s+[a-zA-Z0-9+/=]{8,})`),    // Basic auth headers
	regexp.MustCompile(`(?i)(password\s*[:=]\s*[^\s,;]{4,})`), // password= or password:
	regexp.MustCompile(`(?i)(api_key\s*[:=]\s*[^\s,;]{8,})`),  // api_key= or api_key:
}

// Field names containing any of these are always redacted.
var sensitiveFieldNames = []string{
	"API_KEY",
	"APIKEY",
	"PASSWORD",
	"SECRET",
	"ACCESS_TOKEN",
	"AUTH_TOKEN",
	"AUTHORIZATION",
}

// RedactSensitiveData replaces anything that looks like a credential.
func RedactSensitiveData(value string) string {
	if value == "" {
		return value
	}

	result := value
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllString(result, RedactedPlaceholder)
	}
	return result
}

// IsSensitiveField reports whether a field name denotes a credential.
func IsSensitiveField(fieldName string) bool {
	upperName := strings.ToUpper(fieldName)
	for _, name := range sensitiveFieldNames {
		if strings.Contains(upperName, name) {
			return true
		}
	}
	return false
}

// ContainsSensitiveData reports whether value would be changed by redaction.
func ContainsSensitiveData(value string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}
