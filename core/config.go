package core

import (
	"crypto/tls"
	"net/http"
	"os"
	"strings"
	"time"
)

// Supported completion providers. All of them are reached through an
// OpenAI-compatible chat completions endpoint.
const (
	ProviderOpenAI    = "openai"
	ProviderGroq      = "groq"
	ProviderAnthropic = "anthropic"
)

// Default endpoints per provider.
const (
	OpenAIBaseURL    = "https://api.openai.com/v1"
	GroqBaseURL      = "https://api.groq.com/openai/v1"
	AnthropicBaseURL = "https://api.anthropic.com/v1"
)

// Size limits for uploads and topics.
const (
	DefaultMaxFileSize    int64 = 80 * 1024 * 1024
	DefaultMaxTopicLength       = 200
)

// Config holds all configuration values. It is built once by LoadConfig at
// process start and passed by reference; nothing below main reads the
// environment directly.
type Config struct {
	// Completion backend
	AIProvider      string
	OpenAIAPIKey    string
	OpenAIModel     string
	GroqAPIKey      string
	GroqModel       string
	AnthropicAPIKey string
	AnthropicModel  string
	BaseLLMURL      string // Optional override for the selected provider's endpoint

	// Generation parameters
	Temperature       float32
	MaxResponseTokens int

	// Retry and timeout policy for backend calls
	MaxRetries           int
	RetryDelay           time.Duration
	AITimeout            time.Duration
	AllowSelfSignedCerts bool

	// Upload handling
	TempDir        string
	FileRetention  time.Duration // Age after which the sweep deletes temp files
	SweepInterval  time.Duration
	MaxFileSize    int64
	MaxTopicLength int

	// HTTP server
	Host               string
	Port               int
	CORSOrigins        []string
	APIPassword        string
	RateLimitPerMinute int

	// Run history
	RecordHistory        bool
	DatabasePath         string
	HistoryRetentionDays int

	// Logging
	LogFile  string
	LogLevel string
	DevMode  bool
}

// parseList splits a comma-separated value, trimming blanks.
func parseList(value string) []string {
	var result []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// LoadConfig reads configuration from the environment with defaults that match
// a single-user local deployment. Only the selected provider's API key is
// required, and not even that when BASE_LLM_URL points at a local server.
func LoadConfig() (*Config, error) {
	cfg := ConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ConfigFromEnv reads the environment without validating it.
func ConfigFromEnv() *Config {
	return &Config{
		AIProvider:      strings.ToLower(strings.TrimSpace(GetEnvOrDefault("AI_PROVIDER", ProviderOpenAI))),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     GetEnvOrDefault("OPENAI_MODEL", "gpt-3.5-turbo"),
		GroqAPIKey:      os.Getenv("GROQ_API_KEY"),
		GroqModel:       GetEnvOrDefault("GROQ_MODEL", "llama-3.1-70b-versatile"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  GetEnvOrDefault("ANTHROPIC_MODEL", "claude-3-sonnet-20240229"),
		BaseLLMURL:      os.Getenv("BASE_LLM_URL"),

		Temperature:       float32(ParseFloat64Env("AI_TEMPERATURE", 0.7)),
		MaxResponseTokens: ParseIntEnv("AI_MAX_TOKENS", 2000),

		// One retry after one second by default.
		MaxRetries:           ParseIntEnv("MAX_RETRIES", 1),
		RetryDelay:           ParseDurationEnv("RETRY_DELAY", 1),
		AITimeout:            ParseDurationEnv("AI_TIMEOUT", 60),
		AllowSelfSignedCerts: ParseBoolEnv("ALLOW_SELF_SIGNED_CERTS", false),

		TempDir:        GetEnvOrDefault("TEMP_DIR", "./temp"),
		FileRetention:  ParseDurationEnv("FILE_CLEANUP_INTERVAL", 300),
		SweepInterval:  ParseDurationEnv("FILE_SWEEP_INTERVAL", 60),
		MaxFileSize:    ParseByteSizeEnv("MAX_FILE_SIZE", DefaultMaxFileSize),
		MaxTopicLength: ParseIntEnv("MAX_TOPIC_LENGTH", DefaultMaxTopicLength),

		Host:               GetEnvOrDefault("HOST", "0.0.0.0"),
		Port:               ParseIntEnv("PORT", 8000),
		CORSOrigins:        parseList(GetEnvOrDefault("CORS_ORIGINS", "*")),
		APIPassword:        os.Getenv("API_PASSWORD"),
		RateLimitPerMinute: ParseIntEnv("RATE_LIMIT_PER_MINUTE", 60),

		RecordHistory:        ParseBoolEnv("RECORD_HISTORY", true),
		DatabasePath:         GetEnvOrDefault("DATABASE_PATH", "./data/mindmap.db"),
		HistoryRetentionDays: ParseIntEnv("HISTORY_RETENTION_DAYS", 30),

		LogFile:  GetEnvOrDefault("LOG_FILE", "app.log"),
		LogLevel: os.Getenv("LOG_LEVEL"),
		DevMode:  ParseBoolEnv("DEV_MODE", false),
	}
}

// Validate checks the settings that would otherwise fail at first use.
func (c *Config) Validate() error {
	switch c.AIProvider {
	case ProviderOpenAI, ProviderGroq, ProviderAnthropic:
	default:
		return ErrUnsupportedProvider(c.AIProvider)
	}

	// A custom endpoint may be a keyless local server.
	if c.APIKey() == "" && c.BaseLLMURL == "" {
		return ErrMissingAuth(c.AIProvider)
	}

	if c.MaxRetries < 0 {
		return ErrInvalidValue("MAX_RETRIES", "must not be negative")
	}
	if c.MaxFileSize <= 0 {
		return ErrInvalidValue("MAX_FILE_SIZE", "must be positive")
	}
	if c.MaxTopicLength <= 0 {
		return ErrInvalidValue("MAX_TOPIC_LENGTH", "must be positive")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return ErrInvalidValue("PORT", "must be between 1 and 65535")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return ErrInvalidValue("AI_TEMPERATURE", "must be between 0 and 2")
	}
	return nil
}

// APIKey returns the key of the selected provider.
func (c *Config) APIKey() string {
	switch c.AIProvider {
	case ProviderGroq:
		return c.GroqAPIKey
	case ProviderAnthropic:
		return c.AnthropicAPIKey
	default:
		return c.OpenAIAPIKey
	}
}

// Model returns the model name of the selected provider.
func (c *Config) Model() string {
	switch c.AIProvider {
	case ProviderGroq:
		return c.GroqModel
	case ProviderAnthropic:
		return c.AnthropicModel
	default:
		return c.OpenAIModel
	}
}

// BaseURL returns the chat completions endpoint for the selected provider,
// honoring BASE_LLM_URL when set.
func (c *Config) BaseURL() string {
	if c.BaseLLMURL != "" {
		return strings.TrimRight(c.BaseLLMURL, "/")
	}
	switch c.AIProvider {
	case ProviderGroq:
		return GroqBaseURL
	case ProviderAnthropic:
		return AnthropicBaseURL
	default:
		return OpenAIBaseURL
	}
}

// GetHTTPClient returns an HTTP client honoring AllowSelfSignedCerts.
func GetHTTPClient(cfg *Config, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg != nil && cfg.AllowSelfSignedCerts {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
