// Package config builds the explicit runtime configuration of vmchat.
//
// Values are layered, lowest precedence first: defaults, an optional YAML
// file, environment variables. Command-line flags are applied by the caller.
// The result is validated once at startup and passed by value to every
// component; nothing reads the environment after that.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultCompletionBaseURL = "https://api.openai.com/v1"
	DefaultModel             = "gpt-3.5-turbo"
	DefaultEndpointName      = "OpenAI API"
	DefaultRequestTimeout    = 30 * time.Second
	DefaultListenAddr        = ":8000"
	DefaultMaxInputSize      = 4096
	DefaultMaxHistory        = 50
)

// Environment variables. OPENAI_API_KEY and VCENTER_API_MANAGEE_URL keep the
// names existing deployments already export.
const (
	EnvAPIKey            = "OPENAI_API_KEY"
	EnvCompletionAPIKey  = "VMCHAT_COMPLETION_API_KEY"
	EnvCompletionBaseURL = "VMCHAT_COMPLETION_BASE_URL"
	EnvModel             = "VMCHAT_MODEL"
	EnvEndpointName      = "VMCHAT_ENDPOINT_NAME"
	EnvLegacyManagement  = "VCENTER_API_MANAGEE_URL"
	EnvManagementURL     = "VMCHAT_MANAGEMENT_URL"
	EnvRequestTimeout    = "VMCHAT_REQUEST_TIMEOUT"
	EnvListenAddr        = "VMCHAT_LISTEN_ADDR"
	EnvRedisURL          = "VMCHAT_REDIS_URL"
	EnvHistoryTTL        = "VMCHAT_HISTORY_TTL"
	EnvMaxHistory        = "VMCHAT_MAX_HISTORY"
	EnvLogLevel          = "VMCHAT_LOG_LEVEL"
	EnvLogFormat         = "VMCHAT_LOG_FORMAT"
	EnvMaxInputSize      = "VMCHAT_MAX_INPUT_SIZE"
	EnvTranscriptKey     = "VMCHAT_TRANSCRIPT_KEY"
)

var (
	ErrMissingAPIKey  = errors.New("completion API key is not set (" + EnvAPIKey + ")")
	ErrMissingBaseURL = errors.New("management API base URL is not set (" + EnvLegacyManagement + " or " + EnvManagementURL + ")")
)

// Config holds the runtime configuration.
type Config struct {
	Completion     CompletionConfig `yaml:"completion"`
	Management     ManagementConfig `yaml:"management"`
	RequestTimeout time.Duration    `yaml:"request_timeout"`
	ListenAddr     string           `yaml:"listen_addr"`
	MaxInputSize   int              `yaml:"max_input_size"`
	Redis          RedisConfig      `yaml:"redis"`
	Log            LogConfig        `yaml:"log"`
	Transcript     TranscriptConfig `yaml:"transcript"`
}

// CompletionConfig describes the language-model completion endpoint.
type CompletionConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	// EndpointName prefixes interpreter errors ("OpenAI API error: ...").
	EndpointName string `yaml:"endpoint_name"`
}

// ManagementConfig describes the virtual-machine management API.
type ManagementConfig struct {
	BaseURL string `yaml:"base_url"`
}

// RedisConfig enables the Redis transcript store when URL is set.
type RedisConfig struct {
	URL        string        `yaml:"url"`
	HistoryTTL time.Duration `yaml:"history_ttl"`
	MaxHistory int           `yaml:"max_history"`
}

// LogConfig selects level ("debug", "info", ...) and format ("text", "json").
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TranscriptConfig controls what reaches the transcript store.
type TranscriptConfig struct {
	// EncryptionKey is a base64-encoded 32-byte AES key. Messages are stored
	// encrypted when it is set.
	EncryptionKey string `yaml:"encryption_key"`
	// RedactPatterns are regular expressions masked out of messages before
	// they are stored.
	RedactPatterns []string `yaml:"redact_patterns"`
}

// EncryptionKeyBytes decodes EncryptionKey. It returns nil when no key is set.
func (t TranscriptConfig) EncryptionKeyBytes() ([]byte, error) {
	if t.EncryptionKey == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(t.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("transcript encryption key is not valid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("transcript encryption key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Completion: CompletionConfig{
			BaseURL:      DefaultCompletionBaseURL,
			Model:        DefaultModel,
			EndpointName: DefaultEndpointName,
		},
		RequestTimeout: DefaultRequestTimeout,
		ListenAddr:     DefaultListenAddr,
		MaxInputSize:   DefaultMaxInputSize,
		Redis: RedisConfig{
			MaxHistory: DefaultMaxHistory,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at path
// and the process environment. It does not validate.
func Load(path string) (Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an injectable environment lookup.
func LoadWithEnv(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && strings.TrimSpace(v) != "" {
				*dst = strings.TrimSpace(v)
			}
		}
	}
	// Later keys win: VMCHAT_* overrides the legacy names.
	str(&c.Completion.APIKey, EnvAPIKey, EnvCompletionAPIKey)
	str(&c.Completion.BaseURL, EnvCompletionBaseURL)
	str(&c.Completion.Model, EnvModel)
	str(&c.Completion.EndpointName, EnvEndpointName)
	str(&c.Management.BaseURL, EnvLegacyManagement, EnvManagementURL)
	str(&c.ListenAddr, EnvListenAddr)
	str(&c.Redis.URL, EnvRedisURL)
	str(&c.Log.Level, EnvLogLevel)
	str(&c.Log.Format, EnvLogFormat)
	str(&c.Transcript.EncryptionKey, EnvTranscriptKey)

	var errs []error
	if v, ok := lookup(EnvRequestTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvRequestTimeout, err))
		} else {
			c.RequestTimeout = d
		}
	}
	if v, ok := lookup(EnvHistoryTTL); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvHistoryTTL, err))
		} else {
			c.Redis.HistoryTTL = d
		}
	}
	if v, ok := lookup(EnvMaxHistory); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvMaxHistory, err))
		} else {
			c.Redis.MaxHistory = n
		}
	}
	if v, ok := lookup(EnvMaxInputSize); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvMaxInputSize, err))
		} else {
			c.MaxInputSize = n
		}
	}
	return errors.Join(errs...)
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var errs []error
	if c.Completion.APIKey == "" {
		errs = append(errs, ErrMissingAPIKey)
	}
	if c.Management.BaseURL == "" {
		errs = append(errs, ErrMissingBaseURL)
	} else if err := validateHTTPURL(c.Management.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("management base URL: %w", err))
	}
	if err := validateHTTPURL(c.Completion.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("completion base URL: %w", err))
	}
	if c.Completion.Model == "" {
		errs = append(errs, errors.New("completion model is empty"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout))
	}
	if c.MaxInputSize <= 0 {
		errs = append(errs, fmt.Errorf("max input size must be positive, got %d", c.MaxInputSize))
	}
	if c.Redis.MaxHistory < 0 {
		errs = append(errs, fmt.Errorf("max history must not be negative, got %d", c.Redis.MaxHistory))
	}
	if _, err := c.Transcript.EncryptionKeyBytes(); err != nil {
		errs = append(errs, err)
	}
	for _, p := range c.Transcript.RedactPatterns {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, fmt.Errorf("redact pattern %q: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q must be an http(s) URL", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}
	return nil
}

// Redacted returns a copy with secrets masked, safe to print or log.
func (c Config) Redacted() Config {
	out := c
	if out.Completion.APIKey != "" {
		out.Completion.APIKey = mask(out.Completion.APIKey)
	}
	if out.Transcript.EncryptionKey != "" {
		out.Transcript.EncryptionKey = "****"
	}
	if out.Redis.URL != "" {
		if u, err := url.Parse(out.Redis.URL); err == nil && u.User != nil {
			if _, hasPassword := u.User.Password(); hasPassword {
				u.User = url.UserPassword(u.User.Username(), "xxxxx")
				out.Redis.URL = u.String()
			}
		}
	}
	return out
}

func mask(secret string) string {
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:3] + "****" + secret[len(secret)-4:]
}

// YAML renders the configuration as a YAML document.
func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
