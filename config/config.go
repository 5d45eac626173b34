// Package config loads provider settings for taskfn programs from a YAML file, a .env file
// and the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Provider names understood by Validate and the providers package.
const (
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Defaults.
const (
	DefaultProvider    = ProviderOpenAI
	DefaultSeed        = 123
	DefaultTemperature = 0.1
	DefaultMaxTokens   = 1024
	DefaultTimeout     = 60 * time.Second
	DefaultLogLevel    = "info"
	DefaultConfigName  = "taskfn"
	DefaultEnvFile     = ".env"
)

var defaultModels = map[string]string{
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderOllama:    "gemma3:4b",
	ProviderAnthropic: "claude-3-5-haiku-latest",
	ProviderGemini:    "gemini-1.5-flash",
}

var hostedProviders = map[string]bool{
	ProviderOpenAI:    true,
	ProviderAnthropic: true,
	ProviderGemini:    true,
}

// ErrUnknownProvider is returned by Validate for a provider name no adapter exists for.
var ErrUnknownProvider = errors.New("unsupported LLM provider")

// ProviderConfig holds the settings of one model provider.
type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
	// Seed is parsed leniently: an unparsable value falls back to DefaultSeed.
	Seed int64 `mapstructure:"-"`
}

// Config is the full taskfn runtime configuration.
type Config struct {
	Provider    string        `mapstructure:"provider"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
	LogLevel    string        `mapstructure:"log_level"`

	OpenAI    ProviderConfig `mapstructure:"openai"`
	Ollama    ProviderConfig `mapstructure:"ollama"`
	Anthropic ProviderConfig `mapstructure:"anthropic"`
	Gemini    ProviderConfig `mapstructure:"gemini"`
}

// Load reads configuration with the following precedence, highest first:
// LLM_* overrides for the selected provider, provider-scoped environment variables
// (OPENAI_API_KEY, OLLAMA_MODEL, ...), the config file, defaults.
// configPath selects an explicit YAML file; when empty, taskfn.yaml in the working directory
// is read if present. A .env file in the working directory is loaded into the environment
// without overriding variables that are already set.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(DefaultEnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	for key, env := range envBindings() {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	for name, pc := range cfg.providers() {
		pc.Seed = parseSeed(v.Get(name + ".seed"))
	}
	applyOverrides(&cfg)
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", DefaultProvider)
	v.SetDefault("temperature", DefaultTemperature)
	v.SetDefault("max_tokens", DefaultMaxTokens)
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("log_level", DefaultLogLevel)
	for name, model := range defaultModels {
		v.SetDefault(name+".api_key", "")
		v.SetDefault(name+".base_url", "")
		v.SetDefault(name+".model", model)
		v.SetDefault(name+".seed", DefaultSeed)
	}
	v.SetDefault(ProviderOllama+".base_url", "http://localhost:11434")
}

// envBindings maps config keys to environment variables: LLM_* for global settings and
// <PROVIDER>_<FIELD> (OPENAI_API_KEY, OLLAMA_SEED, ...) for provider settings.
func envBindings() map[string]string {
	bindings := map[string]string{
		"provider":    "LLM_PROVIDER",
		"temperature": "LLM_TEMPERATURE",
		"max_tokens":  "LLM_MAX_TOKENS",
		"timeout":     "LLM_TIMEOUT",
		"log_level":   "LLM_LOG_LEVEL",
	}
	for name := range defaultModels {
		for _, field := range []string{"api_key", "base_url", "model", "seed"} {
			bindings[name+"."+field] = strings.ToUpper(name + "_" + field)
		}
	}
	return bindings
}

// applyOverrides copies the generic LLM_* variables onto the selected provider.
func applyOverrides(cfg *Config) {
	pc := cfg.Active()
	if pc == nil {
		return
	}
	if s, ok := os.LookupEnv("LLM_API_KEY"); ok && s != "" {
		pc.APIKey = s
	}
	if s, ok := os.LookupEnv("LLM_BASE_URL"); ok && s != "" {
		pc.BaseURL = s
	}
	if s, ok := os.LookupEnv("LLM_MODEL"); ok && s != "" {
		pc.Model = s
	}
	if s, ok := os.LookupEnv("LLM_SEED"); ok && s != "" {
		pc.Seed = parseSeed(s)
	}
}

func parseSeed(raw any) int64 {
	seed, err := cast.ToInt64E(raw)
	if err != nil {
		return DefaultSeed
	}
	return seed
}

func loadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (c *Config) providers() map[string]*ProviderConfig {
	return map[string]*ProviderConfig{
		ProviderOpenAI:    &c.OpenAI,
		ProviderOllama:    &c.Ollama,
		ProviderAnthropic: &c.Anthropic,
		ProviderGemini:    &c.Gemini,
	}
}

// Active returns the settings of the selected provider, or nil for an unknown provider.
func (c *Config) Active() *ProviderConfig {
	return c.providers()[c.Provider]
}

// Validate reports unknown providers, missing API keys for hosted providers and
// out-of-range generation settings.
func (c *Config) Validate() error {
	pc := c.Active()
	if pc == nil {
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.Provider)
	}
	if hostedProviders[c.Provider] && pc.APIKey == "" {
		return fmt.Errorf("%s: api key is required (set %s_API_KEY or LLM_API_KEY)", c.Provider, strings.ToUpper(c.Provider))
	}
	if pc.Model == "" {
		return fmt.Errorf("%s: model is required", c.Provider)
	}
	if c.Temperature < 0 {
		return fmt.Errorf("temperature must be non-negative, got %v", c.Temperature)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative, got %d", c.MaxTokens)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative, got %s", c.Timeout)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// Logger returns a zerolog logger writing to w at the configured level (info when unparsable).
func (c *Config) Logger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
