package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"mentichat/internal/models"
	"mentichat/internal/providers/google"
	"mentichat/pkg/logger"
)

// EnvConfigPath overrides the default config location.
const EnvConfigPath = "MENTICHAT_CONFIG_PATH"

// Config represents the root configuration structure
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Providers  ProvidersConfig  `yaml:"providers"`
	Normalizer NormalizerConfig `yaml:"normalizer"`
	Session    SessionConfig    `yaml:"session"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
	// RateLimit is the sustained number of submissions per second across all
	// sessions; zero disables limiting.
	RateLimit float64 `yaml:"rate_limit"`
	Burst     int     `yaml:"burst"`
}

// LogConfig configures pkg/logger
type LogConfig struct {
	Level string `yaml:"level"`
}

// ProvidersConfig holds per-provider credentials and model names
type ProvidersConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	Hosted  HostedConfig  `yaml:"hosted"`
	Managed ManagedConfig `yaml:"managed"`
}

// HostedConfig configures the hosted inference endpoint
type HostedConfig struct {
	APIKey       string   `yaml:"api_key"`
	BaseURL      string   `yaml:"base_url"`
	Models       []string `yaml:"models"`
	DefaultModel string   `yaml:"default_model"`
}

// ManagedConfig configures the managed generative-model API
type ManagedConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// NormalizerConfig lists extra text extractor expressions
type NormalizerConfig struct {
	Extractors []string `yaml:"extractors"`
}

// SessionConfig configures session defaults
type SessionConfig struct {
	DefaultProvider string `yaml:"default_provider"`
	MaxSessions     int    `yaml:"max_sessions"`
}

const DefaultConfigTemplate = `server:
  port: 8080
  host: "127.0.0.1"
  rate_limit: 2
  burst: 5
log:
  level: info
providers:
  timeout: 0s
  hosted:
    api_key: "${HF_API_KEY}"
    models:
      - "numind/NuExtract-1.5"
      - "facebook/blenderbot-400M-distill"
      - "microsoft/Phi-3.5-mini-instruct"
  managed:
    api_key: "${GOOGLE_API_KEY}"
    model: "${MODEL_NAME}"
normalizer:
  extractors: []
session:
  default_provider: "hosted"
  max_sessions: 1000
`

// Path returns the config path from MENTICHAT_CONFIG_PATH or
// ~/.config/mentichat/config.yaml.
func Path() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".config", "mentichat", "config.yaml"), nil
}

// Load reads the configuration from Path. If the file doesn't exist, a
// template is written there and an error asks the user to fill it in.
func Load() (*Config, error) {
	configPath, err := Path()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		logger.Printf("Config file missing at %s, creating default template...", configPath)
		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate), 0600); err != nil {
			return nil, fmt.Errorf("failed to write default config template: %w", err)
		}
		return nil, fmt.Errorf("generated default config at %s. Please update it and restart", configPath)
	}

	f, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse decodes YAML from r after expanding ${VAR} references from the
// environment, then applies defaults and validates.
func Parse(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var conf Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &conf); err != nil {
		return nil, fmt.Errorf("failed to parse yaml config: %w", err)
	}
	conf.applyDefaults()
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.RateLimit > 0 && c.Server.Burst <= 0 {
		c.Server.Burst = 1
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Providers.Hosted.DefaultModel == "" && len(c.Providers.Hosted.Models) > 0 {
		c.Providers.Hosted.DefaultModel = c.Providers.Hosted.Models[0]
	}
	if c.Providers.Managed.Model == "" {
		c.Providers.Managed.Model = google.DefaultModel
	}
}

// Validate reports configuration values that can never work.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("server.rate_limit must not be negative"))
	}
	if c.Providers.Timeout < 0 {
		errs = append(errs, fmt.Errorf("providers.timeout must not be negative"))
	}
	if c.Session.MaxSessions < 0 {
		errs = append(errs, fmt.Errorf("session.max_sessions must not be negative"))
	}
	if _, err := models.ParseProviderKind(c.Session.DefaultProvider); err != nil {
		errs = append(errs, fmt.Errorf("session.default_provider: %w", err))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	return errors.Join(errs...)
}

// Selection resolves the provider selection for one turn. Empty provider or
// model fall back to configured defaults. Missing credentials are left empty
// so the provider client can report them.
func (c *Config) Selection(provider, model string) (models.ProviderSelection, error) {
	if strings.TrimSpace(provider) == "" {
		provider = c.Session.DefaultProvider
	}
	kind, err := models.ParseProviderKind(provider)
	if err != nil {
		return models.ProviderSelection{}, err
	}

	sel := models.ProviderSelection{Provider: kind, Model: strings.TrimSpace(model)}
	switch kind {
	case models.ProviderHosted:
		sel.Credential = c.Providers.Hosted.APIKey
		if sel.Model == "" {
			sel.Model = c.Providers.Hosted.DefaultModel
		}
	case models.ProviderManaged:
		sel.Credential = c.Providers.Managed.APIKey
		if sel.Model == "" {
			sel.Model = c.Providers.Managed.Model
		}
	}
	return sel, nil
}

// Catalog lists the models selectable per provider.
func (c *Config) Catalog() map[models.ProviderKind][]string {
	managed := []string{}
	if c.Providers.Managed.Model != "" {
		managed = append(managed, c.Providers.Managed.Model)
	}
	hosted := append([]string{}, c.Providers.Hosted.Models...)
	return map[models.ProviderKind][]string{
		models.ProviderHosted:  hosted,
		models.ProviderManaged: managed,
	}
}
