// Package config handles configuration loading for relay.
// It supports XDG config paths, project-level overrides, and environment
// variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Completion backends.
const (
	BackendOpenAI    = "openai"
	BackendAnthropic = "anthropic"
	BackendBedrock   = "bedrock"
	BackendNone      = "none"
)

// Config holds all configuration for relay.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Specialists SpecialistsConfig `mapstructure:"specialists"`
	LLM         LLMConfig         `mapstructure:"llm"`
	Journal     JournalConfig     `mapstructure:"journal"`
}

// ServerConfig holds the orchestrator's listen settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// SpecialistsConfig holds specialist discovery settings.
type SpecialistsConfig struct {
	// Addresses are the base URLs probed for agent cards at startup.
	Addresses []string `mapstructure:"addresses"`
	// CalcAddr, WeatherAddr and DatasetAddr are the listen addresses used
	// when the bundled specialists are started locally.
	CalcAddr    string `mapstructure:"calc_addr"`
	WeatherAddr string `mapstructure:"weather_addr"`
	DatasetAddr string `mapstructure:"dataset_addr"`
}

// LLMConfig selects and configures the completion backend.
type LLMConfig struct {
	// Backend is one of openai, anthropic, bedrock or none.
	Backend string `mapstructure:"backend"`
	// Endpoint is the chat-completions URL for the openai backend.
	Endpoint string `mapstructure:"endpoint"`
	// Model names the model for whichever backend is active.
	Model string `mapstructure:"model"`
	// APIKey authenticates the openai or anthropic backend. ${VAR}
	// references are expanded.
	APIKey string `mapstructure:"api_key"`
	// AWSRegion and AWSProfile apply to the bedrock backend.
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
}

// JournalConfig holds event journal settings.
type JournalConfig struct {
	// Enabled toggles the SQLite event journal.
	Enabled bool `mapstructure:"enabled"`
	// Path overrides the default journal location.
	Path string `mapstructure:"path"`
}

// Load loads configuration from XDG paths, project overrides, and
// environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (RELAY_* and ANTHROPIC_API_KEY)
// 2. Project config (.relay.yaml in current directory or parent)
// 3. User config (~/.config/relay/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.SetEnvPrefix("RELAY")
	v.AutomaticEnv()
	v.BindEnv("server.addr", "RELAY_ADDR")
	v.BindEnv("specialists.addresses", "RELAY_SPECIALISTS")
	v.BindEnv("llm.backend", "RELAY_LLM_BACKEND")
	v.BindEnv("llm.endpoint", "RELAY_LLM_ENDPOINT")
	v.BindEnv("llm.model", "RELAY_LLM_MODEL")
	v.BindEnv("llm.api_key", "RELAY_LLM_API_KEY", "ANTHROPIC_API_KEY")
	v.BindEnv("journal.path", "RELAY_JOURNAL_PATH")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.LLM.APIKey = os.ExpandEnv(cfg.LLM.APIKey)
	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.LLM.APIKey = os.ExpandEnv(cfg.LLM.APIKey)
	return cfg, nil
}

// Validate checks settings that would only fail at first use.
func (c *Config) Validate() error {
	switch c.LLM.Backend {
	case BackendOpenAI:
		if c.LLM.Endpoint == "" {
			return fmt.Errorf("llm.endpoint required for the openai backend")
		}
	case BackendAnthropic, BackendBedrock, BackendNone:
	default:
		return fmt.Errorf("unknown llm.backend %q", c.LLM.Backend)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	return nil
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Specialists: SpecialistsConfig{
			Addresses:   []string{"http://localhost:8081", "http://localhost:8082", "http://localhost:8083"},
			CalcAddr:    ":8081",
			WeatherAddr: ":8082",
			DatasetAddr: ":8083",
		},
		LLM: LLMConfig{
			Backend: BackendAnthropic,
		},
		Journal: JournalConfig{Enabled: false},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("specialists.addresses", d.Specialists.Addresses)
	v.SetDefault("specialists.calc_addr", d.Specialists.CalcAddr)
	v.SetDefault("specialists.weather_addr", d.Specialists.WeatherAddr)
	v.SetDefault("specialists.dataset_addr", d.Specialists.DatasetAddr)
	v.SetDefault("llm.backend", d.LLM.Backend)
	v.SetDefault("llm.endpoint", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("journal.enabled", d.Journal.Enabled)
	v.SetDefault("journal.path", "")
}

// getUserConfigDir returns the XDG config directory for relay.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "relay")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "relay")
	}
	return filepath.Join(home, ".config", "relay")
}

// findProjectConfig searches for .relay.yaml in the current directory and
// parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		configPath := filepath.Join(cwd, ".relay.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}
	return ""
}
