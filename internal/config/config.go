// Package config provides configuration management for Chipi
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Persona  PersonaConfig  `mapstructure:"persona"`
	Keywords KeywordsConfig `mapstructure:"keywords"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Device   DeviceConfig   `mapstructure:"device"`
	Memory   MemoryConfig   `mapstructure:"memory"`
	Speech   SpeechConfig   `mapstructure:"speech"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// PersonaConfig maps persona identifiers to raw instruction templates.
// Templates may contain the literal token "user", replaced by the resolved
// speaker name at request time.
type PersonaConfig struct {
	Default   string            `mapstructure:"default"`
	Templates map[string]string `mapstructure:"templates"`
}

// KeywordsConfig overrides the built-in keyword groups. These are data, not
// code: extend the lists here without touching the matching logic.
type KeywordsConfig struct {
	Sad         []string `mapstructure:"sad"`
	Temperature []string `mapstructure:"temperature"`
	Humidity    []string `mapstructure:"humidity"`
	Exit        []string `mapstructure:"exit"`
}

// LLMConfig selects and configures the completion backend
type LLMConfig struct {
	Backend     string        `mapstructure:"backend"` // azure or gemini
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	TopP        float64       `mapstructure:"top_p"`
	Timeout     time.Duration `mapstructure:"timeout"`

	AzureEndpoint   string `mapstructure:"azure_endpoint"`
	AzureAPIKey     string `mapstructure:"azure_api_key"`
	AzureAPIVersion string `mapstructure:"azure_api_version"`
	AzureDeployment string `mapstructure:"azure_deployment"`

	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	GeminiModel  string `mapstructure:"gemini_model"`
}

// DeviceConfig identifies the physical device and its database
type DeviceConfig struct {
	Serial       string `mapstructure:"serial"`
	DatabasePath string `mapstructure:"database_path"`
}

// MemoryConfig configures the durable dialogue history
type MemoryConfig struct {
	Path string `mapstructure:"path"`
}

// SpeechConfig configures the speech input/output vendor
type SpeechConfig struct {
	Provider string `mapstructure:"provider"` // azure or superton

	AzureRegion string `mapstructure:"azure_region"`
	AzureAPIKey string `mapstructure:"azure_api_key"`
	AzureVoice  string `mapstructure:"azure_voice"`

	SupertonAPIKey string `mapstructure:"superton_api_key"`
	SupertonVoice  string `mapstructure:"superton_voice"`
	Language       string `mapstructure:"language"`

	Style       string  `mapstructure:"style"`
	StyleDegree float64 `mapstructure:"style_degree"`
	Pitch       int     `mapstructure:"pitch"`
	Rate        int     `mapstructure:"rate"`
}

// LoggingConfig configures structured logging
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	Dir     string `mapstructure:"dir"`
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		Persona: PersonaConfig{
			Default:   "chipi",
			Templates: map[string]string{},
		},
		LLM: LLMConfig{
			Backend:     "azure",
			MaxTokens:   100,
			Temperature: 0.7,
			TopP:        1.0,
			Timeout:     30 * time.Second,
		},
		Memory: MemoryConfig{
			Path: "memory.txt",
		},
		Speech: SpeechConfig{
			Provider:    "azure",
			AzureVoice:  "ko-KR-SeoHyeonNeural",
			Language:    "ko",
			Style:       "cheerful",
			StyleDegree: 2.0,
			Pitch:       10,
			Rate:        20,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
		},
	}
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	cfg := DefaultConfig()

	configDir, err := GetConfigDir()
	if err != nil {
		return cfg, err
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return cfg, err
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	// Environment variable overrides
	viper.SetEnvPrefix("CHIPI")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return cfg, err
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Path returns the config file viper resolved, or empty when running on
// defaults only.
func Path() string {
	return viper.ConfigFileUsed()
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".chipi"), nil
}
