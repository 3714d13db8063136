package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the complete updater configuration
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Repo    RepoConfig    `json:"repo" mapstructure:"repo"`
	Sector  SectorConfig  `json:"sector" mapstructure:"sector"`
	State   StateConfig   `json:"state" mapstructure:"state"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// RepoConfig contains the versioned content repository settings
type RepoConfig struct {
	URL      string `json:"url" mapstructure:"url"`
	Branch   string `json:"branch" mapstructure:"branch"`
	CloneDir string `json:"cloneDir" mapstructure:"cloneDir"`
	// PackDir is the subdirectory of the clone holding the controller pack data
	PackDir string `json:"packDir" mapstructure:"packDir"`
}

// SectorConfig contains the reference sector file settings
type SectorConfig struct {
	BaseURL string `json:"baseUrl" mapstructure:"baseUrl"`
	// DataDir is the sector data directory relative to the pack working dir
	DataDir string `json:"dataDir" mapstructure:"dataDir"`
}

// StateConfig contains local intermediate state settings
type StateConfig struct {
	// Dir holds the retained-settings record file and the run journal
	Dir string `json:"dir" mapstructure:"dir"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Repo: RepoConfig{
			URL:      "https://github.com/VATSIM-UK/uk-controller-pack.git",
			Branch:   "main",
			CloneDir: "uk-controller-pack",
			PackDir:  "UK",
		},
		Sector: SectorConfig{
			BaseURL: "http://www.vatsim.uk/files/sector/esad/",
			DataDir: filepath.Join("Data", "Sector"),
		},
		State: StateConfig{
			Dir: "local",
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// LoadConfig loads configuration from .ukcpup/config.json under baseDir
func LoadConfig(baseDir string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("version", 1)

	// Configure viper
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(baseDir, ".ukcpup"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		// If config doesn't exist, return default config
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	// Unmarshal into config struct
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to .ukcpup/config.json under baseDir
func (c *Config) Save(baseDir string) error {
	dir := filepath.Join(baseDir, ".ukcpup")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	// Marshal to JSON with indentation
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != 1 {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if c.Repo.URL == "" {
		return &ConfigError{Field: "repo.url", Message: "repository URL is required"}
	}
	if c.Repo.Branch == "" {
		return &ConfigError{Field: "repo.branch", Message: "branch is required"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
