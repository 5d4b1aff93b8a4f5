package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// DefaultPollInterval is how often the serve loop refreshes every calendar.
const DefaultPollInterval = 15 * time.Minute

// ListDefinition is one custom calendar beyond the per-list defaults:
// a name plus optional due-date horizon, list whitelist and tag whitelist.
type ListDefinition struct {
	Name string `yaml:"name" mapstructure:"name"`

	// DueDateDays is the horizon in days; nil disables horizon filtering
	DueDateDays *int `yaml:"due_date_days" mapstructure:"due_date_days"`

	// IncludeLists narrows the calendar to these list names
	IncludeLists []string `yaml:"include_lists" mapstructure:"include_lists"`

	// Tags keeps only tasks carrying at least one of these tags
	Tags []string `yaml:"tags" mapstructure:"tags"`
}

// Config is the full anydo configuration.
type Config struct {
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`

	// BaseURL overrides the API host; empty selects production
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`

	CustomLists []ListDefinition `yaml:"custom_lists" mapstructure:"custom_lists"`
}

// DefaultConfig returns a Config with defaults applied.
func DefaultConfig() *Config {
	return &Config{
		PollInterval: DefaultPollInterval,
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".anydo", "config.yaml")
}

// Load reads the config file at path (the default location when path is
// empty) and applies ANYDO_* environment overrides. A missing file is not
// an error; credentials can come entirely from the environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = DefaultPath()
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("ANYDO")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			// No file; fall through to env-only configuration.
		} else {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	// AutomaticEnv does not surface env vars through Unmarshal for keys
	// absent from the file; pick up the credential overrides explicitly.
	if value := v.GetString("username"); value != "" {
		cfg.Username = value
	}
	if value := v.GetString("password"); value != "" {
		cfg.Password = value
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	return cfg, nil
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if c.Username == "" {
		return fmt.Errorf("config: username is required (set username in the config file or ANYDO_USERNAME)")
	}
	if c.Password == "" {
		return fmt.Errorf("config: password is required (set password in the config file or ANYDO_PASSWORD)")
	}
	for i, list := range c.CustomLists {
		if list.Name == "" {
			return fmt.Errorf("config: custom_lists[%d]: name is required", i)
		}
		if list.DueDateDays != nil && *list.DueDateDays < 0 {
			return fmt.Errorf("config: custom list %q: due_date_days must not be negative", list.Name)
		}
	}
	return nil
}
