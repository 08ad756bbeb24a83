package cli

import (
	"os"
	"path/filepath"

	"github.com/mcoot/bankerscore/internal/config"
)

// Config holds CLI flag values. Non-empty flags override the loaded settings.
type Config struct {
	ConfigFile string
	DataDir    string
	Storage    string
	User       string
	RemoteURL  string
	Output     string
	Verbose    bool
	Sync       bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ConfigFile: getEnvOrDefault("BANKERSCORE_CONFIG", defaultConfigFile()),
		Output:     "text",
	}
}

// Settings loads the configuration file and environment, then applies flags.
// The default config file is optional; an explicitly named one must exist.
func (c *Config) Settings() (*config.Config, error) {
	path := c.ConfigFile
	if path == defaultConfigFile() {
		if _, err := os.Stat(path); err != nil {
			path = ""
		}
	}

	settings, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if c.DataDir != "" {
		settings.Client.DataDir = c.DataDir
	}
	if c.Storage != "" {
		settings.Client.Storage = c.Storage
	}
	if c.User != "" {
		settings.Client.User = c.User
	}
	if c.RemoteURL != "" {
		settings.Client.RemoteURL = c.RemoteURL
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

func defaultConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".bankerscore", "config.yaml")
	}
	return filepath.Join(home, ".bankerscore", "config.yaml")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
