package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mcoot/bankerscore/internal/api"
	"github.com/mcoot/bankerscore/internal/model"
	"github.com/mcoot/bankerscore/internal/services/accounts"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "BANKERSCORE_"

// DefaultEnvFile is loaded when Load is given no env files
const DefaultEnvFile = ".env"

// Storage backends
const (
	StorageFile   = "file"
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

// Config is the combined configuration for the CLI and the docstore server
type Config struct {
	LogLevel string         `yaml:"log_level"`
	Client   ClientConfig   `yaml:"client"`
	Docstore DocstoreConfig `yaml:"docstore"`
}

// ClientConfig configures the local score tracker
type ClientConfig struct {
	// Storage selects where local state lives: file, memory or redis
	Storage   string `yaml:"storage"`
	DataDir   string `yaml:"data_dir"`
	RedisURL  string `yaml:"redis_url"`
	Namespace string `yaml:"namespace"`

	// User is the local user name stamped on edits and lease holds
	User string `yaml:"user"`

	// RemoteURL is the docstore base URL; empty keeps sync disabled
	RemoteURL     string        `yaml:"remote_url"`
	RemoteTimeout time.Duration `yaml:"remote_timeout"`
	SyncInterval  time.Duration `yaml:"sync_interval"`
}

// DocstoreConfig configures the document store and identity provider
type DocstoreConfig struct {
	Server     api.ServerConfig `yaml:"server"`
	Storage    string           `yaml:"storage"`
	RedisURL   string           `yaml:"redis_url"`
	QuotaBytes int64            `yaml:"quota_bytes"`
	Secret     string           `yaml:"secret"`
	Issuer     string           `yaml:"issuer"`
	Users      []accounts.User  `yaml:"users"`
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Client: ClientConfig{
			Storage:       StorageFile,
			DataDir:       defaultDataDir(),
			Namespace:     "default",
			RemoteTimeout: 30 * time.Second,
			SyncInterval:  5 * time.Minute,
		},
		Docstore: DocstoreConfig{
			Server:     api.DefaultServerConfig(),
			Storage:    StorageMemory,
			QuotaBytes: 10 << 20,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (skipped
// when path is empty), the env files (.env when none are given; missing files
// are ignored) and finally BANKERSCORE_* environment variables.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parsing config file %s: %v", model.ErrValidation, path, err)
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{DefaultEnvFile}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the combined configuration
func (c *Config) Validate() error {
	if _, err := c.SlogLevel(); err != nil {
		return err
	}

	switch c.Client.Storage {
	case StorageFile:
		if c.Client.DataDir == "" {
			return fmt.Errorf("%w: client.data_dir is required for file storage", model.ErrValidation)
		}
	case StorageRedis:
		if c.Client.RedisURL == "" {
			return fmt.Errorf("%w: client.redis_url is required for redis storage", model.ErrValidation)
		}
	case StorageMemory:
	default:
		return fmt.Errorf("%w: client.storage must be file, memory or redis", model.ErrValidation)
	}
	if c.Client.SyncInterval <= 0 {
		return fmt.Errorf("%w: client.sync_interval must be positive", model.ErrValidation)
	}

	switch c.Docstore.Storage {
	case StorageMemory:
	case StorageRedis:
		if c.Docstore.RedisURL == "" {
			return fmt.Errorf("%w: docstore.redis_url is required for redis storage", model.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: docstore.storage must be memory or redis", model.ErrValidation)
	}
	if c.Docstore.QuotaBytes < 0 {
		return fmt.Errorf("%w: docstore.quota_bytes must not be negative", model.ErrValidation)
	}
	return nil
}

// SlogLevel parses LogLevel
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: log_level: %v", model.ErrValidation, err)
	}
	return level, nil
}

// AccountsConfig converts the docstore settings for the accounts service
func (d DocstoreConfig) AccountsConfig() accounts.Config {
	cfg := accounts.DefaultConfig()
	cfg.Secret = []byte(d.Secret)
	if d.Issuer != "" {
		cfg.Issuer = d.Issuer
	}
	cfg.Users = d.Users
	return cfg
}

func (c *Config) applyEnv() error {
	setString(&c.LogLevel, "LOG_LEVEL")

	setString(&c.Client.Storage, "STORAGE")
	setString(&c.Client.DataDir, "DATA_DIR")
	setString(&c.Client.RedisURL, "REDIS_URL")
	setString(&c.Client.Namespace, "NAMESPACE")
	setString(&c.Client.User, "USER")
	setString(&c.Client.RemoteURL, "REMOTE_URL")
	if err := setDuration(&c.Client.RemoteTimeout, "REMOTE_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&c.Client.SyncInterval, "SYNC_INTERVAL"); err != nil {
		return err
	}

	setString(&c.Docstore.Server.Host, "DOCSTORE_HOST")
	if err := setInt(&c.Docstore.Server.Port, "DOCSTORE_PORT"); err != nil {
		return err
	}
	setString(&c.Docstore.Storage, "DOCSTORE_STORAGE")
	setString(&c.Docstore.RedisURL, "DOCSTORE_REDIS_URL")
	setString(&c.Docstore.Secret, "DOCSTORE_SECRET")
	setString(&c.Docstore.Issuer, "DOCSTORE_ISSUER")
	if v, ok := lookup("DOCSTORE_QUOTA_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %sDOCSTORE_QUOTA_BYTES: %v", model.ErrValidation, EnvPrefix, err)
		}
		c.Docstore.QuotaBytes = n
	}
	return nil
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func setString(dst *string, name string) {
	if v, ok := lookup(name); ok {
		*dst = v
	}
}

func setInt(dst *int, name string) error {
	v, ok := lookup(name)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%w: %s%s: %v", model.ErrValidation, EnvPrefix, name, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, name string) error {
	v, ok := lookup(name)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%w: %s%s: %v", model.ErrValidation, EnvPrefix, name, err)
	}
	*dst = d
	return nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bankerscore"
	}
	return filepath.Join(home, ".bankerscore")
}
