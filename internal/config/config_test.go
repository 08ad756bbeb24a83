package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/bankerscore/internal/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, StorageFile, cfg.Client.Storage)
	assert.NotEmpty(t, cfg.Client.DataDir)
	assert.Equal(t, 5*time.Minute, cfg.Client.SyncInterval)
	assert.Equal(t, 8080, cfg.Docstore.Server.Port)
	assert.Equal(t, StorageMemory, cfg.Docstore.Storage)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
log_level: debug
client:
  storage: memory
  user: alice
  remote_url: http://localhost:9090
  sync_interval: 90s
docstore:
  server:
    port: 9090
    write_timeout: 5s
  secret: 0123456789abcdef0123
  users:
    - username: alice
      password_hash: "$2a$10$abc"
      name: Alice
      email: alice@example.com
`)

	cfg, err := Load(path, noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "alice", cfg.Client.User)
	assert.Equal(t, StorageMemory, cfg.Client.Storage)
	assert.Equal(t, "http://localhost:9090", cfg.Client.RemoteURL)
	assert.Equal(t, 90*time.Second, cfg.Client.SyncInterval)
	assert.Equal(t, 9090, cfg.Docstore.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Docstore.Server.WriteTimeout)
	assert.Equal(t, 10*time.Second, cfg.Docstore.Server.ShutdownTimeout, "unset fields keep defaults")
	require.Len(t, cfg.Docstore.Users, 1)
	assert.Equal(t, "alice@example.com", cfg.Docstore.Users[0].Email)

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", level.String())

	accts := cfg.Docstore.AccountsConfig()
	assert.Equal(t, []byte("0123456789abcdef0123"), accts.Secret)
	assert.Equal(t, time.Hour, accts.IDTokenTTL)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeFile(t, "config.yaml", "client:\n  user: alice\n")
	t.Setenv("BANKERSCORE_USER", "bob")
	t.Setenv("BANKERSCORE_SYNC_INTERVAL", "1m")
	t.Setenv("BANKERSCORE_DOCSTORE_PORT", "7070")
	t.Setenv("BANKERSCORE_DOCSTORE_QUOTA_BYTES", "2048")

	cfg, err := Load(path, noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "bob", cfg.Client.User)
	assert.Equal(t, time.Minute, cfg.Client.SyncInterval)
	assert.Equal(t, 7070, cfg.Docstore.Server.Port)
	assert.Equal(t, int64(2048), cfg.Docstore.QuotaBytes)
}

func TestEnvFileIsLoaded(t *testing.T) {
	envFile := writeFile(t, "test.env", "BANKERSCORE_REMOTE_URL=http://docs.example\n")
	t.Cleanup(func() { _ = os.Unsetenv("BANKERSCORE_REMOTE_URL") })

	cfg, err := Load("", envFile)
	require.NoError(t, err)

	assert.Equal(t, "http://docs.example", cfg.Client.RemoteURL)
}

func TestInvalidEnvironmentValue(t *testing.T) {
	t.Setenv("BANKERSCORE_SYNC_INTERVAL", "soon")

	_, err := Load("", noEnvFile(t))

	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestMissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), noEnvFile(t))

	assert.Error(t, err)
}

func TestMalformedConfigFile(t *testing.T) {
	path := writeFile(t, "config.yaml", "client: [not, a, map")

	_, err := Load(path, noEnvFile(t))

	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"unknown client storage", func(c *Config) { c.Client.Storage = "s3" }},
		{"redis without url", func(c *Config) { c.Client.Storage = StorageRedis }},
		{"file without dir", func(c *Config) { c.Client.DataDir = "" }},
		{"non-positive interval", func(c *Config) { c.Client.SyncInterval = 0 }},
		{"docstore redis without url", func(c *Config) { c.Docstore.Storage = StorageRedis }},
		{"docstore file storage", func(c *Config) { c.Docstore.Storage = StorageFile }},
		{"negative quota", func(c *Config) { c.Docstore.QuotaBytes = -1 }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.ErrorIs(t, cfg.Validate(), model.ErrValidation)
		})
	}

	assert.NoError(t, Default().Validate())
}
