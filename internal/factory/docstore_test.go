package factory

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/bankerscore/internal/config"
	"github.com/mcoot/bankerscore/internal/model"
	remotememory "github.com/mcoot/bankerscore/internal/remote/memory"
	remoteredis "github.com/mcoot/bankerscore/internal/remote/redis"
	"github.com/mcoot/bankerscore/internal/testutil"
)

func docstoreConfig() config.DocstoreConfig {
	cfg := config.Default().Docstore
	cfg.Secret = "docstore-test-secret"
	return cfg
}

func TestNewDocstoreMemory(t *testing.T) {
	d, err := NewDocstore(docstoreConfig(), testutil.NopLogger())
	require.NoError(t, err)
	defer func() { _ = d.Close() }()

	assert.IsType(t, &remotememory.Store{}, d.Store)

	rr := httptest.NewRecorder()
	d.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestNewDocstoreRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := docstoreConfig()
	cfg.Storage = config.StorageRedis
	cfg.RedisURL = "redis://" + mr.Addr()

	d, err := NewDocstore(cfg, testutil.NopLogger())
	require.NoError(t, err)
	defer func() { _ = d.Close() }()

	assert.IsType(t, &remoteredis.Store{}, d.Store)
}

func TestNewDocstoreRejectsShortSecret(t *testing.T) {
	cfg := docstoreConfig()
	cfg.Secret = "short"

	_, err := NewDocstore(cfg, testutil.NopLogger())

	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestNewDocstoreRejectsUnknownStorage(t *testing.T) {
	cfg := docstoreConfig()
	cfg.Storage = "s3"

	_, err := NewDocstore(cfg, testutil.NopLogger())

	assert.Error(t, err)
}

func TestNewAppWithRedisStorage(t *testing.T) {
	mr := miniredis.RunT(t)
	clientCfg := config.Default().Client
	clientCfg.Storage = config.StorageRedis
	clientCfg.RedisURL = "redis://" + mr.Addr()
	clientCfg.RemoteURL = "http://127.0.0.1:1"

	app, err := New(Config{Client: clientCfg, Logger: testutil.NopLogger()})
	require.NoError(t, err)
	require.NoError(t, app.Start(t.Context()))

	require.NoError(t, app.Registry.SetCurrentUser(t.Context(), "Alice"))
	require.NoError(t, app.Close(t.Context()))
	assert.NotNil(t, app.Sync)

	reopened, err := New(Config{Client: clientCfg, Logger: testutil.NopLogger()})
	require.NoError(t, err)
	require.NoError(t, reopened.Start(t.Context()))
	defer func() { _ = reopened.Close(t.Context()) }()
	assert.Equal(t, "Alice", reopened.Registry.CurrentUser())
}
