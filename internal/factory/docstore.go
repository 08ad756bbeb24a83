package factory

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mcoot/bankerscore/internal/api"
	"github.com/mcoot/bankerscore/internal/config"
	"github.com/mcoot/bankerscore/internal/dependencies/clock"
	"github.com/mcoot/bankerscore/internal/remote"
	remotememory "github.com/mcoot/bankerscore/internal/remote/memory"
	remoteredis "github.com/mcoot/bankerscore/internal/remote/redis"
	"github.com/mcoot/bankerscore/internal/services/accounts"
)

// Docstore contains the wired document store server components
type Docstore struct {
	Accounts *accounts.Service
	Store    remote.Store
	Handler  http.Handler
	Server   *api.Server

	closer io.Closer
}

// NewDocstore wires the identity provider, the document store backend and
// the HTTP API
func NewDocstore(cfg config.DocstoreConfig, logger *slog.Logger) (*Docstore, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	clk := clock.New()

	accts, err := accounts.New(clk, cfg.AccountsConfig(), logger)
	if err != nil {
		return nil, err
	}

	d := &Docstore{Accounts: accts}

	switch cfg.Storage {
	case "", config.StorageMemory:
		d.Store = remotememory.New(accts, clk, remotememory.Config{QuotaBytes: cfg.QuotaBytes})
	case config.StorageRedis:
		redisCfg := remoteredis.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		redisCfg.QuotaBytes = cfg.QuotaBytes
		store, err := remoteredis.New(redisCfg, accts, clk)
		if err != nil {
			return nil, err
		}
		d.Store = store
		d.closer = store
	default:
		return nil, fmt.Errorf("invalid docstore storage %q: must be memory or redis", cfg.Storage)
	}

	d.Handler = api.NewRouter(api.RouterConfig{
		Logger:        logger,
		Provider:      accts,
		Authenticator: accts,
		Store:         d.Store,
	})
	d.Server = api.NewServer(d.Handler, cfg.Server, logger)
	return d, nil
}

// Close releases the storage backend
func (d *Docstore) Close() error {
	if d.closer != nil {
		return d.closer.Close()
	}
	return nil
}
