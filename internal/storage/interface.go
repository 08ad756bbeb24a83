package storage

import (
	"context"

	"github.com/mcoot/bankerscore/internal/model"
)

// Storage defines the interface for device-local persistence
type Storage interface {
	// Registry operations
	SaveRegistry(ctx context.Context, registry *model.Registry) error
	GetRegistry(ctx context.Context) (*model.Registry, error)

	// Device identity, generated once per device
	SaveDeviceID(ctx context.Context, id string) error
	GetDeviceID(ctx context.Context) (string, error)

	// Cached identity session for restoration across restarts
	SaveSession(ctx context.Context, session *model.CachedSession) error
	GetSession(ctx context.Context) (*model.CachedSession, error)
	DeleteSession(ctx context.Context) error
}
