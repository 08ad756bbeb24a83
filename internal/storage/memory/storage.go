package memory

import (
	"context"
	"sync"

	"github.com/mcoot/bankerscore/internal/model"
	"github.com/mcoot/bankerscore/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	registry *model.Registry
	deviceID string
	session  *model.CachedSession
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Registry operations

func (s *Storage) SaveRegistry(ctx context.Context, registry *model.Registry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry = registry.Clone()
	return nil
}

func (s *Storage) GetRegistry(ctx context.Context) (*model.Registry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.registry == nil {
		return nil, model.ErrRegistryNotFound
	}
	return s.registry.Clone(), nil
}

// Device operations

func (s *Storage) SaveDeviceID(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deviceID = id
	return nil
}

func (s *Storage) GetDeviceID(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.deviceID == "" {
		return "", model.ErrDeviceIDNotFound
	}
	return s.deviceID, nil
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.CachedSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cached := *session
	s.session = &cached
	return nil
}

func (s *Storage) GetSession(ctx context.Context) (*model.CachedSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil, model.ErrSessionNotFound
	}
	cached := *s.session
	return &cached, nil
}

func (s *Storage) DeleteSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	return nil
}
