package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/bankerscore/internal/model"
	"github.com/mcoot/bankerscore/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Registry operations

func (s *Storage) SaveRegistry(ctx context.Context, registry *model.Registry) error {
	data, err := json.Marshal(registry)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, registryKey(s.cfg.Namespace), data, 0).Err()
}

func (s *Storage) GetRegistry(ctx context.Context) (*model.Registry, error) {
	data, err := s.client.Get(ctx, registryKey(s.cfg.Namespace)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRegistryNotFound
		}
		return nil, err
	}

	var registry model.Registry
	if err := json.Unmarshal(data, &registry); err != nil {
		return nil, err
	}
	registry.Normalize()
	return &registry, nil
}

// Device operations

func (s *Storage) SaveDeviceID(ctx context.Context, id string) error {
	return s.client.Set(ctx, deviceIDKey(s.cfg.Namespace), id, 0).Err()
}

func (s *Storage) GetDeviceID(ctx context.Context) (string, error) {
	id, err := s.client.Get(ctx, deviceIDKey(s.cfg.Namespace)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", model.ErrDeviceIDNotFound
		}
		return "", err
	}
	return id, nil
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.CachedSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(s.cfg.Namespace), data, s.cfg.SessionTTL).Err()
}

func (s *Storage) GetSession(ctx context.Context) (*model.CachedSession, error) {
	data, err := s.client.Get(ctx, sessionKey(s.cfg.Namespace)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}

	var session model.CachedSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Storage) DeleteSession(ctx context.Context) error {
	return s.client.Del(ctx, sessionKey(s.cfg.Namespace)).Err()
}
