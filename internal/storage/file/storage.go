package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mcoot/bankerscore/internal/model"
	"github.com/mcoot/bankerscore/internal/storage"
)

const (
	registryFile = "registry.json"
	deviceFile   = "device_id"
	sessionFile  = "session.json"
)

// Storage keeps device-local state as files in a single directory,
// so separate CLI invocations share one registry
type Storage struct {
	mu  sync.Mutex
	dir string
}

// New creates the directory if needed and returns a file-backed storage
func New(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	return &Storage{dir: dir}, nil
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Dir returns the state directory
func (s *Storage) Dir() string {
	return s.dir
}

// Registry operations

func (s *Storage) SaveRegistry(ctx context.Context, registry *model.Registry) error {
	return s.writeJSON(registryFile, registry)
}

func (s *Storage) GetRegistry(ctx context.Context) (*model.Registry, error) {
	var registry model.Registry
	if err := s.readJSON(registryFile, &registry); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, model.ErrRegistryNotFound
		}
		return nil, err
	}
	registry.Normalize()
	return &registry, nil
}

// Device operations

func (s *Storage) SaveDeviceID(ctx context.Context, id string) error {
	return s.write(deviceFile, []byte(id+"\n"))
}

func (s *Storage) GetDeviceID(ctx context.Context) (string, error) {
	data, err := s.read(deviceFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", model.ErrDeviceIDNotFound
		}
		return "", err
	}
	id := strings.TrimSpace(string(data))
	if id == "" {
		return "", model.ErrDeviceIDNotFound
	}
	return id, nil
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.CachedSession) error {
	return s.writeJSON(sessionFile, session)
}

func (s *Storage) GetSession(ctx context.Context) (*model.CachedSession, error) {
	var session model.CachedSession
	if err := s.readJSON(sessionFile, &session); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (s *Storage) DeleteSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(filepath.Join(s.dir, sessionFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Storage) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return s.write(name, data)
}

func (s *Storage) readJSON(name string, v any) error {
	data, err := s.read(name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// write replaces the file atomically so a crash never leaves a torn registry
func (s *Storage) write(name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(s.dir, name))
}

func (s *Storage) read(name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return os.ReadFile(filepath.Join(s.dir, name))
}
