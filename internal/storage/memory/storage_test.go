package memory

import (
	"context"
	"testing"
	"time"

	"github.com/mcoot/bankerscore/internal/model"
	"github.com/stretchr/testify/suite"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

// Registry tests

func (s *StorageSuite) TestSaveAndGetRegistry() {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	registry := model.NewRegistry("alice")
	registry.Games["game_20240101_001"] = &model.Entry{
		ID:           "game_20240101_001",
		Name:         "Friday",
		Creator:      "alice",
		LastModified: now,
		Data:         model.NewGameData(now),
	}

	err := s.storage.SaveRegistry(s.ctx, registry)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetRegistry(s.ctx)
	s.Require().NoError(err)
	s.Equal(registry, retrieved)
}

func (s *StorageSuite) TestSavedRegistryIsDetachedFromCaller() {
	registry := model.NewRegistry("alice")
	s.Require().NoError(s.storage.SaveRegistry(s.ctx, registry))

	registry.CurrentUser = "bob"

	retrieved, err := s.storage.GetRegistry(s.ctx)
	s.Require().NoError(err)
	s.Equal("alice", retrieved.CurrentUser)
}

func (s *StorageSuite) TestGetRegistryNotFound() {
	_, err := s.storage.GetRegistry(s.ctx)
	s.ErrorIs(err, model.ErrRegistryNotFound)
}

// Device tests

func (s *StorageSuite) TestDeviceID() {
	_, err := s.storage.GetDeviceID(s.ctx)
	s.ErrorIs(err, model.ErrDeviceIDNotFound)

	s.Require().NoError(s.storage.SaveDeviceID(s.ctx, "device_abc"))

	id, err := s.storage.GetDeviceID(s.ctx)
	s.Require().NoError(err)
	s.Equal("device_abc", id)
}

// Session tests

func (s *StorageSuite) TestSessionLifecycle() {
	session := &model.CachedSession{
		IDToken:   "token",
		Profile:   model.Profile{Subject: "u1", Email: "alice@example.com", Name: "Alice"},
		Timestamp: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	s.Require().NoError(s.storage.SaveSession(s.ctx, session))

	retrieved, err := s.storage.GetSession(s.ctx)
	s.Require().NoError(err)
	s.Equal(session, retrieved)

	s.Require().NoError(s.storage.DeleteSession(s.ctx))
	_, err = s.storage.GetSession(s.ctx)
	s.ErrorIs(err, model.ErrSessionNotFound)
}
