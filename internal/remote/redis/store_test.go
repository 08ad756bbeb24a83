package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/bankerscore/internal/dependencies/mocks"
	"github.com/mcoot/bankerscore/internal/model"
	"github.com/mcoot/bankerscore/internal/remote"
	"github.com/mcoot/bankerscore/internal/remote/storetest"
)

type StoreSuite struct {
	storetest.Suite
	mini  *miniredis.Miniredis
	clock *mocks.MockClock
	store *Store
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.QuotaBytes = 32

	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.store = NewWithClient(client, cfg, storetest.Tokens(), s.clock)
	s.Store = s.store
	s.Ctx = context.Background()
}

func (s *StoreSuite) TearDownTest() {
	if s.store != nil {
		_ = s.store.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StoreSuite) TestUpdateStampsModifiedTime() {
	folder, err := s.store.CreateFolder(s.Ctx, storetest.AliceToken, "f")
	s.Require().NoError(err)
	ref, err := s.store.CreateFile(s.Ctx, storetest.AliceToken, "a", folder, []byte("x"))
	s.Require().NoError(err)

	s.clock.Advance(time.Hour)
	updated, err := s.store.UpdateFile(s.Ctx, storetest.AliceToken, ref, []byte("y"))
	s.Require().NoError(err)
	s.True(updated.ModifiedTime.Equal(s.clock.Now()))

	found, err := s.store.FindByName(s.Ctx, storetest.AliceToken, "a", folder.ID)
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.True(found[0].ModifiedTime.Equal(s.clock.Now()))
}

func (s *StoreSuite) TestQuotaTracksUsage() {
	ref, err := s.store.CreateFile(s.Ctx, storetest.AliceToken, "a", remote.FolderRef{}, make([]byte, 20))
	s.Require().NoError(err)

	_, err = s.store.CreateFile(s.Ctx, storetest.AliceToken, "b", remote.FolderRef{}, make([]byte, 20))
	s.ErrorIs(err, model.ErrQuota)

	_, err = s.store.UpdateFile(s.Ctx, storetest.AliceToken, ref, make([]byte, 4))
	s.Require().NoError(err)

	_, err = s.store.CreateFile(s.Ctx, storetest.AliceToken, "b", remote.FolderRef{}, make([]byte, 20))
	s.NoError(err)
}

func (s *StoreSuite) TestConnectivityFailure() {
	s.mini.Close()

	_, err := s.store.FindByName(s.Ctx, storetest.AliceToken, "a", "")
	s.ErrorIs(err, model.ErrConnectivity)
}
