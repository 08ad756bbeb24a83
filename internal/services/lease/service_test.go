package lease

import (
	"errors"
	"testing"
	"time"

	"github.com/mcoot/bankerscore/internal/dependencies/mocks"
	"github.com/mcoot/bankerscore/internal/model"
	"github.com/mcoot/bankerscore/internal/testutil"
	"github.com/stretchr/testify/suite"
)

type ServiceSuite struct {
	suite.Suite
	clock   *mocks.MockClock
	service *Service
	entry   *model.Entry
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(s.clock, DefaultConfig(), testutil.NopLogger())
	s.entry = &model.Entry{ID: "game_20240101_001", Name: "Friday"}
}

// Acquire tests

func (s *ServiceSuite) TestAcquireUnlocked() {
	err := s.service.Acquire(s.entry, "alice")
	s.Require().NoError(err)

	s.Require().NotNil(s.entry.Lock)
	s.Equal("alice", s.entry.Lock.Holder)
	s.Equal(s.clock.Now().Add(15*time.Minute), s.entry.Lock.Expiry)
	s.True(s.service.IsLocked(s.entry))
	s.Equal("alice", s.service.LockedBy(s.entry))
}

func (s *ServiceSuite) TestAcquireMutualExclusion() {
	s.Require().NoError(s.service.Acquire(s.entry, "deviceA"))

	s.clock.Advance(14 * time.Minute)
	err := s.service.Acquire(s.entry, "deviceB")
	s.ErrorIs(err, model.ErrLocked)

	var locked *model.LockedError
	s.Require().True(errors.As(err, &locked))
	s.Equal("deviceA", locked.Holder)
	s.Equal(model.GameID("game_20240101_001"), locked.GameID)
	s.Equal("deviceA", s.entry.Lock.Holder)

	s.clock.Advance(2 * time.Minute)
	s.Require().NoError(s.service.Acquire(s.entry, "deviceB"))
	s.Equal("deviceB", s.entry.Lock.Holder)
	s.Equal(s.clock.Now().Add(15*time.Minute), s.entry.Lock.Expiry)
}

func (s *ServiceSuite) TestAcquireExactlyAtExpirySucceeds() {
	s.Require().NoError(s.service.Acquire(s.entry, "deviceA"))
	s.clock.Advance(15 * time.Minute)

	s.NoError(s.service.Acquire(s.entry, "deviceB"))
}

func (s *ServiceSuite) TestAcquireOwnLeaseExtends() {
	s.Require().NoError(s.service.Acquire(s.entry, "alice"))
	s.clock.Advance(5 * time.Minute)

	s.Require().NoError(s.service.Acquire(s.entry, "alice"))
	s.Equal(s.clock.Now().Add(15*time.Minute), s.entry.Lock.Expiry)
}

func (s *ServiceSuite) TestExpiredLockIsNotSwept() {
	s.Require().NoError(s.service.Acquire(s.entry, "deviceA"))
	s.clock.Advance(20 * time.Minute)

	s.False(s.service.IsLocked(s.entry))
	s.Equal("", s.service.LockedBy(s.entry))

	// Reading leaves the stale fields in place
	s.Require().NotNil(s.entry.Lock)
	s.Equal("deviceA", s.entry.Lock.Holder)
}

// Refresh tests

func (s *ServiceSuite) TestRefreshRenewsOwnLease() {
	s.Require().NoError(s.service.Acquire(s.entry, "alice"))
	s.clock.Advance(10 * time.Minute)

	s.Require().NoError(s.service.Refresh(s.entry, "alice"))
	s.Equal(s.clock.Now().Add(15*time.Minute), s.entry.Lock.Expiry)
}

func (s *ServiceSuite) TestRefreshRejectsOtherHolder() {
	s.Require().NoError(s.service.Acquire(s.entry, "alice"))

	err := s.service.Refresh(s.entry, "bob")
	s.ErrorIs(err, model.ErrLocked)

	s.clock.Advance(20 * time.Minute)
	err = s.service.Refresh(s.entry, "bob")
	s.ErrorIs(err, model.ErrLeaseNotHeld)
}

func (s *ServiceSuite) TestRefreshAfterRelease() {
	s.Require().NoError(s.service.Acquire(s.entry, "alice"))
	s.Require().NoError(s.service.Release(s.entry, "alice"))

	err := s.service.Refresh(s.entry, "alice")
	s.ErrorIs(err, model.ErrLeaseNotHeld)
	s.Nil(s.entry.Lock)
}

// Release tests

func (s *ServiceSuite) TestReleaseClearsLock() {
	s.Require().NoError(s.service.Acquire(s.entry, "alice"))

	s.Require().NoError(s.service.Release(s.entry, "alice"))
	s.Nil(s.entry.Lock)
	s.False(s.service.IsLocked(s.entry))
}

func (s *ServiceSuite) TestReleaseOtherHoldersActiveLeaseRefused() {
	s.Require().NoError(s.service.Acquire(s.entry, "alice"))

	err := s.service.Release(s.entry, "bob")
	s.ErrorIs(err, model.ErrLocked)
	s.NotNil(s.entry.Lock)
}

func (s *ServiceSuite) TestReleaseUnlocked() {
	s.NoError(s.service.Release(s.entry, "alice"))
}

// ScheduleRefresh tests

func (s *ServiceSuite) TestScheduleRefreshRearmsWhileTickSucceeds() {
	ticks := 0
	r := s.service.ScheduleRefresh(func() bool {
		ticks++
		return ticks < 3
	})

	s.clock.Advance(9 * time.Minute)
	s.Equal(0, ticks)

	s.clock.Advance(time.Minute)
	s.Equal(1, ticks)
	s.True(r.Active())

	s.clock.Advance(30 * time.Minute)
	s.Equal(3, ticks)
	s.False(r.Active())
	s.Equal(0, s.clock.PendingTimers())
}

func (s *ServiceSuite) TestScheduleRefreshStop() {
	ticks := 0
	r := s.service.ScheduleRefresh(func() bool {
		ticks++
		return true
	})

	r.Stop()
	s.clock.Advance(time.Hour)

	s.Equal(0, ticks)
	s.False(r.Active())
}
