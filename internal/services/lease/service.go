package lease

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/bankerscore/internal/dependencies/clock"
	"github.com/mcoot/bankerscore/internal/model"
)

// Config holds lease timing
type Config struct {
	// Duration is how long a granted or renewed lease lasts
	Duration time.Duration

	// RefreshInterval is the delay before the deferred renewal fires
	RefreshInterval time.Duration
}

// DefaultConfig returns default lease timing
func DefaultConfig() Config {
	return Config{
		Duration:        15 * time.Minute,
		RefreshInterval: 10 * time.Minute,
	}
}

// Service grants, renews and revokes advisory edit leases on registry entries.
// Leases are reclaimed by expiry; explicit release is opportunistic.
type Service struct {
	clock  clock.Clock
	cfg    Config
	logger *slog.Logger
}

// New creates a new lease Service
func New(clock clock.Clock, cfg Config, logger *slog.Logger) *Service {
	defaults := DefaultConfig()
	if cfg.Duration == 0 {
		cfg.Duration = defaults.Duration
	}
	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = defaults.RefreshInterval
	}
	return &Service{
		clock:  clock,
		cfg:    cfg,
		logger: logger,
	}
}

// Config returns the effective lease timing
func (s *Service) Config() Config {
	return s.cfg
}

// IsLocked reports whether the entry has an active lease at the current time.
// It never modifies the entry.
func (s *Service) IsLocked(entry *model.Entry) bool {
	return entry.Lock.IsActive(s.clock.Now())
}

// LockedBy returns the active lease's holder, or "" if none is active
func (s *Service) LockedBy(entry *model.Entry) string {
	if !s.IsLocked(entry) {
		return ""
	}
	return entry.Lock.Holder
}

// Acquire grants holder the lease, overwriting an expired or own lease.
// A different holder's active lease yields a *model.LockedError.
func (s *Service) Acquire(entry *model.Entry, holder string) error {
	now := s.clock.Now()
	if entry.Lock.IsActive(now) && entry.Lock.Holder != holder {
		return &model.LockedError{
			GameID: entry.ID,
			Holder: entry.Lock.Holder,
			Expiry: entry.Lock.Expiry,
		}
	}

	if entry.Lock != nil && entry.Lock.Holder != holder {
		s.logger.Info("overwriting expired lease",
			slog.String("game_id", string(entry.ID)),
			slog.String("previous_holder", entry.Lock.Holder),
		)
	}

	entry.Lock = &model.Lock{
		Holder: holder,
		Expiry: now.Add(s.cfg.Duration),
	}
	s.logger.Info("lease acquired",
		slog.String("game_id", string(entry.ID)),
		slog.String("holder", holder),
		slog.Time("expiry", entry.Lock.Expiry),
	)
	return nil
}

// Refresh renews holder's own lease. It fails if the lease is held by
// someone else or was released.
func (s *Service) Refresh(entry *model.Entry, holder string) error {
	if entry.Lock == nil || entry.Lock.Holder != holder {
		now := s.clock.Now()
		if entry.Lock.IsActive(now) {
			return &model.LockedError{
				GameID: entry.ID,
				Holder: entry.Lock.Holder,
				Expiry: entry.Lock.Expiry,
			}
		}
		return model.ErrLeaseNotHeld
	}

	entry.Lock.Expiry = s.clock.Now().Add(s.cfg.Duration)
	s.logger.Debug("lease refreshed",
		slog.String("game_id", string(entry.ID)),
		slog.Time("expiry", entry.Lock.Expiry),
	)
	return nil
}

// Release clears the lease. Releasing another holder's active lease is refused.
func (s *Service) Release(entry *model.Entry, holder string) error {
	if entry.Lock == nil {
		return nil
	}
	if entry.Lock.Holder != holder && entry.Lock.IsActive(s.clock.Now()) {
		return &model.LockedError{
			GameID: entry.ID,
			Holder: entry.Lock.Holder,
			Expiry: entry.Lock.Expiry,
		}
	}
	entry.Lock = nil
	s.logger.Info("lease released",
		slog.String("game_id", string(entry.ID)),
		slog.String("holder", holder),
	)
	return nil
}

// ScheduleRefresh arms a deferred renewal. When it fires, tick decides
// whether to renew; returning true re-arms it for another interval and
// returning false ends the chain, leaving the lease to expire.
func (s *Service) ScheduleRefresh(tick func() bool) *Refresher {
	r := &Refresher{clock: s.clock, interval: s.cfg.RefreshInterval, tick: tick}
	r.arm()
	return r
}

// Refresher is a chain of deferred lease renewals
type Refresher struct {
	clock    clock.Clock
	interval time.Duration
	tick     func() bool

	mu      sync.Mutex
	timer   clock.Timer
	stopped bool
}

func (r *Refresher) arm() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	r.timer = r.clock.AfterFunc(r.interval, r.fire)
}

func (r *Refresher) fire() {
	r.mu.Lock()
	stopped := r.stopped
	r.mu.Unlock()
	if stopped {
		return
	}

	if !r.tick() {
		r.Stop()
		return
	}
	r.arm()
}

// Stop ends the chain
func (r *Refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	if r.timer != nil {
		r.timer.Stop()
	}
}

// Active reports whether the chain is still armed
func (r *Refresher) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.stopped
}
