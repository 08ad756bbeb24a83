package cloudsync

import (
	"sync"
	"time"

	"github.com/mcoot/bankerscore/internal/dependencies/clock"
)

// DefaultInterval is how often the background task checks for unsynced changes
const DefaultInterval = 5 * time.Minute

// scheduler runs tick every interval until stopped. Each run is armed
// after the previous one returns, so ticks never overlap.
type scheduler struct {
	clock    clock.Clock
	interval time.Duration
	tick     func()

	mu      sync.Mutex
	timer   clock.Timer
	running bool
	gen     uint64
}

func newScheduler(clock clock.Clock, interval time.Duration, tick func()) *scheduler {
	return &scheduler{clock: clock, interval: interval, tick: tick}
}

// start arms the scheduler; it reports false if it was already running
func (s *scheduler) start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	s.gen++
	s.armLocked(s.gen)
	return true
}

// stop disarms the scheduler; it reports false if it was not running
func (s *scheduler) stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return false
	}
	s.running = false
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	return true
}

func (s *scheduler) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *scheduler) armLocked(gen uint64) {
	s.timer = s.clock.AfterFunc(s.interval, func() { s.fire(gen) })
}

// fire ignores timers from an earlier start/stop cycle
func (s *scheduler) fire(gen uint64) {
	s.mu.Lock()
	if !s.running || s.gen != gen {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.tick()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running && s.gen == gen {
		s.armLocked(gen)
	}
}
