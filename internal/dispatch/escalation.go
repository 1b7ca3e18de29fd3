package dispatch

import (
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// EscalationScheduler owns one timer per actively dispatching gig. The timer
// is armed when a tier's offers go out and fires after the tier's wait
// window; the callback carries the generation the timer was armed under so a
// stale timer can never escalate a gig that already moved on. Uses the
// injected clock, so escalation latency is monotonic and testable.
type EscalationScheduler struct {
	clock  clock.Clock
	fire   func(gigID string, generation uint64)
	logger *slog.Logger

	mu     sync.Mutex
	timers map[string]*clock.Timer
}

// NewEscalationScheduler creates a scheduler whose expired timers invoke
// fire. The callback runs on the timer goroutine and must not block.
func NewEscalationScheduler(clk clock.Clock, fire func(gigID string, generation uint64), logger *slog.Logger) *EscalationScheduler {
	return &EscalationScheduler{
		clock:  clk,
		fire:   fire,
		logger: logger.With("component", "escalation-scheduler"),
		timers: make(map[string]*clock.Timer),
	}
}

// Arm schedules the tier timeout for a gig, replacing any previous timer.
func (s *EscalationScheduler) Arm(gigID string, generation uint64, wait time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[gigID]; ok {
		t.Stop()
	}
	s.timers[gigID] = s.clock.AfterFunc(wait, func() {
		s.mu.Lock()
		delete(s.timers, gigID)
		s.mu.Unlock()
		s.logger.Debug("tier wait window elapsed", "gig_id", gigID, "generation", generation)
		s.fire(gigID, generation)
	})
}

// Cancel drops the gig's timer. Called whenever the gig leaves Dispatching
// for any reason, so a stale timer cannot fire against a reserved gig.
func (s *EscalationScheduler) Cancel(gigID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[gigID]; ok {
		t.Stop()
		delete(s.timers, gigID)
	}
}
