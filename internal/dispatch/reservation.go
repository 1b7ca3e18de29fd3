package dispatch

import (
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"gig-dispatch/internal/domain"
)

// ReservationManager creates the short-lived hold that follows a winning
// accept and enforces its TTL. A hold that is not confirmed before HeldUntil
// lapses; the lapse callback carries the reservation id so a timer surviving
// a confirm/release race cannot release a newer hold.
type ReservationManager struct {
	clock  clock.Clock
	ttl    time.Duration
	lapse  func(gigID, reservationID string)
	logger *slog.Logger

	mu     sync.Mutex
	timers map[string]*clock.Timer
}

// NewReservationManager creates a manager whose lapsed holds invoke lapse.
func NewReservationManager(clk clock.Clock, ttl time.Duration, lapse func(gigID, reservationID string), logger *slog.Logger) *ReservationManager {
	return &ReservationManager{
		clock:  clk,
		ttl:    ttl,
		lapse:  lapse,
		logger: logger.With("component", "reservation-manager"),
		timers: make(map[string]*clock.Timer),
	}
}

// TTL returns the configured hold window.
func (m *ReservationManager) TTL() time.Duration { return m.ttl }

// Hold creates a reservation for the winning worker and arms its expiry.
func (m *ReservationManager) Hold(gigID, workerID string) *domain.Reservation {
	now := m.clock.Now()
	res := &domain.Reservation{
		ID:        uuid.NewString(),
		GigID:     gigID,
		WorkerID:  workerID,
		HeldUntil: now.Add(m.ttl),
		CreatedAt: now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.timers[gigID]; ok {
		t.Stop()
	}
	m.timers[gigID] = m.clock.AfterFunc(m.ttl, func() {
		m.mu.Lock()
		delete(m.timers, gigID)
		m.mu.Unlock()
		m.logger.Debug("reservation hold window elapsed", "gig_id", gigID, "reservation_id", res.ID)
		m.lapse(gigID, res.ID)
	})
	return res
}

// Release stops the gig's hold timer. Called on confirmation and on any
// transition that destroys the reservation (cancel, lapse handling).
func (m *ReservationManager) Release(gigID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t, ok := m.timers[gigID]; ok {
		t.Stop()
		delete(m.timers, gigID)
	}
}
