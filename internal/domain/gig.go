package domain

import (
	"fmt"
	"time"
)

// Urgency expresses how soon the client needs the work done.
type Urgency string

const (
	UrgencyASAP     Urgency = "asap"
	UrgencyToday    Urgency = "today"
	UrgencyFlexible Urgency = "flexible"
)

// GigStatus is the lifecycle state of a gig. Transitions are owned
// exclusively by the dispatch engine.
type GigStatus string

const (
	GigStatusPosted      GigStatus = "posted"
	GigStatusDispatching GigStatus = "dispatching"
	GigStatusReserved    GigStatus = "reserved"
	GigStatusConfirmed   GigStatus = "confirmed"
	GigStatusCompleted   GigStatus = "completed"
	GigStatusCancelled   GigStatus = "cancelled"
	GigStatusExpired     GigStatus = "expired"
)

// Terminal reports whether no further transitions may leave this status.
func (s GigStatus) Terminal() bool {
	switch s {
	case GigStatusCompleted, GigStatusCancelled, GigStatusExpired:
		return true
	}
	return false
}

// Location is a geographic point with an optional human-readable address.
type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

// Gig represents a single job-dispatch request submitted by a client.
type Gig struct {
	ID              string    `json:"id"`
	Category        string    `json:"category"`
	Description     string    `json:"description"`
	Location        Location  `json:"location"`
	Urgency         Urgency   `json:"urgency"`
	BudgetHint      float64   `json:"budget_hint,omitempty"`
	Status          GigStatus `json:"status"`
	Tier            int       `json:"tier"`
	Generation      uint64    `json:"generation"`
	WinnerID        string    `json:"winner_id,omitempty"`
	CancelReason    string    `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	StatusChangedAt time.Time `json:"status_changed_at"`
}

// Validate checks the fields a client must supply when posting a gig.
func (g *Gig) Validate() error {
	if g.Category == "" {
		return fmt.Errorf("%w: category cannot be empty", ErrInvalidGig)
	}
	if g.Description == "" {
		return fmt.Errorf("%w: description cannot be empty", ErrInvalidGig)
	}
	if g.Location.Lat < -90 || g.Location.Lat > 90 {
		return fmt.Errorf("%w: latitude out of range", ErrInvalidGig)
	}
	if g.Location.Lng < -180 || g.Location.Lng > 180 {
		return fmt.Errorf("%w: longitude out of range", ErrInvalidGig)
	}
	switch g.Urgency {
	case UrgencyASAP, UrgencyToday, UrgencyFlexible:
	case "":
		g.Urgency = UrgencyFlexible
	default:
		return fmt.Errorf("%w: invalid urgency %q", ErrInvalidGig, g.Urgency)
	}
	return nil
}

// GigView is a read-only snapshot of a gig for the client status feed.
type GigView struct {
	ID              string              `json:"id"`
	Category        string              `json:"category"`
	Status          GigStatus           `json:"status"`
	Tier            int                 `json:"tier"`
	Generation      uint64              `json:"generation"`
	OfferCounts     map[OfferStatus]int `json:"offer_counts"`
	Reservation     *ReservationView    `json:"reservation,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	StatusChangedAt time.Time           `json:"status_changed_at"`
}

// ReservationView is the reservation slice of a GigView.
type ReservationView struct {
	WorkerID  string    `json:"worker_id"`
	HeldUntil time.Time `json:"held_until"`
	Confirmed bool      `json:"confirmed"`
}
