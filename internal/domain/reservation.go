package domain

import "time"

// Reservation is a temporary hold on a gig following a winning accept,
// pending final confirmation. At most one live reservation exists per gig;
// one that is not confirmed before HeldUntil is released and the gig
// re-enters dispatch at its current tier.
type Reservation struct {
	ID        string    `json:"id"`
	GigID     string    `json:"gig_id"`
	WorkerID  string    `json:"worker_id"`
	HeldUntil time.Time `json:"held_until"`
	Confirmed bool      `json:"confirmed"`
	CreatedAt time.Time `json:"created_at"`
}
