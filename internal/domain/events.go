package domain

import "time"

// StatusEvent is emitted on every gig state transition and consumed by the
// client-facing status feed. Tier escalations emit an event with From == To
// == dispatching and an incremented Tier.
type StatusEvent struct {
	GigID    string    `json:"gig_id"`
	From     GigStatus `json:"from"`
	To       GigStatus `json:"to"`
	Tier     int       `json:"tier"`
	WorkerID string    `json:"worker_id,omitempty"`
	Reason   string    `json:"reason,omitempty"`
	At       time.Time `json:"at"`
}
