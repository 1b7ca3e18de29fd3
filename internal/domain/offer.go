package domain

import "time"

// OfferStatus is the lifecycle state of a single offer.
type OfferStatus string

const (
	OfferStatusPending  OfferStatus = "pending"
	OfferStatusAccepted OfferStatus = "accepted"
	// OfferStatusDeclined is a voluntary decline by the worker.
	OfferStatusDeclined OfferStatus = "declined"
	// OfferStatusDeclinedByRace marks an accept that lost the race. Kept
	// distinct from a voluntary decline for metrics.
	OfferStatusDeclinedByRace OfferStatus = "declined_by_race"
	OfferStatusExpired        OfferStatus = "expired"
	OfferStatusSuperseded     OfferStatus = "superseded"
)

// Offer is an outstanding invitation for one worker on one gig. Offers are
// created at fan-out time and terminated at accept, decline, expiry or
// supersession; they are never resurrected.
type Offer struct {
	GigID      string      `json:"gig_id"`
	WorkerID   string      `json:"worker_id"`
	Generation uint64      `json:"generation"`
	Tier       int         `json:"tier"`
	Status     OfferStatus `json:"status"`
	IssuedAt   time.Time   `json:"issued_at"`
	ExpiresAt  time.Time   `json:"expires_at"`
}

// Open reports whether the offer can still be accepted at the given instant.
// Generation fencing against the gig's current generation is the engine's
// concern, not the offer's.
func (o *Offer) Open(now time.Time) bool {
	return o.Status == OfferStatusPending && now.Before(o.ExpiresAt)
}
