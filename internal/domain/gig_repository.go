package domain

import (
	"context"
	"time"
)

// GigRepository persists the minimal dispatch state: gigs, offers and
// reservations. The in-memory engine remains the single source of truth for
// race decisions; the repository is write-through durability.
type GigRepository interface {
	SaveGig(ctx context.Context, gig *Gig) error
	GetGig(ctx context.Context, id string) (*Gig, error)
	ListGigs(ctx context.Context) ([]*Gig, error)
	DeleteGig(ctx context.Context, id string) error

	// SaveOfferBatch writes one fan-out generation's offers atomically:
	// either every offer in the batch is persisted or none is.
	SaveOfferBatch(ctx context.Context, offers []*Offer) error
	SaveOffer(ctx context.Context, offer *Offer) error

	// SaveReservation persists a hold bounded by ttl so the stored record
	// self-expires with the hold window.
	SaveReservation(ctx context.Context, res *Reservation, ttl time.Duration) error
	DeleteReservation(ctx context.Context, gigID string) error
}
