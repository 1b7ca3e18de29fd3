package domain

import "context"

// OfferNotice is the payload delivered to a worker when an offer is issued.
type OfferNotice struct {
	Offer Offer
	Gig   Gig
}

// NotificationChannel attempts best-effort delivery of an offer to a worker
// (push, in-app, SMS -- whatever the channel implements). An error reports a
// send failure, not a rejection; delivery never affects offer validity and
// the engine does not retry.
type NotificationChannel interface {
	Send(ctx context.Context, worker WorkerRef, notice OfferNotice) error
}
