package domain

import "errors"

// ErrInvalidGig is returned when a posted gig fails field validation.
// Caller's fault, non-retryable.
var ErrInvalidGig = errors.New("invalid gig")

// ErrGigNotFound is a sentinel error returned for an unknown gig id.
var ErrGigNotFound = errors.New("gig not found")

// ErrAlreadyTerminal is returned when an operation is attempted on a gig
// that can no longer change state.
var ErrAlreadyTerminal = errors.New("gig already in a terminal state")

// ErrReservationExpired is returned when a confirmation arrives after the
// reservation's hold window has elapsed (or the hold no longer exists).
var ErrReservationExpired = errors.New("reservation expired")

// ErrNoWorkersAvailable marks tier exhaustion: every configured search tier
// ran out with no accepted offer.
var ErrNoWorkersAvailable = errors.New("no workers available in any search tier")
