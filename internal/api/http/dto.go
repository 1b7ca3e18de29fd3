package http

import (
	"gig-dispatch/internal/domain"
)

// PostGigRequest is the Data Transfer Object for posting a gig.
type PostGigRequest struct {
	Category    string  `json:"category" validate:"required,min=1,max=64"`
	Description string  `json:"description" validate:"required,min=1,max=2048"`
	Lat         float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng         float64 `json:"lng" validate:"gte=-180,lte=180"`
	Address     string  `json:"address" validate:"omitempty,max=256"`
	Urgency     string  `json:"urgency" validate:"omitempty,oneof=asap today flexible"`
	BudgetHint  float64 `json:"budget_hint" validate:"omitempty,gte=0"`
}

// ToDomainGig converts a PostGigRequest DTO to a domain.Gig object.
func (r *PostGigRequest) ToDomainGig() *domain.Gig {
	urgency := domain.Urgency(r.Urgency)
	if urgency == "" {
		urgency = domain.UrgencyFlexible
	}
	return &domain.Gig{
		Category:    r.Category,
		Description: r.Description,
		Location: domain.Location{
			Lat:     r.Lat,
			Lng:     r.Lng,
			Address: r.Address,
		},
		Urgency:    urgency,
		BudgetHint: r.BudgetHint,
	}
}

// PostGigResponse returns the id assigned to a freshly posted gig.
type PostGigResponse struct {
	GigID string `json:"gig_id"`
}

// WorkerActionRequest identifies the worker behind an accept, decline or
// confirm call.
type WorkerActionRequest struct {
	WorkerID string `json:"worker_id" validate:"required,min=1,max=128"`
}

// AcceptResponse reports the race outcome of an accept attempt.
type AcceptResponse struct {
	Result string `json:"result"`
}

// CancelRequest carries the client's cancellation reason.
type CancelRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=512"`
}
