// Package dispatchv1 is the hand-maintained wire surface of the
// dispatch.v1.Notifier service. Messages travel as JSON through the codec in
// codec.go, so the types carry json tags instead of protobuf reflection.
package dispatchv1

import (
	timestamppb "google.golang.org/protobuf/types/known/timestamppb"
)

// OfferPush carries one offer to a worker device.
type OfferPush struct {
	GigId       string                 `json:"gig_id"`
	WorkerId    string                 `json:"worker_id"`
	Category    string                 `json:"category"`
	Description string                 `json:"description"`
	Lat         float64                `json:"lat"`
	Lng         float64                `json:"lng"`
	Address     string                 `json:"address,omitempty"`
	Urgency     string                 `json:"urgency"`
	BudgetHint  float64                `json:"budget_hint,omitempty"`
	Tier        int32                  `json:"tier"`
	Generation  uint64                 `json:"generation"`
	IssuedAt    *timestamppb.Timestamp `json:"issued_at,omitempty"`
	ExpiresAt   *timestamppb.Timestamp `json:"expires_at,omitempty"`
}

// PushAck acknowledges receipt of a push on the worker device. Receipt, not
// acceptance: accepting goes through the dispatcher API.
type PushAck struct {
	Received bool `json:"received"`
}
