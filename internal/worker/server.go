// internal/worker/server.go
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	pb "gig-dispatch/gen/proto/dispatchv1"
)

// OpenOffer is an offer the agent has received and not yet seen expire.
// What the worker does with it (surface it in an app, play a sound) is the
// presentation layer's concern; accepting always goes back through the
// dispatcher API.
type OpenOffer struct {
	GigID       string
	Category    string
	Description string
	Urgency     string
	BudgetHint  float64
	Tier        int
	Generation  uint64
	ExpiresAt   time.Time
}

// Server implements the dispatchv1.Notifier service on the worker agent.
// It retains the currently open offers so the device UI can render them.
type Server struct {
	pb.UnimplementedNotifierServer
	workerID string
	logger   *slog.Logger
	tracer   trace.Tracer

	mu     sync.Mutex
	offers map[string]OpenOffer // keyed by gig id; a newer push replaces an older one
}

// NewServer creates the offer-receiving server for a worker agent.
func NewServer(workerID string, logger *slog.Logger) *Server {
	return &Server{
		workerID: workerID,
		logger:   logger.With("component", "offer-server"),
		tracer:   otel.Tracer("gig-dispatch-worker"),
		offers:   make(map[string]OpenOffer),
	}
}

// PushOffer is the RPC called by the dispatcher when this worker is fanned
// out to. The ack means "received", never "accepted".
func (s *Server) PushOffer(ctx context.Context, req *pb.OfferPush) (*pb.PushAck, error) {
	_, span := s.tracer.Start(ctx, "worker.PushOffer", trace.WithAttributes(
		attribute.String("gig.id", req.GigId),
		attribute.Int("tier", int(req.Tier)),
	))
	defer span.End()

	offer := OpenOffer{
		GigID:       req.GigId,
		Category:    req.Category,
		Description: req.Description,
		Urgency:     req.Urgency,
		BudgetHint:  req.BudgetHint,
		Tier:        int(req.Tier),
		Generation:  req.Generation,
	}
	if req.ExpiresAt != nil {
		offer.ExpiresAt = req.ExpiresAt.AsTime()
	}

	s.mu.Lock()
	s.offers[req.GigId] = offer
	s.mu.Unlock()

	s.logger.Info("offer received",
		"gig_id", req.GigId,
		"category", req.Category,
		"urgency", req.Urgency,
		"tier", req.Tier,
		"expires_at", offer.ExpiresAt,
	)
	return &pb.PushAck{Received: true}, nil
}

// OpenOffers returns the offers received so far that have not expired,
// pruning the rest.
func (s *Server) OpenOffers(now time.Time) []OpenOffer {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]OpenOffer, 0, len(s.offers))
	for id, o := range s.offers {
		if !o.ExpiresAt.IsZero() && !now.Before(o.ExpiresAt) {
			delete(s.offers, id)
			continue
		}
		out = append(out, o)
	}
	return out
}
