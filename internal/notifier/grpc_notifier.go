// internal/notifier/grpc_notifier.go
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/timestamppb"

	pb "gig-dispatch/gen/proto/dispatchv1"
	"gig-dispatch/internal/domain"
)

// GrpcNotifier delivers offers to worker agents over gRPC. It implements
// domain.NotificationChannel: delivery is best-effort and failures are the
// caller's to log, not retry.
type GrpcNotifier struct {
	clients map[string]pb.NotifierClient // one cached client per worker addr
	mu      sync.Mutex
	logger  *slog.Logger
}

// NewGrpcNotifier creates the dispatcher-side notification channel.
func NewGrpcNotifier(logger *slog.Logger) *GrpcNotifier {
	return &GrpcNotifier{
		clients: make(map[string]pb.NotifierClient),
		logger:  logger.With("component", "grpc-notifier"),
	}
}

// Send pushes one offer to the worker's agent.
func (n *GrpcNotifier) Send(ctx context.Context, worker domain.WorkerRef, notice domain.OfferNotice) error {
	client, err := n.getOrCreateClient(worker.Addr)
	if err != nil {
		return err
	}

	push := noticeToProto(worker, notice)
	if _, err := client.PushOffer(ctx, push); err != nil {
		return fmt.Errorf("failed to push offer to worker at %s: %w", worker.Addr, err)
	}
	return nil
}

func (n *GrpcNotifier) getOrCreateClient(addr string) (pb.NotifierClient, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if client, ok := n.clients[addr]; ok {
		return client, nil
	}

	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		// OpenTelemetry stats handler for automatic trace propagation.
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to worker at %s: %w", addr, err)
	}

	client := pb.NewNotifierClient(conn)
	n.clients[addr] = client
	n.logger.Info("created new gRPC client for worker", "addr", addr)

	return client, nil
}

func noticeToProto(worker domain.WorkerRef, notice domain.OfferNotice) *pb.OfferPush {
	return &pb.OfferPush{
		GigId:       notice.Offer.GigID,
		WorkerId:    worker.ID,
		Category:    notice.Gig.Category,
		Description: notice.Gig.Description,
		Lat:         notice.Gig.Location.Lat,
		Lng:         notice.Gig.Location.Lng,
		Address:     notice.Gig.Location.Address,
		Urgency:     string(notice.Gig.Urgency),
		BudgetHint:  notice.Gig.BudgetHint,
		Tier:        int32(notice.Offer.Tier),
		Generation:  notice.Offer.Generation,
		IssuedAt:    timestamppb.New(notice.Offer.IssuedAt),
		ExpiresAt:   timestamppb.New(notice.Offer.ExpiresAt),
	}
}
