package usecase

import (
	"context"
	"log/slog"
	"time"

	"gig-dispatch/internal/domain"
	"gig-dispatch/internal/janitor"
	"gig-dispatch/internal/metrics"
)

// DispatchService ties the dispatcher's leader-only duties to the election:
// whichever node holds leadership runs the janitor and advertises itself in
// metrics. The gig API also gates on the same election, so followers neither
// accept gigs nor arm timers; they serve 503 until they win a campaign.
type DispatchService struct {
	leaderManager domain.LeaderElectionManager
	janitor       *janitor.Janitor
	nodeID        string
	logger        *slog.Logger
}

func NewDispatchService(leaderManager domain.LeaderElectionManager, j *janitor.Janitor, nodeID string, logger *slog.Logger) *DispatchService {
	return &DispatchService{
		leaderManager: leaderManager,
		janitor:       j,
		nodeID:        nodeID,
		logger:        logger.With("component", "dispatch-service", "node_id", nodeID),
	}
}

// Start campaigns for leadership in a loop, running the leader duties while
// held and re-campaigning when leadership is lost.
func (s *DispatchService) Start(ctx context.Context) error {
	s.logger.Info("dispatch service starting")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("dispatch service shutting down")
			return ctx.Err()
		default:
			s.logger.Info("campaigning for leadership")
			lostLeadershipCh, err := s.leaderManager.Campaign(ctx)
			if err != nil {
				s.logger.Error("error during leadership campaign, retrying", "error", err)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(5 * time.Second):
				}
				continue
			}

			s.logger.Info("became leader")
			metrics.IsLeader.WithLabelValues(s.nodeID).Set(1)

			leaderCtx, cancelLeader := context.WithCancel(ctx)
			go s.janitor.Start(leaderCtx)

			select {
			case <-lostLeadershipCh:
				s.logger.Warn("lost leadership")
			case <-ctx.Done():
				cancelLeader()
				metrics.IsLeader.WithLabelValues(s.nodeID).Set(0)
				return ctx.Err()
			}
			cancelLeader()
			metrics.IsLeader.WithLabelValues(s.nodeID).Set(0)
		}
	}
}
