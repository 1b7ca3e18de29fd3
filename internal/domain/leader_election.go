package domain

import "context"

// LeaderElectionManager elects a single active dispatcher node. Only the
// leader arms dispatch timers and runs the janitor, which keeps each gig's
// decision point on exactly one node.
type LeaderElectionManager interface {
	// Campaign blocks until this node becomes the leader. The returned
	// channel is closed when leadership is lost.
	Campaign(ctx context.Context) (<-chan struct{}, error)
	Resign(ctx context.Context) error
	IsLeader() bool
}
