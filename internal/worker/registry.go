// internal/worker/registry.go
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	clientv3 "go.etcd.io/etcd/client/v3"

	"gig-dispatch/internal/directory"
	"gig-dispatch/internal/domain"
)

// Registry handles the registration of a worker in etcd. The registered
// value is the worker's dispatch profile (address, position, categories);
// the dispatcher's directory watches it to answer eligibility queries.
type Registry struct {
	client  *clientv3.Client
	logger  *slog.Logger
	leaseID clientv3.LeaseID
	key     string
}

// NewRegistry creates a new worker registry.
func NewRegistry(client *clientv3.Client, logger *slog.Logger) *Registry {
	return &Registry{
		client: client,
		logger: logger,
	}
}

// Register publishes the worker's profile under a lease and starts a
// keep-alive goroutine for it. When the lease lapses the worker drops out
// of the directory and stops receiving offers.
func (r *Registry) Register(ctx context.Context, ref domain.WorkerRef, ttl int64) error {
	r.key = directory.WorkerRegistryPrefix + ref.ID

	value, err := json.Marshal(ref)
	if err != nil {
		return fmt.Errorf("failed to marshal worker profile: %w", err)
	}

	leaseResp, err := r.client.Grant(ctx, ttl)
	if err != nil {
		return fmt.Errorf("failed to grant lease: %w", err)
	}
	r.leaseID = leaseResp.ID

	_, err = r.client.Put(ctx, r.key, string(value), clientv3.WithLease(r.leaseID))
	if err != nil {
		return fmt.Errorf("failed to put worker registration key: %w", err)
	}

	keepAliveCh, err := r.client.KeepAlive(context.Background(), r.leaseID)
	if err != nil {
		return fmt.Errorf("failed to start keep-alive: %w", err)
	}

	go func() {
		for {
			// Consume keep-alive responses. A closed channel means the
			// lease has been revoked or has expired.
			ka, ok := <-keepAliveCh
			if !ok {
				r.logger.Warn("keep-alive channel closed, worker registration may have expired")
				return
			}
			r.logger.Debug("lease keep-alive refreshed", "lease_id", ka.ID, "ttl", ka.TTL)
		}
	}()

	r.logger.Info("worker registered successfully", "key", r.key, "addr", ref.Addr, "categories", ref.Categories)
	return nil
}

// Deregister removes the worker's registration from etcd by revoking its
// lease.
func (r *Registry) Deregister(ctx context.Context) error {
	r.logger.Info("deregistering worker", "key", r.key)

	if _, err := r.client.Revoke(ctx, r.leaseID); err != nil {
		return fmt.Errorf("failed to revoke lease: %w", err)
	}
	return nil
}
