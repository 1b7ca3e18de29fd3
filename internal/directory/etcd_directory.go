// internal/directory/etcd_directory.go
package directory

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"sync"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"gig-dispatch/internal/domain"
)

const (
	// WorkerRegistryPrefix is the etcd prefix where workers register
	// themselves with a keep-alive lease.
	WorkerRegistryPrefix = "/dispatch/workers/"

	earthRadiusMiles = 3958.8
)

// EtcdDirectory serves WorkerDirectory queries from an in-memory table kept
// current by watching the etcd worker registry. A worker whose lease
// expires drops out of the table and stops being eligible.
type EtcdDirectory struct {
	client  *clientv3.Client
	logger  *slog.Logger
	workers map[string]domain.WorkerRef
	mu      sync.RWMutex
}

// NewEtcdDirectory creates a directory over the etcd worker registry.
func NewEtcdDirectory(client *clientv3.Client, logger *slog.Logger) *EtcdDirectory {
	return &EtcdDirectory{
		client:  client,
		logger:  logger.With("component", "worker-directory"),
		workers: make(map[string]domain.WorkerRef),
	}
}

// WatchWorkers keeps the in-memory table in sync with worker registrations
// and deregistrations. This is a blocking call and should be run in a
// goroutine.
func (d *EtcdDirectory) WatchWorkers(ctx context.Context) {
	d.logger.Info("starting to watch for workers")

	if err := d.loadInitialWorkers(ctx); err != nil {
		d.logger.Error("failed to perform initial worker load", "error", err)
	}

	watchChan := d.client.Watch(ctx, WorkerRegistryPrefix, clientv3.WithPrefix())

	for watchResp := range watchChan {
		for _, event := range watchResp.Events {
			key := string(event.Kv.Key)

			d.mu.Lock()
			switch event.Type {
			case clientv3.EventTypePut:
				ref, err := decodeWorker(event.Kv.Value)
				if err != nil {
					d.logger.Warn("failed to decode worker registration", "key", key, "error", err)
					break
				}
				if _, ok := d.workers[ref.ID]; !ok {
					d.logger.Info("new worker discovered", "id", ref.ID, "addr", ref.Addr)
				}
				d.workers[ref.ID] = ref
			case clientv3.EventTypeDelete:
				id := key[len(WorkerRegistryPrefix):]
				d.logger.Info("worker deregistered", "id", id)
				delete(d.workers, id)
			}
			d.mu.Unlock()
		}
	}
	d.logger.Info("stopped watching for workers")
}

func (d *EtcdDirectory) loadInitialWorkers(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	resp, err := d.client.Get(ctx, WorkerRegistryPrefix, clientv3.WithPrefix())
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, kv := range resp.Kvs {
		ref, err := decodeWorker(kv.Value)
		if err != nil {
			d.logger.Warn("failed to decode worker registration", "key", string(kv.Key), "error", err)
			continue
		}
		d.logger.Info("found existing worker", "id", ref.ID, "addr", ref.Addr)
		d.workers[ref.ID] = ref
	}
	return nil
}

// Query returns the online workers serving the category within radiusMiles
// of the point. Radius zero or below means unbounded (the open-marketplace
// tier). The result is an eligibility set, not a ranking.
func (d *EtcdDirectory) Query(_ context.Context, point domain.Location, radiusMiles float64, category string) ([]domain.WorkerRef, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []domain.WorkerRef
	for _, w := range d.workers {
		if !servesCategory(w, category) {
			continue
		}
		if radiusMiles > 0 && haversineMiles(point, w.Location) > radiusMiles {
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

func decodeWorker(value []byte) (domain.WorkerRef, error) {
	var ref domain.WorkerRef
	err := json.Unmarshal(value, &ref)
	return ref, err
}

func servesCategory(w domain.WorkerRef, category string) bool {
	for _, c := range w.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// haversineMiles computes the great-circle distance between two points.
func haversineMiles(a, b domain.Location) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMiles * math.Asin(math.Sqrt(h))
}
