// internal/infra/etcd/gig_repository.go
package etcd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"strconv"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gig-dispatch/internal/domain"
)

const (
	GigSaveDir         = "/dispatch/gigs/"
	OfferSaveDir       = "/dispatch/offers/"
	ReservationSaveDir = "/dispatch/reservations/"
)

type etcdGigRepository struct {
	client *clientv3.Client
	logger *slog.Logger
	tracer trace.Tracer
}

// NewEtcdGigRepository creates a repository for dispatch state backed by etcd.
func NewEtcdGigRepository(client *clientv3.Client, logger *slog.Logger) domain.GigRepository {
	return &etcdGigRepository{
		client: client,
		logger: logger,
		tracer: otel.Tracer("gig-dispatch-etcd-repo"),
	}
}

func offerKey(o *domain.Offer) string {
	return path.Join(OfferSaveDir, o.GigID, strconv.FormatUint(o.Generation, 10), o.WorkerID)
}

// SaveGig persists the Gig record to etcd.
func (r *etcdGigRepository) SaveGig(ctx context.Context, gig *domain.Gig) error {
	ctx, span := r.tracer.Start(ctx, "repo.etcd.SaveGig")
	defer span.End()

	gigJSON, err := json.Marshal(gig)
	if err != nil {
		return fmt.Errorf("failed to marshal gig to JSON: %w", err)
	}

	key := path.Join(GigSaveDir, gig.ID)
	span.SetAttributes(
		attribute.String("gig.id", gig.ID),
		attribute.String("etcd.key", key),
	)

	_, err = r.client.Put(ctx, key, string(gigJSON))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to put gig to etcd")
		return fmt.Errorf("failed to save gig %s to etcd: %w", gig.ID, err)
	}
	return nil
}

// GetGig retrieves a gig record from etcd.
func (r *etcdGigRepository) GetGig(ctx context.Context, id string) (*domain.Gig, error) {
	ctx, span := r.tracer.Start(ctx, "repo.etcd.GetGig")
	defer span.End()
	span.SetAttributes(attribute.String("gig.id", id))

	resp, err := r.client.Get(ctx, path.Join(GigSaveDir, id))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get gig from etcd")
		return nil, fmt.Errorf("failed to get gig %s from etcd: %w", id, err)
	}
	if len(resp.Kvs) == 0 {
		return nil, domain.ErrGigNotFound
	}

	var gig domain.Gig
	if err := json.Unmarshal(resp.Kvs[0].Value, &gig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gig %s from JSON: %w", id, err)
	}
	return &gig, nil
}

// ListGigs retrieves all persisted gig records.
func (r *etcdGigRepository) ListGigs(ctx context.Context) ([]*domain.Gig, error) {
	ctx, span := r.tracer.Start(ctx, "repo.etcd.ListGigs")
	defer span.End()

	resp, err := r.client.Get(ctx, GigSaveDir, clientv3.WithPrefix())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list gigs from etcd")
		return nil, fmt.Errorf("failed to list gigs from etcd: %w", err)
	}
	span.SetAttributes(attribute.Int("etcd.kv_count", len(resp.Kvs)))

	gigs := make([]*domain.Gig, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var gig domain.Gig
		if err := json.Unmarshal(kv.Value, &gig); err != nil {
			r.logger.Warn("failed to unmarshal gig from etcd", "key", string(kv.Key), "error", err)
			continue
		}
		gigs = append(gigs, &gig)
	}
	return gigs, nil
}

// DeleteGig removes a gig and every record hanging off it.
func (r *etcdGigRepository) DeleteGig(ctx context.Context, id string) error {
	ctx, span := r.tracer.Start(ctx, "repo.etcd.DeleteGig")
	defer span.End()
	span.SetAttributes(attribute.String("gig.id", id))

	_, err := r.client.Txn(ctx).Then(
		clientv3.OpDelete(path.Join(GigSaveDir, id)),
		clientv3.OpDelete(path.Join(OfferSaveDir, id)+"/", clientv3.WithPrefix()),
		clientv3.OpDelete(path.Join(ReservationSaveDir, id)),
	).Commit()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete gig from etcd")
		return fmt.Errorf("failed to delete gig %s from etcd: %w", id, err)
	}
	return nil
}

// SaveOfferBatch writes one fan-out generation in a single transaction, so
// either every offer of the generation is on record or none is.
func (r *etcdGigRepository) SaveOfferBatch(ctx context.Context, offers []*domain.Offer) error {
	if len(offers) == 0 {
		return nil
	}
	ctx, span := r.tracer.Start(ctx, "repo.etcd.SaveOfferBatch")
	defer span.End()
	span.SetAttributes(
		attribute.String("gig.id", offers[0].GigID),
		attribute.Int("offer.count", len(offers)),
	)

	ops := make([]clientv3.Op, 0, len(offers))
	for _, o := range offers {
		offerJSON, err := json.Marshal(o)
		if err != nil {
			return fmt.Errorf("failed to marshal offer to JSON: %w", err)
		}
		ops = append(ops, clientv3.OpPut(offerKey(o), string(offerJSON)))
	}

	_, err := r.client.Txn(ctx).Then(ops...).Commit()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to commit offer batch to etcd")
		return fmt.Errorf("failed to save offer batch for gig %s: %w", offers[0].GigID, err)
	}
	return nil
}

// SaveOffer persists a single offer status change.
func (r *etcdGigRepository) SaveOffer(ctx context.Context, offer *domain.Offer) error {
	ctx, span := r.tracer.Start(ctx, "repo.etcd.SaveOffer")
	defer span.End()

	offerJSON, err := json.Marshal(offer)
	if err != nil {
		return fmt.Errorf("failed to marshal offer to JSON: %w", err)
	}
	_, err = r.client.Put(ctx, offerKey(offer), string(offerJSON))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to put offer to etcd")
		return fmt.Errorf("failed to save offer %s/%s to etcd: %w", offer.GigID, offer.WorkerID, err)
	}
	return nil
}

// SaveReservation persists the hold bound to a lease matching its TTL, so
// the stored record disappears with the hold window even if the dispatcher
// dies before releasing it.
func (r *etcdGigRepository) SaveReservation(ctx context.Context, res *domain.Reservation, ttl time.Duration) error {
	ctx, span := r.tracer.Start(ctx, "repo.etcd.SaveReservation")
	defer span.End()
	span.SetAttributes(attribute.String("gig.id", res.GigID))

	seconds := int64(ttl.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	lease, err := r.client.Grant(ctx, seconds)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to grant reservation lease: %w", err)
	}

	resJSON, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal reservation to JSON: %w", err)
	}
	_, err = r.client.Put(ctx, path.Join(ReservationSaveDir, res.GigID), string(resJSON), clientv3.WithLease(lease.ID))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to put reservation to etcd")
		return fmt.Errorf("failed to save reservation for gig %s: %w", res.GigID, err)
	}
	return nil
}

// DeleteReservation removes the persisted hold record.
func (r *etcdGigRepository) DeleteReservation(ctx context.Context, gigID string) error {
	ctx, span := r.tracer.Start(ctx, "repo.etcd.DeleteReservation")
	defer span.End()

	_, err := r.client.Delete(ctx, path.Join(ReservationSaveDir, gigID))
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete reservation for gig %s: %w", gigID, err)
	}
	return nil
}
