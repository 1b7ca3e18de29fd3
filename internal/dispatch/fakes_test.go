package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"gig-dispatch/internal/domain"
)

// fakeDirectory serves scripted responses, then falls back to a fixed
// worker set for every later query.
type fakeDirectory struct {
	mu       sync.Mutex
	queue    []dirResponse
	fallback []domain.WorkerRef
	calls    int
}

type dirResponse struct {
	workers []domain.WorkerRef
	err     error
}

func (d *fakeDirectory) push(workers []domain.WorkerRef, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue = append(d.queue, dirResponse{workers: workers, err: err})
}

func (d *fakeDirectory) Query(_ context.Context, _ domain.Location, _ float64, _ string) ([]domain.WorkerRef, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if len(d.queue) > 0 {
		head := d.queue[0]
		d.queue = d.queue[1:]
		return head.workers, head.err
	}
	return d.fallback, nil
}

func (d *fakeDirectory) queryCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// fakeNotifier records sends.
type fakeNotifier struct {
	mu    sync.Mutex
	sends []domain.OfferNotice
}

func (n *fakeNotifier) Send(_ context.Context, _ domain.WorkerRef, notice domain.OfferNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sends = append(n.sends, notice)
	return nil
}

// fakeRepo is an in-memory GigRepository with injectable batch-write
// failures.
type fakeRepo struct {
	mu           sync.Mutex
	gigs         map[string]domain.Gig
	offers       map[string]domain.Offer
	reservations map[string]domain.Reservation
	failBatches  int
	batchCalls   int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		gigs:         make(map[string]domain.Gig),
		offers:       make(map[string]domain.Offer),
		reservations: make(map[string]domain.Reservation),
	}
}

func (r *fakeRepo) SaveGig(_ context.Context, gig *domain.Gig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gigs[gig.ID] = *gig
	return nil
}

func (r *fakeRepo) GetGig(_ context.Context, id string) (*domain.Gig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.gigs[id]
	if !ok {
		return nil, domain.ErrGigNotFound
	}
	return &g, nil
}

func (r *fakeRepo) ListGigs(_ context.Context) ([]*domain.Gig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Gig, 0, len(r.gigs))
	for _, g := range r.gigs {
		gg := g
		out = append(out, &gg)
	}
	return out, nil
}

func (r *fakeRepo) DeleteGig(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.gigs, id)
	return nil
}

func (r *fakeRepo) SaveOfferBatch(_ context.Context, offers []*domain.Offer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batchCalls++
	if r.failBatches > 0 {
		r.failBatches--
		return errors.New("injected batch write failure")
	}
	for _, o := range offers {
		r.offers[o.GigID+"/"+o.WorkerID] = *o
	}
	return nil
}

func (r *fakeRepo) SaveOffer(_ context.Context, offer *domain.Offer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.offers[offer.GigID+"/"+offer.WorkerID] = *offer
	return nil
}

func (r *fakeRepo) SaveReservation(_ context.Context, res *domain.Reservation, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reservations[res.GigID] = *res
	return nil
}

func (r *fakeRepo) DeleteReservation(_ context.Context, gigID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.reservations, gigID)
	return nil
}
