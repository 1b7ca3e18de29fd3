package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gig-dispatch/internal/domain"
	"gig-dispatch/internal/metrics"
)

// AcceptResult is the outcome of a worker's accept attempt.
type AcceptResult string

const (
	ResultWon   AcceptResult = "won"
	ResultLost  AcceptResult = "lost"
	ResultStale AcceptResult = "stale"
)

const persistTimeout = 3 * time.Second

// Options configures the dispatch engine.
type Options struct {
	// Tiers is the ordered search ladder. Must not be empty.
	Tiers []domain.SearchTier
	// OfferTTL bounds each offer's validity independent of the tier window.
	OfferTTL time.Duration
	// ReservationTTL bounds the hold between a winning accept and the
	// worker's confirmation.
	ReservationTTL time.Duration
}

// gigState is all mutable state for one gig. Its mutex is the single
// mutual-exclusion boundary of spec-critical decisions: every status or
// generation change happens under it, which makes the first successful
// accept linearizable.
type gigState struct {
	mu          sync.Mutex
	gig         *domain.Gig
	ledger      *offerLedger
	reservation *domain.Reservation
	excluded    map[string]struct{}
	workers     map[string]domain.WorkerRef
	tierRetried bool
}

// Engine owns the gig lifecycle state machine and composes the ledger,
// arbiter, reservation manager and escalation scheduler. It is the only
// component exposed to the client-facing layer. Gigs are fully independent
// of each other; cross-gig operations run in parallel.
type Engine struct {
	mu   sync.RWMutex
	gigs map[string]*gigState

	opts      Options
	directory domain.WorkerDirectory
	notifier  domain.NotificationChannel
	repo      domain.GigRepository
	clock     clock.Clock

	escalator    *EscalationScheduler
	reservations *ReservationManager
	broker       *Broker

	logger *slog.Logger
	tracer trace.Tracer
}

// NewEngine wires the dispatch core. The clock is injected so TTL and tier
// timing are deterministic under test.
func NewEngine(directory domain.WorkerDirectory, notifier domain.NotificationChannel, repo domain.GigRepository, clk clock.Clock, opts Options, logger *slog.Logger) *Engine {
	if opts.OfferTTL <= 0 {
		opts.OfferTTL = 30 * time.Second
	}
	if opts.ReservationTTL <= 0 {
		opts.ReservationTTL = 120 * time.Second
	}

	e := &Engine{
		gigs:      make(map[string]*gigState),
		opts:      opts,
		directory: directory,
		notifier:  notifier,
		repo:      repo,
		clock:     clk,
		broker:    NewBroker(),
		logger:    logger.With("component", "dispatch-engine"),
		tracer:    otel.Tracer("gig-dispatch-engine"),
	}
	e.escalator = NewEscalationScheduler(clk, e.onTierTimeout, logger)
	e.reservations = NewReservationManager(clk, opts.ReservationTTL, e.onReservationLapse, logger)
	return e
}

// Post validates and registers a new gig, then immediately starts tier-0
// dispatch. Notification delivery is fire-and-forget; Post does not wait on
// it.
func (e *Engine) Post(ctx context.Context, gig *domain.Gig) (string, error) {
	ctx, span := e.tracer.Start(ctx, "engine.Post")
	defer span.End()

	if err := gig.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gig validation failed")
		return "", err
	}

	now := e.clock.Now()
	gig.ID = uuid.NewString()
	gig.Status = domain.GigStatusPosted
	gig.Tier = 0
	gig.Generation = 0
	gig.CreatedAt = now
	gig.StatusChangedAt = now
	span.SetAttributes(attribute.String("gig.id", gig.ID), attribute.String("gig.category", gig.Category))

	if err := e.repo.SaveGig(ctx, gig); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist gig")
		return "", fmt.Errorf("failed to persist gig: %w", err)
	}

	gs := &gigState{
		gig:      gig,
		ledger:   newOfferLedger(),
		excluded: make(map[string]struct{}),
		workers:  make(map[string]domain.WorkerRef),
	}
	e.mu.Lock()
	e.gigs[gig.ID] = gs
	e.mu.Unlock()
	metrics.ActiveGigs.Inc()

	e.broker.Publish(domain.StatusEvent{GigID: gig.ID, From: domain.GigStatusPosted, To: domain.GigStatusPosted, At: now})

	gs.mu.Lock()
	e.transitionLocked(gs, domain.GigStatusDispatching, "", "")
	gs.mu.Unlock()

	e.runTier(gs)
	return gig.ID, nil
}

// Status returns a read-only snapshot. It takes only the gig's mutex and
// never blocks on I/O.
func (e *Engine) Status(gigID string) (domain.GigView, error) {
	gs := e.state(gigID)
	if gs == nil {
		return domain.GigView{}, domain.ErrGigNotFound
	}

	gs.mu.Lock()
	defer gs.mu.Unlock()

	view := domain.GigView{
		ID:              gs.gig.ID,
		Category:        gs.gig.Category,
		Status:          gs.gig.Status,
		Tier:            gs.gig.Tier,
		Generation:      gs.ledger.generation,
		OfferCounts:     gs.ledger.counts(),
		CreatedAt:       gs.gig.CreatedAt,
		StatusChangedAt: gs.gig.StatusChangedAt,
	}
	if gs.reservation != nil {
		view.Reservation = &domain.ReservationView{
			WorkerID:  gs.reservation.WorkerID,
			HeldUntil: gs.reservation.HeldUntil,
			Confirmed: gs.reservation.Confirmed,
		}
	}
	return view, nil
}

// Subscribe registers for a gig's status events, the push side of the
// client status feed.
func (e *Engine) Subscribe(gigID string) (<-chan domain.StatusEvent, func(), error) {
	if e.state(gigID) == nil {
		return nil, nil, domain.ErrGigNotFound
	}
	ch, cancel := e.broker.Subscribe(gigID)
	return ch, cancel, nil
}

// Accept resolves a worker's attempt to take the gig. The whole decision
// runs under the gig's mutex: exactly one concurrent caller can observe
// status Dispatching with an open current-generation offer, so at most one
// accept ever wins. Persistence is asynchronous; Accept never blocks on
// network I/O.
func (e *Engine) Accept(ctx context.Context, gigID, workerID string) (AcceptResult, error) {
	_, span := e.tracer.Start(ctx, "engine.Accept", trace.WithAttributes(
		attribute.String("gig.id", gigID),
		attribute.String("worker.id", workerID),
	))
	defer span.End()

	gs := e.state(gigID)
	if gs == nil {
		return "", domain.ErrGigNotFound
	}

	gs.mu.Lock()
	defer gs.mu.Unlock()

	now := e.clock.Now()
	result := e.acceptLocked(gs, workerID, now)
	span.SetAttributes(attribute.String("accept.result", string(result)))
	metrics.AcceptsTotal.WithLabelValues(string(result)).Inc()
	return result, nil
}

func (e *Engine) acceptLocked(gs *gigState, workerID string, now time.Time) AcceptResult {
	switch gs.gig.Status {
	case domain.GigStatusDispatching:
	case domain.GigStatusReserved, domain.GigStatusConfirmed, domain.GigStatusCompleted:
		// The race already produced a winner. Record the loss distinctly
		// from a voluntary decline.
		if o := gs.ledger.currentOffer(workerID); o != nil &&
			(o.Status == domain.OfferStatusPending || o.Status == domain.OfferStatusSuperseded) {
			o.Status = domain.OfferStatusDeclinedByRace
			e.persistOffersAsync(o)
		}
		return ResultLost
	default:
		// Posted, cancelled or expired: nothing left to accept.
		return ResultStale
	}

	offer := gs.ledger.currentOffer(workerID)
	if offer == nil {
		// No offer in the current generation. Covers both "never offered"
		// and a network-delayed accept from a pre-escalation generation.
		return ResultStale
	}
	if offer.Status != domain.OfferStatusPending {
		return ResultStale
	}
	if !now.Before(offer.ExpiresAt) {
		offer.Status = domain.OfferStatusExpired
		e.persistOffersAsync(offer)
		return ResultStale
	}

	// Winning path: status flip, winner record, supersession and the
	// reservation are all one atomic step under the gig mutex.
	offer.Status = domain.OfferStatusAccepted
	gs.gig.WinnerID = workerID
	changed := gs.ledger.supersedePending(workerID)
	e.escalator.Cancel(gs.gig.ID)

	res := e.reservations.Hold(gs.gig.ID, workerID)
	gs.reservation = res

	e.transitionLocked(gs, domain.GigStatusReserved, workerID, "")

	e.persistOffersAsync(append(changed, offer)...)
	e.persistReservationAsync(*res)
	e.logger.Info("gig reserved", "gig_id", gs.gig.ID, "worker_id", workerID, "held_until", res.HeldUntil)
	return ResultWon
}

// Decline records a worker voluntarily passing on a pending offer. If that
// settles the whole current generation the engine escalates immediately
// rather than waiting out the tier window.
func (e *Engine) Decline(ctx context.Context, gigID, workerID string) error {
	_, span := e.tracer.Start(ctx, "engine.Decline", trace.WithAttributes(
		attribute.String("gig.id", gigID),
		attribute.String("worker.id", workerID),
	))
	defer span.End()

	gs := e.state(gigID)
	if gs == nil {
		return domain.ErrGigNotFound
	}

	gs.mu.Lock()
	if gs.gig.Status.Terminal() {
		gs.mu.Unlock()
		return domain.ErrAlreadyTerminal
	}

	var settledGen uint64
	if o := gs.ledger.currentOffer(workerID); o != nil && o.Status == domain.OfferStatusPending {
		o.Status = domain.OfferStatusDeclined
		e.persistOffersAsync(o)
		if gs.gig.Status == domain.GigStatusDispatching && gs.ledger.currentGenerationSettled() {
			settledGen = gs.ledger.generation
		}
	}
	gs.mu.Unlock()

	if settledGen != 0 {
		e.advanceTier(gs, settledGen, "all_declined")
	}
	return nil
}

// Confirm finalizes a reservation within its hold window.
func (e *Engine) Confirm(ctx context.Context, gigID, workerID string) error {
	_, span := e.tracer.Start(ctx, "engine.Confirm", trace.WithAttributes(
		attribute.String("gig.id", gigID),
		attribute.String("worker.id", workerID),
	))
	defer span.End()

	gs := e.state(gigID)
	if gs == nil {
		return domain.ErrGigNotFound
	}

	gs.mu.Lock()
	defer gs.mu.Unlock()

	now := e.clock.Now()
	if gs.gig.Status != domain.GigStatusReserved || gs.reservation == nil ||
		gs.reservation.WorkerID != workerID || !now.Before(gs.reservation.HeldUntil) {
		span.SetStatus(codes.Error, "confirmation outside hold window")
		return domain.ErrReservationExpired
	}

	gs.reservation.Confirmed = true
	e.reservations.Release(gigID)
	e.transitionLocked(gs, domain.GigStatusConfirmed, workerID, "")
	e.deleteReservationAsync(gigID)
	e.logger.Info("gig confirmed", "gig_id", gigID, "worker_id", workerID)
	return nil
}

// Complete moves a confirmed gig to its terminal success state. The trigger
// comes from the surrounding system when the work itself is done.
func (e *Engine) Complete(ctx context.Context, gigID string) error {
	_, span := e.tracer.Start(ctx, "engine.Complete", trace.WithAttributes(attribute.String("gig.id", gigID)))
	defer span.End()

	gs := e.state(gigID)
	if gs == nil {
		return domain.ErrGigNotFound
	}

	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.gig.Status.Terminal() {
		return domain.ErrAlreadyTerminal
	}
	if gs.gig.Status != domain.GigStatusConfirmed {
		return fmt.Errorf("cannot complete gig %s in status %s", gigID, gs.gig.Status)
	}
	e.transitionLocked(gs, domain.GigStatusCompleted, gs.gig.WinnerID, "")
	return nil
}

// Cancel terminates a non-terminal gig on the client's request. Effective
// immediately: any accept arriving afterwards observes the cancelled status.
func (e *Engine) Cancel(ctx context.Context, gigID, reason string) error {
	_, span := e.tracer.Start(ctx, "engine.Cancel", trace.WithAttributes(attribute.String("gig.id", gigID)))
	defer span.End()

	gs := e.state(gigID)
	if gs == nil {
		return domain.ErrGigNotFound
	}

	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.gig.Status.Terminal() {
		return domain.ErrAlreadyTerminal
	}

	changed := gs.ledger.supersedeAllPending()
	e.escalator.Cancel(gigID)
	if gs.reservation != nil {
		e.reservations.Release(gigID)
		gs.reservation = nil
		e.deleteReservationAsync(gigID)
	}
	gs.gig.CancelReason = reason
	e.transitionLocked(gs, domain.GigStatusCancelled, "", reason)
	e.persistOffersAsync(changed...)
	e.logger.Info("gig cancelled", "gig_id", gigID, "reason", reason)
	return nil
}

// SweepExpiredOffers lazily expires overdue pending offers across all gigs.
// TTL enforcement at accept time is authoritative; the sweep keeps the
// ledger and the persisted records tidy between accepts.
func (e *Engine) SweepExpiredOffers(ctx context.Context) int {
	e.mu.RLock()
	states := make([]*gigState, 0, len(e.gigs))
	for _, gs := range e.gigs {
		states = append(states, gs)
	}
	e.mu.RUnlock()

	expired := 0
	now := e.clock.Now()
	for _, gs := range states {
		gs.mu.Lock()
		changed := gs.ledger.expireOverdue(now)
		gs.mu.Unlock()
		if len(changed) > 0 {
			e.persistOffersAsync(changed...)
			expired += len(changed)
		}
	}
	return expired
}

// PurgeTerminal drops gigs that reached a terminal status before the
// retention cutoff from memory and from the repository.
func (e *Engine) PurgeTerminal(ctx context.Context, retention time.Duration) int {
	cutoff := e.clock.Now().Add(-retention)

	e.mu.Lock()
	var purge []string
	for id, gs := range e.gigs {
		gs.mu.Lock()
		if gs.gig.Status.Terminal() && gs.gig.StatusChangedAt.Before(cutoff) {
			purge = append(purge, id)
		}
		gs.mu.Unlock()
	}
	for _, id := range purge {
		delete(e.gigs, id)
	}
	e.mu.Unlock()

	for _, id := range purge {
		e.broker.Forget(id)
		if err := e.repo.DeleteGig(ctx, id); err != nil {
			e.logger.Warn("failed to purge terminal gig", "gig_id", id, "error", err)
		}
	}
	return len(purge)
}

// onTierTimeout fires when a tier's wait window elapses with no accept. The
// generation check discards a timer that raced with escalation, acceptance
// or cancellation.
func (e *Engine) onTierTimeout(gigID string, generation uint64) {
	gs := e.state(gigID)
	if gs == nil {
		return
	}
	e.advanceTier(gs, generation, "tier_timeout")
}

// onReservationLapse fires when a hold's window elapses unconfirmed: the
// gig re-enters dispatch at its current tier, excluding the lapsed worker
// from subsequent fan-outs.
func (e *Engine) onReservationLapse(gigID, reservationID string) {
	gs := e.state(gigID)
	if gs == nil {
		return
	}

	gs.mu.Lock()
	if gs.gig.Status != domain.GigStatusReserved || gs.reservation == nil || gs.reservation.ID != reservationID {
		gs.mu.Unlock()
		return
	}

	worker := gs.reservation.WorkerID
	gs.excluded[worker] = struct{}{}
	gs.reservation = nil
	if o := gs.ledger.currentOffer(worker); o != nil && o.Status == domain.OfferStatusAccepted {
		o.Status = domain.OfferStatusExpired
		e.persistOffersAsync(o)
	}
	gs.gig.WinnerID = ""
	tier := gs.gig.Tier
	e.transitionLocked(gs, domain.GigStatusDispatching, worker, "reservation_lapsed")
	gs.mu.Unlock()

	metrics.ReservationLapsesTotal.Inc()
	e.deleteReservationAsync(gigID)
	e.logger.Info("reservation lapsed, re-dispatching", "gig_id", gigID, "worker_id", worker, "tier", tier)
	e.runTier(gs)
}

// runTier performs one fan-out for the gig's current tier: bump the fencing
// generation, query the directory, persist the offer batch atomically,
// install it in the ledger, arm the tier timer and notify workers. The gig
// mutex is held only around state reads and writes, never across the
// directory query or the batch write.
func (e *Engine) runTier(gs *gigState) {
	gs.mu.Lock()
	if gs.gig.Status != domain.GigStatusDispatching {
		gs.mu.Unlock()
		return
	}
	gen := gs.ledger.nextGeneration()
	// A new tier invalidates what came before it: offers still pending
	// from the previous generation are superseded so "who may still
	// accept" stays unambiguous.
	stale := gs.ledger.supersedeAllPending()
	gigID := gs.gig.ID
	tierIdx := gs.gig.Tier
	loc := gs.gig.Location
	category := gs.gig.Category
	gigCopy := *gs.gig
	excluded := make(map[string]struct{}, len(gs.excluded))
	for w := range gs.excluded {
		excluded[w] = struct{}{}
	}
	gs.mu.Unlock()

	e.persistOffersAsync(stale...)

	tier := e.opts.Tiers[tierIdx]
	queryCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	candidates, err := e.directory.Query(queryCtx, loc, tier.RadiusMiles, category)
	cancel()
	if err != nil {
		e.logger.Error("worker directory query failed", "gig_id", gigID, "tier", tierIdx, "error", err)
		e.retryTierOrEscalate(gs, gen)
		return
	}

	// The directory keeps ownership of its result slice; filter into a
	// fresh one.
	eligible := make([]domain.WorkerRef, 0, len(candidates))
	for _, w := range candidates {
		if _, skip := excluded[w.ID]; !skip {
			eligible = append(eligible, w)
		}
	}

	if len(eligible) == 0 {
		// Nobody to offer to: escalate immediately instead of waiting
		// out the tier window idle.
		e.logger.Info("no candidates in tier", "gig_id", gigID, "tier", tierIdx)
		e.advanceTier(gs, gen, "no_candidates")
		return
	}

	now := e.clock.Now()
	offers := make([]*domain.Offer, 0, len(eligible))
	refs := make(map[string]domain.WorkerRef, len(eligible))
	for _, w := range eligible {
		offers = append(offers, &domain.Offer{
			GigID:      gigID,
			WorkerID:   w.ID,
			Generation: gen,
			Tier:       tierIdx,
			Status:     domain.OfferStatusPending,
			IssuedAt:   now,
			ExpiresAt:  now.Add(e.opts.OfferTTL),
		})
		refs[w.ID] = w
	}

	batchCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	err = e.repo.SaveOfferBatch(batchCtx, offers)
	cancel()
	if err != nil {
		e.logger.Error("offer batch write failed", "gig_id", gigID, "tier", tierIdx, "error", err)
		e.retryTierOrEscalate(gs, gen)
		return
	}

	gs.mu.Lock()
	if gs.gig.Status != domain.GigStatusDispatching || gs.ledger.generation != gen {
		// Cancelled or raced with another transition while we were off
		// the lock; drop the batch.
		gs.mu.Unlock()
		return
	}
	gs.ledger.install(offers)
	for id, w := range refs {
		gs.workers[id] = w
	}
	gs.tierRetried = false
	notices := make([]domain.OfferNotice, 0, len(offers))
	for _, o := range offers {
		notices = append(notices, domain.OfferNotice{Offer: *o, Gig: gigCopy})
	}
	gs.mu.Unlock()

	e.escalator.Arm(gigID, gen, tier.Wait)
	metrics.OffersIssuedTotal.WithLabelValues(strconv.Itoa(tierIdx)).Add(float64(len(offers)))
	e.logger.Info("offers fanned out",
		"gig_id", gigID,
		"tier", tierIdx,
		"generation", gen,
		"count", len(offers),
		"open_marketplace", tier.OpenMarketplace(),
	)

	for _, n := range notices {
		go e.deliver(refs[n.Offer.WorkerID], n)
	}
}

// deliver pushes one offer notification. Best effort: failures are logged,
// never retried here, and never affect offer validity.
func (e *Engine) deliver(worker domain.WorkerRef, notice domain.OfferNotice) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.notifier.Send(ctx, worker, notice); err != nil {
		e.logger.Warn("offer notification failed", "gig_id", notice.Offer.GigID, "worker_id", worker.ID, "error", err)
	}
}

// retryTierOrEscalate applies the fan-out fault policy: retry the same tier
// once, then escalate early rather than leaving the gig dispatching with no
// honored offers outstanding.
func (e *Engine) retryTierOrEscalate(gs *gigState, gen uint64) {
	gs.mu.Lock()
	if gs.gig.Status != domain.GigStatusDispatching || gs.ledger.generation != gen {
		gs.mu.Unlock()
		return
	}
	retry := !gs.tierRetried
	gs.tierRetried = true
	gs.mu.Unlock()

	if retry {
		e.logger.Warn("retrying fan-out for tier", "gig_id", gs.gig.ID)
		e.runTier(gs)
		return
	}
	e.advanceTier(gs, e.currentGeneration(gs), "fanout_failed")
}

// advanceTier moves a dispatching gig to the next search tier, or to
// Expired when the ladder is exhausted. The generation argument fences out
// callers acting on stale observations.
func (e *Engine) advanceTier(gs *gigState, gen uint64, reason string) {
	gs.mu.Lock()
	if gs.gig.Status != domain.GigStatusDispatching || gs.ledger.generation != gen {
		gs.mu.Unlock()
		return
	}

	if gs.gig.Tier+1 >= len(e.opts.Tiers) {
		changed := gs.ledger.supersedeAllPending()
		e.escalator.Cancel(gs.gig.ID)
		e.transitionLocked(gs, domain.GigStatusExpired, "", reason)
		gs.mu.Unlock()
		e.persistOffersAsync(changed...)
		e.logger.Info("search tiers exhausted", "gig_id", gs.gig.ID, "reason", reason, "error", domain.ErrNoWorkersAvailable)
		return
	}

	gs.gig.Tier++
	gs.gig.StatusChangedAt = e.clock.Now()
	gs.tierRetried = false
	e.broker.Publish(domain.StatusEvent{
		GigID:  gs.gig.ID,
		From:   domain.GigStatusDispatching,
		To:     domain.GigStatusDispatching,
		Tier:   gs.gig.Tier,
		Reason: reason,
		At:     gs.gig.StatusChangedAt,
	})
	gigCopy := *gs.gig
	gs.mu.Unlock()

	metrics.EscalationsTotal.WithLabelValues(reason).Inc()
	e.persistGigAsync(gigCopy)
	e.runTier(gs)
}

// transitionLocked applies a state-machine transition and emits its status
// event. Caller holds gs.mu.
func (e *Engine) transitionLocked(gs *gigState, to domain.GigStatus, workerID, reason string) {
	from := gs.gig.Status
	gs.gig.Status = to
	gs.gig.StatusChangedAt = e.clock.Now()

	e.broker.Publish(domain.StatusEvent{
		GigID:    gs.gig.ID,
		From:     from,
		To:       to,
		Tier:     gs.gig.Tier,
		WorkerID: workerID,
		Reason:   reason,
		At:       gs.gig.StatusChangedAt,
	})
	e.persistGigAsync(*gs.gig)

	if to.Terminal() {
		metrics.GigsFinishedTotal.WithLabelValues(string(to)).Inc()
		metrics.ActiveGigs.Dec()
		e.broker.CloseTopic(gs.gig.ID)
	}
}

func (e *Engine) state(gigID string) *gigState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.gigs[gigID]
}

func (e *Engine) currentGeneration(gs *gigState) uint64 {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.ledger.generation
}

func (e *Engine) persistGigAsync(g domain.Gig) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := e.repo.SaveGig(ctx, &g); err != nil {
			e.logger.Warn("failed to persist gig", "gig_id", g.ID, "error", err)
		}
	}()
}

func (e *Engine) persistOffersAsync(offers ...*domain.Offer) {
	if len(offers) == 0 {
		return
	}
	copies := make([]domain.Offer, len(offers))
	for i, o := range offers {
		copies[i] = *o
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		for i := range copies {
			if err := e.repo.SaveOffer(ctx, &copies[i]); err != nil {
				e.logger.Warn("failed to persist offer", "gig_id", copies[i].GigID, "worker_id", copies[i].WorkerID, "error", err)
			}
		}
	}()
}

func (e *Engine) persistReservationAsync(res domain.Reservation) {
	ttl := e.reservations.TTL()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := e.repo.SaveReservation(ctx, &res, ttl); err != nil {
			e.logger.Warn("failed to persist reservation", "gig_id", res.GigID, "error", err)
		}
	}()
}

func (e *Engine) deleteReservationAsync(gigID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := e.repo.DeleteReservation(ctx, gigID); err != nil {
			e.logger.Warn("failed to delete reservation record", "gig_id", gigID, "error", err)
		}
	}()
}
