package dispatch

import (
	"time"

	"gig-dispatch/internal/domain"
)

// offerLedger tracks every offer issued for one gig, across all fan-out
// generations. It is the single source of truth for "who has been offered
// what and is it still valid". The ledger carries no lock of its own; the
// owning gig's mutex serializes access.
type offerLedger struct {
	generation uint64
	byGen      map[uint64]map[string]*domain.Offer
}

func newOfferLedger() *offerLedger {
	return &offerLedger{byGen: make(map[uint64]map[string]*domain.Offer)}
}

// nextGeneration advances the fencing counter. Offers installed afterwards
// belong to the new generation; accepts carrying an older generation are
// rejected as stale.
func (l *offerLedger) nextGeneration() uint64 {
	l.generation++
	return l.generation
}

// install records a fan-out batch. The batch must carry the current
// generation; installing is a no-op for a superseded batch.
func (l *offerLedger) install(offers []*domain.Offer) {
	if len(offers) == 0 {
		return
	}
	gen := offers[0].Generation
	if gen != l.generation {
		return
	}
	m := make(map[string]*domain.Offer, len(offers))
	for _, o := range offers {
		m[o.WorkerID] = o
	}
	l.byGen[gen] = m
}

// currentOffer returns the worker's offer in the current generation, if any.
func (l *offerLedger) currentOffer(workerID string) *domain.Offer {
	return l.byGen[l.generation][workerID]
}

// supersedePending terminates every pending offer except the given worker's
// current-generation one, across all generations. Returns the offers that
// changed, for persistence.
func (l *offerLedger) supersedePending(exceptWorkerID string) []*domain.Offer {
	var changed []*domain.Offer
	for gen, offers := range l.byGen {
		for id, o := range offers {
			if gen == l.generation && id == exceptWorkerID {
				continue
			}
			if o.Status == domain.OfferStatusPending {
				o.Status = domain.OfferStatusSuperseded
				changed = append(changed, o)
			}
		}
	}
	return changed
}

// supersedeAllPending terminates every pending offer for the gig.
func (l *offerLedger) supersedeAllPending() []*domain.Offer {
	return l.supersedePending("")
}

// expireOverdue marks pending offers whose TTL has elapsed.
func (l *offerLedger) expireOverdue(now time.Time) []*domain.Offer {
	var changed []*domain.Offer
	for _, offers := range l.byGen {
		for _, o := range offers {
			if o.Status == domain.OfferStatusPending && !o.Open(now) {
				o.Status = domain.OfferStatusExpired
				changed = append(changed, o)
			}
		}
	}
	return changed
}

// currentGenerationSettled reports whether no offer of the current
// generation can still be accepted, i.e. every fan-out target has declined,
// expired or been superseded.
func (l *offerLedger) currentGenerationSettled() bool {
	offers, ok := l.byGen[l.generation]
	if !ok {
		return false
	}
	for _, o := range offers {
		if o.Status == domain.OfferStatusPending {
			return false
		}
	}
	return true
}

// counts tallies offers by status across all generations.
func (l *offerLedger) counts() map[domain.OfferStatus]int {
	counts := make(map[domain.OfferStatus]int)
	for _, offers := range l.byGen {
		for _, o := range offers {
			counts[o.Status]++
		}
	}
	return counts
}
