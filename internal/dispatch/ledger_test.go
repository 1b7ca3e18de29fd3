package dispatch

import (
	"testing"
	"time"

	"gig-dispatch/internal/domain"
)

func makeOffers(gen uint64, expiresAt time.Time, workers ...string) []*domain.Offer {
	offers := make([]*domain.Offer, 0, len(workers))
	for _, w := range workers {
		offers = append(offers, &domain.Offer{
			GigID:      "g1",
			WorkerID:   w,
			Generation: gen,
			Status:     domain.OfferStatusPending,
			ExpiresAt:  expiresAt,
		})
	}
	return offers
}

func TestLedgerInstallRejectsStaleGeneration(t *testing.T) {
	l := newOfferLedger()
	gen := l.nextGeneration()
	l.nextGeneration() // a newer fan-out raced in

	l.install(makeOffers(gen, time.Time{}, "w1"))
	if l.currentOffer("w1") != nil {
		t.Fatal("stale batch was installed as current")
	}
}

func TestLedgerCurrentOfferScopedToGeneration(t *testing.T) {
	l := newOfferLedger()
	gen1 := l.nextGeneration()
	l.install(makeOffers(gen1, time.Time{}, "w1"))

	if l.currentOffer("w1") == nil {
		t.Fatal("current-generation offer not found")
	}

	gen2 := l.nextGeneration()
	if l.currentOffer("w1") != nil {
		t.Fatal("previous-generation offer leaked into the new generation")
	}
	l.install(makeOffers(gen2, time.Time{}, "w2"))
	if l.currentOffer("w2") == nil {
		t.Fatal("new-generation offer not found")
	}
}

func TestLedgerSupersedePendingSparesWinner(t *testing.T) {
	l := newOfferLedger()
	gen := l.nextGeneration()
	l.install(makeOffers(gen, time.Time{}, "winner", "l1", "l2"))
	l.currentOffer("winner").Status = domain.OfferStatusAccepted

	changed := l.supersedePending("winner")
	if len(changed) != 2 {
		t.Fatalf("superseded %d offers, want 2", len(changed))
	}
	if got := l.currentOffer("winner").Status; got != domain.OfferStatusAccepted {
		t.Fatalf("winner offer status = %s, want accepted", got)
	}
	for _, w := range []string{"l1", "l2"} {
		if got := l.currentOffer(w).Status; got != domain.OfferStatusSuperseded {
			t.Fatalf("offer %s status = %s, want superseded", w, got)
		}
	}
}

func TestLedgerSupersedeCoversOlderGenerations(t *testing.T) {
	l := newOfferLedger()
	gen1 := l.nextGeneration()
	l.install(makeOffers(gen1, time.Time{}, "old"))
	gen2 := l.nextGeneration()
	l.install(makeOffers(gen2, time.Time{}, "old", "new"))

	changed := l.supersedePending("old")
	// The worker's gen-1 offer is superseded even though their gen-2 one is
	// spared; "new" loses their pending offer too.
	if len(changed) != 2 {
		t.Fatalf("superseded %d offers, want 2", len(changed))
	}
	if got := l.currentOffer("old").Status; got != domain.OfferStatusPending {
		t.Fatalf("current-generation offer of spared worker = %s, want pending", got)
	}
}

func TestLedgerExpireOverdue(t *testing.T) {
	l := newOfferLedger()
	now := time.Now()
	gen := l.nextGeneration()
	l.install(append(
		makeOffers(gen, now.Add(-time.Second), "late"),
		makeOffers(gen, now.Add(time.Minute), "fresh")...,
	))

	changed := l.expireOverdue(now)
	if len(changed) != 1 || changed[0].WorkerID != "late" {
		t.Fatalf("expireOverdue changed %v, want just the overdue offer", changed)
	}
	if got := l.currentOffer("fresh").Status; got != domain.OfferStatusPending {
		t.Fatalf("fresh offer status = %s, want pending", got)
	}
}

func TestLedgerCurrentGenerationSettled(t *testing.T) {
	l := newOfferLedger()
	if l.currentGenerationSettled() {
		t.Fatal("empty ledger reported settled; no batch was ever installed")
	}

	gen := l.nextGeneration()
	l.install(makeOffers(gen, time.Time{}, "a", "b"))
	if l.currentGenerationSettled() {
		t.Fatal("generation with pending offers reported settled")
	}

	l.currentOffer("a").Status = domain.OfferStatusDeclined
	if l.currentGenerationSettled() {
		t.Fatal("generation settled with one offer still pending")
	}
	l.currentOffer("b").Status = domain.OfferStatusExpired
	if !l.currentGenerationSettled() {
		t.Fatal("fully declined/expired generation not reported settled")
	}
}

func TestLedgerCounts(t *testing.T) {
	l := newOfferLedger()
	gen1 := l.nextGeneration()
	l.install(makeOffers(gen1, time.Time{}, "a"))
	l.currentOffer("a").Status = domain.OfferStatusSuperseded
	gen2 := l.nextGeneration()
	l.install(makeOffers(gen2, time.Time{}, "a", "b"))
	l.currentOffer("a").Status = domain.OfferStatusAccepted

	counts := l.counts()
	if counts[domain.OfferStatusAccepted] != 1 ||
		counts[domain.OfferStatusPending] != 1 ||
		counts[domain.OfferStatusSuperseded] != 1 {
		t.Fatalf("counts = %v, want one accepted, one pending, one superseded", counts)
	}
}
