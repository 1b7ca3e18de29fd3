package dispatch

import (
	"sync"

	"gig-dispatch/internal/domain"
)

const subscriberBuffer = 16

// Broker fans status events out to per-gig subscribers (the push side of the
// client status feed). Publishing never blocks: a subscriber that falls more
// than subscriberBuffer events behind loses events and must fall back to
// polling Status.
type Broker struct {
	mu     sync.Mutex
	subs   map[string]map[int]chan domain.StatusEvent
	closed map[string]bool
	nextID int
}

func NewBroker() *Broker {
	return &Broker{
		subs:   make(map[string]map[int]chan domain.StatusEvent),
		closed: make(map[string]bool),
	}
}

// Subscribe registers for a gig's status events. The returned cancel
// function must be called when the subscriber is done. Subscribing to a gig
// that already reached a terminal state yields an immediately closed channel.
func (b *Broker) Subscribe(gigID string) (<-chan domain.StatusEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan domain.StatusEvent, subscriberBuffer)
	if b.closed[gigID] {
		close(ch)
		return ch, func() {}
	}

	if b.subs[gigID] == nil {
		b.subs[gigID] = make(map[int]chan domain.StatusEvent)
	}
	id := b.nextID
	b.nextID++
	b.subs[gigID][id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[gigID][id]; ok {
			delete(b.subs[gigID], id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber of the gig, dropping it for
// subscribers whose buffer is full.
func (b *Broker) Publish(ev domain.StatusEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs[ev.GigID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// CloseTopic ends the gig's stream after its terminal event has been
// published. Later subscriptions observe a closed channel immediately.
func (b *Broker) CloseTopic(gigID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs[gigID] {
		delete(b.subs[gigID], id)
		close(ch)
	}
	delete(b.subs, gigID)
	b.closed[gigID] = true
}

// Forget drops the closed-topic marker for a gig, used when purging
// long-terminal gigs so the marker set does not grow without bound.
func (b *Broker) Forget(gigID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.closed, gigID)
}
