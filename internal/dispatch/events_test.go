package dispatch

import (
	"testing"

	"gig-dispatch/internal/domain"
)

func TestBrokerPublishReachesAllSubscribers(t *testing.T) {
	b := NewBroker()
	ch1, cancel1 := b.Subscribe("g1")
	defer cancel1()
	ch2, cancel2 := b.Subscribe("g1")
	defer cancel2()
	other, cancelOther := b.Subscribe("g2")
	defer cancelOther()

	b.Publish(domain.StatusEvent{GigID: "g1", To: domain.GigStatusDispatching})

	for i, ch := range []<-chan domain.StatusEvent{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.To != domain.GigStatusDispatching {
				t.Fatalf("subscriber %d got event %+v", i, ev)
			}
		default:
			t.Fatalf("subscriber %d got no event", i)
		}
	}
	select {
	case ev := <-other:
		t.Fatalf("subscriber of another gig got event %+v", ev)
	default:
	}
}

func TestBrokerPublishDropsWhenSubscriberLags(t *testing.T) {
	b := NewBroker()
	ch, cancel := b.Subscribe("g1")
	defer cancel()

	// Publish must not block even against a subscriber that never reads.
	for i := 0; i < subscriberBuffer*2; i++ {
		b.Publish(domain.StatusEvent{GigID: "g1"})
	}
	if len(ch) != subscriberBuffer {
		t.Fatalf("buffered events = %d, want %d with overflow dropped", len(ch), subscriberBuffer)
	}
}

func TestBrokerCloseTopic(t *testing.T) {
	b := NewBroker()
	ch, cancel := b.Subscribe("g1")
	defer cancel()

	b.CloseTopic("g1")
	if _, ok := <-ch; ok {
		t.Fatal("subscriber channel not closed with the topic")
	}

	late, lateCancel := b.Subscribe("g1")
	defer lateCancel()
	if _, ok := <-late; ok {
		t.Fatal("subscription after close delivered an event")
	}

	// Cancelling an already-closed subscription must not panic.
	cancel()
}

func TestBrokerCancelIdempotent(t *testing.T) {
	b := NewBroker()
	ch, cancel := b.Subscribe("g1")

	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatal("cancelled subscription still open")
	}

	// Later publishes must not reach the cancelled subscriber.
	b.Publish(domain.StatusEvent{GigID: "g1"})
}

func TestBrokerForgetReopensTopic(t *testing.T) {
	b := NewBroker()
	b.CloseTopic("g1")
	b.Forget("g1")

	ch, cancel := b.Subscribe("g1")
	defer cancel()
	b.Publish(domain.StatusEvent{GigID: "g1", To: domain.GigStatusPosted})
	select {
	case <-ch:
	default:
		t.Fatal("subscription after Forget did not receive events")
	}
}
