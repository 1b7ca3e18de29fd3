package directory

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"

	"gig-dispatch/internal/domain"
)

// Manhattan reference point; distances below were checked against a
// great-circle calculator.
var midtown = domain.Location{Lat: 40.7549, Lng: -73.9840}

func seededDirectory(workers ...domain.WorkerRef) *EtcdDirectory {
	d := NewEtcdDirectory(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	for _, w := range workers {
		d.workers[w.ID] = w
	}
	return d
}

func TestQueryFiltersByRadiusAndCategory(t *testing.T) {
	d := seededDirectory(
		domain.WorkerRef{ // a few blocks away, right category
			ID: "close", Categories: []string{"plumbing"},
			Location: domain.Location{Lat: 40.7580, Lng: -73.9855},
		},
		domain.WorkerRef{ // same spot, wrong category
			ID: "wrong-trade", Categories: []string{"electrical"},
			Location: domain.Location{Lat: 40.7580, Lng: -73.9855},
		},
		domain.WorkerRef{ // Newark, ~10 miles out
			ID: "far", Categories: []string{"plumbing"},
			Location: domain.Location{Lat: 40.7357, Lng: -74.1724},
		},
	)

	got, err := d.Query(context.Background(), midtown, 2, "plumbing")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 || got[0].ID != "close" {
		t.Fatalf("Query(2mi, plumbing) = %v, want just the close plumber", got)
	}

	got, err = d.Query(context.Background(), midtown, 15, "plumbing")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Query(15mi, plumbing) returned %d workers, want 2", len(got))
	}
}

func TestQueryZeroRadiusIsUnbounded(t *testing.T) {
	d := seededDirectory(
		domain.WorkerRef{
			ID: "antipodal", Categories: []string{"plumbing"},
			Location: domain.Location{Lat: -40.75, Lng: 106.02},
		},
	)

	got, err := d.Query(context.Background(), midtown, 0, "plumbing")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("unbounded query returned %d workers, want 1", len(got))
	}
}

func TestQueryEmptyDirectory(t *testing.T) {
	d := seededDirectory()
	got, err := d.Query(context.Background(), midtown, 5, "plumbing")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("empty directory returned %d workers", len(got))
	}
}

func TestHaversineMiles(t *testing.T) {
	// Midtown to Newark Penn Station is roughly 10 miles.
	newark := domain.Location{Lat: 40.7357, Lng: -74.1724}
	if got := haversineMiles(midtown, newark); math.Abs(got-10) > 1 {
		t.Fatalf("haversineMiles(midtown, newark) = %.2f, want ~10", got)
	}
	if got := haversineMiles(midtown, midtown); got != 0 {
		t.Fatalf("distance to self = %f, want 0", got)
	}
}

func TestDecodeWorker(t *testing.T) {
	ref, err := decodeWorker([]byte(`{"id":"w1","addr":"10.0.0.1:9100","location":{"lat":1,"lng":2},"categories":["plumbing"]}`))
	if err != nil {
		t.Fatalf("decodeWorker: %v", err)
	}
	if ref.ID != "w1" || ref.Addr != "10.0.0.1:9100" || len(ref.Categories) != 1 {
		t.Fatalf("decoded ref = %+v", ref)
	}
	if _, err := decodeWorker([]byte("not json")); err == nil {
		t.Fatal("decodeWorker accepted malformed registration")
	}
}
