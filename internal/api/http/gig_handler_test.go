package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"gig-dispatch/internal/dispatch"
	"gig-dispatch/internal/domain"
)

type staticDirectory struct {
	workers []domain.WorkerRef
}

func (d staticDirectory) Query(context.Context, domain.Location, float64, string) ([]domain.WorkerRef, error) {
	return d.workers, nil
}

type nopNotifier struct{}

func (nopNotifier) Send(context.Context, domain.WorkerRef, domain.OfferNotice) error { return nil }

type nopRepo struct{}

func (nopRepo) SaveGig(context.Context, *domain.Gig) error { return nil }

func (nopRepo) GetGig(context.Context, string) (*domain.Gig, error) {
	return nil, domain.ErrGigNotFound
}

func (nopRepo) ListGigs(context.Context) ([]*domain.Gig, error)       { return nil, nil }
func (nopRepo) DeleteGig(context.Context, string) error               { return nil }
func (nopRepo) SaveOfferBatch(context.Context, []*domain.Offer) error { return nil }
func (nopRepo) SaveOffer(context.Context, *domain.Offer) error        { return nil }

func (nopRepo) SaveReservation(context.Context, *domain.Reservation, time.Duration) error {
	return nil
}

func (nopRepo) DeleteReservation(context.Context, string) error { return nil }

// staticGate is a fixed leadership answer for tests.
type staticGate bool

func (g staticGate) IsLeader() bool { return bool(g) }

func newTestServerWithGate(t *testing.T, gate leaderGate, workers ...string) *httptest.Server {
	t.Helper()
	refs := make([]domain.WorkerRef, 0, len(workers))
	for _, id := range workers {
		refs = append(refs, domain.WorkerRef{ID: id, Categories: []string{"plumbing"}})
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := dispatch.NewEngine(staticDirectory{workers: refs}, nopNotifier{}, nopRepo{}, clock.NewMock(), dispatch.Options{
		Tiers: []domain.SearchTier{{RadiusMiles: 2, Wait: 15 * time.Second}},
	}, logger)

	mux := http.NewServeMux()
	NewGigHandler(engine, gate, logger).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T, workers ...string) *httptest.Server {
	t.Helper()
	return newTestServerWithGate(t, staticGate(true), workers...)
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func postGig(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp := postJSON(t, srv.URL+"/gigs/", PostGigRequest{
		Category:    "plumbing",
		Description: "leaking kitchen sink",
		Lat:         40.71,
		Lng:         -74.0,
		Urgency:     "asap",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("post gig status = %d, want 201", resp.StatusCode)
	}
	var out PostGigResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode post response: %v", err)
	}
	if out.GigID == "" {
		t.Fatal("post response carried no gig id")
	}
	return out.GigID
}

func TestPostGigAndStatus(t *testing.T) {
	srv := newTestServer(t, "w1")
	gigID := postGig(t, srv)

	resp, err := http.Get(srv.URL + "/gigs/" + gigID)
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code = %d, want 200", resp.StatusCode)
	}
	var view domain.GigView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if view.Status != domain.GigStatusDispatching || view.Tier != 0 {
		t.Fatalf("view = %+v, want dispatching at tier 0", view)
	}
}

func TestPostGigValidation(t *testing.T) {
	srv := newTestServer(t, "w1")

	resp := postJSON(t, srv.URL+"/gigs/", PostGigRequest{Description: "no category", Urgency: "asap"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for missing category", resp.StatusCode)
	}
	var body struct {
		Error   string   `json:"error"`
		Details []string `json:"details"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode validation body: %v", err)
	}
	if len(body.Details) == 0 {
		t.Fatal("validation response carried no field details")
	}
}

func TestStatusNotFound(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/gigs/does-not-exist")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestAcceptConfirmFlow(t *testing.T) {
	srv := newTestServer(t, "w1", "w2")
	gigID := postGig(t, srv)

	resp := postJSON(t, srv.URL+"/gigs/"+gigID+"/accept", WorkerActionRequest{WorkerID: "w1"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("accept status = %d, want 200", resp.StatusCode)
	}
	var accept AcceptResponse
	if err := json.NewDecoder(resp.Body).Decode(&accept); err != nil {
		t.Fatalf("decode accept response: %v", err)
	}
	if accept.Result != string(dispatch.ResultWon) {
		t.Fatalf("accept result = %q, want won", accept.Result)
	}

	// Second accept loses the race but is a valid request.
	resp2 := postJSON(t, srv.URL+"/gigs/"+gigID+"/accept", WorkerActionRequest{WorkerID: "w2"})
	defer resp2.Body.Close()
	var loser AcceptResponse
	if err := json.NewDecoder(resp2.Body).Decode(&loser); err != nil {
		t.Fatalf("decode losing accept: %v", err)
	}
	if loser.Result != string(dispatch.ResultLost) {
		t.Fatalf("losing accept result = %q, want lost", loser.Result)
	}

	resp3 := postJSON(t, srv.URL+"/gigs/"+gigID+"/confirm", WorkerActionRequest{WorkerID: "w1"})
	defer resp3.Body.Close()
	if resp3.StatusCode != http.StatusNoContent {
		t.Fatalf("confirm status = %d, want 204", resp3.StatusCode)
	}

	resp4 := postJSON(t, srv.URL+"/gigs/"+gigID+"/complete", struct{}{})
	defer resp4.Body.Close()
	if resp4.StatusCode != http.StatusNoContent {
		t.Fatalf("complete status = %d, want 204", resp4.StatusCode)
	}
}

func TestConfirmByNonHolderIsGone(t *testing.T) {
	srv := newTestServer(t, "w1", "w2")
	gigID := postGig(t, srv)

	resp := postJSON(t, srv.URL+"/gigs/"+gigID+"/accept", WorkerActionRequest{WorkerID: "w1"})
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/gigs/"+gigID+"/confirm", WorkerActionRequest{WorkerID: "w2"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusGone {
		t.Fatalf("confirm by non-holder status = %d, want 410", resp.StatusCode)
	}
}

func TestCancelAndConflict(t *testing.T) {
	srv := newTestServer(t, "w1")
	gigID := postGig(t, srv)

	resp := postJSON(t, srv.URL+"/gigs/"+gigID+"/cancel", CancelRequest{Reason: "changed mind"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("cancel status = %d, want 204", resp.StatusCode)
	}

	resp2 := postJSON(t, srv.URL+"/gigs/"+gigID+"/cancel", CancelRequest{})
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusConflict {
		t.Fatalf("second cancel status = %d, want 409", resp2.StatusCode)
	}
}

func TestEventsStreamEndsAtTerminal(t *testing.T) {
	srv := newTestServer(t, "w1")
	gigID := postGig(t, srv)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/gigs/"+gigID+"/events", nil)
	if err != nil {
		t.Fatalf("build events request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET events: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q, want text/event-stream", ct)
	}

	cancelResp := postJSON(t, srv.URL+"/gigs/"+gigID+"/cancel", CancelRequest{Reason: "done"})
	cancelResp.Body.Close()

	// The terminal transition closes the stream, so reading to EOF
	// terminates; the body holds the cancellation event.
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read event stream: %v", err)
	}
	if !bytes.Contains(body, []byte(`"to":"cancelled"`)) {
		t.Fatalf("event stream %q did not carry the cancellation transition", body)
	}
}

// A follower holds no gig state and must not mutate any; every /gigs/
// request is refused until this node wins a campaign.
func TestFollowerRefusesGigRequests(t *testing.T) {
	srv := newTestServerWithGate(t, staticGate(false), "w1")

	resp := postJSON(t, srv.URL+"/gigs/", PostGigRequest{
		Category:    "plumbing",
		Description: "leaking kitchen sink",
		Urgency:     "asap",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("post on follower status = %d, want 503", resp.StatusCode)
	}

	getResp, err := http.Get(srv.URL + "/gigs/some-id")
	if err != nil {
		t.Fatalf("GET on follower: %v", err)
	}
	defer getResp.Body.Close()
	if getResp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status read on follower = %d, want 503", getResp.StatusCode)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)
	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/gigs/some-id", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
}
