// internal/api/http/gig_handler.go
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gig-dispatch/internal/dispatch"
	"gig-dispatch/internal/domain"
	"gig-dispatch/internal/metrics"
)

// leaderGate answers whether this node currently leads the dispatcher
// group. Satisfied by domain.LeaderElectionManager.
type leaderGate interface {
	IsLeader() bool
}

// GigHandler serves the client- and worker-facing dispatch API. Requests are
// only served while this node holds leadership: the leader owns the
// authoritative in-memory gig state and its timers, so a follower answering
// would either miss the gig or, worse, run a second set of timers for it.
type GigHandler struct {
	engine   *dispatch.Engine
	leader   leaderGate
	logger   *slog.Logger
	validate *validator.Validate
	tracer   trace.Tracer
}

// NewGigHandler creates a new GigHandler and initializes the validator.
func NewGigHandler(engine *dispatch.Engine, leader leaderGate, logger *slog.Logger) *GigHandler {
	return &GigHandler{
		engine:   engine,
		leader:   leader,
		logger:   logger.With("component", "gig-handler"),
		validate: validator.New(),
		tracer:   otel.Tracer("gig-dispatch-api"),
	}
}

// A helper struct to capture the status code
type instrumentedResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *instrumentedResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// Flush forwards to the underlying writer so event streaming keeps working
// through the instrumentation wrapper.
func (w *instrumentedResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// RegisterRoutes registers gig-related routes to the http.ServeMux.
func (h *GigHandler) RegisterRoutes(mux *http.ServeMux) {
	baseHandler := http.HandlerFunc(h.handleGigs)

	instrumentedHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := "/gigs/"
		if gigID := strings.TrimPrefix(r.URL.Path, "/gigs/"); gigID != "" {
			path = "/gigs/{id}"
		}

		ctx, span := h.tracer.Start(r.Context(), "HTTP "+r.Method+" "+path, trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.target", r.URL.Path),
		))
		defer span.End()

		r = r.WithContext(ctx)

		iw := &instrumentedResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		baseHandler.ServeHTTP(iw, r)

		metrics.HttpRequestsTotal.WithLabelValues(path, r.Method, strconv.Itoa(iw.statusCode)).Inc()

		span.SetAttributes(attribute.Int("http.status_code", iw.statusCode))
		if iw.statusCode >= 500 {
			span.SetStatus(codes.Error, "Server Error")
		}
	})

	mux.Handle("/gigs/", instrumentedHandler)
}

// handleGigs is a general dispatcher for the /gigs/ path.
func (h *GigHandler) handleGigs(w http.ResponseWriter, r *http.Request) {
	if !h.leader.IsLeader() {
		// Followers hold no gig state. Clients retry against the
		// current leader (a load balancer health-checking this answer
		// drains followers automatically).
		http.Error(w, "this node is not the dispatch leader", http.StatusServiceUnavailable)
		return
	}

	// e.g. /gigs/<id>/accept -> ["gigs", "<id>", "accept"]
	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	if len(pathParts) < 1 || pathParts[0] != "gigs" {
		http.NotFound(w, r)
		return
	}

	var gigID, action string
	if len(pathParts) > 1 {
		gigID = pathParts[1]
	}
	if len(pathParts) > 2 {
		action = pathParts[2]
	}

	switch r.Method {
	case http.MethodGet:
		switch {
		case gigID != "" && action == "events":
			h.handleEvents(w, r, gigID)
		case gigID != "" && action == "":
			h.handleStatus(w, r, gigID)
		default:
			http.NotFound(w, r)
		}
	case http.MethodPost:
		switch {
		case gigID == "" && action == "":
			h.handlePostGig(w, r)
		case action == "accept":
			h.handleAccept(w, r, gigID)
		case action == "decline":
			h.handleDecline(w, r, gigID)
		case action == "confirm":
			h.handleConfirm(w, r, gigID)
		case action == "complete":
			h.handleComplete(w, r, gigID)
		case action == "cancel":
			h.handleCancel(w, r, gigID)
		default:
			http.NotFound(w, r)
		}
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *GigHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, span trace.Span, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		span.SetStatus(codes.Error, "Failed to decode request body")
		span.RecordError(err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}

	if err := h.validate.Struct(req); err != nil {
		span.SetStatus(codes.Error, "Validation failed")
		span.RecordError(err)
		var validationErrors []string
		var errs validator.ValidationErrors
		if errors.As(err, &errs) {
			for _, fe := range errs {
				validationErrors = append(validationErrors,
					"Field '"+fe.Field()+"' failed on the '"+fe.Tag()+"' tag.",
				)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":   "Validation failed",
			"details": validationErrors,
		})
		return false
	}
	return true
}

// writeEngineError maps the dispatch error taxonomy onto HTTP statuses.
func (h *GigHandler) writeEngineError(w http.ResponseWriter, span trace.Span, err error) {
	span.RecordError(err)
	switch {
	case errors.Is(err, domain.ErrGigNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidGig):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrAlreadyTerminal):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrReservationExpired):
		http.Error(w, err.Error(), http.StatusGone)
	default:
		span.SetStatus(codes.Error, "Internal server error")
		h.logger.Error("unexpected engine error", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *GigHandler) handlePostGig(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "handler.PostGig")
	defer span.End()

	var req PostGigRequest
	if !h.decodeAndValidate(w, r, span, &req) {
		return
	}

	gigID, err := h.engine.Post(ctx, req.ToDomainGig())
	if err != nil {
		h.writeEngineError(w, span, err)
		return
	}
	span.SetAttributes(attribute.String("gig.id", gigID))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(PostGigResponse{GigID: gigID})
}

func (h *GigHandler) handleStatus(w http.ResponseWriter, r *http.Request, gigID string) {
	_, span := h.tracer.Start(r.Context(), "handler.Status")
	defer span.End()
	span.SetAttributes(attribute.String("gig.id", gigID))

	view, err := h.engine.Status(gigID)
	if err != nil {
		h.writeEngineError(w, span, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

// handleEvents streams status transitions for one gig as server-sent
// events. The stream ends when the gig reaches a terminal state; clients
// that miss events fall back to polling the status endpoint.
func (h *GigHandler) handleEvents(w http.ResponseWriter, r *http.Request, gigID string) {
	_, span := h.tracer.Start(r.Context(), "handler.Events")
	defer span.End()
	span.SetAttributes(attribute.String("gig.id", gigID))

	events, cancel, err := h.engine.Subscribe(gigID)
	if err != nil {
		h.writeEngineError(w, span, err)
		return
	}
	defer cancel()

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-events:
			if !open {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				h.logger.Error("failed to marshal status event", "gig_id", gigID, "error", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

func (h *GigHandler) handleAccept(w http.ResponseWriter, r *http.Request, gigID string) {
	ctx, span := h.tracer.Start(r.Context(), "handler.Accept")
	defer span.End()
	span.SetAttributes(attribute.String("gig.id", gigID))

	var req WorkerActionRequest
	if !h.decodeAndValidate(w, r, span, &req) {
		return
	}

	result, err := h.engine.Accept(ctx, gigID, req.WorkerID)
	if err != nil {
		h.writeEngineError(w, span, err)
		return
	}
	span.SetAttributes(attribute.String("accept.result", string(result)))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AcceptResponse{Result: string(result)})
}

func (h *GigHandler) handleDecline(w http.ResponseWriter, r *http.Request, gigID string) {
	ctx, span := h.tracer.Start(r.Context(), "handler.Decline")
	defer span.End()
	span.SetAttributes(attribute.String("gig.id", gigID))

	var req WorkerActionRequest
	if !h.decodeAndValidate(w, r, span, &req) {
		return
	}

	if err := h.engine.Decline(ctx, gigID, req.WorkerID); err != nil {
		h.writeEngineError(w, span, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *GigHandler) handleConfirm(w http.ResponseWriter, r *http.Request, gigID string) {
	ctx, span := h.tracer.Start(r.Context(), "handler.Confirm")
	defer span.End()
	span.SetAttributes(attribute.String("gig.id", gigID))

	var req WorkerActionRequest
	if !h.decodeAndValidate(w, r, span, &req) {
		return
	}

	if err := h.engine.Confirm(ctx, gigID, req.WorkerID); err != nil {
		h.writeEngineError(w, span, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *GigHandler) handleComplete(w http.ResponseWriter, r *http.Request, gigID string) {
	ctx, span := h.tracer.Start(r.Context(), "handler.Complete")
	defer span.End()
	span.SetAttributes(attribute.String("gig.id", gigID))

	if err := h.engine.Complete(ctx, gigID); err != nil {
		h.writeEngineError(w, span, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *GigHandler) handleCancel(w http.ResponseWriter, r *http.Request, gigID string) {
	ctx, span := h.tracer.Start(r.Context(), "handler.Cancel")
	defer span.End()
	span.SetAttributes(attribute.String("gig.id", gigID))

	var req CancelRequest
	if !h.decodeAndValidate(w, r, span, &req) {
		return
	}

	if err := h.engine.Cancel(ctx, gigID, req.Reason); err != nil {
		h.writeEngineError(w, span, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
