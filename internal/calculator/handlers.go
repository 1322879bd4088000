package calculator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"keypad-calculator/internal/handlers"
	"keypad-calculator/internal/keypad"
	"keypad-calculator/internal/observability"
)

// tracer is the calculator's dedicated OpenTelemetry tracer.
var tracer = otel.Tracer("keypad")

const maxBodyBytes = 64 << 10

// Handler serves the calculator endpoints over a session Store.
type Handler struct {
	store         *Store
	newCalculator func() *keypad.Calculator
}

func NewHandler(store *Store, newCalculator func() *keypad.Calculator) *Handler {
	return &Handler{
		store:         store,
		newCalculator: newCalculator,
	}
}

// ---------------------------------------------------------------------------
// Handlers — session lifecycle
// ---------------------------------------------------------------------------

// CreateSession handles POST /calculator/sessions
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	requestID := observability.RequestIDFromContext(ctx)

	ctx, span := tracer.Start(ctx, "keypad.session.create",
		trace.WithAttributes(attribute.String("request.id", requestID)),
	)
	defer span.End()

	sess := h.store.Create(ctx)

	var view View
	sess.Use(h.store.now(), func(c *keypad.Calculator) {
		view = newView(sess.ID().String(), c)
	})

	span.SetAttributes(attribute.String("keypad.session.id", view.SessionID))
	span.SetStatus(codes.Ok, "")

	logger.Info("calculator session created",
		zap.String("session_id", view.SessionID),
		zap.String("request_id", requestID),
	)

	handlers.WriteJSON(w, http.StatusCreated, view)
}

// GetSession handles GET /calculator/sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)

	ctx, span := tracer.Start(ctx, "keypad.session.get")
	defer span.End()

	sess, ok := h.lookup(ctx, span, logger, "get", w, r)
	if !ok {
		return
	}

	var view View
	sess.Use(h.store.now(), func(c *keypad.Calculator) {
		view = newView(sess.ID().String(), c)
	})

	span.SetStatus(codes.Ok, "")
	handlers.WriteJSON(w, http.StatusOK, view)
}

// DeleteSession handles DELETE /calculator/sessions/{id}
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)

	ctx, span := tracer.Start(ctx, "keypad.session.delete")
	defer span.End()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err == nil {
		err = h.store.Delete(ctx, id)
	}
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, observability.Failure{
			Op: "delete", Message: ErrSessionNotFound.Error(), Err: err, Status: http.StatusNotFound,
		}, w)
		return
	}

	logger.Info("calculator session deleted",
		zap.String("session_id", id.String()),
		zap.String("request_id", observability.RequestIDFromContext(ctx)),
	)

	span.SetStatus(codes.Ok, "")
	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Handlers — key input
// ---------------------------------------------------------------------------

// PressKeys handles POST /calculator/sessions/{id}/keys. Keys are applied in
// order; on a rejected key the ones before it stay applied.
func (h *Handler) PressKeys(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)

	ctx, span := tracer.Start(ctx, "keypad.session.keys")
	defer span.End()

	sess, ok := h.lookup(ctx, span, logger, "keys", w, r)
	if !ok {
		return
	}

	req, ok := decodeKeys(ctx, span, logger, "keys", w, r)
	if !ok {
		return
	}

	span.SetAttributes(attribute.String("keypad.session.id", sess.ID().String()))

	var out keysOutcome
	sess.Use(h.store.now(), func(c *keypad.Calculator) {
		out = applyKeys(ctx, span, "keys", sess.ID().String(), c, req.Keys)
	})

	respondKeys(ctx, span, logger, "keys", req.Keys, out, w)
}

// Evaluate handles POST /calculator/evaluate — runs the keys on a fresh
// calculator and returns the final display. Nothing is stored.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)

	ctx, span := tracer.Start(ctx, "keypad.evaluate")
	defer span.End()

	req, ok := decodeKeys(ctx, span, logger, "evaluate", w, r)
	if !ok {
		return
	}

	out := applyKeys(ctx, span, "evaluate", "", h.newCalculator(), req.Keys)
	respondKeys(ctx, span, logger, "evaluate", req.Keys, out, w)
}

func (h *Handler) lookup(ctx context.Context, span trace.Span, logger *zap.Logger, op string, w http.ResponseWriter, r *http.Request) (*Session, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err == nil {
		var sess *Session
		if sess, err = h.store.Get(id); err == nil {
			return sess, true
		}
	}

	observability.RecordError(ctx, span, logger, errorCounter, observability.Failure{
		Op: op, Message: ErrSessionNotFound.Error(), Err: err, Status: http.StatusNotFound,
	}, w)
	return nil, false
}

func decodeKeys(ctx context.Context, span trace.Span, logger *zap.Logger, op string, w http.ResponseWriter, r *http.Request) (KeysRequest, bool) {
	var req KeysRequest

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, observability.Failure{
			Op: op, Message: "invalid request body", Err: err, Status: http.StatusBadRequest,
		}, w)
		return req, false
	}

	if len(req.Keys) == 0 || len(req.Keys) > maxKeysPerRequest {
		observability.RecordError(ctx, span, logger, errorCounter, observability.Failure{
			Op:      op,
			Message: fmt.Sprintf("between 1 and %d keys required", maxKeysPerRequest),
			Err:     fmt.Errorf("got %d keys", len(req.Keys)),
			Status:  http.StatusBadRequest,
		}, w)
		return req, false
	}

	span.SetAttributes(attribute.Int("keypad.keys_count", len(req.Keys)))
	return req, true
}

// keysOutcome is what applyKeys produced: a view on success or the failure
// for the first rejected key.
type keysOutcome struct {
	view    View
	failure *observability.Failure
}

// applyKeys presses keys on c. It only touches the calculator and the span so
// callers can run it under the session lock and respond after releasing it.
func applyKeys(ctx context.Context, span trace.Span, op, sessionID string, c *keypad.Calculator, keys []string) keysOutcome {
	applied, err := pressKeys(ctx, c, keys)
	if err != nil {
		failure := observability.Failure{Op: op, Err: err, Status: http.StatusBadRequest, Message: err.Error()}
		if errors.Is(err, keypad.ErrDigitLimitExceeded) {
			span.AddEvent("keypad.digit_limit", trace.WithAttributes(
				attribute.Int("keypad.max_digits", c.MaxDigits()),
			))
			failure.Status = http.StatusUnprocessableEntity
			failure.Message = fmt.Sprintf("maximum of %d digits reached", c.MaxDigits())
		}
		span.SetAttributes(attribute.Int("keypad.keys_applied", applied))
		return keysOutcome{failure: &failure}
	}

	view := newView(sessionID, c)

	if v, err := c.Format().Parse(view.Display); err == nil {
		resultGauge.Record(ctx, v, metric.WithAttributes(attribute.String("operation", op)))
	}

	return keysOutcome{view: view}
}

// respondKeys writes the outcome of applyKeys.
func respondKeys(ctx context.Context, span trace.Span, logger *zap.Logger, op string, keys []string, out keysOutcome, w http.ResponseWriter) {
	if out.failure != nil {
		observability.RecordError(ctx, span, logger, errorCounter, *out.failure, w)
		return
	}

	span.SetAttributes(
		attribute.String("keypad.display", out.view.Display),
		attribute.Bool("keypad.compact", out.view.Compact),
	)
	span.SetStatus(codes.Ok, "")

	logger.Info("calculator keys applied",
		zap.String("operation", op),
		zap.String("session_id", out.view.SessionID),
		zap.Strings("keys", keys),
		zap.String("display", out.view.Display),
		zap.String("request_id", observability.RequestIDFromContext(ctx)),
	)

	handlers.WriteJSON(w, http.StatusOK, out.view)
}

// pressKeys applies keys one by one with a child span per key and returns how
// many were applied before the first error.
func pressKeys(ctx context.Context, c *keypad.Calculator, keys []string) (int, error) {
	for i, key := range keys {
		_, keySpan := tracer.Start(ctx, "keypad.key",
			trace.WithAttributes(
				attribute.Int("keypad.key.index", i),
				attribute.String("keypad.key", key),
				attribute.String("keypad.display.before", c.Display().Text),
			),
		)

		start := time.Now()
		err := c.Press(key)
		elapsed := float64(time.Since(start).Nanoseconds()) / 1e6

		attrs := metric.WithAttributes(attribute.String("kind", keyKind(key)))

		if err != nil {
			keySpan.RecordError(err)
			keySpan.SetStatus(codes.Error, err.Error())
			keySpan.End()
			return i, fmt.Errorf("key %d (%q): %w", i, key, err)
		}

		keysCounter.Add(ctx, 1, attrs)
		keyHistogram.Record(ctx, elapsed, attrs)

		keySpan.SetAttributes(attribute.String("keypad.display.after", c.Display().Text))
		keySpan.SetStatus(codes.Ok, "")
		keySpan.End()
	}

	return len(keys), nil
}

// keyKind buckets keys for metric attributes so cardinality stays bounded.
func keyKind(key string) string {
	if _, ok := keypad.ParseOperator(key); ok {
		return "operator"
	}

	switch key {
	case keypad.KeyEquals:
		return "equals"
	case ",", ".":
		return "separator"
	case keypad.KeyClear, "C", keypad.KeyToggleSign, "±", keypad.KeyPercent:
		return "function"
	}

	if len(key) == 1 && key[0] >= '0' && key[0] <= '9' {
		return "numeral"
	}
	return "other"
}
