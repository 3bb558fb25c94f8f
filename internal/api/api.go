// Package api exposes the intent engine and the SOS dispatcher over HTTP.
//
//	POST /api/process    transcript + contacts → classified intent
//	POST /api/emergency  optional coordinates → SOS alert
//
// Request bodies are JSON and capped at [MaxBodyBytes]. Client mistakes are
// answered with 400 and a {"error": "..."} body; panics are recovered by
// [Recover] and answered with a generic 500.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/awaazpay/awaaz/internal/alert"
	"github.com/awaazpay/awaaz/internal/contact"
	"github.com/awaazpay/awaaz/internal/intent"
)

// MaxBodyBytes is the largest request body accepted by any endpoint.
const MaxBodyBytes = 64 << 10

// ErrMalformedRequest marks request bodies that cannot be decoded or fail
// validation. Handlers answer it with 400.
var ErrMalformedRequest = errors.New("api: malformed request")

// Classifier is the subset of *intent.Engine used by the process endpoint.
type Classifier interface {
	Classify(ctx context.Context, text string, contacts []contact.Contact) intent.Result
}

// Dispatcher is the subset of *alert.Dispatcher used by the emergency
// endpoint.
type Dispatcher interface {
	Dispatch(ctx context.Context, a alert.Alert) (alert.Receipt, error)
}

// Option is a functional option for configuring a [Handler].
type Option func(*Handler)

// WithAlertPhone sets the number placed in the SMS and tel links returned by
// the emergency endpoint. Default: [DefaultAlertPhone].
func WithAlertPhone(number string) Option {
	return func(h *Handler) {
		if number != "" {
			h.alertPhone = number
		}
	}
}

// withClock replaces time.Now. Used by tests.
func withClock(now func() time.Time) Option {
	return func(h *Handler) {
		h.now = now
	}
}

// DefaultAlertPhone is the national emergency number.
const DefaultAlertPhone = "112"

// Handler serves the public API. It holds no per-request state and is safe
// for concurrent use.
type Handler struct {
	classifier Classifier
	dispatcher Dispatcher
	alertPhone string
	now        func() time.Time
}

// New creates a [Handler]. A nil dispatcher disables the emergency endpoint
// (it answers 500 "Failed to send alert").
func New(c Classifier, d Dispatcher, opts ...Option) *Handler {
	h := &Handler{
		classifier: c,
		dispatcher: d,
		alertPhone: DefaultAlertPhone,
		now:        time.Now,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/process", h.Process)
	mux.HandleFunc("POST /api/emergency", h.Emergency)
}

type errorResponse struct {
	Error string `json:"error"`
}

// decodeJSON reads one JSON value from the capped request body into v.
// Trailing data after the value is rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: unexpected data after JSON body", ErrMalformedRequest)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
