// Package health serves the liveness and readiness probes.
//
// /healthz answers 200 while the process is up. /readyz answers 200 only when
// the server is not draining and every [Checker] passes; checks run
// concurrently, each under its own deadline. Bodies are JSON:
//
//	{"status":"ok|fail|draining","checks":{"directory":"ok","directory_db":"fail: ..."}}
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultCheckTimeout bounds a single readiness check.
const DefaultCheckTimeout = 2 * time.Second

// Status values reported in the response body.
const (
	StatusOK       = "ok"
	StatusFail     = "fail"
	StatusDraining = "draining"
)

// Checker is a named readiness check. Check returns nil when healthy and must
// honour ctx.
type Checker struct {
	Name  string
	Check func(ctx context.Context) error
}

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingChecker reports whether p answers a ping.
func PingChecker(name string, p Pinger) Checker {
	return Checker{Name: name, Check: p.Ping}
}

// MinCountChecker fails while count() is below minimum. The app uses it so a
// replica with an empty emergency directory is never marked ready.
func MinCountChecker(name string, minimum int, count func() int) Checker {
	return Checker{Name: name, Check: func(context.Context) error {
		if n := count(); n < minimum {
			return fmt.Errorf("%d entries, want at least %d", n, minimum)
		}
		return nil
	}}
}

// Report is the JSON body of both probes.
type Report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Option configures a [Handler].
type Option func(*Handler)

// WithCheckTimeout overrides [DefaultCheckTimeout]. Non-positive values are
// ignored.
func WithCheckTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// Handler serves the probes. The checker list is fixed at construction.
type Handler struct {
	checkers []Checker
	timeout  time.Duration
	draining atomic.Bool
}

// New returns a Handler that runs checkers on every /readyz request.
func New(checkers []Checker, opts ...Option) *Handler {
	h := &Handler{
		checkers: append([]Checker(nil), checkers...),
		timeout:  DefaultCheckTimeout,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// SetDraining flips readiness to 503 without running checks, so load
// balancers stop routing before the listener closes.
func (h *Handler) SetDraining(v bool) {
	h.draining.Store(v)
}

// Ready runs every checker concurrently and collects the results.
func (h *Handler) Ready(ctx context.Context) Report {
	if h.draining.Load() {
		return Report{Status: StatusDraining}
	}

	var (
		mu     sync.Mutex
		checks = make(map[string]string, len(h.checkers))
		status = StatusOK
	)
	var g errgroup.Group
	for _, c := range h.checkers {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, h.timeout)
			defer cancel()
			err := c.Check(cctx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				checks[c.Name] = "fail: " + err.Error()
				status = StatusFail
			} else {
				checks[c.Name] = StatusOK
			}
			return nil
		})
	}
	_ = g.Wait()
	return Report{Status: status, Checks: checks}
}

// Healthz is the liveness probe.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Report{Status: StatusOK})
}

// Readyz is the readiness probe.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	rep := h.Ready(r.Context())
	code := http.StatusOK
	if rep.Status != StatusOK {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, rep)
}

// Register mounts both probes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
