package alert

import (
	"context"
	"errors"
	"fmt"

	"github.com/awaazpay/awaaz/internal/observe"
)

// ErrAllFailed is returned when every notifier failed or had an open
// breaker.
var ErrAllFailed = errors.New("alert: all notifiers failed")

// Receipt describes a delivered alert.
type Receipt struct {
	// Notifier is the name of the channel that accepted the alert.
	Notifier string

	// Message is the SOS text that was sent.
	Message string
}

// DispatcherOption configures a [Dispatcher].
type DispatcherOption func(*Dispatcher)

// WithMetrics sets the metrics sink. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) DispatcherOption {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithBreakerConfig sets the breaker tuning applied to every notifier.
func WithBreakerConfig(cfg BreakerConfig) DispatcherOption {
	return func(d *Dispatcher) {
		d.breakerCfg = cfg
	}
}

type entry struct {
	notifier Notifier
	breaker  *Breaker
}

// Dispatcher tries notifiers in registration order until one delivers. It is
// safe for concurrent use.
type Dispatcher struct {
	entries    []entry
	breakerCfg BreakerConfig
	metrics    *observe.Metrics
}

// NewDispatcher returns a [Dispatcher] over notifiers. Nil notifiers are
// skipped.
func NewDispatcher(notifiers []Notifier, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{}
	for _, o := range opts {
		o(d)
	}
	if d.metrics == nil {
		d.metrics = observe.DefaultMetrics()
	}
	for _, n := range notifiers {
		if n == nil {
			continue
		}
		d.entries = append(d.entries, entry{notifier: n, breaker: NewBreaker(n.Name(), d.breakerCfg)})
	}
	return d
}

// Notifiers returns the registered notifier names in order.
func (d *Dispatcher) Notifiers() []string {
	names := make([]string, len(d.entries))
	for i, e := range d.entries {
		names[i] = e.notifier.Name()
	}
	return names
}

// Dispatch renders a and delivers it through the first notifier that
// succeeds. Notifiers with an open breaker are skipped. When every notifier
// fails the error wraps [ErrAllFailed] and the last failure.
func (d *Dispatcher) Dispatch(ctx context.Context, a Alert) (Receipt, error) {
	ctx, span := observe.StartSpan(ctx, "alert.Dispatch")
	defer span.End()

	msg := a.Message()
	log := observe.Logger(ctx)

	lastErr := errors.New("no notifiers configured")
	for _, e := range d.entries {
		name := e.notifier.Name()
		err := e.breaker.Execute(func() error {
			return e.notifier.Notify(ctx, a, msg)
		})
		if err == nil {
			d.metrics.RecordAlert(ctx, name, "ok")
			log.Info("alert delivered", "notifier", name)
			return Receipt{Notifier: name, Message: msg}, nil
		}
		lastErr = err
		if errors.Is(err, ErrCircuitOpen) {
			d.metrics.RecordAlert(ctx, name, "skipped")
			log.Debug("skipping notifier (circuit open)", "notifier", name)
			continue
		}
		d.metrics.RecordAlert(ctx, name, "error")
		log.Warn("notifier failed, trying next", "notifier", name, "err", err)
	}
	observe.FailSpan(span, lastErr)
	return Receipt{Message: msg}, fmt.Errorf("%w: %w", ErrAllFailed, lastErr)
}
