// Package app wires all awaaz subsystems into a running HTTP server.
//
// The App struct owns the full lifecycle: New builds the directory, the
// intent engine and the alert chain from the config, Run serves HTTP until
// the context is cancelled, and Shutdown drains and tears everything down in
// order.
//
// For testing, inject fakes via functional options (WithDirectoryStore,
// WithNotifiers, WithMetrics). When an option is not provided, New creates
// real implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/awaazpay/awaaz/internal/alert"
	"github.com/awaazpay/awaaz/internal/api"
	"github.com/awaazpay/awaaz/internal/config"
	"github.com/awaazpay/awaaz/internal/contact"
	"github.com/awaazpay/awaaz/internal/contact/contactstore"
	"github.com/awaazpay/awaaz/internal/contact/phonetic"
	"github.com/awaazpay/awaaz/internal/deeplink"
	"github.com/awaazpay/awaaz/internal/health"
	"github.com/awaazpay/awaaz/internal/intent"
	"github.com/awaazpay/awaaz/internal/observe"
	"github.com/awaazpay/awaaz/internal/safety"
)

// DirectoryStore supplies extra fallback directory entries at startup.
// *contactstore.PostgresStore satisfies it.
type DirectoryStore interface {
	Migrate(ctx context.Context) error
	Contacts(ctx context.Context) ([]contact.Contact, error)
}

var _ DirectoryStore = (*contactstore.PostgresStore)(nil)

// App owns all subsystem lifetimes and serves the awaaz HTTP API.
type App struct {
	cfg *config.Config

	// Subsystems, initialised in New and torn down in Shutdown.
	store      DirectoryStore
	notifiers  []alert.Notifier
	metrics    *observe.Metrics
	checkers   []health.Checker
	resolver   *contact.Resolver
	engine     *intent.Engine
	dispatcher *alert.Dispatcher
	health     *health.Handler
	handler    http.Handler
	server     *http.Server

	mu       sync.Mutex
	listener net.Listener

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithDirectoryStore injects a directory store instead of connecting to
// directory.postgres_dsn.
func WithDirectoryStore(s DirectoryStore) Option {
	return func(a *App) { a.store = s }
}

// WithNotifiers replaces the alert chain built from the config.
func WithNotifiers(ns ...alert.Notifier) Option {
	return func(a *App) { a.notifiers = ns }
}

// WithMetrics injects the metrics sink. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithHealthChecker adds a readiness check.
func WithHealthChecker(c health.Checker) Option {
	return func(a *App) { a.checkers = append(a.checkers, c) }
}

// New creates an App by wiring all subsystems together. New performs all
// initialisation synchronously: directory assembly (including the optional
// Postgres load), engine construction, alert chain and HTTP routing.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	// 1. Directory
	directory, err := a.initDirectory(ctx)
	if err != nil {
		a.runClosers()
		return nil, fmt.Errorf("app: init directory: %w", err)
	}

	// 2. Intent engine
	a.initEngine(directory)

	// 3. Alert chain
	if err := a.initAlerts(); err != nil {
		a.runClosers()
		return nil, fmt.Errorf("app: init alerts: %w", err)
	}

	// 4. HTTP
	a.initHTTP()

	slog.Info("app initialised",
		"directory_size", a.resolver.DirectorySize(),
		"phonetic", cfg.Matching.Phonetic.Enabled,
		"notifiers", a.dispatcher.Notifiers(),
	)
	return a, nil
}

// initDirectory assembles the fallback directory: built-in emergency
// numbers, then config entries, then the directory store.
func (a *App) initDirectory(ctx context.Context) ([]contact.Contact, error) {
	var directory []contact.Contact
	if a.cfg.Directory.IncludeBuiltin {
		directory = append(directory, contact.BuiltinDirectory()...)
	}
	for _, e := range a.cfg.Directory.Entries {
		directory = append(directory, contact.Contact{Name: e.Name, Phone: e.Phone, UPIID: e.UPIID})
	}

	if a.store == nil && a.cfg.Directory.PostgresDSN != "" {
		pool, err := pgxpool.New(ctx, a.cfg.Directory.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect directory db: %w", err)
		}
		a.closers = append(a.closers, func() error {
			pool.Close()
			return nil
		})
		a.store = contactstore.NewPostgresStore(pool)
		a.checkers = append(a.checkers, health.PingChecker("directory_db", pool))
	}
	if a.store == nil {
		return directory, nil
	}

	if err := a.store.Migrate(ctx); err != nil {
		return nil, err
	}
	stored, err := a.store.Contacts(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("directory entries loaded from store", "count", len(stored))
	return append(directory, stored...), nil
}

func (a *App) initEngine(directory []contact.Contact) {
	var resolverOpts []contact.Option
	if p := a.cfg.Matching.Phonetic; p.Enabled {
		var popts []phonetic.Option
		if p.Threshold > 0 {
			popts = append(popts, phonetic.WithPhoneticThreshold(p.Threshold))
		}
		if p.FuzzyThreshold > 0 {
			popts = append(popts, phonetic.WithFuzzyThreshold(p.FuzzyThreshold))
		}
		resolverOpts = append(resolverOpts, contact.WithPhoneticMatcher(phonetic.New(popts...)))
	}
	a.resolver = contact.NewResolver(directory, resolverOpts...)

	linkOpts := []deeplink.Option{
		deeplink.WithUPIBase(a.cfg.Links.UPIBase),
	}
	if a.cfg.Links.Apps != nil {
		apps := make([]deeplink.App, len(a.cfg.Links.Apps))
		for i, ac := range a.cfg.Links.Apps {
			apps[i] = deeplink.App{Name: ac.Name, Base: ac.Base}
		}
		linkOpts = append(linkOpts, deeplink.WithApps(apps))
	}
	if a.cfg.Links.ContactsSearch != "" {
		linkOpts = append(linkOpts, deeplink.WithContactsSearch(a.cfg.Links.ContactsSearch))
	}

	a.engine = intent.NewEngine(
		intent.WithSafetyFilter(safety.New(a.cfg.Intent.ScamKeywords)),
		intent.WithResolver(a.resolver),
		intent.WithLinkBuilder(deeplink.NewBuilder(linkOpts...)),
		intent.WithCallKeywords(a.cfg.Intent.CallKeywords),
		intent.WithStopWords(a.cfg.Intent.StopWords),
		intent.WithMetrics(a.metrics),
	)
}

// initAlerts builds the notifier chain: Discord when configured, then the
// log notifier.
func (a *App) initAlerts() error {
	if a.notifiers == nil {
		if d := a.cfg.Alert.Discord; d.WebhookURL != "" {
			var dopts []alert.DiscordOption
			if d.Username != "" {
				dopts = append(dopts, alert.WithUsername(d.Username))
			}
			n, err := alert.NewDiscordNotifier(d.WebhookURL, dopts...)
			if err != nil {
				return err
			}
			a.notifiers = append(a.notifiers, n)
		}
		a.notifiers = append(a.notifiers, alert.NewLogNotifier(nil))
	}
	a.dispatcher = alert.NewDispatcher(a.notifiers,
		alert.WithMetrics(a.metrics),
		alert.WithBreakerConfig(alert.BreakerConfig{
			MaxFailures:  a.cfg.Alert.Breaker.MaxFailures,
			ResetTimeout: a.cfg.Alert.Breaker.ResetTimeout,
		}),
	)
	return nil
}

func (a *App) initHTTP() {
	minDirectory := 0
	if a.cfg.Directory.IncludeBuiltin || len(a.cfg.Directory.Entries) > 0 {
		minDirectory = 1
	}
	checkers := append([]health.Checker{
		health.MinCountChecker("directory", minDirectory, a.resolver.DirectorySize),
	}, a.checkers...)
	a.health = health.New(checkers)

	mux := http.NewServeMux()
	api.New(a.engine, a.dispatcher, api.WithAlertPhone(a.cfg.Alert.PhoneNumber)).Register(mux)
	a.health.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	a.handler = observe.Middleware(a.metrics)(api.Recover(mux))
	a.server = &http.Server{
		Addr:              a.cfg.Server.ListenAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: a.cfg.Server.ReadTimeout,
		ReadTimeout:       a.cfg.Server.ReadTimeout,
		WriteTimeout:      a.cfg.Server.WriteTimeout,
	}
}

// Handler returns the fully wrapped HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Engine returns the intent engine.
func (a *App) Engine() *intent.Engine {
	return a.engine
}

// Addr returns the bound listener address, or nil before Run has started
// listening.
func (a *App) Addr() net.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return nil
	}
	return a.listener.Addr()
}

// Run listens on server.listen_addr and serves until ctx is cancelled or
// the server fails. On cancellation it returns ctx.Err(); call Shutdown
// afterwards to drain in-flight requests.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("app: listen %q: %w", a.cfg.Server.ListenAddr, err)
	}
	a.mu.Lock()
	a.listener = ln
	a.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		var err error
		if tls := a.cfg.Server.TLS; tls != nil {
			err = a.server.ServeTLS(ln, tls.CertFile, tls.KeyFile)
		} else {
			err = a.server.Serve(ln)
		}
		errCh <- err
	}()

	slog.Info("app running", "addr", ln.Addr().String(), "tls", a.cfg.Server.TLS != nil)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("app: serve: %w", err)
	}
}

// Shutdown marks the server as draining, stops accepting connections, waits
// for in-flight requests and runs the closers. It respects the context
// deadline: if ctx expires first, remaining closers are skipped and the
// context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))
		a.health.SetDraining(true)

		if err := a.server.Shutdown(ctx); err != nil {
			slog.Warn("http shutdown error", "err", err)
			shutdownErr = err
		}

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}

// runClosers releases resources acquired by a failed New.
func (a *App) runClosers() {
	for _, c := range a.closers {
		_ = c()
	}
	a.closers = nil
}
