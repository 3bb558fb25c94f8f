package config

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"
)

// DefaultWatchInterval is how often a [Watcher] stats the config file.
const DefaultWatchInterval = 5 * time.Second

// Change describes one accepted reload.
type Change struct {
	Old, New *Config
	Diff     ConfigDiff
}

// Watcher polls a config file and reports content changes that pass
// validation. A rejected revision is logged once and the previous config
// stays current until the file changes again.
type Watcher struct {
	path     string
	interval time.Duration
	onChange func(Change)

	current atomic.Pointer[Config]

	// Owned by the Run goroutine after NewWatcher returns.
	seen     fingerprint
	accepted [sha256.Size]byte
}

// fingerprint identifies one revision of the file as last observed.
type fingerprint struct {
	mtime time.Time
	size  int64
}

// WatcherOption configures a [Watcher].
type WatcherOption func(*Watcher)

// WithInterval sets the polling interval. Non-positive values keep
// [DefaultWatchInterval].
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// NewWatcher loads path and returns a Watcher holding it as the current
// config. onChange, when non-nil, is called from [Watcher.Run] for every
// accepted change. Polling starts with Run.
func NewWatcher(path string, onChange func(Change), opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		path:     path,
		interval: DefaultWatchInterval,
		onChange: onChange,
	}
	for _, opt := range opts {
		opt(w)
	}

	fp, err := w.stat()
	if err != nil {
		return nil, fmt.Errorf("config: watch %s: %w", path, err)
	}
	cfg, sum, err := w.load()
	if err != nil {
		return nil, fmt.Errorf("config: watch %s: %w", path, err)
	}
	w.current.Store(cfg)
	w.seen = fp
	w.accepted = sum
	return w, nil
}

// Current returns the most recently accepted config. It is safe to call
// from any goroutine.
func (w *Watcher) Current() *Config {
	return w.current.Load()
}

// Run polls until ctx is cancelled and then returns nil, so that it can
// share an errgroup with the server without ever stopping it.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *Watcher) poll() {
	fp, err := w.stat()
	if err != nil {
		slog.Warn("config watcher: cannot stat file", "path", w.path, "err", err)
		return
	}
	if fp == w.seen {
		return
	}
	w.seen = fp

	cfg, sum, err := w.load()
	if err != nil {
		slog.Warn("config watcher: rejected edit, keeping previous config", "path", w.path, "err", err)
		return
	}
	if sum == w.accepted {
		return
	}
	w.accepted = sum

	old := w.current.Swap(cfg)
	ch := Change{Old: old, New: cfg, Diff: Diff(old, cfg)}
	slog.Info("config watcher: configuration reloaded",
		"path", w.path,
		"log_level_changed", ch.Diff.LogLevelChanged,
		"restart_required", ch.Diff.RestartRequired,
	)
	if w.onChange != nil {
		w.onChange(ch)
	}
}

func (w *Watcher) stat() (fingerprint, error) {
	info, err := os.Stat(w.path)
	if err != nil {
		return fingerprint{}, err
	}
	return fingerprint{mtime: info.ModTime(), size: info.Size()}, nil
}

func (w *Watcher) load() (*Config, [sha256.Size]byte, error) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return nil, [sha256.Size]byte{}, err
	}
	cfg, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, [sha256.Size]byte{}, err
	}
	return cfg, sha256.Sum256(data), nil
}
