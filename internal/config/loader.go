package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/awaazpay/awaaz/internal/alert"
)

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r on top of [Default] and
// validates the result. An empty document yields the defaults.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.ListenAddr == "" {
		errs = append(errs, errors.New("server.listen_addr is required"))
	}
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.ReadTimeout < 0 || cfg.Server.WriteTimeout < 0 || cfg.Server.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("server timeouts must not be negative"))
	}
	if tls := cfg.Server.TLS; tls != nil && (tls.CertFile == "" || tls.KeyFile == "") {
		errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
	}

	// Matching
	p := cfg.Matching.Phonetic
	if p.Threshold < 0 || p.Threshold > 1 {
		errs = append(errs, fmt.Errorf("matching.phonetic.threshold %.2f is out of range [0, 1]", p.Threshold))
	}
	if p.FuzzyThreshold < 0 || p.FuzzyThreshold > 1 {
		errs = append(errs, fmt.Errorf("matching.phonetic.fuzzy_threshold %.2f is out of range [0, 1]", p.FuzzyThreshold))
	}

	// Directory
	for i, e := range cfg.Directory.Entries {
		prefix := fmt.Sprintf("directory.entries[%d]", i)
		if strings.TrimSpace(e.Name) == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}
		if strings.TrimSpace(e.Phone) == "" {
			errs = append(errs, fmt.Errorf("%s.phone is required", prefix))
		}
	}
	if !cfg.Directory.IncludeBuiltin && len(cfg.Directory.Entries) == 0 && cfg.Directory.PostgresDSN == "" {
		slog.Warn("directory is empty; only caller contacts will be resolved")
	}

	// Links
	if cfg.Links.UPIBase != "" {
		if u, err := url.Parse(cfg.Links.UPIBase); err != nil || u.Scheme == "" {
			errs = append(errs, fmt.Errorf("links.upi_base %q must be an absolute URI", cfg.Links.UPIBase))
		}
	}
	for i, app := range cfg.Links.Apps {
		prefix := fmt.Sprintf("links.apps[%d]", i)
		if app.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}
		if app.Base == "" {
			errs = append(errs, fmt.Errorf("%s.base is required", prefix))
		}
	}
	if cs := cfg.Links.ContactsSearch; cs != "" && !strings.Contains(cs, "{query}") {
		errs = append(errs, errors.New(`links.contacts_search must contain the "{query}" placeholder`))
	}

	// Alert
	if wh := cfg.Alert.Discord.WebhookURL; wh != "" {
		if _, _, err := alert.ParseWebhookURL(wh); err != nil {
			errs = append(errs, fmt.Errorf("alert.discord.webhook_url: %w", err))
		}
	}
	if cfg.Alert.Breaker.MaxFailures < 0 {
		errs = append(errs, fmt.Errorf("alert.breaker.max_failures %d must not be negative", cfg.Alert.Breaker.MaxFailures))
	}
	if cfg.Alert.Breaker.ResetTimeout < 0 {
		errs = append(errs, errors.New("alert.breaker.reset_timeout must not be negative"))
	}
	if r := cfg.Observe.TraceSampleRatio; r < 0 || r > 1 {
		errs = append(errs, fmt.Errorf("observe.trace_sample_ratio %v must be in [0, 1]", r))
	}
	if cfg.Alert.PhoneNumber == "" {
		slog.Warn("alert.phone_number is empty; emergency responses will use the national emergency number")
	}

	return errors.Join(errs...)
}
