package config_test

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/awaazpay/awaaz/internal/config"
)

func TestLoad_File(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, validYAML)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Observe.ServiceName != "awaaz-test" {
		t.Errorf("service_name: got %q", cfg.Observe.ServiceName)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("error should wrap fs.ErrNotExist, got: %v", err)
	}
}

func TestLoad_InvalidFileNamesPath(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "bad.yaml")
	writeFile(t, path, "server: [")

	_, err := config.Load(path)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "bad.yaml") {
		t.Errorf("error should name the file, got: %v", err)
	}
}

func TestLoad_ExampleConfig(t *testing.T) {
	t.Parallel()
	cfg, err := config.Load(filepath.Join("..", "..", "configs", "example.yaml"))
	if err != nil {
		t.Fatalf("example config must load: %v", err)
	}
	if cfg.Links.Apps != nil {
		t.Errorf("apps: got %v, want nil so the defaults apply", cfg.Links.Apps)
	}
	if len(cfg.Directory.Entries) != 1 {
		t.Errorf("entries: got %d, want 1", len(cfg.Directory.Entries))
	}
}
