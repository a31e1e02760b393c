package main

import (
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/bytectl/internal/config"
)

func TestParseOptionsPositional(t *testing.T) {
	opts, err := parseOptions([]string{"-admin", "127.0.0.1:9323", "0.0.0.0", "4040"}, io.Discard)
	if err != nil {
		t.Fatalf("parse options: %v", err)
	}
	if opts.address != "0.0.0.0" || opts.port != "4040" || opts.adminAddr != "127.0.0.1:9323" {
		t.Fatalf("unexpected options: %+v", opts)
	}

	if _, err := parseOptions([]string{"a", "1", "extra"}, io.Discard); err == nil {
		t.Fatalf("expected too many arguments error")
	}
	if _, err := parseOptions([]string{"-h"}, io.Discard); !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("expected flag.ErrHelp, got %v", err)
	}
}

func TestResolveConfigDefaults(t *testing.T) {
	cfg, err := resolveConfig(options{})
	if err != nil {
		t.Fatalf("resolve config: %v", err)
	}
	if cfg.ListenAddr() != "127.0.0.1:2323" {
		t.Fatalf("unexpected listen addr: %q", cfg.ListenAddr())
	}
	if cfg.AdminAddr != "" {
		t.Fatalf("expected admin disabled by default, got %q", cfg.AdminAddr)
	}
}

func TestResolveConfigArgumentsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "address = \"0.0.0.0\"\nport = 4040\nidle_timeout = \"1m\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := resolveConfig(options{configPath: path, port: "5050"})
	if err != nil {
		t.Fatalf("resolve config: %v", err)
	}
	if cfg.ListenAddr() != "0.0.0.0:5050" {
		t.Fatalf("unexpected listen addr: %q", cfg.ListenAddr())
	}
	if cfg.IdleTimeout != time.Minute {
		t.Fatalf("unexpected idle timeout: %v", cfg.IdleTimeout)
	}
}

func TestResolveConfigRejectsBadPort(t *testing.T) {
	if _, err := resolveConfig(options{port: "http"}); !errors.Is(err, config.ErrInvalidPort) {
		t.Fatalf("expected ErrInvalidPort, got %v", err)
	}
}
