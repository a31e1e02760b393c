package config

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/danmuck/bytectl/internal/server"
	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultAddress = "127.0.0.1"
	DefaultPort    = 2323

	DefaultHeartbeat = 30 * time.Second
)

var (
	ErrMissingAddress   = errors.New("config: missing address")
	ErrInvalidPort      = errors.New("config: invalid port")
	ErrNegativeDuration = errors.New("config: negative duration")
	ErrInvalidLineBound = errors.New("config: invalid max_line_bytes")
)

// File mirrors the on-disk TOML layout. Durations are Go duration strings.
type File struct {
	Address       string   `toml:"address"`
	Port          int      `toml:"port"`
	IdleTimeout   string   `toml:"idle_timeout"`
	ShutdownGrace string   `toml:"shutdown_grace"`
	MaxLineBytes  int      `toml:"max_line_bytes"`
	Heartbeat     string   `toml:"heartbeat_interval"`
	AdminAddr     string   `toml:"admin_addr"`
	CorsOrigins   []string `toml:"cors_origins"`
}

// Config is the resolved bytectl process configuration.
type Config struct {
	Address       string
	Port          int
	IdleTimeout   time.Duration
	ShutdownGrace time.Duration
	MaxLineBytes  int
	// Heartbeat is the interval of the periodic status log line. Zero disables it.
	Heartbeat   time.Duration
	AdminAddr   string
	CorsOrigins []string
}

func Default() Config {
	srv := server.DefaultConfig()
	return Config{
		Address:       DefaultAddress,
		Port:          DefaultPort,
		IdleTimeout:   srv.IdleTimeout,
		ShutdownGrace: srv.ShutdownGrace,
		MaxLineBytes:  srv.MaxLineBytes,
		Heartbeat:     DefaultHeartbeat,
		AdminAddr:     "",
		CorsOrigins:   []string{},
	}
}

// DefaultFile renders Default in its on-disk form.
func DefaultFile() File {
	return toFile(Default())
}

// Load reads path on top of Default. Keys absent from the file keep their
// default; unknown keys are rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return cfg, nil
}

// Parse decodes raw TOML on top of Default and validates the result.
func Parse(data []byte) (Config, error) {
	raw := DefaultFile()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return Config{}, err
	}
	cfg, err := fromFile(raw)
	if err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Address) == "" {
		return ErrMissingAddress
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, cfg.Port)
	}
	if cfg.IdleTimeout < 0 {
		return fmt.Errorf("%w: idle_timeout=%s", ErrNegativeDuration, cfg.IdleTimeout)
	}
	if cfg.ShutdownGrace < 0 {
		return fmt.Errorf("%w: shutdown_grace=%s", ErrNegativeDuration, cfg.ShutdownGrace)
	}
	if cfg.Heartbeat < 0 {
		return fmt.Errorf("%w: heartbeat_interval=%s", ErrNegativeDuration, cfg.Heartbeat)
	}
	if cfg.MaxLineBytes <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLineBound, cfg.MaxLineBytes)
	}
	return nil
}

// ListenAddr joins Address and Port into a dialable host:port.
func (c Config) ListenAddr() string {
	return net.JoinHostPort(strings.TrimSpace(c.Address), strconv.Itoa(c.Port))
}

// Server converts the process config into line protocol server settings.
func (c Config) Server() server.Config {
	return server.Config{
		Address:       c.ListenAddr(),
		IdleTimeout:   c.IdleTimeout,
		ShutdownGrace: c.ShutdownGrace,
		MaxLineBytes:  c.MaxLineBytes,
	}
}

// ParsePort validates a positional port argument.
func ParsePort(raw string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPort, raw)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPort, port)
	}
	return port, nil
}

func fromFile(raw File) (Config, error) {
	idle, err := parseDuration("idle_timeout", raw.IdleTimeout)
	if err != nil {
		return Config{}, err
	}
	grace, err := parseDuration("shutdown_grace", raw.ShutdownGrace)
	if err != nil {
		return Config{}, err
	}
	heartbeat, err := parseDuration("heartbeat_interval", raw.Heartbeat)
	if err != nil {
		return Config{}, err
	}
	return Config{
		Address:       strings.TrimSpace(raw.Address),
		Port:          raw.Port,
		IdleTimeout:   idle,
		ShutdownGrace: grace,
		MaxLineBytes:  raw.MaxLineBytes,
		Heartbeat:     heartbeat,
		AdminAddr:     strings.TrimSpace(raw.AdminAddr),
		CorsOrigins:   normalizeOrigins(raw.CorsOrigins),
	}, nil
}

func toFile(cfg Config) File {
	return File{
		Address:       cfg.Address,
		Port:          cfg.Port,
		IdleTimeout:   cfg.IdleTimeout.String(),
		ShutdownGrace: cfg.ShutdownGrace.String(),
		MaxLineBytes:  cfg.MaxLineBytes,
		Heartbeat:     cfg.Heartbeat.String(),
		AdminAddr:     cfg.AdminAddr,
		CorsOrigins:   cfg.CorsOrigins,
	}
}

func parseDuration(key, raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, origin := range in {
		v := strings.TrimSpace(origin)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
