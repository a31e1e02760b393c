package server

import (
	"strings"
	"time"
)

const (
	DefaultAddress      = "127.0.0.1:2323"
	DefaultMaxLineBytes = 64 * 1024
	DefaultGracePeriod  = 3 * time.Second
)

// Config defines listener and handler behavior.
type Config struct {
	// Address is the host:port to bind.
	Address string
	// IdleTimeout bounds the wait for each input line. Zero waits forever.
	IdleTimeout time.Duration
	// ShutdownGrace is how long in-flight handlers may run after the
	// listener closes before their connections are force-closed.
	ShutdownGrace time.Duration
	// MaxLineBytes caps one input line including its terminator.
	MaxLineBytes int
}

func DefaultConfig() Config {
	return Config{
		Address:       DefaultAddress,
		IdleTimeout:   0,
		ShutdownGrace: DefaultGracePeriod,
		MaxLineBytes:  DefaultMaxLineBytes,
	}
}

// WithDefaults fills unset fields. Zero IdleTimeout and ShutdownGrace are
// meaningful and kept.
func (c Config) WithDefaults() Config {
	if strings.TrimSpace(c.Address) == "" {
		c.Address = DefaultAddress
	}
	if c.MaxLineBytes <= 0 {
		c.MaxLineBytes = DefaultMaxLineBytes
	}
	if c.IdleTimeout < 0 {
		c.IdleTimeout = 0
	}
	if c.ShutdownGrace < 0 {
		c.ShutdownGrace = 0
	}
	return c
}
