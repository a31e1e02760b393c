package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	ErrBind           = errors.New("server: bind failed")
	ErrAlreadyServing = errors.New("server: already serving")
	ErrLineTooLong    = errors.New("server: line too long")
)

// Server accepts line protocol connections and runs one handler per connection.
type Server struct {
	cfg      Config
	sessions *Registry

	mu sync.Mutex
	ln net.Listener

	serving       atomic.Bool
	draining      atomic.Bool
	activeClients atomic.Int64
	wg            sync.WaitGroup
}

func New(cfg Config) *Server {
	return &Server{
		cfg:      cfg.WithDefaults(),
		sessions: NewRegistry(),
	}
}

func (s *Server) Config() Config {
	return s.cfg
}

// Listen binds the configured address. It is safe to call before Serve to
// learn the bound address; Serve reuses the listener.
func (s *Server) Listen() (net.Addr, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return s.ln.Addr(), nil
	}
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: addr=%q: %w", ErrBind, s.cfg.Address, err)
	}
	s.ln = ln
	return ln.Addr(), nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Ready reports whether the accept loop is running.
func (s *Server) Ready() bool {
	return s.serving.Load() && !s.draining.Load()
}

func (s *Server) ActiveClients() int64 {
	return s.activeClients.Load()
}

// Sessions returns a snapshot of live sessions.
func (s *Server) Sessions() []Session {
	return s.sessions.Snapshot()
}

// ListenAndServe binds and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if _, err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Serve runs the accept loop until ctx is cancelled, then drains handlers.
// It returns nil on a cancellation-driven shutdown.
func (s *Server) Serve(ctx context.Context) error {
	if !s.serving.CompareAndSwap(false, true) {
		return ErrAlreadyServing
	}
	defer s.serving.Store(false)
	s.draining.Store(false)

	if _, err := s.Listen(); err != nil {
		return err
	}
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	defer s.release(ln)

	log.Info().Str("addr", ln.Addr().String()).Msg("bytectl.server serving, hit CTRL-C to stop")

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			s.draining.Store(true)
			_ = ln.Close()
		case <-stop:
		}
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.drain()
				log.Info().Msg("bytectl.server shutting down")
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				log.Warn().Err(err).Msg("bytectl.server accept retry")
				continue
			}
			s.drain()
			return fmt.Errorf("server: accept: %w", err)
		}
		s.wg.Add(1)
		go s.serveConn(conn)
	}
}

// release closes ln and forgets it so a later Listen binds afresh.
func (s *Server) release(ln net.Listener) {
	_ = ln.Close()
	s.mu.Lock()
	if s.ln == ln {
		s.ln = nil
	}
	s.mu.Unlock()
}

// drain waits up to ShutdownGrace for handlers, then force-closes the rest.
func (s *Server) drain() {
	s.draining.Store(true)
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(s.cfg.ShutdownGrace)
	defer timer.Stop()
	select {
	case <-done:
		return
	case <-timer.C:
	}
	closed := s.sessions.CloseAll()
	log.Warn().Int("sessions", closed).Dur("grace", s.cfg.ShutdownGrace).Msg("bytectl.server grace period exceeded, closing sessions")
	<-done
}
