package service

import (
	"context"
	"errors"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/danmuck/bytectl/internal/admin"
	"github.com/danmuck/bytectl/internal/config"
	"github.com/danmuck/bytectl/internal/server"
	"github.com/rs/zerolog/log"
)

var ErrInvalidConfig = errors.New("service: invalid config")

// Service runs the line protocol server and the optional admin surface as
// one process.
type Service struct {
	cfg   config.Config
	srv   *server.Server
	admin *admin.Server
}

func New(cfg config.Config) (*Service, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	srv := server.New(cfg.Server())
	s := &Service{cfg: cfg, srv: srv}
	if strings.TrimSpace(cfg.AdminAddr) != "" {
		s.admin = admin.New(cfg.AdminAddr, srv, cfg.CorsOrigins)
	}
	return s, nil
}

// Server exposes the line protocol server owned by the service.
func (s *Service) Server() *server.Server {
	return s.srv
}

// Run blocks until SIGINT/SIGTERM, then shuts down.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Serve(ctx)
}

// Serve binds the listener and runs until ctx is cancelled or a component fails.
func (s *Service) Serve(ctx context.Context) error {
	if _, err := s.srv.Listen(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	serverErr := make(chan error, 1)
	adminErr := make(chan error, 1)
	go func() {
		serverErr <- s.srv.Serve(ctx)
	}()
	if s.admin != nil {
		go func() {
			adminErr <- s.admin.Serve(ctx)
		}()
	}

	var ticks <-chan time.Time
	if s.cfg.Heartbeat > 0 {
		ticker := time.NewTicker(s.cfg.Heartbeat)
		defer ticker.Stop()
		ticks = ticker.C
	}

	for {
		select {
		case err := <-serverErr:
			cancel()
			return err
		case err := <-adminErr:
			if err != nil {
				cancel()
				<-serverErr
				return err
			}
			adminErr = nil
		case <-ticks:
			log.Info().
				Int64("active_clients", s.srv.ActiveClients()).
				Bool("ready", s.srv.Ready()).
				Msg("bytectl.service heartbeat")
		}
	}
}
