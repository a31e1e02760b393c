package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/danmuck/bytectl/internal/client"
	"github.com/danmuck/bytectl/internal/config"
	"github.com/danmuck/bytectl/internal/server"
	"github.com/danmuck/bytectl/internal/testutil/testlog"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func waitReady(t *testing.T, svc *Service) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !svc.Server().Ready() {
		if time.Now().After(deadline) {
			t.Fatalf("service not ready")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	testlog.Start(t)

	cfg := config.Default()
	cfg.Port = 0
	if _, err := New(cfg); !errors.Is(err, ErrInvalidConfig) || !errors.Is(err, config.ErrInvalidPort) {
		t.Fatalf("expected invalid config error, got %v", err)
	}
}

func TestServeAnswersQueriesAndAdmin(t *testing.T) {
	testlog.Start(t)

	cfg := config.Default()
	cfg.Port = freePort(t)
	cfg.AdminAddr = fmt.Sprintf("127.0.0.1:%d", freePort(t))
	cfg.Heartbeat = 20 * time.Millisecond
	svc, err := New(cfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()
	waitReady(t, svc)

	c, err := client.Dial(context.Background(), cfg.ListenAddr(), client.DefaultConfig())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	got, err := c.Query("5")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if got != "0b101" {
		t.Fatalf("unexpected response: %q", got)
	}

	var sessions struct {
		ActiveClients int64            `json:"active_clients"`
		Sessions      []server.Session `json:"sessions"`
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get("http://" + cfg.AdminAddr + "/sessions")
		if err == nil {
			err = json.NewDecoder(resp.Body).Decode(&sessions)
			resp.Body.Close()
		}
		if err == nil && sessions.ActiveClients == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("admin sessions not reachable: err=%v body=%+v", err, sessions)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if len(sessions.Sessions) != 1 || sessions.Sessions[0].Queries != 1 {
		t.Fatalf("unexpected sessions: %+v", sessions.Sessions)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("close client: %v", err)
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("service did not stop")
	}
}

func TestServeBindFailureIsFatal(t *testing.T) {
	testlog.Start(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	defer ln.Close()

	cfg := config.Default()
	cfg.Port = ln.Addr().(*net.TCPAddr).Port
	svc, err := New(cfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if err := svc.Serve(context.Background()); !errors.Is(err, server.ErrBind) {
		t.Fatalf("expected ErrBind, got %v", err)
	}
}
