package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/bytectl/internal/server"
	"github.com/danmuck/bytectl/internal/testutil/testlog"
)

type stubSource struct {
	ready    bool
	active   int64
	sessions []server.Session
}

func (s stubSource) Ready() bool                { return s.ready }
func (s stubSource) ActiveClients() int64       { return s.active }
func (s stubSource) Sessions() []server.Session { return s.sessions }

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	s.HTTPRouter().ServeHTTP(rr, req)
	return rr
}

func TestHealthAlwaysOK(t *testing.T) {
	testlog.Start(t)

	s := New("127.0.0.1:0", stubSource{}, nil)
	rr := get(t, s, "/health")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" || body["service"] != "bytectl" {
		t.Fatalf("unexpected health body: %#v", body)
	}
}

func TestReadyReflectsSource(t *testing.T) {
	testlog.Start(t)

	if rr := get(t, New("", stubSource{ready: false}, nil), "/ready"); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before ready, got %d", rr.Code)
	}
	if rr := get(t, New("", stubSource{ready: true}, nil), "/ready"); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 when ready, got %d", rr.Code)
	}
}

func TestSessionsListing(t *testing.T) {
	testlog.Start(t)

	src := stubSource{
		ready:  true,
		active: 1,
		sessions: []server.Session{{
			ID:         "3f1c7a4e-0000-4000-8000-000000000001",
			RemoteAddr: "127.0.0.1:50000",
			StartedAt:  time.Unix(1700000000, 0),
			Queries:    4,
			State:      server.StateAwaitInput,
		}},
	}
	rr := get(t, New("", src, nil), "/sessions")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var body struct {
		ActiveClients int64            `json:"active_clients"`
		Sessions      []server.Session `json:"sessions"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.ActiveClients != 1 || len(body.Sessions) != 1 {
		t.Fatalf("unexpected sessions body: %+v", body)
	}
	if body.Sessions[0].Queries != 4 || body.Sessions[0].State != server.StateAwaitInput {
		t.Fatalf("unexpected session: %+v", body.Sessions[0])
	}
}

func TestMetricsExposed(t *testing.T) {
	testlog.Start(t)

	s := New("", stubSource{}, nil)
	_ = get(t, s, "/health")
	rr := get(t, s, "/metrics")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "bytectl_http_requests_total") {
		t.Fatalf("expected bytectl http metrics in exposition")
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	testlog.Start(t)

	s := New("127.0.0.1:0", stubSource{ready: true}, []string{"http://localhost:3000"})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("admin server did not stop")
	}
}

func TestServeBindFailure(t *testing.T) {
	testlog.Start(t)

	s := New("256.0.0.1:bad", stubSource{}, nil)
	if err := s.Serve(context.Background()); err == nil {
		t.Fatalf("expected bind failure")
	}
}
