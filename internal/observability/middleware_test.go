package observability

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danmuck/bytectl/internal/testutil/testlog"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func newAdminEngine(logger zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(AdminRequests(logger))
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.GET("/health", ok)
	r.GET("/sessions", ok)
	return r
}

func serve(r *gin.Engine, path string) int {
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr.Code
}

func TestRouteGroup(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"/health":   GroupHealth,
		"/ready":    GroupHealth,
		"/metrics":  GroupMetrics,
		"/sessions": GroupSessions,
		"/admin":    GroupUnmatched,
	}
	for route, want := range cases {
		if got := RouteGroup(route); got != want {
			t.Fatalf("RouteGroup(%q) got=%q want=%q", route, got, want)
		}
	}
}

func TestAdminRequestsLabelsByGroup(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	r := newAdminEngine(zerolog.Nop())

	health := httpRequests.WithLabelValues(GroupHealth, "/health", "GET", "200")
	before := testutil.ToFloat64(health)
	if code := serve(r, "/health"); code != http.StatusOK {
		t.Fatalf("unexpected status: %d", code)
	}
	if got := testutil.ToFloat64(health) - before; got != 1 {
		t.Fatalf("unexpected health delta: %v", got)
	}

	unmatched := httpRequests.WithLabelValues(GroupUnmatched, unmatchedRoute, "GET", "404")
	before = testutil.ToFloat64(unmatched)
	serve(r, "/wp-login.php")
	serve(r, "/.env")
	if got := testutil.ToFloat64(unmatched) - before; got != 2 {
		t.Fatalf("unexpected unmatched delta: %v", got)
	}
}

func TestAdminRequestsLogLevels(t *testing.T) {
	testlog.Start(t)
	var buf bytes.Buffer
	r := newAdminEngine(zerolog.New(&buf).Level(zerolog.InfoLevel))

	serve(r, "/health")
	if buf.Len() != 0 {
		t.Fatalf("expected health request below info, got %s", buf.String())
	}
	serve(r, "/sessions")
	if !strings.Contains(buf.String(), `"group":"sessions"`) || !strings.Contains(buf.String(), `"level":"info"`) {
		t.Fatalf("expected sessions request at info, got %s", buf.String())
	}
	buf.Reset()
	serve(r, "/missing")
	if !strings.Contains(buf.String(), `"level":"warn"`) || !strings.Contains(buf.String(), `"path":"/missing"`) {
		t.Fatalf("expected unmatched request at warn, got %s", buf.String())
	}
}
