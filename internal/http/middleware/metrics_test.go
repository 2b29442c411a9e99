package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_RouteLabelsAndInflight(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics())
	r.GET("/api/games/:id", func(c *gin.Context) { c.String(http.StatusOK, `{"id":1}`) })
	r.DELETE("/api/games/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	baseGet := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/api/games/:id", "200"))
	baseDel := testutil.ToFloat64(httpReqs.WithLabelValues("DELETE", "/api/games/:id", "204"))
	base404 := testutil.ToFloat64(httpReqs.WithLabelValues("GET", unmatchedPath, "404"))

	for _, tc := range []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/api/games/1", http.StatusOK},
		{http.MethodGet, "/api/games/2", http.StatusOK},
		{http.MethodDelete, "/api/games/2", http.StatusNoContent},
		{http.MethodGet, "/cart/checkout", http.StatusNotFound},
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		if w.Code != tc.want {
			t.Fatalf("%s %s -> %d, want %d", tc.method, tc.path, w.Code, tc.want)
		}
	}

	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/api/games/:id", "200")) - baseGet; got != 2 {
		t.Fatalf("GET /api/games/:id delta = %v; want 2", got)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("DELETE", "/api/games/:id", "204")) - baseDel; got != 1 {
		t.Fatalf("DELETE delta = %v; want 1", got)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", unmatchedPath, "404")) - base404; got != 1 {
		t.Fatalf("unmatched delta = %v; want 1", got)
	}
	if raw := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/cart/checkout", "404")); raw != 0 {
		t.Fatalf("raw URL must not become a label, got %v", raw)
	}
	if inFlight := testutil.ToFloat64(httpInflight); inFlight != 0 {
		t.Fatalf("httpInflight = %v; want 0", inFlight)
	}
	if n := testutil.CollectAndCount(httpLat, "http_request_duration_seconds"); n == 0 {
		t.Fatalf("latency histogram has no series")
	}
}
