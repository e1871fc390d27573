package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/metrics"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Len(t, seen, 16)
	require.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "abc-123", seen)
	require.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://search.example"})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/search", nil)
	req.Header.Set("Origin", "https://search.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "https://search.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/search", nil)
	req.Header.Set("Origin", "https://other.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestLimiter(t *testing.T) {
	now := time.Unix(1000, 0)
	l := NewLimiter(2, time.Minute)
	l.now = func() time.Time { return now }

	require.True(t, l.Allow("a"))
	require.True(t, l.Allow("a"))
	require.False(t, l.Allow("a"))
	require.True(t, l.Allow("b"))

	now = now.Add(30 * time.Second)
	require.True(t, l.Allow("a"))
	require.False(t, l.Allow("a"))

	now = now.Add(3 * time.Minute)
	require.Equal(t, 2, l.Prune())
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(NewLimiter(1, time.Minute), nil)(okHandler())

	do := func(path, addr string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	require.Equal(t, http.StatusOK, do("/api/v1/search", "10.0.0.1:1234"))
	require.Equal(t, http.StatusTooManyRequests, do("/api/v1/search", "10.0.0.1:5678"))
	require.Equal(t, http.StatusOK, do("/api/v1/search", "10.0.0.2:1234"))
	require.Equal(t, http.StatusOK, do("/health/live", "10.0.0.1:1234"))
}

func TestRateLimitIgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	h := RateLimit(NewLimiter(1, time.Minute), nil)(okHandler())

	do := func(fwd string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/search", nil)
		req.RemoteAddr = "203.0.113.9:4000"
		req.Header.Set("X-Forwarded-For", fwd)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	require.Equal(t, http.StatusOK, do("1.1.1.1"))
	require.Equal(t, http.StatusTooManyRequests, do("2.2.2.2"))
	require.Equal(t, http.StatusTooManyRequests, do("3.3.3.3"))
}

func TestClientAddr(t *testing.T) {
	trusted := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}

	tests := []struct {
		name    string
		remote  string
		fwd     string
		trusted []netip.Prefix
		want    string
	}{
		{"no proxies configured", "10.0.0.5:80", "198.51.100.1", nil, "10.0.0.5"},
		{"untrusted peer", "203.0.113.9:80", "198.51.100.1", trusted, "203.0.113.9"},
		{"trusted peer", "10.0.0.5:80", "198.51.100.1", trusted, "198.51.100.1"},
		{"spoofed left entry", "10.0.0.5:80", "6.6.6.6, 198.51.100.1", trusted, "198.51.100.1"},
		{"proxy chain", "10.0.0.5:80", "198.51.100.1, 10.0.0.7", trusted, "198.51.100.1"},
		{"trusted peer without header", "10.0.0.5:80", "", trusted, "10.0.0.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.fwd != "" {
				req.Header.Set("X-Forwarded-For", tt.fwd)
			}
			require.Equal(t, tt.want, clientAddr(req, tt.trusted))
		})
	}
}

func TestTimeout(t *testing.T) {
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	rec := httptest.NewRecorder()
	Timeout(10*time.Millisecond)(slow).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.JSONEq(t, timeoutBody, rec.Body.String())
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	Chain(okHandler(), mark("outer"), mark("inner")).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"outer", "inner"}, order)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/keywords/{keyword}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := Metrics(m)(mux)
	for _, target := range []string{"/api/v1/keywords/apple", "/api/v1/keywords/banana", "/nope"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}

	rec := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `http_requests_total{method="GET",path="GET /api/v1/keywords/{keyword}",status="418"} 2`)
	require.Contains(t, string(body), `http_requests_total{method="GET",path="unmatched",status="404"} 1`)
	require.Contains(t, string(body), "http_requests_in_flight 0")
}
