package trace

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexu/internal/log"
	"nexu/internal/metrics"
)

func newRouter(m *Middleware) http.Handler {
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/expenses/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Seen-ID", GetRequestID(r.Context()))
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

func TestMiddlewareAssignsRequestID(t *testing.T) {
	m := NewMiddleware(nil, nil, nil)
	rec := httptest.NewRecorder()

	newRouter(m).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/expenses/7", nil))

	id := rec.Header().Get(HeaderRequestID)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.Header().Get("X-Seen-ID"))
	assert.Equal(t, int64(1), m.TotalRequests())
}

func TestMiddlewareKeepsValidIncomingID(t *testing.T) {
	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(HeaderRequestID, incoming)
	rec := httptest.NewRecorder()

	newRouter(NewMiddleware(nil, nil, nil)).ServeHTTP(rec, req)
	assert.Equal(t, incoming, rec.Header().Get(HeaderRequestID))

	req.Header.Set(HeaderRequestID, "../../etc/passwd")
	rec = httptest.NewRecorder()
	newRouter(NewMiddleware(nil, nil, nil)).ServeHTTP(rec, req)
	assert.NotEqual(t, "../../etc/passwd", rec.Header().Get(HeaderRequestID))
}

func TestMiddlewareLogsByStatusAndRecordsRoute(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Output: &buf})
	reg := metrics.New()
	m := NewMiddleware(logger, func(*http.Request) string { return "10.0.0.1" }, reg)

	newRouter(m).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/expenses/7", nil))

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "status_code=404")
	assert.Contains(t, out, "route=/api/expenses/{id}")
	assert.Contains(t, out, "client_ip=10.0.0.1")

	count, err := testutil.GatherAndCount(reg.Registry(), "nexu_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
