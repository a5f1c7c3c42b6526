package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/edge-dvfs/policyd/internal/supervisor"
)

func testRouter(rec *Recorder) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(rec.Registry(), promhttp.HandlerOpts{}))
	return r
}

func TestHealthzReturnsOK(t *testing.T) {
	rec := NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	testRouter(rec).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestMetricsEndpointExposesRegisteredSeries(t *testing.T) {
	rec := NewRecorder()
	rec.WorkerHeartbeat("resnet", supervisor.Heartbeat{ObservedTp: 100, ActualTp: 100})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	testRouter(rec).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestServerStartStopsOnContextCancel(t *testing.T) {
	rec := NewRecorder()
	srv := NewServer("127.0.0.1:0", rec)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("Start: %v", err)
	}
}
