package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// scrapeLimiter throttles /metrics to a steady-state scrape rate. A single
// edge device has one scraper, not the many-tenant case
// ManuGH-xg2g/internal/api/middleware.go guards against, so one
// process-wide limiter replaces that file's per-IP visitor table.
func scrapeLimiter(rps float64, burst int) func(http.Handler) http.Handler {
	lim := rate.NewLimiter(rate.Limit(rps), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !lim.Allow() {
				http.Error(w, "scrape rate exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Server serves /metrics (Prometheus text exposition) and /healthz on addr,
// grounded in the teacher pack's chi-routed HTTP servers
// (ManuGH-xg2g/internal/api). Disabled unless addr is non-empty
// (spec.md's CLI default stays unchanged when --metrics-addr is omitted).
type Server struct {
	addr string
	srv  *http.Server
}

// NewServer builds a Server exposing rec's registry.
func NewServer(addr string, rec *Recorder) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.With(scrapeLimiter(2, 5)).Handle("/metrics", promhttp.HandlerFor(rec.Registry(), promhttp.HandlerOpts{}))

	return &Server{
		addr: addr,
		srv:  &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second},
	}
}

// Start runs the server until ctx is done, then shuts it down gracefully.
// Start never returns an error for a clean shutdown (http.ErrServerClosed
// is swallowed).
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("addr", s.addr).Info("metrics server listening")
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Warn("metrics server shutdown error")
		}
		return nil
	case err := <-errCh:
		return err
	}
}
