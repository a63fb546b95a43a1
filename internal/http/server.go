// Package http serves the subscription calendar and analytics JSON API.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"subtrack/internal/analytics"
	applog "subtrack/internal/log"
	"subtrack/internal/middleware/ratelimit"
	"subtrack/internal/middleware/security"
	"subtrack/internal/middleware/trace"
	"subtrack/internal/news"
	"subtrack/internal/rates"
	"subtrack/internal/services"
)

// RatesSource returns the current exchange rates.
type RatesSource interface {
	Latest(ctx context.Context) rates.Rates
}

// NewsSource returns category news; it reports failures through the
// response source rather than an error.
type NewsSource interface {
	ByCategory(ctx context.Context, category string, pageSize int) news.Response
}

type invalidator interface {
	Invalidate()
}

// Deps are the collaborators of the API server. Logger, Durations and Now
// have defaults.
type Deps struct {
	Subscriptions *services.SubscriptionService
	Loader        *services.Loader
	Rates         RatesSource
	News          NewsSource
	Durations     analytics.DurationEstimator
	Logger        *applog.Logger
	// RequestsPerMinute limits each client on /api; 0 uses the limiter default.
	RequestsPerMinute int
	Now               func() time.Time
}

type Server struct {
	http.Server

	subs      *services.SubscriptionService
	loader    *services.Loader
	rates     RatesSource
	news      NewsSource
	durations analytics.DurationEstimator
	now       func() time.Time

	limiter      *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer wires the router and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	if deps.Durations == nil {
		deps.Durations = analytics.SimulatedDuration{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = applog.FromContext(context.Background())
	}

	s := &Server{
		subs:      deps.Subscriptions,
		loader:    deps.Loader,
		rates:     deps.Rates,
		news:      deps.News,
		durations: deps.Durations,
		now:       deps.Now,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RequestsPerMinute}),
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(deps.Logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(logger *applog.Logger) http.Handler {
	detector := security.NewDetector()
	tracer := trace.NewMiddleware(detector.ExtractClientIP, logger)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(tracer.Middleware)
	r.Use(applog.Middleware(logger))
	r.Use(applog.RequestIDMiddleware(trace.RequestIDFromRequest))
	r.Use(headers.Middleware)
	r.Use(detector.Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
			writeMessage(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
		}))

		r.Route("/subscriptions", func(r chi.Router) {
			r.Get("/", s.handleListSubscriptions)
			r.Post("/", s.handleCreateSubscription)
			r.Put("/order", s.handleReorderSubscriptions)
			r.Post("/refresh", s.handleRefresh)
			r.Get("/{id}", s.handleGetSubscription)
			r.Put("/{id}", s.handleUpdateSubscription)
			r.Delete("/{id}", s.handleDeleteSubscription)
		})

		r.Get("/calendar", s.handleCalendar)
		r.Get("/calendar/day/{date}", s.handleCalendarDay)
		r.Get("/payments/upcoming", s.handleUpcoming)

		r.Get("/dashboard", s.handleDashboard)
		r.Route("/analytics", func(r chi.Router) {
			r.Get("/summary", s.handleAnalyticsSummary)
			r.Get("/monthly", s.handleAnalyticsMonthly)
			r.Get("/savings", s.handleAnalyticsSavings)
			r.Get("/report", s.handleAnalyticsReport)
		})

		r.Get("/exchange-rates", s.handleExchangeRates)
		r.Get("/news", s.handleNews)
	})
	return r
}

// Shutdown stops the rate limiter and the HTTP server once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeOK(w, map[string]string{"status": "ok"})
}

// handleReady reports 503 until the first snapshot is loaded.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	select {
	case <-s.loader.Ready():
		snap := s.loader.Current()
		writeOK(w, map[string]any{
			"status":        "ready",
			"subscriptions": len(snap.Subscriptions),
			"loadedAt":      snap.LoadedAt,
		})
	default:
		writeMessage(w, http.StatusServiceUnavailable, "loading subscriptions")
	}
}

// snapshot returns the current snapshot, loading the first one on demand.
func (s *Server) snapshot(ctx context.Context) (*services.Snapshot, error) {
	if snap := s.loader.Current(); snap != nil {
		return snap, nil
	}
	return s.loader.Refresh(ctx)
}

// refreshAfterWrite reloads the snapshot so reads see the change. A failed
// reload keeps serving the previous snapshot.
func (s *Server) refreshAfterWrite(ctx context.Context) {
	if _, err := s.loader.Refresh(ctx); err != nil {
		slog.WarnContext(ctx, "Snapshot refresh after write failed", "error", err)
	}
}
