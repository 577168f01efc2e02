package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	applog "allowance/internal/log"
	"allowance/internal/middleware/ratelimit"
	"allowance/internal/middleware/security"
	"allowance/internal/middleware/trace"
	"allowance/internal/services"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services is everything the API delegates to.
type Services struct {
	Transactions *services.TransactionService
	Goals        *services.GoalService
	Badges       *services.BadgeService
	Overview     *services.OverviewService
	Profiles     *services.ProfileService
	Store        Pinger
}

type Options struct {
	RateLimitPerMinute int
	Logger             *applog.Logger
}

type Server struct {
	http.Server
	svc         Services
	rateLimiter *ratelimit.Limiter
	tracer      *trace.Middleware
	detector    *security.Detector

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc Services, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	detector := security.NewDetector()
	s := &Server{
		svc:         svc,
		detector:    detector,
		tracer:      trace.NewMiddleware(logger, detector.ExtractClientIP),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
	}

	api := http.NewServeMux()
	api.HandleFunc("GET /api/overview", s.handleOverview)
	api.HandleFunc("GET /api/transactions", s.handleListTransactions)
	api.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	api.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	api.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	api.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	api.HandleFunc("GET /api/history", s.handleHistory)
	api.HandleFunc("GET /api/goals", s.handleListGoals)
	api.HandleFunc("POST /api/goals", s.handleCreateGoal)
	api.HandleFunc("POST /api/goals/{id}/achieve", s.handleAchieveGoal)
	api.HandleFunc("DELETE /api/goals/{id}", s.handleDeleteGoal)
	api.HandleFunc("GET /api/badges", s.handleBadges)
	api.HandleFunc("GET /api/profile", s.handleGetProfile)
	api.HandleFunc("PUT /api/profile", s.handleUpdateProfile)

	onLimit := func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
	}
	apiChain := s.rateLimiter.Middleware(detector.ExtractClientIP, onLimit)(withSession(api))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("/api/", apiChain)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.tracer.Middleware(headers.Middleware(detector.Middleware(mux))),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.svc.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.svc.Store.Ping(ctx); err != nil {
			applog.FromContext(ctx).WarnContext(ctx, "Readiness check failed", applog.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, "store unavailable").Write(w)
			return
		}
	}
	respondJSON(w, http.StatusOK, s.readiness())
}

// Readiness is the /readyz body: store status plus middleware counters.
type Readiness struct {
	Status             string `json:"status"`
	Requests           int64  `json:"requests"`
	AvgResponseMicros  int64  `json:"avg_response_us"`
	RateLimited        int64  `json:"rate_limited"`
	RateLimitClients   int64  `json:"rate_limit_clients"`
	SuspiciousRequests int64  `json:"suspicious_requests"`
}

func (s *Server) readiness() Readiness {
	tm := s.tracer.GetMetrics()
	rm := s.rateLimiter.GetMetrics()
	return Readiness{
		Status:             "ready",
		Requests:           tm.TotalRequests,
		AvgResponseMicros:  tm.AverageResponseTime.Microseconds(),
		RateLimited:        rm.TotalHits,
		RateLimitClients:   rm.ClientCount,
		SuspiciousRequests: s.detector.GetMetrics().SuspiciousRequests,
	}
}
