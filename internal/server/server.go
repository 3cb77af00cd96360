package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"famtask/internal/handler"
	"famtask/internal/ledger"
	"famtask/internal/middleware"
	ws "famtask/internal/websocket"
)

type Server struct {
	hub         *ws.Hub
	taskH       *handler.TaskHandler
	memberH     *handler.MemberHandler
	assignmentH *handler.AssignmentHandler
	statsH      *handler.StatsHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(l *ledger.Ledger, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	return &Server{
		hub:         hub,
		taskH:       handler.NewTaskHandler(l),
		memberH:     handler.NewMemberHandler(l, hub),
		assignmentH: handler.NewAssignmentHandler(l, hub),
		statsH:      handler.NewStatsHandler(l),
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter so main can run its cleanup loop.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Hub returns the broadcast hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	// Task catalog
	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("GET /api/tasks/{id}", s.taskH.Get)

	// Membership registry
	mux.HandleFunc("POST /api/families/{family_id}/members", s.rateLimited(s.memberH.Create))
	mux.HandleFunc("GET /api/families/{family_id}/members", s.memberH.List)

	// Assignment ledger
	mux.HandleFunc("POST /api/families/{family_id}/assignments", s.rateLimited(s.assignmentH.Create))
	mux.HandleFunc("GET /api/families/{family_id}/assignments", s.assignmentH.ListFamily)
	mux.HandleFunc("GET /api/families/{family_id}/members/{member_id}/assignments", s.assignmentH.ListMember)

	// Completion engine
	mux.HandleFunc("POST /api/families/{family_id}/completions", s.rateLimited(s.assignmentH.Complete))

	// Stats and leaderboard
	mux.HandleFunc("GET /api/members/{member_id}/stats", s.statsH.UserStats)
	mux.HandleFunc("GET /api/members/{member_id}/monthly-stats", s.statsH.MonthlyStats)
	mux.HandleFunc("GET /api/families/{family_id}/leaderboard", s.statsH.Leaderboard)

	// WebSocket event stream
	mux.HandleFunc("GET /ws", ws.Handler(s.hub))

	h := middleware.RequestLogger(s.logger.With("component", "http"))(mux)
	return middleware.RequestID(h)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// rateLimited throttles write endpoints per client IP.
func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 60, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
