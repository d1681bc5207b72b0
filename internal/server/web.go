package server

import (
	"encoding/json"
	"net/http"
	"time"

	"partyfinder/internal/middleware"
	"partyfinder/internal/repository"
	"partyfinder/internal/session"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// WebServer exposes the small ops surface next to the bot: liveness and a
// stats snapshot for a dashboard. It never touches conversation state beyond
// counting sessions.
type WebServer struct {
	profiles  *repository.ProfileRepository
	searchLog *repository.SearchLogRepository
	sessions  *session.Manager
	logger    zerolog.Logger
}

func NewWebServer(profiles *repository.ProfileRepository, searchLog *repository.SearchLogRepository, sessions *session.Manager, logger zerolog.Logger) *WebServer {
	return &WebServer{profiles: profiles, searchLog: searchLog, sessions: sessions, logger: logger}
}

func (s *WebServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /stats", s.handleStats)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})

	return middleware.RequestID(s.logger)(c.Handler(mux))
}

func (s *WebServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type statsResponse struct {
	Profiles      int `json:"profiles"`
	Visible       int `json:"visible"`
	LiveSessions  int `json:"live_sessions"`
	SearchesToday int `json:"searches_today"`
}

func (s *WebServer) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	total, visible, err := s.profiles.Counts(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load profile counts")
		http.Error(w, "stats unavailable", http.StatusInternalServerError)
		return
	}

	midnight := time.Now().UTC().Truncate(24 * time.Hour)
	searches, err := s.searchLog.CountSince(ctx, midnight)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to count searches")
		http.Error(w, "stats unavailable", http.StatusInternalServerError)
		return
	}

	resp := statsResponse{
		Profiles:      total,
		Visible:       visible,
		LiveSessions:  s.sessions.Len(),
		SearchesToday: searches,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
