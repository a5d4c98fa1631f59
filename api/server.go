package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/wricardo/mcp-training/controlrelay/classroom"
)

// Relay is the classroom surface the API drives. transport/websocket.Hub
// implements it.
type Relay interface {
	Roster(ctx context.Context) (classroom.Roster, error)
	GrantControl(ctx context.Context, target classroom.ParticipantID) error
	RevokeControl(ctx context.Context) (bool, error)
	ServeWS(w http.ResponseWriter, r *http.Request)
}

// Server represents the HTTP surface of the relay
type Server struct {
	relay     Relay
	router    *mux.Router
	staticDir string
	log       zerolog.Logger
}

// NewServer creates a new API server. Static files are served from
// staticDir when it names an existing directory.
func NewServer(relay Relay, staticDir string, logger zerolog.Logger) *Server {
	s := &Server{
		relay:     relay,
		router:    mux.NewRouter(),
		staticDir: staticDir,
		log:       logger,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/roster", s.handleRoster).Methods("GET")
	api.HandleFunc("/control", s.handleGrantControl).Methods("POST")
	api.HandleFunc("/control", s.handleRevokeControl).Methods("DELETE")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)

	// Metrics
	s.router.Handle("/metrics", promhttp.Handler())

	// Browser client
	if s.staticDir != "" {
		if info, err := os.Stat(s.staticDir); err == nil && info.IsDir() {
			s.router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.staticDir)))
		} else {
			s.log.Info().Str("dir", s.staticDir).Msg("Static directory not found, not serving client assets")
		}
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handle mounts an extra handler, such as the MCP endpoint, on the router.
// It must be called before any request is served.
func (s *Server) Handle(path string, handler http.Handler) {
	s.router.Handle(path, handler)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func (s *Server) handleRoster(w http.ResponseWriter, r *http.Request) {
	roster, err := s.relay.Roster(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if roster.Students == nil {
		roster.Students = []classroom.RosterEntry{}
	}

	respondJSON(w, http.StatusOK, roster)
}

func (s *Server) handleGrantControl(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TargetID string `json:"targetId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.TargetID == "" {
		respondError(w, http.StatusBadRequest, "targetId is required")
		return
	}

	err := s.relay.GrantControl(r.Context(), classroom.ParticipantID(req.TargetID))
	switch {
	case errors.Is(err, classroom.ErrUnknownTarget):
		respondError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, classroom.ErrNotStudent):
		respondError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	s.log.Info().Str("target", req.TargetID).Str("remote", r.RemoteAddr).Msg("Operator granted control")
	respondJSON(w, http.StatusOK, map[string]string{
		"active_controller_id": req.TargetID,
	})
}

func (s *Server) handleRevokeControl(w http.ResponseWriter, r *http.Request) {
	revoked, err := s.relay.RevokeControl(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{
		"revoked": revoked,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.relay.ServeWS(w, r)
}
