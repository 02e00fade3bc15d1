// Package api serves the simulation over HTTP.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/redmesa/solward/internal/agents"
	"github.com/redmesa/solward/internal/engine"
)

// Server exposes a Simulation over HTTP. The engine is single-writer;
// mu serializes all handler access to it.
type Server struct {
	Sim      *engine.Simulation
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	mu sync.Mutex
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	mux := http.NewServeMux()

	// Public endpoints.
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/agents", s.handleAgents)
	mux.HandleFunc("/api/v1/agent/", s.handleAgentRoutes)
	mux.HandleFunc("/api/v1/market", s.handleMarket)
	mux.HandleFunc("/api/v1/actions", s.handleActions)
	mux.HandleFunc("/api/v1/narratives", s.handleNarratives)
	mux.HandleFunc("/api/v1/songs", s.handleSongs)

	// Admin endpoints.
	mux.HandleFunc("/api/v1/step/day", s.adminOnly(s.handleStepDay))
	mux.HandleFunc("/api/v1/step/night", s.adminOnly(s.handleStepNight))
	mux.HandleFunc("/api/v1/agents/create", s.adminOnly(s.handleCreateAgent))

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		handler := corsMiddleware(mux)
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins. Set
// CORS_ORIGINS to a comma-separated list; localhost dev servers are always
// allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no SOLWARD_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.Sim.State

	writeJSON(w, map[string]any{
		"day":      st.Day,
		"stage":    st.CurrentStage,
		"alive":    len(st.Agents),
		"dead":     len(st.DeadAgents),
		"listings": st.Market.Len(),
		"songs":    len(st.AllSongs()),
	})
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	writeJSON(w, map[string]any{
		"agents": s.Sim.State.Agents,
		"dead":   s.Sim.State.DeadAgents,
	})
}

// handleAgentRoutes dispatches /api/v1/agent/{id} and its admin sub-routes
// /api/v1/agent/{id}/kill and /api/v1/agent/{id}/update.
func (s *Server) handleAgentRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/agent/")
	parts := strings.SplitN(rest, "/", 2)
	id := parts[0]
	if id == "" {
		http.Error(w, "missing agent id", http.StatusBadRequest)
		return
	}

	if len(parts) == 1 {
		s.handleAgentDetail(w, r, id)
		return
	}
	switch parts[1] {
	case "kill":
		s.adminOnly(func(w http.ResponseWriter, r *http.Request) {
			s.handleKillAgent(w, r, id)
		})(w, r)
	case "update":
		s.adminOnly(func(w http.ResponseWriter, r *http.Request) {
			s.handleUpdateAgent(w, r, id)
		})(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (s *Server) handleAgentDetail(w http.ResponseWriter, r *http.Request, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.Sim.AgentByID(id)
	if a == nil {
		a = s.Sim.AgentByName(id)
	}
	if a == nil {
		http.Error(w, "agent not found", http.StatusNotFound)
		return
	}
	writeJSON(w, a)
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var filter *agents.GoodType
	if q := r.URL.Query().Get("type"); q != "" {
		t := agents.GoodType(strings.ToUpper(q))
		if !t.Valid() {
			http.Error(w, fmt.Sprintf("unknown good type %q", q), http.StatusBadRequest)
			return
		}
		filter = &t
	}
	writeJSON(w, map[string]any{"listings": s.Sim.State.Market.Filtered(filter)})
}

func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	writeJSON(w, map[string]any{
		"day":     s.Sim.State.Day,
		"actions": s.Sim.State.TodayActions(),
	})
}

func (s *Server) handleNarratives(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	writeJSON(w, map[string]any{"narratives": s.Sim.State.Narratives})
}

func (s *Server) handleSongs(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	writeJSON(w, map[string]any{"songs": s.Sim.State.AllSongs()})
}

func (s *Server) handleStepDay(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.Sim.ProcessDay(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{
		"day":     s.Sim.State.Day,
		"stage":   s.Sim.State.CurrentStage,
		"actions": s.Sim.State.TodayActions(),
	})
}

func (s *Server) handleStepNight(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nightOf := s.Sim.State.Day
	if err := s.Sim.ProcessNight(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{
		"day":        s.Sim.State.Day,
		"activities": s.Sim.State.NightActivities[nightOf],
	})
}

func (s *Server) handleCreateAgent(w http.ResponseWriter, r *http.Request) {
	var p agents.SpawnParams
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "bad request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.Sim.CreateAgent(p)
	writeJSON(w, a)
}

func (s *Server) handleKillAgent(w http.ResponseWriter, r *http.Request, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.Sim.KillAgent(id); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"killed": id})
}

func (s *Server) handleUpdateAgent(w http.ResponseWriter, r *http.Request, id string) {
	var u struct {
		Credits *float64      `json:"credits"`
		Food    *float64      `json:"food"`
		Rest    *float64      `json:"rest"`
		Fun     *float64      `json:"fun"`
		Goods   []agents.Good `json:"goods"`
	}
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		http.Error(w, "bad request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.Sim.UpdateAgent(id, engine.AgentUpdate{
		Credits: u.Credits, Food: u.Food, Rest: u.Rest, Fun: u.Fun, Goods: u.Goods,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, s.Sim.AgentByID(id))
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
