package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/muurk/wsecho/internal/version"
)

// HealthResponse is the /healthz payload.
type HealthResponse struct {
	Status            string `json:"status"`
	State             string `json:"state"`
	Mode              string `json:"mode"`
	AuthRequired      bool   `json:"auth_required"`
	ActiveConnections int64  `json:"active_connections"`
	Uptime            string `json:"uptime"`
	Version           string `json:"version"`
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("/", s.endpoint)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	mode := "http"
	if s.config.Secure {
		mode = "https"
	}

	resp := HealthResponse{
		Status:            "ok",
		State:             s.State().String(),
		Mode:              mode,
		AuthRequired:      s.token.Required(),
		ActiveConnections: s.endpoint.Active(),
		Uptime:            time.Since(s.started).Round(time.Second).String(),
		Version:           version.Version,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
