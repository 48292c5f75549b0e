package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"replikv/internal/config"
	"replikv/internal/logging"
	"replikv/internal/replication"
	"replikv/internal/storage"
)

// WriteCoordinator is the leader-side write path behind POST /write.
type WriteCoordinator interface {
	Write(ctx context.Context, key, value string) replication.Result
}

// Server serves the HTTP API for one node.
type Server struct {
	role        config.Role
	nodeID      string
	writeQuorum int
	store       storage.Store
	coordinator WriteCoordinator
	logger      *logging.Logger
}

// NewLeader creates the leader API. writeQuorum is reported by /health.
func NewLeader(store storage.Store, coordinator WriteCoordinator, writeQuorum int, logger *logging.Logger) *Server {
	return &Server{
		role:        config.RoleLeader,
		writeQuorum: writeQuorum,
		store:       store,
		coordinator: coordinator,
		logger:      logger,
	}
}

// NewFollower creates the follower API. nodeID is echoed back in
// responses so clients can tell replicas apart.
func NewFollower(store storage.Store, nodeID string, logger *logging.Logger) *Server {
	return &Server{
		role:   config.RoleFollower,
		nodeID: nodeID,
		store:  store,
		logger: logger,
	}
}

// Handler returns the HTTP handler with the routes for this role.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/read", s.Read)
	r.Get("/dump", s.Dump)
	r.Get("/health", s.Health)
	r.Post("/reset", s.Reset)

	switch s.role {
	case config.RoleLeader:
		r.Post("/write", s.Write)
	case config.RoleFollower:
		r.Post("/replicate", s.Replicate)
	}

	return r
}

// Write accepts a client write, replicates it and answers once the
// quorum decision is known. The local write is kept either way.
func (s *Server) Write(w http.ResponseWriter, r *http.Request) {
	key, value, ok := decodeWrite(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing key or value")
		return
	}

	start := time.Now()
	result := s.coordinator.Write(r.Context(), key, value)
	latency := time.Since(start).Seconds()

	if result.Outcome != replication.Success {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "quorum_not_reached",
			"message": "Not enough followers confirmed",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"key":     key,
		"latency": latency,
	})
}

// Replicate applies a write pushed by the leader.
func (s *Server) Replicate(w http.ResponseWriter, r *http.Request) {
	key, value, ok := decodeWrite(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing key or value")
		return
	}

	s.store.Put(key, value)
	s.logger.Infof("replicated key=%s", key)
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "success"})
}

func (s *Server) Read(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "Missing key parameter")
		return
	}

	value, ok := s.store.Get(key)
	if !ok {
		writeError(w, http.StatusNotFound, "Key not found")
		return
	}

	resp := map[string]interface{}{"key": key, "value": value}
	s.stamp(resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) Dump(w http.ResponseWriter, r *http.Request) {
	data := s.store.Dump()
	resp := map[string]interface{}{"data": data, "count": len(data)}
	s.stamp(resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{"status": "healthy", "role": string(s.role)}
	if s.role == config.RoleLeader {
		resp["quorum"] = s.writeQuorum
	} else {
		resp["follower_id"] = s.nodeID
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) Reset(w http.ResponseWriter, r *http.Request) {
	s.store.Clear()
	s.logger.Infof("store cleared")

	resp := map[string]interface{}{"status": "cleared", "role": string(s.role)}
	s.stamp(resp)
	writeJSON(w, http.StatusOK, resp)
}

// stamp adds the follower identity to a response.
func (s *Server) stamp(resp map[string]interface{}) {
	if s.role == config.RoleFollower {
		resp["follower_id"] = s.nodeID
	}
}

// decodeWrite parses and validates a write payload. The key must be
// present and non-empty; the value must be present but may be empty.
func decodeWrite(r *http.Request) (key, value string, ok bool) {
	var body struct {
		Key   *string `json:"key"`
		Value *string `json:"value"`
	}
	if err := decodeJSON(r, &body); err != nil {
		return "", "", false
	}
	if body.Key == nil || *body.Key == "" || body.Value == nil {
		return "", "", false
	}
	return *body.Key, *body.Value, true
}

// --- JSON helpers ---

func decodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
