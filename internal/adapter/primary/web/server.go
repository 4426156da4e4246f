package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"volume-bridge/internal/adapter/secondary/emitter"
	"volume-bridge/internal/domain"
	"volume-bridge/internal/logging"
	"volume-bridge/internal/usecase"
)

// Server is a primary adapter that exposes the volume bridge over HTTP and
// streams change events over a websocket.
// It depends on the use case (primary port).
type Server struct {
	usecase  usecase.VolumeUseCase
	hub      *emitter.Hub
	server   *http.Server
	upgrader websocket.Upgrader
}

// NewServer creates the HTTP server bound to addr.
func NewServer(uc usecase.VolumeUseCase, hub *emitter.Hub, addr string) *Server {
	srv := &Server{
		usecase: uc,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	srv.server = &http.Server{
		Addr:    addr,
		Handler: srv.Handler(),
	}
	return srv
}

// Handler returns the routed handler, wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/volume", s.handleVolume)
	mux.HandleFunc("/api/volumes", s.handleVolumes)
	mux.HandleFunc("/api/lifecycle", s.handleLifecycle)
	mux.HandleFunc("/api/events", s.handleEvents)
	return loggingMiddleware(mux)
}

// Start blocks and serves HTTP traffic.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		streamType := r.URL.Query().Get("type")
		respondJSON(w, http.StatusOK, volumeView{
			Type:  streamType,
			Value: s.usecase.GetVolume(streamType),
		})
	case http.MethodPut, http.MethodPost:
		var req setPayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}
		if req.Value == nil {
			http.Error(w, "value is required", http.StatusBadRequest)
			return
		}
		s.usecase.SetVolume(*req.Value, domain.VolumeConfig{
			Type:      req.Type,
			PlaySound: req.PlaySound,
			ShowUI:    req.ShowUI,
		})
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleVolumes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	respondJSON(w, http.StatusOK, s.usecase.Snapshot())
}

func (s *Server) handleLifecycle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut, http.MethodPost:
		var req lifecyclePayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}
		switch req.State {
		case "resume":
			s.usecase.HostResume()
		case "pause":
			s.usecase.HostPause()
		case "destroy":
			s.usecase.HostDestroy()
		default:
			http.Error(w, "state must be resume, pause or destroy", http.StatusBadRequest)
			return
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"registered": s.usecase.Registered()})
}

// handleEvents upgrades to a websocket and forwards every emitted event
// until the client goes away.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warnf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	// Buffered so Emit never blocks on a slow client; overflow is dropped.
	queue := make(chan eventView, 16)
	id, cancel := s.hub.Subscribe(func(name string, ev domain.VolumeChangedEvent) {
		select {
		case queue <- eventView{Event: name, Data: ev}:
		default:
			logging.Debugf("websocket client queue full, dropping %s", name)
		}
	})
	defer cancel()
	logging.Infof("websocket subscriber %s connected", id)

	// Reads only detect the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			logging.Infof("websocket subscriber %s gone", id)
			return
		case <-r.Context().Done():
			return
		case ev := <-queue:
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(ev); err != nil {
				logging.Debugf("websocket write: %v", err)
				return
			}
		}
	}
}

type volumeView struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

type eventView struct {
	Event string                    `json:"event"`
	Data  domain.VolumeChangedEvent `json:"data"`
}

type setPayload struct {
	Value     *float64 `json:"value"`
	Type      string   `json:"type"`
	PlaySound bool     `json:"playSound"`
	ShowUI    bool     `json:"showUI"`
}

type lifecyclePayload struct {
	State string `json:"state"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Errorf("encode JSON: %v", err)
	}
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.Infof("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
