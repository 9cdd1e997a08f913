// Package server exposes the chat router over REST and WebSocket.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	log "log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"

	"vox/internal/chat"
)

const defaultHistoryLen = 20

// Transcriber turns 16 kHz mono PCM into text.
type Transcriber interface {
	Transcribe(ctx context.Context, pcm []float32) (string, error)
}

type Config struct {
	// APIKey, when set, must be presented as X-API-Key (REST) or ?key= (WebSocket).
	APIKey       string
	AllowOrigins []string
	// StaticDir is served at / when it exists.
	StaticDir string
	// Transcriber enables binary audio frames on the socket.
	Transcriber Transcriber
}

type Server struct {
	router   *chat.Router
	cfg      Config
	upgrader websocket.Upgrader
}

func New(router *chat.Router, cfg Config) http.Handler {
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOrigins = []string{"*"}
	}

	s := &Server{router: router, cfg: cfg}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || originAllowed(cfg.AllowOrigins, origin)
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /history/{user_id}", s.handleHistory)
	mux.HandleFunc("GET /ws/{user_id}", s.handleWS)

	if cfg.StaticDir != "" {
		if st, err := os.Stat(cfg.StaticDir); err == nil && st.IsDir() {
			mux.Handle("GET /", http.FileServer(http.Dir(cfg.StaticDir)))
		} else {
			log.Warn("Static directory not found, frontend disabled", "dir", cfg.StaticDir)
		}
	}

	return chainMiddlewares(mux,
		withRecover,
		withCORS(cfg.AllowOrigins),
		withLogging,
	)
}

type chatRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

type chatResponse struct {
	Reply      string `json:"reply"`
	UserID     string `json:"user_id"`
	ContextLen int    `json:"context_len"`
}

type healthResponse struct {
	Status string `json:"status"`
	Brain  string `json:"brain"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Brain: s.router.Brain().Name()})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r.Header.Get("X-API-Key")) {
		unauthorized(w)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		badRequest(w, "user_id is required")
		return
	}

	reply, n := s.router.Reply(r.Context(), req.UserID, req.Message)
	writeJSON(w, http.StatusOK, chatResponse{
		Reply:      reply,
		UserID:     req.UserID,
		ContextLen: n,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r.Header.Get("X-API-Key")) {
		unauthorized(w)
		return
	}

	n := defaultHistoryLen
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			badRequest(w, "n must be a positive integer")
			return
		}
		n = v
	}

	writeJSON(w, http.StatusOK, s.router.History(r.PathValue("user_id"), n))
}

func (s *Server) authorized(key string) bool {
	if s.cfg.APIKey == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(key)), []byte(s.cfg.APIKey)) == 1
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func unauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{
		"error": "invalid or missing API key",
	})
}

func internalError(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}
