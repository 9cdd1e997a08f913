package server

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"vox/pkg/audioconv"
)

const (
	// CloseUnauthorized is sent when the socket key does not match.
	CloseUnauthorized = 4401

	AudioDisabled  = "Audio input is not enabled."
	AudioNotHeard  = "I did not catch that."
	somethingWrong = "Something went wrong."

	writeWait = 5 * time.Second
	// maxAudioSeconds bounds decoded binary frames.
	maxAudioSeconds = 60
)

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("WebSocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	if !s.authorized(r.URL.Query().Get("key")) {
		log.Warn("WebSocket rejected", "user", userID)
		msg := websocket.FormatCloseMessage(CloseUnauthorized, "unauthorized")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		return
	}

	log.Debug("WebSocket open", "user", userID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if isClosed(err) {
				log.Debug("WebSocket closed", "user", userID)
			} else {
				log.Warn("WebSocket read failed", "user", userID, "err", err)
			}
			return
		}

		switch kind {
		case websocket.TextMessage:
			s.converse(ctx, conn, userID, string(data))
		case websocket.BinaryMessage:
			s.converseAudio(ctx, conn, userID, data)
		}
	}
}

// converse runs one user message through the router, streaming frames back.
func (s *Server) converse(ctx context.Context, conn *websocket.Conn, userID, text string) {
	defer func() {
		if v := recover(); v != nil {
			log.Error("WebSocket handler panic", "user", userID, "panic", v)
			_ = sendText(conn, somethingWrong)
		}
	}()

	s.router.Stream(ctx, userID, text, func(chunk string) error {
		return sendText(conn, chunk)
	})
}

func (s *Server) converseAudio(ctx context.Context, conn *websocket.Conn, userID string, data []byte) {
	if s.cfg.Transcriber == nil {
		_ = sendText(conn, AudioDisabled)
		return
	}

	text, err := s.transcribe(ctx, data)
	if err != nil {
		log.Error("Audio frame rejected", "user", userID, "err", err)
		_ = sendText(conn, fmt.Sprintf("Could not process audio: %v", err))
		return
	}
	if strings.TrimSpace(text) == "" {
		_ = sendText(conn, AudioNotHeard)
		return
	}

	log.Debug("Transcribed audio frame", "user", userID, "text", text)
	s.converse(ctx, conn, userID, text)
}

func (s *Server) transcribe(ctx context.Context, data []byte) (string, error) {
	pcm, err := audioconv.Decode(data, audioconv.Options{MaxSamples: maxAudioSeconds * audioconv.TargetRate})
	if err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	text, err := s.cfg.Transcriber.Transcribe(ctx, pcm)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	return text, nil
}

func sendText(conn *websocket.Conn, text string) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, []byte(text))
}

func isClosed(err error) bool {
	var ce *websocket.CloseError
	return errors.As(err, &ce)
}
