// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ManuGH/netreset/internal/log"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	streamBuffer = 8
)

func (s *Server) upgrader() *websocket.Upgrader {
	allowed := make(map[string]bool, len(s.cfg.CORSOrigins))
	for _, o := range s.cfg.CORSOrigins {
		allowed[o] = true
	}
	allowAll := len(allowed) == 0 || allowed["*"]

	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return allowAll || origin == "" || allowed[origin]
		},
	}
}

// handleStream pushes the display state as JSON on every change, starting with the
// current one. Client messages are discarded; the read loop only tracks liveness.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "stream")
	if !s.trackStream() {
		writeError(w, r, http.StatusServiceUnavailable, "shutting_down", nil)
		return
	}
	defer s.streams.Done()

	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already answered the client.
		logger.Debug().Err(err).Str(log.FieldEvent, "stream.upgrade_failed").Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	updates, unsubscribe := s.ctrl.Subscribe(streamBuffer)
	defer unsubscribe()

	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	logger.Debug().Str(log.FieldEvent, "stream.opened").Msg("state stream opened")
	defer logger.Debug().Str(log.FieldEvent, "stream.closed").Msg("state stream closed")

	for {
		select {
		case ds, ok := <-updates:
			if !ok {
				s.closeStream(conn, websocket.CloseGoingAway, "controller stopped")
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ds); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.streamCtx.Done():
			s.closeStream(conn, websocket.CloseGoingAway, "server shutting down")
			return
		case <-clientGone:
			return
		}
	}
}

func (s *Server) closeStream(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

// trackStream registers a new stream unless Close has started.
func (s *Server) trackStream() bool {
	s.streamMu.Lock()
	defer s.streamMu.Unlock()
	if s.streamsDone {
		return false
	}
	s.streams.Add(1)
	return true
}
