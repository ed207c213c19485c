// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samber/oops"

	"github.com/axosm/axosm/internal/core"
	"github.com/axosm/axosm/internal/world"
)

// Stream transports, used as metric labels.
const (
	TransportSSE       = "sse"
	TransportWebSocket = "websocket"
)

const (
	eventLagged    = "lagged"
	wsWriteTimeout = 10 * time.Second
	wsReadLimit    = 512
)

// streamSink writes stream messages to one client.
type streamSink interface {
	event(ev core.Event) error
	lagged(missed uint64) error
	keepalive() error
}

// pump relays the subscription to sink until the client goes away, the
// server stops or the bus closes.
func (s *Server) pump(ctx context.Context, sub *core.Subscription, sink streamSink) error {
	ticker := time.NewTicker(s.cfg.KeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := sink.keepalive(); err != nil {
				return err
			}
		case ev, ok := <-sub.Events():
			if !ok {
				return nil
			}
			if n := sub.Missed(); n > 0 {
				if err := sink.lagged(n); err != nil {
					return err
				}
			}
			if err := sink.event(ev); err != nil {
				return err
			}
		}
	}
}

func (s *Server) streamPlayer(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("player_id")
	if raw == "" {
		return 0, &world.ValidationError{Field: "player_id", Message: "is required"}
	}
	playerID, err := parseInt(raw, "player_id", 64)
	if err != nil {
		return 0, err
	}
	if err := world.ValidatePlayerID(playerID); err != nil {
		return 0, err
	}
	return playerID, nil
}

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	playerID, err := s.streamPlayer(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rc := http.NewResponseController(w)
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		s.logger.ErrorContext(r.Context(), "event stream cannot flush", "error", err)
		return
	}

	sub := s.bus.Subscribe(core.ForPlayer(playerID))
	defer sub.Close()
	s.rec.StreamOpened(TransportSSE)
	defer s.rec.StreamClosed(TransportSSE)
	s.logger.DebugContext(r.Context(), "event stream opened", "transport", TransportSSE, "player_id", playerID)

	sink := &sseSink{w: w, rc: rc}
	if err := s.pump(r.Context(), sub, sink); err != nil {
		s.logger.DebugContext(r.Context(), "event stream write failed", "player_id", playerID, "error", err)
	}
	s.logger.DebugContext(r.Context(), "event stream closed", "transport", TransportSSE, "player_id", playerID)
}

type sseSink struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

func (s *sseSink) event(ev core.Event) error {
	return s.write(string(ev.Type), ev.ID.String(), eventView(ev))
}

func (s *sseSink) lagged(missed uint64) error {
	return s.write(eventLagged, "", LaggedView{Type: eventLagged, Missed: missed})
}

func (s *sseSink) keepalive() error {
	if _, err := fmt.Fprint(s.w, ": keepalive\n\n"); err != nil {
		return err
	}
	return s.rc.Flush()
}

func (s *sseSink) write(kind, id string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return oops.Code("EVENT_ENCODE_FAILED").With("event_type", kind).Wrap(err)
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\n", kind); err != nil {
		return err
	}
	if id != "" {
		if _, err := fmt.Fprintf(s.w, "id: %s\n", id); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	return s.rc.Flush()
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	playerID, err := s.streamPlayer(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		s.logger.DebugContext(r.Context(), "websocket upgrade failed", "player_id", playerID, "error", err)
		return
	}
	defer conn.Close()

	sub := s.bus.Subscribe(core.ForPlayer(playerID))
	defer sub.Close()
	s.rec.StreamOpened(TransportWebSocket)
	defer s.rec.StreamClosed(TransportWebSocket)
	s.logger.DebugContext(r.Context(), "event stream opened", "transport", TransportWebSocket, "player_id", playerID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The client never sends data; reading only services control frames and
	// notices disconnects.
	readDone := make(chan struct{})
	conn.SetReadLimit(wsReadLimit)
	readWait := 2 * s.cfg.KeepAlive
	_ = conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readWait))
	})
	go func() {
		defer close(readDone)
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	sink := &wsSink{conn: conn}
	err = s.pump(ctx, sub, sink)
	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		s.logger.DebugContext(r.Context(), "event stream write failed", "player_id", playerID, "error", err)
	}

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	_ = conn.Close()
	<-readDone
	s.logger.DebugContext(r.Context(), "event stream closed", "transport", TransportWebSocket, "player_id", playerID)
}

type wsSink struct {
	conn *websocket.Conn
}

func (s *wsSink) event(ev core.Event) error {
	return s.write(eventView(ev))
}

func (s *wsSink) lagged(missed uint64) error {
	return s.write(LaggedView{Type: eventLagged, Missed: missed})
}

func (s *wsSink) keepalive() error {
	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout))
}

func (s *wsSink) write(v any) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return s.conn.WriteJSON(v)
}
