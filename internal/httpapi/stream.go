package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// handleStream pushes the health document on connect and again whenever a
// new snapshot is swapped in.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// Drain reads so close frames and pings are processed.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	var (
		last time.Time
		sent bool
	)
	push := func() bool {
		h := s.cache.Health()
		var generated time.Time
		if h.GeneratedAt != nil {
			generated = *h.GeneratedAt
		}
		if sent && generated.Equal(last) {
			return true
		}
		last, sent = generated, true
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(h) == nil
	}

	if !push() {
		return
	}

	ticker := time.NewTicker(s.pushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			return
		case <-closed:
			return
		case <-ticker.C:
			if !push() {
				return
			}
		}
	}
}
