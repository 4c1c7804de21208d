package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// the dashboard runs on a different port locally
	CheckOrigin: func(r *http.Request) bool { return true },
}

// streamInterval paces rate pushes to subscribers.
const streamInterval = 2 * time.Second

// StreamRates handles GET /routing/stream and pushes the treasury rate
// snapshot over a websocket until the client disconnects.
func (h *Handlers) StreamRates(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	// drain control frames so pings and close are processed
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()
	for {
		snap, err := h.source.Snapshot(r.Context())
		if err != nil {
			log.Warn().Err(err).Msg("rate snapshot unavailable for stream")
		} else {
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(map[string]interface{}{
				"timestamp": time.Now().UTC(),
				"rates":     snap,
			}); err != nil {
				return
			}
		}
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}
