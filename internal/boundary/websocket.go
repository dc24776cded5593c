// Package boundary is a thin demonstration of the Event Bus's Subscribe
// contract over the wire: one WebSocket connection per scan id, relaying
// ScanEvents as JSON frames until the client disconnects or the scan closes.
// It intentionally does not reproduce a full Fiber-style HTTP surface. The
// request/response API around starting, inspecting and cancelling scans is a CLI concern
// (see cmd/), not a core one.
package boundary

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/openaudit/a11yscan/pkg/eventbus"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler streams one scan's events to a single WebSocket client.
type Handler struct {
	bus *eventbus.Bus
}

func NewHandler(bus *eventbus.Bus) *Handler {
	return &Handler{bus: bus}
}

// ServeScan upgrades the connection and relays events for scanID until the
// bus closes the subscription or the client goes away. sinceSeq lets a
// reconnecting client resume just after the last event it saw.
func (h *Handler) ServeScan(w http.ResponseWriter, r *http.Request, scanID string, sinceSeq int64) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("scan", scanID).Msg("boundary: websocket upgrade failed")
		return
	}
	defer conn.Close()

	sub := h.bus.Subscribe(scanID, sinceSeq)
	defer sub.Close()

	pings := time.NewTicker(30 * time.Second)
	defer pings.Stop()

	for {
		select {
		case event, ok := <-sub.Events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				log.Debug().Err(err).Str("scan", scanID).Msg("boundary: client write failed, closing")
				return
			}
		case <-sub.Overrun:
			_ = conn.WriteJSON(map[string]string{"error": "overrun: client too slow, disconnecting"})
			return
		case <-pings.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
