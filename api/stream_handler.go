package api

import (
	"log/slog"
	"net/http"
	"time"

	"secure-dm/domain/event"
	"secure-dm/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	pingInterval = 30 * time.Second
	writeTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin policy is the reverse proxy's job; tokens gate access.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// streamEvent is the wire envelope: one event per stored message
// addressed to the subscriber, ciphertext only.
type streamEvent struct {
	Type    string              `json:"type"`
	Payload event.MessageStored `json:"payload"`
}

// StreamHandler upgrades the session to a websocket and forwards the
// caller's realtime subscription until the client disconnects. The
// deferred Close guarantees the subscription never outlives the view.
type StreamHandler struct {
	log    *slog.Logger
	broker *realtime.Broker
}

func NewStreamHandler(log *slog.Logger, broker *realtime.Broker) *StreamHandler {
	return &StreamHandler{log: log, broker: broker}
}

func (h *StreamHandler) Stream(c *gin.Context) {
	userID := c.GetString(ctxUserID)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error.
		h.log.Warn("Websocket upgrade failed", "user_id", userID, "error", err)
		return
	}
	defer conn.Close()

	sub := h.broker.Subscribe(userID)
	defer sub.Close()

	// Read pump: the client sends nothing meaningful, but reading is
	// required to notice close frames and dead peers.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case evt, ok := <-sub.Events():
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(streamEvent{Type: "message", Payload: evt}); err != nil {
				h.log.Warn("Failed to push event to stream", "user_id", userID, "error", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
