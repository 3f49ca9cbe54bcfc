package handlers

import (
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/Seedline-Foundation/Coindailynow-sub013/pkg/logger"
)

// EventHub fans tracking and structuring events out to websocket
// subscribers. Slow or dead connections are dropped rather than blocking the
// broadcast.
type EventHub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func NewEventHub() *EventHub {
	return &EventHub{conns: make(map[*websocket.Conn]struct{})}
}

// HandleConnection registers a subscriber and holds the connection open
// until the client disconnects.
func (h *EventHub) HandleConnection(c *websocket.Conn) {
	logger.Info("Event subscriber connected")

	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.conns, c)
		h.mu.Unlock()
		c.Close()
		logger.Info("Event subscriber disconnected")
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}

// Broadcast sends one event to every subscriber.
func (h *EventHub) Broadcast(eventType string, payload interface{}) {
	msg := map[string]interface{}{
		"type":      eventType,
		"payload":   payload,
		"timestamp": time.Now().Unix(),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		if err := conn.WriteJSON(msg); err != nil {
			logger.Warn("Dropping event subscriber", zap.Error(err))
			delete(h.conns, conn)
			conn.Close()
		}
	}
}
