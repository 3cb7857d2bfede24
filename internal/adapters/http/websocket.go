package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/geoplan/internal/adapters/nats"
	"github.com/samirrijal/geoplan/internal/core/domain"
	"github.com/samirrijal/geoplan/internal/pkg/metrics"
)

// wsMessage is sent from client to change what is relayed.
type wsMessage struct {
	Action  string `json:"action"`  // "subscribe" | "unsubscribe"
	Channel string `json:"channel"` // "plans" | "failures" (default: plans)
}

// wsChannels maps a client channel onto a filter over plan events.
var wsChannels = map[string]func(*domain.PlanExecutedEvent) bool{
	"plans":    func(*domain.PlanExecutedEvent) bool { return true },
	"failures": func(ev *domain.PlanExecutedEvent) bool { return len(ev.Warnings) > 0 },
}

// WebSocketHandler returns a handler that relays executed-plan events from NATS
// to connected clients. Every client starts on the "plans" channel.
// Clients send JSON: {"action":"subscribe","channel":"failures"}
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		if nc == nil {
			_ = c.WriteJSON(map[string]string{"error": "event relay not configured"})
			return
		}

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		remoteAddr := c.RemoteAddr().String()
		slog.Info("ws client connected", "remote", remoteAddr)

		var mu sync.Mutex
		channels := map[string]bool{"plans": true}

		// Helper: thread-safe write
		writeRaw := func(data []byte) error {
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			return writeRaw(data)
		}

		sub, err := nc.Subscribe(natsadapter.SubjectPlanExecuted, func(msg *nats.Msg) {
			var ev domain.PlanExecutedEvent
			if err := json.Unmarshal(msg.Data, &ev); err != nil {
				return
			}
			mu.Lock()
			relay := false
			for name, on := range channels {
				if on && wsChannels[name](&ev) {
					relay = true
					break
				}
			}
			mu.Unlock()
			if relay {
				_ = writeRaw(msg.Data)
			}
		})
		if err != nil {
			slog.Error("ws subscribe failed", "subject", natsadapter.SubjectPlanExecuted, "error", err)
			return
		}
		defer func() { _ = sub.Unsubscribe() }()

		// Keep-alive ping
		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		// Read client messages for subscribe/unsubscribe
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			channel := m.Channel
			if channel == "" {
				channel = "plans"
			}
			if _, ok := wsChannels[channel]; !ok {
				_ = writeJSON(map[string]string{"error": "unknown channel: " + channel})
				continue
			}

			switch m.Action {
			case "subscribe", "unsubscribe":
				on := m.Action == "subscribe"
				mu.Lock()
				channels[channel] = on
				mu.Unlock()
				_ = writeJSON(map[string]string{"status": m.Action + "d", "channel": channel})
			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		slog.Info("ws client disconnected", "remote", remoteAddr)
	}
}
