package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/voltfinder/internal/adapters/nats"
	"github.com/samirrijal/voltfinder/internal/core/domain"
	"github.com/samirrijal/voltfinder/internal/core/usecases"
	"github.com/samirrijal/voltfinder/internal/pkg/metrics"
)

// wsMessage is sent from client to subscribe/unsubscribe to event types.
type wsMessage struct {
	Action string           `json:"action"` // "subscribe" | "unsubscribe"
	Event  domain.EventName `json:"event"`  // "press" | "regionChanged"
}

const wsQueueSize = 64

// eventQueue buffers the relayed events of one socket so event dispatch
// never waits on the client. Push drops the event when the queue is full.
type eventQueue struct{ ch chan []byte }

func newEventQueue(size int) *eventQueue {
	return &eventQueue{ch: make(chan []byte, size)}
}

func (q *eventQueue) push(data []byte) bool {
	select {
	case q.ch <- data:
		return true
	default:
		metrics.WebSocketDropped.Inc()
		return false
	}
}

// relay delivers the encoded events of one session and event type to fn.
type relay interface {
	subscribe(session string, ev domain.EventName, fn func([]byte)) (func(), error)
}

// natsRelay reads events back from the broker, so any mapd replica can
// serve the socket.
type natsRelay struct{ nc *nats.Conn }

func (r natsRelay) subscribe(session string, ev domain.EventName, fn func([]byte)) (func(), error) {
	sub, err := r.nc.Subscribe(natsadapter.MapSubject(session, ev), func(msg *nats.Msg) {
		fn(msg.Data)
	})
	if err != nil {
		return nil, err
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

// sessionRelay subscribes to the in-process session service.
type sessionRelay struct{ sessions *usecases.MapSessionService }

func (r sessionRelay) subscribe(session string, ev domain.EventName, fn func([]byte)) (func(), error) {
	return r.sessions.Subscribe(session, func(me domain.MapEvent) {
		if me.Type != ev {
			return
		}
		data, err := json.Marshal(me)
		if err != nil {
			return
		}
		fn(data)
	})
}

func relayFor(deps *Dependencies) relay {
	if deps.NATS != nil {
		return natsRelay{deps.NATS}
	}
	return sessionRelay{deps.Sessions}
}

// WebSocketUpgrade rejects non-upgrade requests and requests for unknown
// sessions before the handshake.
func WebSocketUpgrade(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		id := c.Query("session")
		if id == "" {
			return errBadRequest(c, "session query parameter is required")
		}
		if _, err := deps.Sessions.Get(id); err != nil {
			return errFrom(c, err)
		}
		c.Locals("session", id)
		return c.Next()
	}
}

// WebSocketHandler relays the events of the session named by ?session= to
// the client. Both event types are relayed until the client unsubscribes.
// Clients send JSON: {"action":"unsubscribe","event":"press"}
func WebSocketHandler(r relay) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		session, _ := c.Locals("session").(string)
		log := slog.Default().With("component", "ws", "session", session, "remote", c.RemoteAddr().String())
		log.Info("ws client connected")
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		var mu sync.Mutex
		writeJSON := func(v any) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}
		queue := newEventQueue(wsQueueSize)
		forward := func(data []byte) {
			if !queue.push(data) {
				log.Debug("ws send queue full, event dropped")
			}
		}

		subs := make(map[domain.EventName]func())
		defer func() {
			for _, cancel := range subs {
				cancel()
			}
		}()
		for _, ev := range []domain.EventName{domain.EventPress, domain.EventRegionChanged} {
			cancel, err := r.subscribe(session, ev, forward)
			if err != nil {
				log.Warn("ws subscribe failed", "event", ev, "error", err)
				return
			}
			subs[ev] = cancel
		}

		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case data := <-queue.ch:
					if err := writeJSON(json.RawMessage(data)); err != nil {
						return
					}
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

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(fiber.Map{"error": "invalid JSON"})
				continue
			}
			if !m.Event.Valid() {
				_ = writeJSON(fiber.Map{"error": "unknown event: " + string(m.Event)})
				continue
			}

			switch m.Action {
			case "subscribe":
				if _, ok := subs[m.Event]; ok {
					_ = writeJSON(fiber.Map{"status": "already subscribed", "event": m.Event})
					continue
				}
				cancel, err := r.subscribe(session, m.Event, forward)
				if err != nil {
					_ = writeJSON(fiber.Map{"error": "subscribe failed: " + err.Error()})
					continue
				}
				subs[m.Event] = cancel
				_ = writeJSON(fiber.Map{"status": "subscribed", "event": m.Event})

			case "unsubscribe":
				cancel, ok := subs[m.Event]
				if !ok {
					_ = writeJSON(fiber.Map{"error": "not subscribed to " + string(m.Event)})
					continue
				}
				cancel()
				delete(subs, m.Event)
				_ = writeJSON(fiber.Map{"status": "unsubscribed", "event": m.Event})

			default:
				_ = writeJSON(fiber.Map{"error": "unknown action: " + m.Action})
			}
		}

		log.Info("ws client disconnected")
	}
}
