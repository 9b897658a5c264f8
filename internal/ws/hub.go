package ws

import (
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrHubStopped is returned by Publish once Stop has been called.
var ErrHubStopped = errors.New("websocket hub stopped")

// Event is a message pushed to opener sessions.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type roomEvent struct {
	room  string
	event Event
}

// Hub keeps one room per opener session and fans events out to every
// connection of that session.
type Hub struct {
	rooms map[string]map[*Client]bool

	unregister chan *Client
	broadcast  chan *roomEvent
	done       chan struct{}

	mu     sync.RWMutex
	logger *zap.Logger
}

// NewHub creates a hub. Call Run in its own goroutine.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		unregister: make(chan *Client),
		broadcast:  make(chan *roomEvent, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run is the hub's main loop. It returns once Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			return

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case ev := <-h.broadcast:
			message, err := json.Marshal(ev.event)
			if err != nil {
				h.logger.Error("failed to encode event", zap.String("type", ev.event.Type), zap.Error(err))
				continue
			}

			h.mu.Lock()
			for client := range h.rooms[ev.room] {
				select {
				case client.send <- message:
				default:
					// Slow consumer; drop it rather than block every room.
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove must be called with mu held.
func (h *Hub) remove(client *Client) {
	clients, ok := h.rooms[client.room]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.rooms, client.room)
	}
}

// Stop ends Run.
func (h *Hub) Stop() {
	close(h.done)
}

// Register adds a client to its room. The client is reachable by Publish
// as soon as Register returns.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[client.room] == nil {
		h.rooms[client.room] = make(map[*Client]bool)
	}
	h.rooms[client.room][client] = true
}

// Unregister drops a client from its room.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Connected reports whether a room has at least one live connection.
func (h *Hub) Connected(room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room]) > 0
}

// Publish queues an event for every connection of room.
func (h *Hub) Publish(room string, eventType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	select {
	case <-h.done:
		return ErrHubStopped
	default:
	}
	select {
	case h.broadcast <- &roomEvent{room: room, event: Event{Type: eventType, Payload: raw}}:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}
