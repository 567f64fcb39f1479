package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// AllTopics is the topic of clients that follow every run.
const AllTopics = ""

// Hub maintains the set of active clients and broadcasts events to them
type Hub struct {
	// Registered clients organized by topic
	clients map[string]map[*Client]bool

	// Channel for outbound events
	broadcast chan *Event

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	// Mutex for concurrent access to clients map
	mu sync.RWMutex

	// Logger for Hub operations
	logger zerolog.Logger
}

// Event is pushed to subscribers of a topic
type Event struct {
	// Type of event, e.g. "started", "progress", "finished"
	Type string `json:"type"`

	// Topic the event belongs to; for verification runs the run ID
	Topic string `json:"topic"`

	// Event body
	Payload interface{} `json:"payload,omitempty"`

	// Timestamp when the event was published
	Timestamp time.Time `json:"timestamp"`
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan *Event, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[string]map[*Client]bool),
		logger:     logger.With().Str("component", "websocket").Logger(),
	}
}

// Run handles client registrations and broadcasts until ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

// join hands a new client to Run. It reports false once the hub has stopped.
func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// leave hands a departing client to Run; after shutdown Run has already
// closed every client.
func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// registerClient registers a new client to the hub
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.topic]; !ok {
		h.clients[client.topic] = make(map[*Client]bool)
	}
	h.clients[client.topic][client] = true

	h.logger.Info().
		Str("topic", client.topic).
		Str("username", client.username).
		Msg("Client registered")
}

// unregisterClient unregisters a client from the hub
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.clients[client.topic]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)

	if len(clients) == 0 {
		delete(h.clients, client.topic)
	}

	h.logger.Info().
		Str("topic", client.topic).
		Str("username", client.username).
		Msg("Client unregistered")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.clients {
		for client := range clients {
			h.removeLocked(client)
		}
	}
}

// broadcastEvent sends an event to subscribers of its topic and to clients
// following every topic. Clients whose buffer is full are dropped.
func (h *Hub) broadcastEvent(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("topic", event.Topic).
			Msg("Failed to marshal event for broadcast")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	sent := 0
	topics := []string{event.Topic}
	if event.Topic != AllTopics {
		topics = append(topics, AllTopics)
	}
	for _, topic := range topics {
		for client := range h.clients[topic] {
			select {
			case client.send <- data:
				sent++
			default:
				h.logger.Warn().Str("topic", topic).Msg("Dropping slow websocket client")
				h.removeLocked(client)
			}
		}
	}

	h.logger.Debug().
		Str("topic", event.Topic).
		Str("type", event.Type).
		Int("clientCount", sent).
		Msg("Event broadcasted")
}

// Publish queues an event for broadcast. It never blocks; when the queue
// is full the event is dropped.
func (h *Hub) Publish(eventType, topic string, payload interface{}) {
	event := &Event{Type: eventType, Topic: topic, Payload: payload, Timestamp: time.Now()}
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn().Str("topic", topic).Str("type", eventType).Msg("Broadcast queue full, event dropped")
	}
}

// GetClientsCount returns the number of connected clients for a topic
func (h *Hub) GetClientsCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}
