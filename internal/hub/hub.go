package hub

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/XavierBriggs/fortuna/services/game-simulator/internal/client"
	"github.com/XavierBriggs/fortuna/services/game-simulator/pkg/models"
)

// Hub maintains the set of active clients and fans game events out to them
type Hub struct {
	clients   map[*client.Client]bool
	clientsMu sync.RWMutex

	// Inbound events from game runners
	broadcast chan models.GameEvent

	register   chan *client.Client
	unregister chan *client.Client

	// closed once Run returns so late callers don't block
	done chan struct{}

	// Metrics
	totalConnections int64
	totalMessages    int64
	droppedEvents    int64
	metricsMu        sync.Mutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client.Client]bool),
		broadcast:  make(chan models.GameEvent, 1000),
		register:   make(chan *client.Client),
		unregister: make(chan *client.Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run(ctx context.Context) {
	fmt.Println("✓ Hub started")

	go h.reportMetrics(ctx)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case c := <-h.register:
			h.registerClient(c)

		case c := <-h.unregister:
			h.unregisterClient(c)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

// Register adds a client to the hub. It reports false once the hub has
// shut down.
func (h *Hub) Register(c *client.Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(c *client.Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast queues a game event for every matching client. It never blocks
// a game runner: when the queue is full the event is dropped.
func (h *Hub) Broadcast(event models.GameEvent) {
	select {
	case h.broadcast <- event:
	default:
		h.metricsMu.Lock()
		h.droppedEvents++
		h.metricsMu.Unlock()
		fmt.Println("⚠️  Broadcast buffer full, dropping message")
	}
}

func (h *Hub) registerClient(c *client.Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.clients[c] = true

	h.metricsMu.Lock()
	h.totalConnections++
	h.metricsMu.Unlock()

	fmt.Printf("client %s connected (total: %d)\n", c.ID, len(h.clients))
}

func (h *Hub) unregisterClient(c *client.Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.Close()
		fmt.Printf("client %s disconnected (total: %d)\n", c.ID, len(h.clients))
	}
}

// broadcastEvent sends an event to all clients whose filter matches it.
// Clients whose buffer is full are too slow and get disconnected.
func (h *Hub) broadcastEvent(event models.GameEvent) {
	h.clientsMu.RLock()
	clients := make([]*client.Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	message := models.ServerMessage{
		Type:      event.Type,
		Payload:   event.Payload,
		Timestamp: time.Now(),
	}

	sent := 0
	for _, c := range clients {
		if !c.MatchesFilter(event) {
			continue
		}

		if c.TrySend(message) {
			sent++
			continue
		}

		fmt.Printf("⚠️  client %s buffer full, disconnecting\n", c.ID)
		go h.Unregister(c)
	}

	if sent > 0 {
		h.metricsMu.Lock()
		h.totalMessages += int64(sent)
		h.metricsMu.Unlock()
	}
}

// GetMetrics returns hub metrics
func (h *Hub) GetMetrics() map[string]interface{} {
	activeClients := h.GetClientCount()

	h.metricsMu.Lock()
	defer h.metricsMu.Unlock()

	return map[string]interface{}{
		"active_clients":     activeClients,
		"total_connections":  h.totalConnections,
		"total_messages":     h.totalMessages,
		"dropped_events":     h.droppedEvents,
		"broadcast_capacity": cap(h.broadcast),
		"broadcast_usage":    len(h.broadcast),
	}
}

// GetClientCount returns the number of active clients
func (h *Hub) GetClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// shutdown closes all client connections
func (h *Hub) shutdown() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	fmt.Printf("🛑 Shutting down hub (%d active clients)\n", len(h.clients))

	close(h.done)

	for c := range h.clients {
		c.Close()
		delete(h.clients, c)
	}
}

func (h *Hub) reportMetrics(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics := h.GetMetrics()
			fmt.Printf("📊 Hub Metrics: clients=%d total_connections=%d messages=%d dropped=%d\n",
				metrics["active_clients"],
				metrics["total_connections"],
				metrics["total_messages"],
				metrics["dropped_events"])
		}
	}
}
