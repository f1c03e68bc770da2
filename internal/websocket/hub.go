package websocket

import (
	"context"
	"sync"
)

// Hub tracks live connections per user. Delivery is addressed, not
// channel-based: the event bridge names recipient user IDs and the hub
// fans out to every connection each of them holds.
type Hub struct {
	mu sync.RWMutex

	// clients maps client ID to client (for cleanup)
	clients map[string]*Client

	// byUser maps user ID to that user's open connections
	byUser map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		byUser:     make(map[string]map[*Client]struct{}),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

// Register adds a new client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// BroadcastToUser sends a message to all connections for a specific user
func (h *Hub) BroadcastToUser(userID string, payload []byte) {
	h.mu.RLock()
	for client := range h.byUser[userID] {
		client.SendMessage(payload)
	}
	h.mu.RUnlock()
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetUserConnectionCount returns how many connections a user holds
func (h *Hub) GetUserConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID])
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	if _, ok := h.byUser[client.UserID]; !ok {
		h.byUser[client.UserID] = make(map[*Client]struct{})
	}
	h.byUser[client.UserID][client] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}

	if conns, ok := h.byUser[client.UserID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.byUser, client.UserID)
		}
	}

	delete(h.clients, client.ID)
	close(client.Send)
}
