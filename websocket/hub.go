package websocket

import (
	"context"
	"log"
	"sync"
	"time"

	"songfetch/types"
)

// AllJobs is the subscription key for clients that follow every job
const AllJobs = "all"

// Hub interface defines the methods for managing WebSocket connections
type Hub interface {
	Run(ctx context.Context)
	BroadcastProgress(msg types.ProgressMessage)
	RegisterClient(client *Client)
	UnregisterClient(client *Client)
	ClientCount(jobID string) int
}

// hub maintains the set of active clients and fans progress out to them
type hub struct {
	// Registered clients mapped by job ID, or AllJobs
	clients map[string]map[*Client]bool

	broadcast  chan types.ProgressMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once

	mu sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub() Hub {
	return &hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan types.ProgressMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop and returns when ctx is done
func (h *hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.stopOnce.Do(func() { close(h.done) })
			h.closeAll()
			return

		case client := <-h.register:
			jobID := client.JobID()
			h.mu.Lock()
			if h.clients[jobID] == nil {
				h.clients[jobID] = make(map[*Client]bool)
			}
			h.clients[jobID][client] = true
			h.mu.Unlock()
			log.Printf("[websocket] client connected for job %s", jobID)

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
			log.Printf("[websocket] client disconnected for job %s", client.JobID())

		case message := <-h.broadcast:
			h.mu.Lock()
			h.deliver(message.JobID, message)
			h.deliver(AllJobs, message)
			h.mu.Unlock()
		}
	}
}

// deliver sends message to one subscription group, dropping slow clients.
// Callers hold h.mu.
func (h *hub) deliver(key string, message types.ProgressMessage) {
	for client := range h.clients[key] {
		select {
		case client.send <- message:
		default:
			h.remove(client)
		}
	}
}

// remove drops a client and closes its send channel. Callers hold h.mu.
func (h *hub) remove(client *Client) {
	clients, ok := h.clients[client.JobID()]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.JobID())
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.clients {
		for client := range clients {
			h.remove(client)
		}
	}
}

// BroadcastProgress queues msg for the job's subscribers and for AllJobs
func (h *hub) BroadcastProgress(msg types.ProgressMessage) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	select {
	case h.broadcast <- msg:
	default:
		log.Printf("[websocket] broadcast channel full, dropping message for job %s", msg.JobID)
	}
}

// RegisterClient registers a new client with the hub
func (h *hub) RegisterClient(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

// UnregisterClient unregisters a client from the hub
func (h *hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount returns the number of clients subscribed under jobID
func (h *hub) ClientCount(jobID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[jobID])
}
