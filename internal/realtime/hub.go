// Package realtime fans first solves out to connected websocket clients.
package realtime

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/metrics"
	"github.com/ovaphlow/pitchfork/service-ctf-core/internal/scoring/entity"
)

const writeWait = 5 * time.Second

// Message is the envelope written to clients.
type Message struct {
	Type string       `json:"type"`
	Data entity.Solve `json:"data"`
}

// Hub keeps the set of solve feed clients.
type Hub struct {
	mu        sync.Mutex
	clients   map[*websocket.Conn]bool
	broadcast chan Message
	upgrader  websocket.Upgrader
	writeWait time.Duration
	logger    *zap.SugaredLogger
}

func NewHub(logger *zap.SugaredLogger) *Hub {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Hub{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Message, 64),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		writeWait: writeWait,
		logger:    logger,
	}
}

// Publish queues a solve for broadcast. It never blocks; when the queue is full the solve is dropped.
func (h *Hub) Publish(s entity.Solve) {
	select {
	case h.broadcast <- Message{Type: "solve", Data: s}:
	default:
		h.logger.Warnw("solve feed queue full, dropping", "user", s.UserID, "challenge", s.ChallengeID)
	}
}

// Run delivers queued messages until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case msg := <-h.broadcast:
			h.send(msg)
		}
	}
}

// send writes msg to a snapshot of the clients so a slow client never holds the lock.
// Only Run calls send, so each connection has a single writer.
func (h *Hub) send(msg Message) {
	h.mu.Lock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	for _, client := range clients {
		_ = client.SetWriteDeadline(time.Now().Add(h.writeWait))
		if err := client.WriteJSON(msg); err != nil {
			h.logger.Debugw("websocket write failed, dropping client", "remote", client.RemoteAddr().String(), "err", err)
			h.drop(client)
		}
	}
}

// drop removes a client once; later calls only close the connection again.
func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()
	if ok {
		metrics.RealtimeClients.Dec()
	}
	conn.Close()
}

func (h *Hub) register(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
	metrics.RealtimeClients.Inc()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		client.Close()
		delete(h.clients, client)
		metrics.RealtimeClients.Dec()
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeWS upgrades the request and keeps the client registered until it disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debugw("websocket upgrade failed", "err", err)
		return
	}
	h.register(conn)
	defer h.drop(conn)

	// clients only listen; reading detects the disconnect
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
