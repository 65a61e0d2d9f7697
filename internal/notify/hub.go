package notify

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"learnhub/internal/repository"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// How often the hub polls the leaderboard cache version. Clients
	// re-fetch on version change instead of being pushed full payloads.
	versionPollInterval = 2 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Wallet auth happens over the API; the socket itself only carries
	// public change signals
	CheckOrigin: func(r *http.Request) bool { return true },
}

// XPUpdate is the payload broadcast after a committed award. Delivery is
// at-most-once and best-effort: UI surfaces reconcile by re-fetching.
type XPUpdate struct {
	Type          string `json:"type"`
	WalletAddress string `json:"wallet_address"`
	Granted       int    `json:"granted"`
	NewTotalXP    int    `json:"new_total_xp"`
	Level         int    `json:"level"`
	LeveledUp     bool   `json:"leveled_up"`
	Reason        string `json:"reason,omitempty"`
}

// VersionUpdate signals that the leaderboard standings may have changed
type VersionUpdate struct {
	Type    string `json:"type"`
	Version int64  `json:"version"`
}

// Client represents a WebSocket client connection
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub maintains the set of active clients and fans out change signals
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	cache *repository.LeaderboardCache

	mu          sync.RWMutex
	lastVersion int64
}

// NewHub creates a new notification hub
func NewHub(cache *repository.LeaderboardCache) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		cache:      cache,
	}
}

// Run starts the hub loop
func (h *Hub) Run(ctx context.Context) {
	log.Println("Notification hub started")

	ticker := time.NewTicker(versionPollInterval)
	defer ticker.Stop()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.sendInitialVersion(ctx, client)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.fanOut(message)

		case <-ticker.C:
			h.checkVersion(ctx)

		case <-ctx.Done():
			log.Println("Notification hub shutting down")
			return
		}
	}
}

// NotifyXPChange broadcasts a committed XP change. Never blocks the
// caller: if the broadcast buffer is full the signal is dropped.
func (h *Hub) NotifyXPChange(update XPUpdate) {
	update.Type = "XP_UPDATE"
	message, err := json.Marshal(update)
	if err != nil {
		log.Printf("Failed to marshal XP update: %v", err)
		return
	}

	select {
	case h.broadcast <- message:
	default:
		log.Println("Notification buffer full, dropping XP update")
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) checkVersion(ctx context.Context) {
	if h.cache == nil {
		return
	}

	version, err := h.cache.Version(ctx)
	if err != nil {
		log.Printf("Failed to read leaderboard version: %v", err)
		return
	}

	if version == h.lastVersion {
		return
	}
	h.lastVersion = version

	message, err := json.Marshal(VersionUpdate{Type: "VERSION_UPDATE", Version: version})
	if err != nil {
		return
	}
	h.fanOut(message)
}

func (h *Hub) sendInitialVersion(ctx context.Context, client *Client) {
	if h.cache == nil {
		return
	}

	version, err := h.cache.Version(ctx)
	if err != nil {
		log.Printf("Failed to read initial version: %v", err)
		return
	}
	if h.lastVersion == 0 {
		h.lastVersion = version
	}

	message, err := json.Marshal(VersionUpdate{Type: "VERSION_UPDATE", Version: version})
	if err != nil {
		return
	}

	select {
	case client.send <- message:
	default:
	}
}

func (h *Hub) fanOut(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			// Slow client, skip rather than block the hub
		}
	}
}

// readPump discards inbound messages and detects disconnects
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket unexpected close: %v", err)
			}
			break
		}
	}
}

// writePump forwards hub messages to the connection
func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}

	// The hub closed the channel
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// ServeWS upgrades an HTTP request and attaches the client to the hub
func ServeWS(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	hub.register <- client

	go client.writePump()
	client.readPump()
}
