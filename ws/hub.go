package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vnkhanh/e-flashcard-backend/logger"
)

const (
	StatusInFlight  = "in_flight"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"

	writeWait = 10 * time.Second
)

// GenerationEvent reports a step of a user's generation request.
type GenerationEvent struct {
	Type           string     `json:"type"`
	Status         string     `json:"status"`
	GenerationID   *uuid.UUID `json:"generation_id,omitempty"`
	GeneratedCount int        `json:"generated_count,omitempty"`
	Code           string     `json:"code,omitempty"`
	Message        string     `json:"message,omitempty"`
	At             time.Time  `json:"at"`
}

type Client struct {
	Conn *websocket.Conn
	Send chan []byte
}

// Hub fans generation events out to every open connection of the owning user.
type Hub struct {
	clients map[uuid.UUID]map[*websocket.Conn]*Client
	mu      sync.RWMutex
	log     *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.NewNop()
	}
	return &Hub{clients: make(map[uuid.UUID]map[*websocket.Conn]*Client), log: log}
}

func (h *Hub) Register(userID uuid.UUID, conn *websocket.Conn) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[userID]; !ok {
		h.clients[userID] = make(map[*websocket.Conn]*Client)
	}
	client := &Client{Conn: conn, Send: make(chan []byte, 64)}
	h.clients[userID][conn] = client

	go h.writePump(client)
	return client
}

func (h *Hub) Unregister(userID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[userID]; ok {
		if client, ok := clients[conn]; ok {
			close(client.Send)
			delete(clients, conn)
		}
		if len(clients) == 0 {
			delete(h.clients, userID)
		}
	}
}

// NotifyGeneration never blocks; slow connections drop events.
func (h *Hub) NotifyGeneration(userID uuid.UUID, ev GenerationEvent) {
	ev.Type = "generation"
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("marshal generation event", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients[userID] {
		select {
		case client.Send <- data:
		default:
			h.log.Warn("dropping generation event for slow websocket client", "user_id", userID.String())
		}
	}
}

type Stats struct {
	Users       int `json:"users"`
	Connections int `json:"connections"`
}

func (h *Hub) GetStats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	s := Stats{Users: len(h.clients)}
	for _, clients := range h.clients {
		s.Connections += len(clients)
	}
	return s
}

func (h *Hub) writePump(client *Client) {
	defer client.Conn.Close()
	for msg := range client.Send {
		_ = client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	_ = client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}
