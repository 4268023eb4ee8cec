package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/gocomet/taxi-fare/internal/domain/trip"
	"github.com/gocomet/taxi-fare/pkg/logger"
)

// Message represents a WebSocket message
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type envelope struct {
	tripID string
	data   []byte
}

// Hub maintains dashboard connections and fans trip events out to them
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	upgrader   websocket.Upgrader
	logger     logger.Sink
}

// Config holds WebSocket buffer sizes
type Config struct {
	ReadBufferSize  int
	WriteBufferSize int
}

// NewHub creates a new WebSocket hub
func NewHub(cfg Config, log logger.Sink) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan envelope, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: log,
	}
}

// Run starts the hub's main loop and returns when ctx is done
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Info("Client registered", logger.String("client_id", client.ID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.logger.Info("Client unregistered", logger.String("client_id", client.ID))
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) deliver(msg envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		if !client.Wants(msg.tripID) {
			continue
		}
		select {
		case client.Send <- msg.data:
		default:
			h.logger.Warn("Dropping slow client", logger.String("client_id", client.ID))
			close(client.Send)
			delete(h.clients, client)
		}
	}
}

// ServeWS upgrades the request and registers a client. A trip_id query
// parameter limits the feed to one trip; without it the client sees every trip.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade to WebSocket", logger.Err(err))
		return
	}

	client := NewClient(h, conn, h.logger)
	if tripID := r.URL.Query().Get("trip_id"); tripID != "" {
		client.Subscribe(tripID)
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}

// Unregister unregisters a client
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// PublishTripEvent queues a trip event for every interested client. It never
// blocks; events are dropped when the queue is full.
func (h *Hub) PublishTripEvent(eventType string, t *trip.Trip) {
	data, err := json.Marshal(Message{Type: eventType, Data: t})
	if err != nil {
		h.logger.Error("Failed to marshal trip event", logger.Err(err))
		return
	}

	select {
	case h.broadcast <- envelope{tripID: t.ID.String(), data: data}:
	default:
		h.logger.Warn("Event queue full, dropping trip event",
			logger.String("type", eventType),
			logger.Stringer("trip_id", t.ID),
		)
	}
}

// GetActiveConnections returns the number of active connections
func (h *Hub) GetActiveConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
