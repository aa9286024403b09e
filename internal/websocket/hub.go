package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"docgen-selection-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ClusterChannel is the redis channel instances use to reach tabs connected
// elsewhere.
const ClusterChannel = "docgen_tab_events"

// Message is the frame sent to the browser.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type clusterPayload struct {
	TargetTab string          `json:"target_tab"`
	Origin    string          `json:"origin"`
	Message   json.RawMessage `json:"message"`
}

type Hub struct {
	// Registered clients: tab session -> connections (a tab may reconnect
	// before the old socket is gone).
	clients map[uuid.UUID][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Redis connection for cross-instance delivery; nil runs single-node.
	rdb        *redis.Client
	instanceID string

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, instanceID string, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		instanceID: instanceID,
		logger:     log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.TabSession] = append(h.clients[client.TabSession], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"tab_session": client.TabSession})

		case client := <-h.unregister:
			h.mu.Lock()
			clients := h.clients[client.TabSession]
			for i, c := range clients {
				if c == client {
					h.clients[client.TabSession] = append(clients[:i], clients[i+1:]...)
					close(client.Send)
					break
				}
			}
			if len(h.clients[client.TabSession]) == 0 {
				delete(h.clients, client.TabSession)
				h.logger.Info("Hub", "Tab disconnected", map[string]interface{}{"tab_session": client.TabSession})
			}
			h.mu.Unlock()
		}
	}
}

// SendToTab delivers a message to every connection of a tab, here and on
// other instances.
func (h *Hub) SendToTab(tab uuid.UUID, msgType string, data interface{}) {
	frame, err := json.Marshal(Message{Type: msgType, Data: data})
	if err != nil {
		h.logger.Error("Hub", "Encoding message failed", map[string]interface{}{"type": msgType, "error": err.Error()})
		return
	}

	h.deliverLocal(tab, frame)

	if h.rdb != nil {
		payload, _ := json.Marshal(clusterPayload{
			TargetTab: tab.String(),
			Origin:    h.instanceID,
			Message:   frame,
		})
		if err := h.rdb.Publish(context.Background(), ClusterChannel, payload).Err(); err != nil {
			h.logger.Warn("Hub", "Publishing to cluster failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

// Connected reports how many sockets a tab has on this instance.
func (h *Hub) Connected(tab uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[tab])
}

func (h *Hub) deliverLocal(tab uuid.UUID, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients[tab] {
		select {
		case client.Send <- frame:
		default:
			h.logger.Warn("Hub", "Client send buffer full, dropping message", map[string]interface{}{"tab_session": tab})
		}
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, ClusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload clusterPayload
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			h.logger.Warn("Hub", "Malformed cluster message", map[string]interface{}{"error": err.Error()})
			continue
		}
		if payload.Origin == h.instanceID {
			continue
		}
		tab, err := uuid.Parse(payload.TargetTab)
		if err != nil {
			continue
		}
		h.deliverLocal(tab, payload.Message)
	}
}
