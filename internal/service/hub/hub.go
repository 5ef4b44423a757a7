// Package hub fans dashboard updates out to the connected viewers.
package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"proctorfeed/internal/dto"
	"proctorfeed/internal/logger"

	"github.com/gorilla/websocket"
)

// Message types pushed to viewers.
const (
	TypeFrame        = "frame"
	TypeStatus       = "status"
	TypeNotification = "notification"
	// TypeNotifications carries the whole list, sent once when a viewer joins.
	TypeNotifications = "notifications"
	TypeTimeline      = "timeline"
	TypeRemoved       = "removed"
)

const (
	broadcastBuffer = 32
	writeTimeout    = 5 * time.Second
)

type HubService struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *logger.Logger
}

func NewHubService(logger *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves register, unregister and broadcast requests until ctx is done.
func (h *HubService) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Viewer connected. Total: %d", count)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Viewer disconnected. Total: %d", count)

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				_ = client.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					h.logger.Error("Error sending message: %v", err)
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Register adds a viewer. After Run has returned the connection is closed instead.
func (h *HubService) Register(client *websocket.Conn) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

func (h *HubService) Unregister(client *websocket.Conn) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues an update for every viewer. Updates are dropped when
// nobody drains the queue.
func (h *HubService) Broadcast(kind string, data interface{}) {
	message, err := json.Marshal(dto.ViewerMessage{Type: kind, Data: data})
	if err != nil {
		h.logger.Error("Error encoding %s update: %v", kind, err)
		return
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.Debug("Viewer queue full, %s update dropped", kind)
	}
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
