package sse

import (
	"fmt"
	"log"
	"sync"
)

// Event represents a Server-Sent Event
type Event struct {
	EventType string `json:"event"`
	Data      string `json:"data"`
}

// Client represents a connected display
type Client struct {
	ID        string
	StationID string
	Events    chan Event
}

// Hub manages all connected display streams
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// GlobalHub is the singleton SSE Hub instance
var GlobalHub = NewHub()

// NewHub creates a new SSE Hub
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// Register adds a new client to the hub
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	log.Printf("[SSE] Display connected: id=%s station=%s (total: %d)", client.ID, client.StationID, len(h.clients))
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		log.Printf("[SSE] Display disconnected: id=%s (total: %d)", clientID, len(h.clients))
	}
}

// Broadcast sends an event to all connected displays
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.Events <- event:
		default:
			log.Printf("[SSE] Display %s buffer full, skipping event", client.ID)
		}
	}
}

// SendToStation 给某工位的所有已连接屏发送事件
func (h *Hub) SendToStation(stationID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.StationID == stationID {
			select {
			case client.Events <- event:
			default:
				log.Printf("[SSE] Display %s buffer full, skipping station event", client.ID)
			}
		}
	}
}

// PublishProcessChange 工序切换广播，所有屏立即刷新当前工序与BOM
func (h *Hub) PublishProcessChange(productID, stageName, processName string) {
	data := fmt.Sprintf(`{"product_id":"%s","stage":"%s","process":"%s"}`, productID, stageName, processName)
	h.Broadcast(Event{
		EventType: "process_change",
		Data:      data,
	})
	log.Printf("[SSE] Published process_change: product=%s stage=%s process=%s", productID, stageName, processName)
}

// PublishPageChange 翻页广播，同产品同BOM类型的各屏同步翻页
func (h *Hub) PublishPageChange(productID, bomKind string, page int) {
	data := fmt.Sprintf(`{"product_id":"%s","bom_kind":"%s","page":%d}`, productID, bomKind, page)
	h.Broadcast(Event{
		EventType: "page_change",
		Data:      data,
	})
	log.Printf("[SSE] Published page_change: product=%s kind=%s page=%d", productID, bomKind, page)
}
