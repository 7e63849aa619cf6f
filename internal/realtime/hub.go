// Package realtime pushes new alerts and measurements to websocket clients.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"shopfloor/internal/logger"
	"shopfloor/internal/metrics"
	"shopfloor/internal/models"
)

const (
	pingInterval = 30 * time.Second
	sendBuffer   = 64
)

// Message types sent to clients.
const (
	TypeAlerts      = "alerts"
	TypeMeasurement = "measurement"
)

// Hub manages websocket connections and broadcasts.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	reg     chan *client
	unreg   chan *client
	done    chan struct{}

	originPatterns []string
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu         sync.Mutex
	categories map[models.Category]bool // empty means all
}

// NewHub creates a hub. originPatterns are host patterns allowed to
// connect cross-origin.
func NewHub(originPatterns []string) *Hub {
	return &Hub{
		clients:        make(map[*client]struct{}),
		reg:            make(chan *client, 16),
		unreg:          make(chan *client, 16),
		done:           make(chan struct{}),
		originPatterns: originPatterns,
	}
}

// Run processes register/unregister events until ctx is done, then closes
// every connection.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
				c.conn.Close(websocket.StatusGoingAway, "server shutting down")
			}
			h.mu.Unlock()
			metrics.RealtimeClients.Set(0)
			close(h.done)
			return

		case c := <-h.reg:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			metrics.RealtimeClients.Set(float64(n))

		case c := <-h.unreg:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			metrics.RealtimeClients.Set(float64(n))
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// NotifyAlerts broadcasts newly created alerts to every client.
func (h *Hub) NotifyAlerts(ctx context.Context, sweepID string, alerts []models.SmartAlert) {
	h.broadcast("", map[string]interface{}{
		"type":     TypeAlerts,
		"sweep_id": sweepID,
		"alerts":   alerts,
	})
}

// NotifyMeasurement sends a recorded measurement to clients following the
// KPI's category.
func (h *Hub) NotifyMeasurement(ctx context.Context, kpi *models.KpiDefinition, m *models.KpiMeasurement) {
	h.broadcast(kpi.Category, map[string]interface{}{
		"type": TypeMeasurement,
		"kpi": map[string]interface{}{
			"id":       kpi.ID,
			"name":     kpi.Name,
			"category": kpi.Category,
		},
		"measurement": m,
	})
}

func (h *Hub) broadcast(category models.Category, payload interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.clients) == 0 {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log := logger.WithComponent("realtime")
		log.Error().Err(err).Msg("encoding broadcast failed")
		return
	}

	for c := range h.clients {
		if !c.follows(category) {
			continue
		}
		select {
		case c.send <- data:
		default:
			metrics.RealtimeDropped.Inc()
		}
	}
}

// HandleWS upgrades the request and serves the connection until it closes.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	log := logger.WithComponent("realtime")

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		log.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("websocket accept failed")
		return
	}

	c := &client{
		hub:        h,
		conn:       conn,
		send:       make(chan []byte, sendBuffer),
		categories: make(map[models.Category]bool),
	}

	select {
	case h.reg <- c:
	case <-h.done:
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	ctx := r.Context()
	go c.pingLoop(ctx)
	go c.writePump(ctx)
	c.readPump(ctx)
}

func (c *client) follows(category models.Category) bool {
	if category == "" {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.categories) == 0 || c.categories[category]
}

func (c *client) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		}
	}
}

// readPump handles category subscriptions:
//
//	{"type":"subscribe","categories":["safety"]}
func (c *client) readPump(ctx context.Context) {
	defer func() {
		select {
		case c.hub.unreg <- c:
		case <-c.hub.done:
		}
		c.conn.Close(websocket.StatusNormalClosure, "bye")
	}()

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return
		}

		var msg struct {
			Type       string   `json:"type"`
			Categories []string `json:"categories"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		c.mu.Lock()
		for _, raw := range msg.Categories {
			cat, err := models.ParseCategory(raw)
			if err != nil || cat == "" {
				continue
			}
			switch msg.Type {
			case "subscribe":
				c.categories[cat] = true
			case "unsubscribe":
				delete(c.categories, cat)
			}
		}
		c.mu.Unlock()
	}
}

func (c *client) writePump(ctx context.Context) {
	for data := range c.send {
		if err := c.conn.Write(ctx, websocket.MessageText, data); err != nil {
			return
		}
	}
}
