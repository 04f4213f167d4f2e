package websocket

import (
	"sync"
	"time"

	"github.com/tutorlane/marketpulse/internal/logger"
	"github.com/tutorlane/marketpulse/internal/metrics"
	"github.com/tutorlane/marketpulse/pkg/config"
)

const (
	defaultBroadcastBuffer = 256
	defaultClientBuffer    = 256
	defaultWriteWait       = 10 * time.Second
	defaultPongWait        = 60 * time.Second
	defaultMaxMessageSize  = 512
	defaultBufferSize      = 1024
)

// settings resolves websocket tuning from config with sane fallbacks.
type settings struct {
	writeWait       time.Duration
	pongWait        time.Duration
	pingPeriod      time.Duration
	maxMessageSize  int64
	clientBuffer    int
	readBufferSize  int
	writeBufferSize int
	maxConnections  int
}

func newSettings(cfg *config.WebSocketConfig) settings {
	s := settings{
		writeWait:       defaultWriteWait,
		pongWait:        defaultPongWait,
		maxMessageSize:  defaultMaxMessageSize,
		clientBuffer:    defaultClientBuffer,
		readBufferSize:  defaultBufferSize,
		writeBufferSize: defaultBufferSize,
	}

	if cfg != nil {
		if cfg.WriteTimeout > 0 {
			s.writeWait = cfg.WriteTimeout
		}
		if cfg.PongTimeout > 0 {
			s.pongWait = cfg.PongTimeout
		}
		if cfg.MaxMessageSize > 0 {
			s.maxMessageSize = cfg.MaxMessageSize
		}
		if cfg.ClientBuffer > 0 {
			s.clientBuffer = cfg.ClientBuffer
		}
		if cfg.ReadBufferSize > 0 {
			s.readBufferSize = cfg.ReadBufferSize
		}
		if cfg.WriteBufferSize > 0 {
			s.writeBufferSize = cfg.WriteBufferSize
		}
		s.maxConnections = cfg.MaxConnections
	}

	s.pingPeriod = (s.pongWait * 9) / 10

	return s
}

type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	settings   settings
	metrics    *metrics.Registry
}

func NewHub(cfg *config.WebSocketConfig, reg *metrics.Registry) *Hub {
	broadcastBuffer := defaultBroadcastBuffer
	if cfg != nil && cfg.BroadcastBuffer > 0 {
		broadcastBuffer = cfg.BroadcastBuffer
	}

	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		settings:   newSettings(cfg),
		metrics:    reg,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.updateClientGauge()
			logger.Infof("WebSocket client connected (total: %d)", h.ClientCount())

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.updateClientGauge()
			logger.Infof("WebSocket client disconnected (total: %d)", h.ClientCount())

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					h.mu.RUnlock()
					h.mu.Lock()
					delete(h.clients, client)
					close(client.send)
					h.mu.Unlock()
					h.mu.RLock()
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		logger.Warn("Broadcast channel full, dropping message")
	}
}

// BroadcastToMarket delivers only to clients subscribed to the market.
func (h *Hub) BroadcastToMarket(marketID string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if client.marketID == marketID {
			select {
			case client.send <- message:
			default:
			}
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) AtCapacity() bool {
	if h.settings.maxConnections <= 0 {
		return false
	}
	return h.ClientCount() >= h.settings.maxConnections
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) updateClientGauge() {
	if h.metrics != nil {
		h.metrics.WSClients.Set(float64(h.ClientCount()))
	}
}
