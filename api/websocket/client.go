package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/tutorlane/marketpulse/internal/logger"
)

type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	marketID string
}

type IncomingMessage struct {
	Type     string `json:"type"`
	MarketID string `json:"market_id,omitempty"`
}

func NewClient(hub *Hub, conn *websocket.Conn, marketID string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, hub.settings.clientBuffer),
		marketID: marketID,
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.hub.settings.maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.hub.settings.pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.hub.settings.pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Errorf("WebSocket error: %v", err)
			}
			break
		}

		var msg IncomingMessage
		if err := json.Unmarshal(message, &msg); err == nil {
			c.handleMessage(&msg)
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(c.hub.settings.pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.settings.writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to current websocket frame
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.settings.writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(msg *IncomingMessage) {
	switch msg.Type {
	case "subscribe":
		if msg.MarketID != "" {
			c.marketID = msg.MarketID
			logger.Infof("Client subscribed to market: %s", msg.MarketID)
			c.sendConfirmation("subscribed", msg.MarketID)
		}
	case "unsubscribe":
		oldMarketID := c.marketID
		c.marketID = ""
		logger.Info("Client unsubscribed from market")
		c.sendConfirmation("unsubscribed", oldMarketID)
	}
}

func (c *Client) sendConfirmation(action, marketID string) {
	confirmation := map[string]interface{}{
		"type":      "subscription_update",
		"action":    action,
		"market_id": marketID,
		"timestamp": time.Now(),
	}
	data, err := json.Marshal(confirmation)
	if err != nil {
		logger.Errorf("Failed to marshal confirmation: %v", err)
		return
	}
	select {
	case c.send <- data:
	default:
		logger.Warn("Client send channel full, dropping confirmation")
	}
}

func ServeWebSocket(hub *Hub) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  hub.settings.readBufferSize,
		WriteBufferSize: hub.settings.writeBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			return true // Allow all origins in dev
		},
	}

	return func(c *gin.Context) {
		if hub.AtCapacity() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "too many websocket connections"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Errorf("WebSocket upgrade failed: %v", err)
			return
		}

		marketID := c.Query("market_id")
		client := NewClient(hub, conn, marketID)
		hub.Register(client)

		go client.WritePump()
		go client.ReadPump()
	}
}
