package logstream

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 30 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = 25 * time.Second

	// Clients only send pongs
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one WebSocket subscriber. An empty operationID receives every
// operation's output.
type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	operationID string
	send        chan []byte
}

func (c *Client) wants(m *Message) bool {
	return c.operationID == "" || c.operationID == m.OperationID
}

// ServeWS upgrades the request and subscribes the connection. The optional
// operation_id query parameter limits the stream to one operation.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := &Client{
		hub:         h,
		conn:        conn,
		operationID: r.URL.Query().Get("operation_id"),
		send:        make(chan []byte, 512),
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return nil
	}

	h.log.Info("log stream connection opened", "remote", r.RemoteAddr, "filter", client.operationID)

	go client.writePump()
	go client.readPump()
	return nil
}

// readPump detects disconnects and answers pings; subscribers never send data
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("log stream read error", "error", err)
			}
			return
		}
	}
}

// writePump sends each queued message as its own text frame
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
