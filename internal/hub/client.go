package hub

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/study-hall-reservation/internal/utils"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one live websocket connection tied to a single principal for
// its lifetime.  Several clients may carry the same name (multiple tabs or
// devices); together they form that principal's delivery group.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
	name string
}

// shutdown signals the write pump to exit and closes the connection.  Safe
// to call more than once.
func (c *Client) shutdown() {
	c.once.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

// trySend queues a frame without blocking.  It reports false only when the
// client is alive but its buffer is full, in which case the caller should
// drop the client.
func (c *Client) trySend(frame []byte) bool {
	select {
	case <-c.done:
		return true // already closing, frame is moot
	default:
	}
	select {
	case c.send <- frame:
		return true
	case <-c.done:
		return true
	default:
		return false
	}
}

// ServeWS upgrades an HTTP request to a websocket connection and attaches
// it to the hub.  Identity comes from a best-effort token check: the
// `token` query parameter (or a bearer header) is verified if present, and
// any absent or invalid token maps to the Guest principal rather than an
// error.  The fallback is logged so silent credential problems stay
// visible.
func ServeWS(h *Hub, c echo.Context) error {
	name := GuestName
	token := c.QueryParam("token")
	if token == "" {
		if auth := c.Request().Header.Get("Authorization"); len(auth) > 7 && auth[:7] == "Bearer " {
			token = auth[7:]
		}
	}
	if token != "" {
		if id, err := utils.ParseToken(h.secret, token); err == nil {
			name = id.Name
		} else {
			log.Printf("hub: unverifiable token on connect, joining as %s: %v", GuestName, err)
		}
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("hub: upgrade: %v", err)
		return nil // Upgrade has already written the error response
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
		name: name,
	}
	go client.writePump()
	h.register(client)
	go client.readPump()
	return nil
}

// readPump reads client events until the connection drops, then
// deregisters.  Malformed frames are skipped rather than fatal.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.shutdown()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("hub: read from %s: %v", c.name, err)
			}
			return
		}
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			log.Printf("hub: malformed frame from %s: %v", c.name, err)
			continue
		}
		c.hub.handleEvent(c, env)
	}
}

// writePump drains the send buffer to the socket and keeps the connection
// alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.shutdown()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
