package websocket

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dolevoper/envolve/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Conn adapts a gorilla websocket connection to domain.Session. Room and
// admin flag are fixed at construction, after the join handshake resolved
// them.
type Conn struct {
	id       string
	userName string
	room     string
	admin    bool
	ws       *websocket.Conn
	send     chan []byte
	handler  domain.MessageHandler
	onClose  func()
}

func NewConn(id, userName, room string, admin bool, ws *websocket.Conn, h domain.MessageHandler, onClose func()) *Conn {
	return &Conn{
		id:       id,
		userName: userName,
		room:     room,
		admin:    admin,
		ws:       ws,
		send:     make(chan []byte, 256),
		handler:  h,
		onClose:  onClose,
	}
}

func (c *Conn) ID() string       { return c.id }
func (c *Conn) UserName() string { return c.userName }
func (c *Conn) Room() string     { return c.room }
func (c *Conn) Admin() bool      { return c.admin }

func (c *Conn) Send(data []byte) error {
	select {
	case c.send <- data:
		return nil
	default:
		return domain.ErrSendBufferFull
	}
}

// Disconnect closes the underlying connection. Closing an already-closed
// connection returns an error the callers ignore.
func (c *Conn) Disconnect() error {
	return c.ws.Close()
}

// Start arms the pumps. The caller must have completed the join handshake
// first; no inbound frame is read before Start.
func (c *Conn) Start() {
	go c.writePump()
	go c.readPump()
}

func (c *Conn) readPump() {
	defer func() {
		if c.onClose != nil {
			c.onClose()
		}
		c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("read error", "clientId", c.id, "error", err)
			}
			return
		}

		c.handler.Handle(c, data)
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
