package realtime

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Client is one websocket connection. rooms is guarded by the hub's mutex.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string

	send     chan []byte
	rooms    map[string]struct{}
	lastSeen atomic.Int64

	closed chan struct{}
	once   sync.Once
}

func newClient(h *Hub, conn *websocket.Conn, userID string) *Client {
	c := &Client{
		hub:    h,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, sendBufferSize),
		rooms:  make(map[string]struct{}),
		closed: make(chan struct{}),
	}
	c.touch()
	return c
}

func (c *Client) touch() { c.lastSeen.Store(time.Now().UnixNano()) }

func (c *Client) lastSeenAt() time.Time { return time.Unix(0, c.lastSeen.Load()) }

// enqueue never blocks; it reports false when the frame was dropped.
func (c *Client) enqueue(msg []byte) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) reply(event, room string, data any) {
	f := Frame{Event: event, Room: room}
	if data != nil {
		if b, err := json.Marshal(data); err == nil {
			f.Data = b
		}
	}
	if msg, err := json.Marshal(f); err == nil {
		c.enqueue(msg)
	}
}

func (c *Client) close() {
	c.once.Do(func() {
		close(c.closed)
		c.hub.unregister(c)
		_ = c.conn.Close()
	})
}

func (c *Client) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxFrameBytes)
	c.conn.SetPongHandler(func(string) error {
		c.touch()
		return nil
	})

	for {
		var f Frame
		if err := c.conn.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("realtime read ended", zap.String("user_id", c.userID), zap.Error(err))
			}
			return
		}
		c.touch()

		switch f.Event {
		case EventJoinRoom:
			if err := c.hub.join(c, f.Room); err != nil {
				c.reply(EventError, f.Room, map[string]string{"message": err.Error()})
				continue
			}
			c.reply(EventJoined, f.Room, nil)
		case EventLeaveRoom:
			c.hub.leave(c, f.Room)
			c.reply(EventLeft, f.Room, nil)
		case EventKeepalive:
		default:
			c.reply(EventError, f.Room, map[string]string{"message": "unknown event"})
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingEvery)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.closed:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
