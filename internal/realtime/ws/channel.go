// internal/realtime/ws/channel.go
package ws

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// wsChannel adapts a gorilla connection to the realtime.Channel interface.
// gorilla permits one concurrent writer, so all data writes are serialized
// through the mutex. A failed write marks the channel closed; the heartbeat
// sweep reclaims it on its next pass.
type wsChannel struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	closed atomic.Bool
}

func newWSChannel(conn *websocket.Conn) *wsChannel {
	return &wsChannel{conn: conn}
}

func (c *wsChannel) Send(v interface{}) error {
	if c.closed.Load() {
		return net.ErrClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(v); err != nil {
		c.closed.Store(true)
		return err
	}
	return nil
}

func (c *wsChannel) Ping() error {
	if c.closed.Load() {
		return net.ErrClosed
	}

	// WriteControl is safe to call concurrently with WriteJSON.
	if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
		c.closed.Store(true)
		return err
	}
	return nil
}

func (c *wsChannel) Open() bool {
	return !c.closed.Load()
}

func (c *wsChannel) Close(reason string) error {
	return c.closeWithCode(websocket.CloseNormalClosure, reason)
}

func (c *wsChannel) closeWithCode(code int, reason string) error {
	if c.closed.Swap(true) {
		return nil
	}

	deadline := time.Now().Add(writeWait)
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), deadline)
	return c.conn.Close()
}

// markDead flags the channel closed without writing a close frame. Used by
// the read loop when the peer is already gone.
func (c *wsChannel) markDead() {
	if !c.closed.Swap(true) {
		_ = c.conn.Close()
	}
}
