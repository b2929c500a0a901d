package ws

import (
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/dialpoint/signaling/internal/core"
)

const sendBufferSize = 32

// wsConn wraps one gorilla connection behind core.SignalConnection.
// Frames go through a buffered channel drained by the write pump; a
// full buffer drops the frame instead of blocking the relay.
type wsConn struct {
	conn   *websocket.Conn
	send   chan core.Frame
	closed atomic.Bool
}

func newWSConn(conn *websocket.Conn) *wsConn {
	return &wsConn{
		conn: conn,
		send: make(chan core.Frame, sendBufferSize),
	}
}

func (c *wsConn) TrySend(f core.Frame) error {
	if c.closed.Load() {
		return core.ErrBackpressure
	}
	select {
	case c.send <- f:
		return nil
	default:
		return core.ErrBackpressure
	}
}

// Close tears down the websocket. The send channel is left open on
// purpose: a concurrent TrySend must never hit a closed channel, and
// the write pump exits with its context instead.
func (c *wsConn) Close() {
	if c.closed.CompareAndSwap(false, true) {
		_ = c.conn.Close()
	}
}
