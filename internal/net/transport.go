package net

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is one player's message stream. Each call moves one whole payload
// (opcode + body); framing is the transport's concern.
type Conn interface {
	ReadPayload() ([]byte, error)
	WritePayload(data []byte) error
	SetWriteDeadline(t time.Time) error
	RemoteAddr() string
	Close() error
}

// tcpConn frames payloads with ReadFrame/WriteFrame.
type tcpConn struct {
	conn     net.Conn
	maxFrame int
}

func NewTCPConn(conn net.Conn, maxFrame int) Conn {
	if maxFrame <= 0 {
		maxFrame = DefaultMaxFrame
	}
	return &tcpConn{conn: conn, maxFrame: maxFrame}
}

func (c *tcpConn) ReadPayload() ([]byte, error) {
	return ReadFrame(c.conn, c.maxFrame)
}

func (c *tcpConn) WritePayload(data []byte) error {
	return WriteFrame(c.conn, data)
}

func (c *tcpConn) SetWriteDeadline(t time.Time) error { return c.conn.SetWriteDeadline(t) }
func (c *tcpConn) RemoteAddr() string                 { return c.conn.RemoteAddr().String() }
func (c *tcpConn) Close() error                       { return c.conn.Close() }

// wsConn maps one binary WebSocket message to one payload. gorilla allows a
// single concurrent data writer; wmu serializes WritePayload callers.
type wsConn struct {
	conn *websocket.Conn
	wmu  sync.Mutex
}

func NewWSConn(conn *websocket.Conn, maxFrame int) Conn {
	if maxFrame <= 0 {
		maxFrame = DefaultMaxFrame
	}
	conn.SetReadLimit(int64(maxFrame))
	return &wsConn{conn: conn}
}

func (c *wsConn) ReadPayload() ([]byte, error) {
	for {
		typ, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if typ == websocket.BinaryMessage {
			return data, nil
		}
		// text frames are not part of the protocol
	}
}

func (c *wsConn) WritePayload(data []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if err := c.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return fmt.Errorf("write ws message: %w", err)
	}
	return nil
}

func (c *wsConn) SetWriteDeadline(t time.Time) error { return c.conn.SetWriteDeadline(t) }
func (c *wsConn) RemoteAddr() string                 { return c.conn.RemoteAddr().String() }

// Close may run while WritePayload is blocked on a stalled peer, so it does
// not take wmu. WriteControl gives up after its deadline and closing the
// socket releases the blocked writer.
func (c *wsConn) Close() error {
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.conn.Close()
}
