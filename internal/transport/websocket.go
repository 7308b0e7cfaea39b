package transport

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"roomchat/pkg/logger"

	"github.com/gorilla/websocket"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	writeWait  = 10 * time.Second
)

// WebSocketConn carries one protocol line per text frame.
type WebSocketConn struct {
	conn      *websocket.Conn
	opts      Options
	done      chan struct{}
	closeOnce sync.Once
}

// NewWebSocketConn wraps an upgraded connection and starts its keepalive pings.
func NewWebSocketConn(conn *websocket.Conn, opts Options) *WebSocketConn {
	conn.SetReadLimit(int64(opts.maxLineBytes()))

	c := &WebSocketConn{
		conn: conn,
		opts: opts,
		done: make(chan struct{}),
	}

	// Set read deadline and pong handler for connection health
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go c.pingLoop()
	return c
}

func (c *WebSocketConn) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			// WriteControl may run concurrently with WriteMessage.
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				logger.Debug("Ping to %s failed: %v", c.RemoteAddr(), err)
				return
			}
		}
	}
}

// ReadLine returns the next text frame. A close frame from the peer is io.EOF.
func (c *WebSocketConn) ReadLine() (string, error) {
	for {
		if c.opts.ReadTimeout > 0 {
			c.conn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout))
		}

		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				return "", io.EOF
			}
			if websocket.IsCloseError(err, websocket.CloseMessageTooBig) {
				return "", ErrLineTooLong
			}
			return "", err
		}
		if messageType != websocket.TextMessage {
			continue
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}
}

func (c *WebSocketConn) WriteLine(line []byte) error {
	timeout := c.opts.WriteTimeout
	if timeout <= 0 {
		timeout = writeWait
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	return c.conn.WriteMessage(websocket.TextMessage, line)
}

// Close sends a close frame and closes the underlying connection.
func (c *WebSocketConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		err = c.conn.Close()
	})
	return err
}

func (c *WebSocketConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

func (c *WebSocketConn) Transport() string {
	return "websocket"
}
