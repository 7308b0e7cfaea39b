// Package transport frames the chat line protocol over raw TCP streams and
// WebSocket connections.
package transport

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

// DefaultMaxLineBytes bounds a single inbound line when no limit is configured.
const DefaultMaxLineBytes = 1 << 20

var ErrLineTooLong = errors.New("line exceeds maximum length")

type Options struct {
	MaxLineBytes int
	// ReadTimeout closes idle connections; zero disables it.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func (o Options) maxLineBytes() int {
	if o.MaxLineBytes <= 0 {
		return DefaultMaxLineBytes
	}
	return o.MaxLineBytes
}

// TCPConn is a newline-delimited connection over a net.Conn.
type TCPConn struct {
	conn    net.Conn
	scanner *bufio.Scanner
	writer  *bufio.Writer
	opts    Options
}

func NewTCPConn(conn net.Conn, opts Options) *TCPConn {
	scanner := bufio.NewScanner(conn)
	limit := opts.maxLineBytes()
	scanner.Buffer(make([]byte, 0, min(limit, 64*1024)), limit)

	return &TCPConn{
		conn:    conn,
		scanner: scanner,
		writer:  bufio.NewWriter(conn),
		opts:    opts,
	}
}

// ReadLine returns the next line without its terminator. It returns io.EOF
// once the peer closes the stream.
func (c *TCPConn) ReadLine() (string, error) {
	if c.opts.ReadTimeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout)); err != nil {
			return "", fmt.Errorf("set read deadline: %w", err)
		}
	}

	if !c.scanner.Scan() {
		err := c.scanner.Err()
		if err == nil {
			return "", io.EOF
		}
		if errors.Is(err, bufio.ErrTooLong) {
			return "", ErrLineTooLong
		}
		return "", err
	}
	return strings.TrimSuffix(c.scanner.Text(), "\r"), nil
}

// WriteLine writes line followed by a newline. It must not be called concurrently.
func (c *TCPConn) WriteLine(line []byte) error {
	if c.opts.WriteTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout)); err != nil {
			return fmt.Errorf("set write deadline: %w", err)
		}
	}

	if _, err := c.writer.Write(line); err != nil {
		return err
	}
	if err := c.writer.WriteByte('\n'); err != nil {
		return err
	}
	return c.writer.Flush()
}

func (c *TCPConn) Close() error {
	return c.conn.Close()
}

func (c *TCPConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

func (c *TCPConn) Transport() string {
	return "tcp"
}

// IsClosedError reports errors that only mean the connection has gone away.
func IsClosedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "use of closed network connection") ||
		strings.Contains(msg, "connection reset by peer") ||
		strings.Contains(msg, "broken pipe")
}
