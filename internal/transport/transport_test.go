package transport

import (
	"bufio"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTCPConnReadsLines(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	conn := NewTCPConn(server, Options{})
	defer conn.Close()

	go func() {
		_, _ = client.Write([]byte("hello\r\n/join general\nlast"))
		_ = client.Close()
	}()

	line, err := conn.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "hello", line)

	line, err = conn.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "/join general", line)

	line, err = conn.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "last", line)

	_, err = conn.ReadLine()
	assert.ErrorIs(t, err, io.EOF)
}

func TestTCPConnRejectsLongLines(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	conn := NewTCPConn(server, Options{MaxLineBytes: 16})
	defer conn.Close()

	go func() {
		_, _ = client.Write([]byte(strings.Repeat("x", 64) + "\n"))
	}()

	_, err := conn.ReadLine()
	assert.ErrorIs(t, err, ErrLineTooLong)
}

func TestTCPConnWritesLines(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	conn := NewTCPConn(server, Options{WriteTimeout: time.Second})
	defer conn.Close()

	go func() {
		_ = conn.WriteLine([]byte(`{"type":"disconnect"}`))
	}()

	line, err := bufio.NewReader(client).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "{\"type\":\"disconnect\"}\n", line)
}

func TestTCPConnWriteFailsWhenPeerGone(t *testing.T) {
	server, client := net.Pipe()
	conn := NewTCPConn(server, Options{WriteTimeout: 50 * time.Millisecond})
	require.NoError(t, client.Close())

	err := conn.WriteLine([]byte("lost"))
	assert.Error(t, err)
	assert.Equal(t, "tcp", conn.Transport())
}

func TestIsClosedError(t *testing.T) {
	assert.False(t, IsClosedError(nil))
	assert.True(t, IsClosedError(io.EOF))
	assert.True(t, IsClosedError(net.ErrClosed))
	assert.False(t, IsClosedError(ErrLineTooLong))
}

func TestWebSocketConnRoundTrip(t *testing.T) {
	upgrader := websocket.Upgrader{}
	serverLines := make(chan string, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn := NewWebSocketConn(raw, Options{})
		defer conn.Close()

		line, err := conn.ReadLine()
		if err != nil {
			return
		}
		serverLines <- line
		_ = conn.WriteLine([]byte("echo:" + line))
		_, _ = conn.ReadLine()
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte("/users\n")))

	select {
	case line := <-serverLines:
		assert.Equal(t, "/users", line)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive line")
	}

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := client.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "echo:/users", string(data))
}
