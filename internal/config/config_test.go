package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"TCP_ADDR", "READ_TIMEOUT", "WRITE_TIMEOUT", "ROOM_CAPACITY", "MAX_LINE_BYTES", "DATABASE_URL", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, ":7878", cfg.Server.TCPAddr)
	assert.Equal(t, time.Duration(0), cfg.Server.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 1024, cfg.Chat.RoomCapacity)
	assert.Equal(t, 1<<20, cfg.Chat.MaxLineBytes)
	assert.Empty(t, cfg.Database.URL)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TCP_ADDR", "127.0.0.1:9000")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("WRITE_TIMEOUT", "3s")
	t.Setenv("ROOM_CAPACITY", "16")
	t.Setenv("DATABASE_URL", "postgres://chat@localhost/chat")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.TCPAddr)
	assert.Empty(t, cfg.Server.HTTPAddr, "explicit empty HTTP_ADDR disables the HTTP surface")
	assert.Equal(t, 3*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 16, cfg.Chat.RoomCapacity)
	assert.Equal(t, "postgres://chat@localhost/chat", cfg.Database.URL)
	assert.Equal(t, "debug", cfg.LogLevel)
}
