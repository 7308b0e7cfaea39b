package models

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUsername(t *testing.T) {
	name, err := ParseUsername("alice")
	require.NoError(t, err)
	assert.Equal(t, Username("alice"), name)

	_, err = ParseUsername("")
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = ParseUsername(strings.Repeat("x", MaxNameLength+1))
	assert.ErrorIs(t, err, ErrNameTooLong)

	_, err = ParseRoomName("bad\x07room")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestRandomUsernameIsValidAndVaries(t *testing.T) {
	a, b := RandomUsername(), RandomUsername()
	assert.NotEqual(t, a, b)
	_, err := ParseUsername(string(a))
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(a), "guest-"))
}

func TestParseLine(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("hello"))

	tests := []struct {
		line string
		want Command
	}{
		{"hello world", SendMessage{Text: "hello world"}},
		{"", SendMessage{Text: ""}},
		{" /help", SendMessage{Text: " /help"}},
		{"/help", Help{}},
		{"/name alice", ChangeName{Name: "alice"}},
		{"/name   alice  extra", ChangeName{Name: "alice"}},
		{"/rooms", ListRooms{}},
		{"/join general", JoinRoom{Room: "general"}},
		{"/users", ListUsers{}},
		{"/file notes.txt " + payload, SendFile{Name: "notes.txt", Data: payload}},
		{"/nudge bob", Nudge{Target: "bob"}},
		{"/quit", Quit{}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseLine(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLineErrors(t *testing.T) {
	tests := []struct {
		line    string
		message string
	}{
		{"/dance", "Invalid command: /dance"},
		{"/", "Invalid command: /"},
		{"/name", "Name is required"},
		{"/join", "Room name is required"},
		{"/file a.txt", "File content is required"},
		{"/file a.txt !!!", "File content must be base64 encoded"},
		{"/nudge", "Name is required"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, err := ParseLine(tt.line)
			require.Error(t, err)

			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Equal(t, tt.message, err.Error())
		})
	}

	_, err := ParseLine("/dance")
	assert.ErrorIs(t, err, ErrInvalidCommand)
}

func TestCommandStringRoundTrip(t *testing.T) {
	for _, cmd := range []Command{Help{}, ChangeName{Name: "alice"}, JoinRoom{Room: "general"}, Nudge{Target: "bob"}, Quit{}} {
		parsed, err := ParseLine(cmd.String())
		require.NoError(t, err)
		assert.Equal(t, cmd, parsed)
	}
}

func TestServerEventLine(t *testing.T) {
	event := RoomEventFrom("alice", NameChangeEvent("alicia"))
	line, err := event.MarshalLine()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"room_event","username":"alice","event":{"type":"name_change","username":"alicia"}}`, string(line))

	decoded, err := ParseServerEvent(line)
	require.NoError(t, err)
	assert.Equal(t, event, decoded)
}

func TestListAndDisconnectEventLines(t *testing.T) {
	line, err := RoomsEvent([]RoomSummary{{Name: DefaultRoom, Members: 1}}).MarshalLine()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"rooms","rooms":[{"name":"lobby","members":1}]}`, string(line))

	line, err = DisconnectEvent().MarshalLine()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"disconnect"}`, string(line))
}

func TestParseServerEventRejectsUnknown(t *testing.T) {
	_, err := ParseServerEvent([]byte(`{"type":"dance"}`))
	assert.Error(t, err)

	_, err = ParseServerEvent([]byte(`{"type":"room_event","username":"a"}`))
	assert.Error(t, err)

	_, err = ParseServerEvent([]byte(`not json`))
	assert.Error(t, err)
}
