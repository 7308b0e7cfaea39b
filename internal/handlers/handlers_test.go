package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomchat/internal/database"
	"roomchat/internal/models"
	"roomchat/internal/rooms"
	"roomchat/internal/server"
	"roomchat/internal/services"
	"roomchat/internal/transport"
)

func newRoomHandlers(t *testing.T) (*RoomHandlers, *rooms.Manager, *database.MemoryDB) {
	t.Helper()
	manager := rooms.NewManager(16)
	store := database.NewMemoryDB()
	return NewRoomHandlers(services.NewRoomService(manager, store)), manager, store
}

func TestListRoomsHandler(t *testing.T) {
	h, manager, _ := newRoomHandlers(t)
	_, _, err := manager.Join("amy", "general")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ListRooms(rec, httptest.NewRequest(http.MethodGet, "/rooms", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `[{"name":"general","members":1},{"name":"lobby","members":0}]`, rec.Body.String())
}

func TestGetRoomMembersHandler(t *testing.T) {
	h, manager, _ := newRoomHandlers(t)
	_, _, err := manager.Join("amy", "general")
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		status int
		body   string
	}{
		{name: "existing room", path: "/rooms/general/members", status: http.StatusOK, body: `{"room":"general","members":["amy"]}`},
		{name: "empty lobby", path: "/rooms/lobby/members", status: http.StatusOK, body: `{"room":"lobby","members":[]}`},
		{name: "unknown room", path: "/rooms/nowhere/members", status: http.StatusNotFound},
		{name: "invalid name", path: "/rooms/bad%20name/members", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.GetRoomMembers(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.JSONEq(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestListSessionsHandler(t *testing.T) {
	h, _, store := newRoomHandlers(t)
	require.NoError(t, store.CreateActiveSession(context.Background(), &models.ActiveSession{
		SessionID: "s1", Username: "amy", Room: models.DefaultRoom, Transport: "tcp",
	}))

	rec := httptest.NewRecorder()
	h.ListSessions(rec, httptest.NewRequest(http.MethodGet, "/sessions", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Sessions []models.ActiveSession `json:"sessions"`
		Count    int                    `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	require.Len(t, body.Sessions, 1)
	assert.Equal(t, models.Username("amy"), body.Sessions[0].Username)
}

func TestHealthHandler(t *testing.T) {
	h, _, _ := newRoomHandlers(t)

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestWebSocketHandlerServesLineProtocol(t *testing.T) {
	srv := server.New(rooms.NewUsers(), rooms.NewManager(16), nil, transport.Options{})
	ws := NewWebSocketHandlers(srv, transport.Options{})
	httpServer := httptest.NewServer(http.HandlerFunc(ws.HandleWebSocket))
	defer httpServer.Close()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		assert.NoError(t, srv.Shutdown(ctx))
	}()

	url := "ws" + strings.TrimPrefix(httpServer.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	await := func(eventType models.EventType) models.ServerEvent {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		for {
			_, data, err := conn.ReadMessage()
			require.NoError(t, err)
			event, err := models.ParseServerEvent(data)
			require.NoError(t, err)
			if event.Type == eventType {
				return event
			}
		}
	}

	help := await(models.EventHelp)
	assert.Equal(t, models.CommandSummary, help.Text)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("/rooms")))
	roomsEvent := await(models.EventRooms)
	assert.Contains(t, roomsEvent.Rooms, models.RoomSummary{Name: models.DefaultRoom, Members: 1})

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("/quit")))
	await(models.EventDisconnect)
}
