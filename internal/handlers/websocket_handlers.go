package handlers

import (
	"net/http"

	"roomchat/internal/server"
	"roomchat/internal/transport"
	"roomchat/pkg/logger"

	"github.com/gorilla/websocket"
)

type WebSocketHandlers struct {
	server   *server.Server
	opts     transport.Options
	upgrader websocket.Upgrader
}

func NewWebSocketHandlers(srv *server.Server, opts transport.Options) *WebSocketHandlers {
	return &WebSocketHandlers{
		server: srv,
		opts:   opts,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // Configure for production
		},
	}
}

// HandleWebSocket upgrades the request and serves the line protocol over it,
// one text frame per line.
func (h *WebSocketHandlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Upgrade error: %v", err)
		return
	}

	h.server.ServeConn(transport.NewWebSocketConn(conn, h.opts))
}
