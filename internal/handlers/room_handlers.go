package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"roomchat/internal/services"
	"roomchat/pkg/logger"
)

type RoomHandlers struct {
	roomService *services.RoomService
}

func NewRoomHandlers(roomService *services.RoomService) *RoomHandlers {
	return &RoomHandlers{roomService: roomService}
}

func (h *RoomHandlers) ListRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.roomService.ListRooms())
}

func (h *RoomHandlers) GetRoomMembers(w http.ResponseWriter, r *http.Request) {
	name, err := h.getRoomNameFromPath(r)
	if err != nil {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}

	members, err := h.roomService.GetRoomMembers(name)
	if errors.Is(err, services.ErrRoomNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, members)
}

func (h *RoomHandlers) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.roomService.ListActiveSessions(r.Context())
	if err != nil {
		logger.Error("List sessions error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

func (h *RoomHandlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// getRoomNameFromPath extracts {name} from /rooms/{name}/members.
func (h *RoomHandlers) getRoomNameFromPath(r *http.Request) (string, error) {
	parts := strings.Split(r.URL.EscapedPath(), "/")
	if len(parts) < 3 || parts[2] == "" {
		return "", fmt.Errorf("invalid path")
	}

	return url.PathUnescape(parts[2])
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response: %v", err)
	}
}
