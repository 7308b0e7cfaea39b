package services

import (
	"context"
	"errors"
	"fmt"

	"roomchat/internal/database"
	"roomchat/internal/models"
	"roomchat/internal/rooms"
)

var ErrRoomNotFound = errors.New("room not found")

// RoomService exposes read-only views of the live chat state.
type RoomService struct {
	rooms *rooms.Manager
	store database.SessionRepository
}

func NewRoomService(manager *rooms.Manager, store database.SessionRepository) *RoomService {
	return &RoomService{rooms: manager, store: store}
}

func (s *RoomService) ListRooms() []models.RoomSummary {
	return s.rooms.List()
}

func (s *RoomService) GetRoomMembers(name string) (*models.RoomMembers, error) {
	roomName, err := models.ParseRoomName(name)
	if err != nil {
		return nil, err
	}

	room, ok := s.rooms.Get(roomName)
	if !ok {
		return nil, ErrRoomNotFound
	}

	return &models.RoomMembers{Room: room.Name(), Members: room.Members()}, nil
}

func (s *RoomService) ListActiveSessions(ctx context.Context) ([]*models.ActiveSession, error) {
	if s.store == nil {
		return []*models.ActiveSession{}, nil
	}

	sessions, err := s.store.ListActiveSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	if sessions == nil {
		sessions = []*models.ActiveSession{}
	}
	return sessions, nil
}
