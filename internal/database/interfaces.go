package database

import (
	"context"

	"roomchat/internal/models"
)

// SessionRepository mirrors live connections for operators. It never holds
// messages or rooms, and is cleared whenever the server starts.
type SessionRepository interface {
	CreateActiveSession(ctx context.Context, session *models.ActiveSession) error
	UpdateSessionActivity(ctx context.Context, sessionID string, username models.Username, room models.RoomName) error
	RemoveActiveSession(ctx context.Context, sessionID string) error
	ListActiveSessions(ctx context.Context) ([]*models.ActiveSession, error)
}

type Database interface {
	SessionRepository
	Close() error
}
