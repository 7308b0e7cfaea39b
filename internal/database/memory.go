package database

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"roomchat/internal/models"
)

// MemoryDB is the session store used when no DATABASE_URL is configured.
type MemoryDB struct {
	mu       sync.RWMutex
	sessions map[string]*models.ActiveSession
	now      func() time.Time
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		sessions: make(map[string]*models.ActiveSession),
		now:      time.Now,
	}
}

func (db *MemoryDB) CreateActiveSession(_ context.Context, session *models.ActiveSession) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	now := db.now()
	stored := *session
	if existing, ok := db.sessions[session.SessionID]; ok {
		stored.ConnectedAt = existing.ConnectedAt
	} else {
		stored.ConnectedAt = now
	}
	stored.LastSeen = now
	db.sessions[session.SessionID] = &stored
	return nil
}

func (db *MemoryDB) UpdateSessionActivity(_ context.Context, sessionID string, username models.Username, room models.RoomName) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	session, ok := db.sessions[sessionID]
	if !ok {
		return nil
	}
	session.Username = username
	session.Room = room
	session.LastSeen = db.now()
	return nil
}

func (db *MemoryDB) RemoveActiveSession(_ context.Context, sessionID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.sessions, sessionID)
	return nil
}

func (db *MemoryDB) ListActiveSessions(_ context.Context) ([]*models.ActiveSession, error) {
	db.mu.RLock()
	sessions := make([]*models.ActiveSession, 0, len(db.sessions))
	for _, session := range db.sessions {
		copied := *session
		sessions = append(sessions, &copied)
	}
	db.mu.RUnlock()

	slices.SortFunc(sessions, func(a, b *models.ActiveSession) int {
		return cmp.Compare(a.Username, b.Username)
	})
	return sessions, nil
}

func (db *MemoryDB) Close() error {
	return nil
}
