package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomchat/internal/models"
)

func TestMemoryDBSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	db := NewMemoryDB()
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	db.now = func() time.Time { return clock }

	var _ Database = db

	require.NoError(t, db.CreateActiveSession(ctx, &models.ActiveSession{
		SessionID: "s1", Username: "zed", Room: models.DefaultRoom, RemoteAddr: "127.0.0.1:1", Transport: "tcp",
	}))
	require.NoError(t, db.CreateActiveSession(ctx, &models.ActiveSession{
		SessionID: "s2", Username: "amy", Room: models.DefaultRoom, Transport: "websocket",
	}))

	clock = clock.Add(time.Minute)
	require.NoError(t, db.UpdateSessionActivity(ctx, "s1", "bob", "general"))
	require.NoError(t, db.UpdateSessionActivity(ctx, "missing", "x", "y"))

	sessions, err := db.ListActiveSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, models.Username("amy"), sessions[0].Username)
	assert.Equal(t, models.Username("bob"), sessions[1].Username)
	assert.Equal(t, models.RoomName("general"), sessions[1].Room)
	assert.Equal(t, clock.Add(-time.Minute), sessions[1].ConnectedAt)
	assert.Equal(t, clock, sessions[1].LastSeen)

	require.NoError(t, db.RemoveActiveSession(ctx, "s1"))
	sessions, err = db.ListActiveSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "s2", sessions[0].SessionID)
}
