package database

import (
	"context"
	"fmt"

	"roomchat/internal/models"
	"roomchat/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS active_sessions (
	session_id   TEXT PRIMARY KEY,
	username     TEXT NOT NULL,
	room         TEXT NOT NULL,
	remote_addr  TEXT NOT NULL,
	transport    TEXT NOT NULL,
	connected_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	last_seen    TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

type PostgresDB struct {
	pool *pgxpool.Pool
}

func NewPostgresDB(ctx context.Context, databaseURL string) (*PostgresDB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &PostgresDB{pool: pool}
	if err := db.resetSessions(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("Connected to database successfully")
	return db, nil
}

// resetSessions creates the table and drops rows left by a previous process;
// sessions never outlive the server that accepted them.
func (db *PostgresDB) resetSessions(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create active_sessions: %w", err)
	}
	tag, err := db.pool.Exec(ctx, `DELETE FROM active_sessions`)
	if err != nil {
		return fmt.Errorf("failed to clear stale sessions: %w", err)
	}
	if n := tag.RowsAffected(); n > 0 {
		logger.Info("Cleared %d stale sessions", n)
	}
	return nil
}

func (db *PostgresDB) Close() error {
	db.pool.Close()
	return nil
}

func (db *PostgresDB) CreateActiveSession(ctx context.Context, session *models.ActiveSession) error {
	query := `
		INSERT INTO active_sessions (session_id, username, room, remote_addr, transport, connected_at, last_seen)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (session_id)
		DO UPDATE SET username = EXCLUDED.username, room = EXCLUDED.room, last_seen = NOW()`

	_, err := db.pool.Exec(ctx, query,
		session.SessionID, string(session.Username), string(session.Room), session.RemoteAddr, session.Transport)
	return err
}

func (db *PostgresDB) UpdateSessionActivity(ctx context.Context, sessionID string, username models.Username, room models.RoomName) error {
	query := `UPDATE active_sessions SET username = $2, room = $3, last_seen = NOW() WHERE session_id = $1`
	_, err := db.pool.Exec(ctx, query, sessionID, string(username), string(room))
	return err
}

func (db *PostgresDB) RemoveActiveSession(ctx context.Context, sessionID string) error {
	query := `DELETE FROM active_sessions WHERE session_id = $1`
	_, err := db.pool.Exec(ctx, query, sessionID)
	return err
}

func (db *PostgresDB) ListActiveSessions(ctx context.Context) ([]*models.ActiveSession, error) {
	query := `
		SELECT session_id, username, room, remote_addr, transport, connected_at, last_seen
		FROM active_sessions
		ORDER BY username`

	rows, err := db.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*models.ActiveSession
	for rows.Next() {
		var (
			session        models.ActiveSession
			username, room string
		)
		if err := rows.Scan(&session.SessionID, &username, &room, &session.RemoteAddr,
			&session.Transport, &session.ConnectedAt, &session.LastSeen); err != nil {
			return nil, err
		}
		session.Username = models.Username(username)
		session.Room = models.RoomName(room)
		sessions = append(sessions, &session)
	}

	return sessions, rows.Err()
}
