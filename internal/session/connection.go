// Package session runs the per-client protocol state machine: it reads
// client lines, applies commands against the user and room registries, and
// forwards room broadcasts back to the client.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"roomchat/internal/database"
	"roomchat/internal/models"
	"roomchat/internal/rooms"
	"roomchat/internal/transport"
	"roomchat/pkg/logger"

	"github.com/google/uuid"
)

const storeTimeout = 5 * time.Second

// LineConn is a framed, ordered, bidirectional line stream.
type LineConn interface {
	ReadLine() (string, error)
	WriteLine(line []byte) error
	Close() error
	RemoteAddr() string
	Transport() string
}

type State int

const (
	Connected State = iota
	Disconnected
)

func (s State) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

type Connection struct {
	id    string
	conn  LineConn
	users *rooms.Users
	rooms *rooms.Manager
	store database.SessionRepository

	username models.Username
	room     *rooms.Room
	roomSub  *rooms.Subscription
	metaSub  *rooms.Subscription
	state    State
	torn     bool
}

// New claims a fresh guest name for the client and puts it in the lobby.
// store may be nil.
func New(conn LineConn, users *rooms.Users, manager *rooms.Manager, store database.SessionRepository) (*Connection, error) {
	c := &Connection{
		id:    uuid.NewString(),
		conn:  conn,
		users: users,
		rooms: manager,
		store: store,
		state: Connected,
	}

	c.username = users.ClaimRandom()
	c.metaSub = manager.Subscribe()

	room, sub, err := manager.Join(c.username, models.DefaultRoom)
	if err != nil {
		c.metaSub.Close()
		users.Release(c.username)
		return nil, fmt.Errorf("join %s: %w", models.DefaultRoom, err)
	}
	c.room, c.roomSub = room, sub

	logger.Info("%s connected over %s with the name: %s", conn.RemoteAddr(), conn.Transport(), c.username)
	return c, nil
}

func (c *Connection) ID() string {
	return c.id
}

func (c *Connection) Username() models.Username {
	return c.username
}

func (c *Connection) State() State {
	return c.state
}

// Handle greets the client and serves it until it disconnects or ctx is
// cancelled. Teardown always runs, exactly once, before Handle returns.
func (c *Connection) Handle(ctx context.Context) {
	defer c.teardown()

	c.record(func(ctx context.Context) error {
		return c.store.CreateActiveSession(ctx, &models.ActiveSession{
			SessionID:  c.id,
			Username:   c.username,
			Room:       c.room.Name(),
			RemoteAddr: c.conn.RemoteAddr(),
			Transport:  c.conn.Transport(),
		})
	})

	c.send(models.HelpEvent(c.username, models.CommandSummary))
	c.send(models.RoomsEvent(c.rooms.List()))
	c.send(models.UsersEvent(c.room.Members()))

	if err := c.run(ctx); err != nil {
		logger.Error("Connection %s (%s) error: %v", c.conn.RemoteAddr(), c.username, err)
	}
}

type readResult struct {
	line string
	err  error
}

func (c *Connection) readLines(out chan<- readResult, done <-chan struct{}) {
	for {
		line, err := c.conn.ReadLine()
		select {
		case out <- readResult{line: line, err: err}:
		case <-done:
			return
		}
		if err != nil {
			return
		}
	}
}

func (c *Connection) run(ctx context.Context) error {
	lines := make(chan readResult)
	done := make(chan struct{})
	defer close(done)
	go c.readLines(lines, done)

	meta := c.metaSub.Events()

	for c.state == Connected {
		select {
		case <-ctx.Done():
			c.send(models.DisconnectEvent())
			c.state = Disconnected

		case read := <-lines:
			if read.err != nil {
				c.state = Disconnected
				if transport.IsClosedError(read.err) || errors.Is(read.err, io.EOF) {
					return nil
				}
				return fmt.Errorf("failed to read from client: %w", read.err)
			}
			c.handleLine(read.line)

		case event, ok := <-c.roomSub.Events():
			if !ok {
				c.state = Disconnected
				return fmt.Errorf("room %s event bus closed", c.room.Name())
			}
			c.send(event)
			c.reportMissed(c.roomSub)

		case event, ok := <-meta:
			if !ok {
				meta = nil
				continue
			}
			if event.IsMeta() {
				c.send(event)
			}
			c.reportMissed(c.metaSub)
		}
	}
	return nil
}

func (c *Connection) reportMissed(sub *rooms.Subscription) {
	if sub == nil {
		return
	}
	if missed := sub.TakeMissed(); missed > 0 {
		logger.Warn("%s (%s) lagged behind and missed %d events", c.conn.RemoteAddr(), c.username, missed)
		c.send(models.ErrorEvent(fmt.Sprintf("missed %d events", missed)))
	}
}

// send writes event to the client. A failed write ends the connection.
func (c *Connection) send(event models.ServerEvent) {
	if c.state == Disconnected {
		return
	}

	line, err := event.MarshalLine()
	if err != nil {
		logger.Error("Failed to encode %s event: %v", event.Type, err)
		return
	}
	logger.Debug("Sending %s event to %s", event.Type, c.username)
	if err := c.conn.WriteLine(line); err != nil {
		if !transport.IsClosedError(err) {
			logger.Error("Failed to send event to %s: %v", c.conn.RemoteAddr(), err)
		}
		c.state = Disconnected
	}
}

func (c *Connection) handleLine(line string) {
	logger.Debug("Received line from %s: %q", c.username, line)

	command, err := models.ParseLine(line)
	if err != nil {
		c.send(models.ErrorEvent(err.Error() + ", try /help"))
		return
	}
	c.handleCommand(command)
}

func (c *Connection) handleCommand(command models.Command) {
	switch cmd := command.(type) {
	case models.SendMessage:
		if strings.TrimSpace(cmd.Text) == "" {
			return
		}
		c.room.SendMessage(c.username, cmd.Text)

	case models.Help:
		c.send(models.HelpEvent(c.username, models.CommandSummary))

	case models.ChangeName:
		c.changeName(cmd.Name)

	case models.ListRooms:
		c.send(models.RoomsEvent(c.rooms.List()))

	case models.JoinRoom:
		c.joinRoom(cmd.Room)

	case models.ListUsers:
		c.send(models.UsersEvent(c.room.Members()))

	case models.SendFile:
		c.room.SendEvent(c.username, models.FileEvent(cmd.Name, cmd.Data))

	case models.Nudge:
		if !c.room.HasMember(cmd.Target) {
			c.send(models.ErrorEvent("user not found"))
			return
		}
		c.room.SendEvent(c.username, models.NudgeEvent(cmd.Target))

	case models.Quit:
		c.leaveRoom()
		c.send(models.DisconnectEvent())
		c.state = Disconnected

	default:
		logger.Error("Unhandled command %T from %s", command, c.username)
	}
}

func (c *Connection) changeName(name models.Username) {
	if !c.users.Claim(name) {
		c.send(models.ErrorEvent(fmt.Sprintf("%s is already taken", name)))
		return
	}
	if err := c.room.Rename(c.username, name); err != nil {
		c.users.Release(name)
		c.send(models.ErrorEvent(fmt.Sprintf("cannot rename to %s: %v", name, err)))
		return
	}

	logger.Info("%s renamed %s to %s", c.conn.RemoteAddr(), c.username, name)
	c.users.Release(c.username)
	c.username = name
	c.recordActivity()
}

func (c *Connection) joinRoom(name models.RoomName) {
	room, sub, err := c.rooms.Change(c.username, c.room, name)
	if errors.Is(err, rooms.ErrAlreadyInRoom) && room == c.room {
		c.send(models.ErrorEvent("You are already in that room"))
		return
	}
	if err != nil {
		// The old room is already left; fall back to the lobby.
		logger.Error("%s could not join %s: %v", c.username, name, err)
		c.send(models.ErrorEvent(fmt.Sprintf("cannot join %s", name)))
		room, sub, err = c.rooms.Join(c.username, models.DefaultRoom)
		if err != nil {
			c.room, c.roomSub = nil, nil
			c.state = Disconnected
			return
		}
	}

	c.room, c.roomSub = room, sub
	c.recordActivity()
}

// leaveRoom is idempotent so that Quit and teardown can both call it.
func (c *Connection) leaveRoom() {
	if c.room == nil {
		return
	}
	c.rooms.Leave(c.username, c.room)
	c.room, c.roomSub = nil, nil
}

func (c *Connection) teardown() {
	if c.torn {
		return
	}
	c.torn = true
	c.state = Disconnected

	c.leaveRoom()
	c.users.Release(c.username)
	c.metaSub.Close()
	c.record(func(ctx context.Context) error {
		return c.store.RemoveActiveSession(ctx, c.id)
	})

	if err := c.conn.Close(); err != nil && !transport.IsClosedError(err) {
		logger.Error("Error closing connection for %s: %v", c.conn.RemoteAddr(), err)
	}
	logger.Info("%s (%s) disconnected", c.conn.RemoteAddr(), c.username)
}

func (c *Connection) recordActivity() {
	var room models.RoomName
	if c.room != nil {
		room = c.room.Name()
	}
	c.record(func(ctx context.Context) error {
		return c.store.UpdateSessionActivity(ctx, c.id, c.username, room)
	})
}

// record runs a session store update. Store failures are logged and never
// affect the connection.
func (c *Connection) record(op func(ctx context.Context) error) {
	if c.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := op(ctx); err != nil {
		logger.Error("Session store error for %s: %v", c.id, err)
	}
}
