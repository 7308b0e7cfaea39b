package rooms

import (
	"errors"
	"slices"
	"sync"

	"roomchat/internal/models"
	"roomchat/pkg/logger"
)

var (
	ErrAlreadyInRoom = errors.New("already in that room")
	ErrRoomClosed    = errors.New("room is closed")
	ErrUserNotFound  = errors.New("user not found")
)

// Room is one chat channel. Its member set is exactly the set of usernames
// holding an open subscription, and membership changes are serialized by mu
// together with the emptiness check that closes the room.
type Room struct {
	name models.RoomName
	bus  *Bus

	mu      sync.Mutex
	members map[models.Username]*Subscription
	closed  bool
}

func newRoom(name models.RoomName, capacity int) *Room {
	return &Room{
		name:    name,
		bus:     NewBus(capacity),
		members: make(map[models.Username]*Subscription),
	}
}

func (r *Room) Name() models.RoomName {
	return r.name
}

func (r *Room) String() string {
	return string(r.name)
}

func (r *Room) IsDefault() bool {
	return r.name.IsDefault()
}

// Join adds username and returns its subscription. The Joined event is
// published after subscribing, so the new member sees it too.
func (r *Room) Join(username models.Username) (*Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrRoomClosed
	}
	if _, ok := r.members[username]; ok {
		return nil, ErrAlreadyInRoom
	}

	sub := r.bus.Subscribe()
	r.members[username] = sub
	r.bus.Publish(models.RoomEventFrom(username, models.JoinedEvent(r.name)))
	logger.Debug("User %s joined room %s (%d members)", username, r.name, len(r.members))
	return sub, nil
}

// Leave removes username, closes its subscription and tells the remaining
// members. It reports whether the room became empty and was closed; a closed
// room accepts no further joins. The default room is never closed.
func (r *Room) Leave(username models.Username) (closed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.members[username]
	if !ok {
		return false
	}
	delete(r.members, username)
	sub.Close()
	r.bus.Publish(models.RoomEventFrom(username, models.LeftEvent(r.name)))
	logger.Debug("User %s left room %s (%d members)", username, r.name, len(r.members))

	if len(r.members) == 0 && !r.IsDefault() {
		r.closed = true
		r.bus.Close()
		return true
	}
	return false
}

// Rename moves the membership entry from oldName to newName and publishes
// NameChange tagged with the old name.
func (r *Room) Rename(oldName, newName models.Username) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.members[oldName]
	if !ok {
		return ErrUserNotFound
	}
	if _, taken := r.members[newName]; taken {
		return ErrAlreadyInRoom
	}
	delete(r.members, oldName)
	r.members[newName] = sub
	r.bus.Publish(models.RoomEventFrom(oldName, models.NameChangeEvent(newName)))
	return nil
}

func (r *Room) SendMessage(username models.Username, text string) {
	r.SendEvent(username, models.MessageEvent(text))
}

// SendEvent broadcasts event tagged with username to all current members.
// Members whose buffers are full miss it.
func (r *Room) SendEvent(username models.Username, event models.RoomEvent) {
	r.bus.Publish(models.RoomEventFrom(username, event))
}

// Members returns a sorted snapshot of the member set.
func (r *Room) Members() []models.Username {
	r.mu.Lock()
	members := make([]models.Username, 0, len(r.members))
	for name := range r.members {
		members = append(members, name)
	}
	r.mu.Unlock()

	slices.Sort(members)
	return members
}

func (r *Room) HasMember(username models.Username) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.members[username]
	return ok
}

func (r *Room) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

func (r *Room) IsEmpty() bool {
	return r.Len() == 0
}

func (r *Room) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
