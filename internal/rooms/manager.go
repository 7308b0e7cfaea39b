package rooms

import (
	"cmp"
	"errors"
	"slices"
	"sync"

	"roomchat/internal/models"
	"roomchat/pkg/logger"
)

// Manager is the directory of live rooms. It owns room creation and deletion
// and a server-wide bus for meta-events (room created/deleted, errors).
//
// Lock order is Manager.mu, then Room.mu, then Bus.mu.
type Manager struct {
	mu       sync.RWMutex
	rooms    map[models.RoomName]*Room
	lobby    *Room
	events   *Bus
	capacity int
}

func NewManager(capacity int) *Manager {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	lobby := newRoom(models.DefaultRoom, capacity)
	return &Manager{
		rooms:    map[models.RoomName]*Room{lobby.name: lobby},
		lobby:    lobby,
		events:   NewBus(capacity),
		capacity: capacity,
	}
}

func (m *Manager) Lobby() *Room {
	return m.lobby
}

// Subscribe returns a subscription to the server-wide meta-event bus.
func (m *Manager) Subscribe() *Subscription {
	return m.events.Subscribe()
}

// Get returns the live room called name.
func (m *Manager) Get(name models.RoomName) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	room, ok := m.rooms[name]
	if !ok || room.isClosed() {
		return nil, false
	}
	return room, true
}

// Join adds username to the room called name, creating the room and
// publishing RoomCreated if it does not exist.
func (m *Manager) Join(username models.Username, name models.RoomName) (*Room, *Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for {
		room, ok := m.rooms[name]
		if !ok {
			room = newRoom(name, m.capacity)
			m.rooms[name] = room
			m.events.Publish(models.RoomCreatedEvent(name))
			logger.Info("Room %s created by %s", name, username)
		}

		sub, err := room.Join(username)
		if errors.Is(err, ErrRoomClosed) {
			// The last member left but has not removed the room yet.
			m.removeLocked(room)
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		return room, sub, nil
	}
}

// Leave removes username from room and deletes the room once it is empty,
// unless it is the default room.
func (m *Manager) Leave(username models.Username, room *Room) {
	if room == nil {
		return
	}
	if !room.Leave(username) {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(room)
}

// removeLocked deletes room from the directory if it is still the entry for
// its name. Whoever removes the entry publishes RoomDeleted, so the event is
// emitted once per room.
func (m *Manager) removeLocked(room *Room) {
	if current, ok := m.rooms[room.name]; !ok || current != room {
		return
	}
	delete(m.rooms, room.name)
	m.events.Publish(models.RoomDeletedEvent(room.name))
	logger.Info("Room %s deleted", room.name)
}

// Change moves username from one room to another. Asking to move into the
// current room publishes an Error meta-event, leaves membership untouched and
// returns ErrAlreadyInRoom.
func (m *Manager) Change(username models.Username, from *Room, to models.RoomName) (*Room, *Subscription, error) {
	if from != nil && from.Name() == to {
		m.events.Publish(models.ErrorEvent("You are already in that room"))
		return from, nil, ErrAlreadyInRoom
	}
	m.Leave(username, from)
	return m.Join(username, to)
}

// List returns every live room with its member count, most populated first,
// ties broken by name.
func (m *Manager) List() []models.RoomSummary {
	m.mu.RLock()
	list := make([]models.RoomSummary, 0, len(m.rooms))
	for name, room := range m.rooms {
		if room.isClosed() {
			continue
		}
		list = append(list, models.RoomSummary{Name: name, Members: room.Len()})
	}
	m.mu.RUnlock()

	slices.SortFunc(list, func(a, b models.RoomSummary) int {
		if c := cmp.Compare(b.Members, a.Members); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return list
}

// Close shuts the meta-event bus down. Rooms are left to their members.
func (m *Manager) Close() {
	m.events.Close()
}
