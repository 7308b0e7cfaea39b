package models

import (
	"encoding/json"
	"fmt"
)

type EventType string

const (
	EventHelp        EventType = "help"
	EventRoom        EventType = "room_event"
	EventError       EventType = "error"
	EventRooms       EventType = "rooms"
	EventUsers       EventType = "users"
	EventRoomCreated EventType = "room_created"
	EventRoomDeleted EventType = "room_deleted"
	EventDisconnect  EventType = "disconnect"
)

type RoomEventType string

const (
	RoomEventMessage    RoomEventType = "message"
	RoomEventFile       RoomEventType = "file"
	RoomEventJoined     RoomEventType = "joined"
	RoomEventLeft       RoomEventType = "left"
	RoomEventNameChange RoomEventType = "name_change"
	RoomEventNudge      RoomEventType = "nudge"
)

// ServerEvent is everything the server writes to a client, one JSON object per line.
// Type selects which of the remaining fields are meaningful.
type ServerEvent struct {
	Type     EventType     `json:"type"`
	Username Username      `json:"username,omitempty"`
	Text     string        `json:"text,omitempty"`
	Event    *RoomEvent    `json:"event,omitempty"`
	Message  string        `json:"message,omitempty"`
	Rooms    []RoomSummary `json:"rooms,omitempty"`
	Users    []Username    `json:"users,omitempty"`
	Room     RoomName      `json:"room,omitempty"`
}

// RoomEvent is room-scoped content, always wrapped in a ServerEvent tagged
// with the acting user.
type RoomEvent struct {
	Type        RoomEventType `json:"type"`
	Text        string        `json:"text,omitempty"`
	FileName    string        `json:"name,omitempty"`
	Data        string        `json:"data,omitempty"`
	Room        RoomName      `json:"room,omitempty"`
	NewUsername Username      `json:"username,omitempty"`
	Target      Username      `json:"target,omitempty"`
}

func HelpEvent(username Username, text string) ServerEvent {
	return ServerEvent{Type: EventHelp, Username: username, Text: text}
}

func RoomEventFrom(username Username, event RoomEvent) ServerEvent {
	return ServerEvent{Type: EventRoom, Username: username, Event: &event}
}

func ErrorEvent(message string) ServerEvent {
	return ServerEvent{Type: EventError, Message: message}
}

func RoomsEvent(rooms []RoomSummary) ServerEvent {
	return ServerEvent{Type: EventRooms, Rooms: rooms}
}

func UsersEvent(users []Username) ServerEvent {
	return ServerEvent{Type: EventUsers, Users: users}
}

func RoomCreatedEvent(room RoomName) ServerEvent {
	return ServerEvent{Type: EventRoomCreated, Room: room}
}

func RoomDeletedEvent(room RoomName) ServerEvent {
	return ServerEvent{Type: EventRoomDeleted, Room: room}
}

func DisconnectEvent() ServerEvent {
	return ServerEvent{Type: EventDisconnect}
}

func MessageEvent(text string) RoomEvent {
	return RoomEvent{Type: RoomEventMessage, Text: text}
}

func FileEvent(name, data string) RoomEvent {
	return RoomEvent{Type: RoomEventFile, FileName: name, Data: data}
}

func JoinedEvent(room RoomName) RoomEvent {
	return RoomEvent{Type: RoomEventJoined, Room: room}
}

func LeftEvent(room RoomName) RoomEvent {
	return RoomEvent{Type: RoomEventLeft, Room: room}
}

func NameChangeEvent(newName Username) RoomEvent {
	return RoomEvent{Type: RoomEventNameChange, NewUsername: newName}
}

func NudgeEvent(target Username) RoomEvent {
	return RoomEvent{Type: RoomEventNudge, Target: target}
}

// IsMeta reports whether the event describes room existence rather than room content.
func (e ServerEvent) IsMeta() bool {
	return e.Type == EventRoomCreated || e.Type == EventRoomDeleted
}

// MarshalLine encodes the event as a single JSON line without the trailing newline.
func (e ServerEvent) MarshalLine() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", e.Type, err)
	}
	return data, nil
}

// ParseServerEvent decodes a line written by MarshalLine.
func ParseServerEvent(line []byte) (ServerEvent, error) {
	var event ServerEvent
	if err := json.Unmarshal(line, &event); err != nil {
		return ServerEvent{}, fmt.Errorf("decode server event: %w", err)
	}
	switch event.Type {
	case EventHelp, EventError, EventRooms, EventUsers, EventRoomCreated, EventRoomDeleted, EventDisconnect:
	case EventRoom:
		if event.Event == nil {
			return ServerEvent{}, fmt.Errorf("decode server event: room_event without event body")
		}
	default:
		return ServerEvent{}, fmt.Errorf("decode server event: unknown type %q", event.Type)
	}
	return event, nil
}
