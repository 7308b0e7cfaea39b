package models

import "time"

// RoomSummary is one entry of a room listing.
type RoomSummary struct {
	Name    RoomName `json:"name"`
	Members int      `json:"members"`
}

// ActiveSession mirrors one live connection in the session store.
type ActiveSession struct {
	SessionID   string    `json:"session_id"`
	Username    Username  `json:"username"`
	Room        RoomName  `json:"room"`
	RemoteAddr  string    `json:"remote_addr"`
	Transport   string    `json:"transport"`
	ConnectedAt time.Time `json:"connected_at"`
	LastSeen    time.Time `json:"last_seen"`
}

type RoomMembers struct {
	Room    RoomName   `json:"room"`
	Members []Username `json:"members"`
}
