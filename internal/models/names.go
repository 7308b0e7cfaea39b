package models

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxNameLength bounds usernames and room names, in runes.
const MaxNameLength = 32

// DefaultRoom is created with the server and never deleted.
const DefaultRoom RoomName = "lobby"

var (
	ErrEmptyName   = errors.New("name must not be empty")
	ErrNameTooLong = fmt.Errorf("name must be at most %d characters", MaxNameLength)
	ErrInvalidName = errors.New("name must not contain spaces or control characters")
)

// Username is a client's display name. It is unique across the server while claimed.
type Username string

// RoomName identifies a room.
type RoomName string

func (u Username) String() string { return string(u) }

func (r RoomName) String() string { return string(r) }

// IsDefault reports whether r names the permanent lobby.
func (r RoomName) IsDefault() bool { return r == DefaultRoom }

func ParseUsername(s string) (Username, error) {
	if err := validateName(s); err != nil {
		return "", fmt.Errorf("invalid username %q: %w", s, err)
	}
	return Username(s), nil
}

func ParseRoomName(s string) (RoomName, error) {
	if err := validateName(s); err != nil {
		return "", fmt.Errorf("invalid room name %q: %w", s, err)
	}
	return RoomName(s), nil
}

// RandomUsername returns a fresh guest name. Callers still have to claim it.
func RandomUsername() Username {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return Username("guest-" + id[:8])
}

func validateName(s string) error {
	if s == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(s) > MaxNameLength {
		return ErrNameTooLong
	}
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsControl(r) || r == utf8.RuneError {
			return ErrInvalidName
		}
	}
	return nil
}
