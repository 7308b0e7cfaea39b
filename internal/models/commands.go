package models

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// CommandMarker prefixes every command line; anything else is a chat message.
const CommandMarker = "/"

// CommandSummary is the help text sent on connect and on /help.
const CommandSummary = "/help | /name {name} | /rooms | /join {room} | /users | /file {name} {base64} | /nudge {name} | /quit"

// Command is one decoded client line. The set of implementations is closed.
type Command interface {
	command()
	String() string
}

type SendMessage struct{ Text string }
type Help struct{}
type ChangeName struct{ Name Username }
type ListRooms struct{}
type JoinRoom struct{ Room RoomName }
type ListUsers struct{}
type SendFile struct{ Name, Data string }
type Nudge struct{ Target Username }
type Quit struct{}

func (SendMessage) command() {}
func (Help) command()        {}
func (ChangeName) command()  {}
func (ListRooms) command()   {}
func (JoinRoom) command()    {}
func (ListUsers) command()   {}
func (SendFile) command()    {}
func (Nudge) command()       {}
func (Quit) command()        {}

func (c SendMessage) String() string { return c.Text }
func (Help) String() string          { return "/help" }
func (c ChangeName) String() string  { return "/name " + string(c.Name) }
func (ListRooms) String() string     { return "/rooms" }
func (c JoinRoom) String() string    { return "/join " + string(c.Room) }
func (ListUsers) String() string     { return "/users" }
func (c SendFile) String() string    { return "/file " + c.Name + " " + c.Data }
func (c Nudge) String() string       { return "/nudge " + string(c.Target) }
func (Quit) String() string          { return "/quit" }

var ErrInvalidCommand = errors.New("invalid command")

// ParseError describes a command line that could not be decoded.
type ParseError struct {
	Line   string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("Invalid command: %s", e.Line)
	}
	return e.Reason
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidCommand
}

// ParseLine decodes a client line. Lines without the command marker are
// chat messages and never fail.
func ParseLine(line string) (Command, error) {
	if !strings.HasPrefix(line, CommandMarker) {
		return SendMessage{Text: line}, nil
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, &ParseError{Line: line}
	}
	arg := func(i int, what string) (string, error) {
		if len(fields) <= i {
			return "", &ParseError{Line: line, Reason: what + " is required"}
		}
		return fields[i], nil
	}

	switch fields[0] {
	case "/help":
		return Help{}, nil
	case "/name":
		raw, err := arg(1, "Name")
		if err != nil {
			return nil, err
		}
		name, err := ParseUsername(raw)
		if err != nil {
			return nil, &ParseError{Line: line, Reason: err.Error(), Err: err}
		}
		return ChangeName{Name: name}, nil
	case "/rooms":
		return ListRooms{}, nil
	case "/join":
		raw, err := arg(1, "Room name")
		if err != nil {
			return nil, err
		}
		room, err := ParseRoomName(raw)
		if err != nil {
			return nil, &ParseError{Line: line, Reason: err.Error(), Err: err}
		}
		return JoinRoom{Room: room}, nil
	case "/users":
		return ListUsers{}, nil
	case "/file":
		name, err := arg(1, "File name")
		if err != nil {
			return nil, err
		}
		data, err := arg(2, "File content")
		if err != nil {
			return nil, err
		}
		if _, err := base64.StdEncoding.DecodeString(data); err != nil {
			return nil, &ParseError{Line: line, Reason: "File content must be base64 encoded", Err: err}
		}
		return SendFile{Name: name, Data: data}, nil
	case "/nudge":
		raw, err := arg(1, "Name")
		if err != nil {
			return nil, err
		}
		target, err := ParseUsername(raw)
		if err != nil {
			return nil, &ParseError{Line: line, Reason: err.Error(), Err: err}
		}
		return Nudge{Target: target}, nil
	case "/quit":
		return Quit{}, nil
	default:
		return nil, &ParseError{Line: line}
	}
}
