package main

import (
	"fmt"
	"strings"

	"roomchat/internal/models"

	"github.com/fatih/color"
)

func formatEvent(event models.ServerEvent) string {
	switch event.Type {
	case models.EventHelp:
		return color.CyanString("You are %s. Commands: %s", event.Username, event.Text)
	case models.EventError:
		return color.RedString("error: %s", event.Message)
	case models.EventRooms:
		rooms := make([]string, 0, len(event.Rooms))
		for _, room := range event.Rooms {
			rooms = append(rooms, fmt.Sprintf("%s (%d)", room.Name, room.Members))
		}
		return color.GreenString("rooms: %s", strings.Join(rooms, ", "))
	case models.EventUsers:
		users := make([]string, 0, len(event.Users))
		for _, user := range event.Users {
			users = append(users, user.String())
		}
		return color.GreenString("users: %s", strings.Join(users, ", "))
	case models.EventRoomCreated:
		return color.MagentaString("* room %s created", event.Room)
	case models.EventRoomDeleted:
		return color.MagentaString("* room %s deleted", event.Room)
	case models.EventDisconnect:
		return color.YellowString("disconnected")
	case models.EventRoom:
		return formatRoomEvent(event.Username, event.Event)
	default:
		return fmt.Sprintf("%s event", event.Type)
	}
}

func formatRoomEvent(from models.Username, event *models.RoomEvent) string {
	switch event.Type {
	case models.RoomEventMessage:
		return fmt.Sprintf("%s: %s", color.BlueString("%s", from), event.Text)
	case models.RoomEventFile:
		return color.BlueString("%s sent file %s (%d bytes base64)", from, event.FileName, len(event.Data))
	case models.RoomEventJoined:
		return color.YellowString("-> %s joined %s", from, event.Room)
	case models.RoomEventLeft:
		return color.YellowString("<- %s left %s", from, event.Room)
	case models.RoomEventNameChange:
		return color.YellowString("%s is now known as %s", from, event.NewUsername)
	case models.RoomEventNudge:
		return color.HiRedString("%s nudged %s!", from, event.Target)
	default:
		return fmt.Sprintf("%s: %s event", from, event.Type)
	}
}
