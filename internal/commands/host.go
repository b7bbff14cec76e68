package commands

import (
	"github.com/google/uuid"

	"github.com/haasonsaas/simpleplugin/internal/format"
)

// ConsoleName is the display name of the server console.
const ConsoleName = "The Console"

// Sender is whoever issued a command: a Player or the Console.
type Sender interface {
	Name() string
}

// Player is an online player.
type Player interface {
	Sender
	ID() uuid.UUID
	IsOperator() bool
	Location() format.Location
}

// Console is the server console sender.
type Console struct{}

// Name implements Sender.
func (Console) Name() string { return ConsoleName }

// Host is the game server as seen by the command engine.
type Host interface {
	// ResolveOnlinePlayer finds an online player by name.
	ResolveOnlinePlayer(name string) (Player, bool)

	// IsAdmin reports whether p is the configured admin.
	IsAdmin(p Player) bool

	// AdminName returns the configured admin's display name.
	AdminName() string

	// Admin returns the admin when online.
	Admin() (Player, bool)

	// Deliver sends rendered text to one sender.
	Deliver(to Sender, text string)

	// Broadcast sends rendered text to every online player and the console.
	Broadcast(text string)

	// Log writes rendered text to the server log.
	Log(text string)
}

// AsPlayer returns s as a Player when it is one.
func AsPlayer(s Sender) (Player, bool) {
	p, ok := s.(Player)
	return p, ok
}
