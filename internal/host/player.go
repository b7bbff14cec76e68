package host

import (
	"sync"

	"github.com/google/uuid"

	"github.com/haasonsaas/simpleplugin/internal/format"
)

// MaxHealth is the health a player is restored to by Heal.
const MaxHealth = 20.0

// Player is a player known to the console host. Messages delivered to a
// player are kept in its inbox.
type Player struct {
	name string
	id   uuid.UUID

	mu     sync.Mutex
	op     bool
	loc    format.Location
	health float64
	inbox  []string
}

// NewPlayer creates a player at full health.
func NewPlayer(name string, id uuid.UUID, op bool, loc format.Location) *Player {
	if id == uuid.Nil {
		id = OfflineID(name)
	}
	return &Player{name: name, id: id, op: op, loc: loc, health: MaxHealth}
}

// OfflineID derives a stable id from a player name.
func OfflineID(name string) uuid.UUID {
	return uuid.NewMD5(uuid.Nil, []byte("OfflinePlayer:"+name))
}

func (p *Player) Name() string  { return p.name }
func (p *Player) ID() uuid.UUID { return p.id }

func (p *Player) IsOperator() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.op
}

func (p *Player) Location() format.Location {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loc
}

// SetOperator grants or revokes operator status.
func (p *Player) SetOperator(op bool) {
	p.mu.Lock()
	p.op = op
	p.mu.Unlock()
}

// MoveTo sets the player's location.
func (p *Player) MoveTo(loc format.Location) {
	p.mu.Lock()
	p.loc = loc
	p.mu.Unlock()
}

// Health returns the current health.
func (p *Player) Health() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.health
}

// SetHealth sets the current health, clamped to [0, MaxHealth].
func (p *Player) SetHealth(h float64) {
	p.mu.Lock()
	p.health = max(0, min(h, MaxHealth))
	p.mu.Unlock()
}

func (p *Player) receive(text string) {
	p.mu.Lock()
	p.inbox = append(p.inbox, text)
	p.mu.Unlock()
}

// Inbox returns and clears the messages delivered to the player.
func (p *Player) Inbox() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.inbox
	p.inbox = nil
	return out
}
