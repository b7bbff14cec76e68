package commands

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/haasonsaas/simpleplugin/internal/format"
)

type testPlayer struct {
	name string
	id   uuid.UUID
	op   bool
	loc  format.Location
}

func (p *testPlayer) Name() string              { return p.name }
func (p *testPlayer) ID() uuid.UUID             { return p.id }
func (p *testPlayer) IsOperator() bool          { return p.op }
func (p *testPlayer) Location() format.Location { return p.loc }

type delivery struct {
	to   string
	text string
}

// testServer records everything the engine sends. Delivered text has its
// style codes stripped.
type testServer struct {
	players    map[string]*testPlayer
	adminName  string
	adminID    uuid.UUID
	prefixes   bool
	delivered  []delivery
	broadcasts []string
	logs       []string
	kicked     []string
	healed     []string
	started    time.Time
}

func newTestServer(adminName string, players ...*testPlayer) *testServer {
	s := &testServer{
		players:   make(map[string]*testPlayer),
		adminName: adminName,
		started:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, p := range players {
		s.join(p)
	}
	return s
}

func (s *testServer) join(p *testPlayer) {
	if p.id == uuid.Nil {
		p.id = uuid.New()
	}
	s.players[strings.ToLower(p.name)] = p
}

// ResolveOnlinePlayer matches exact names and, when prefixes is set, a
// unique name prefix.
func (s *testServer) ResolveOnlinePlayer(name string) (Player, bool) {
	name = strings.ToLower(name)
	if p, ok := s.players[name]; ok {
		return p, true
	}
	if !s.prefixes || name == "" {
		return nil, false
	}
	var match *testPlayer
	for key, p := range s.players {
		if !strings.HasPrefix(key, name) {
			continue
		}
		if match != nil {
			return nil, false
		}
		match = p
	}
	if match == nil {
		return nil, false
	}
	return match, true
}

func (s *testServer) IsAdmin(p Player) bool {
	if s.adminID != uuid.Nil {
		return p.ID() == s.adminID
	}
	return strings.EqualFold(p.Name(), s.adminName)
}

func (s *testServer) AdminName() string { return s.adminName }

func (s *testServer) Admin() (Player, bool) {
	for _, p := range s.players {
		if s.IsAdmin(p) {
			return p, true
		}
	}
	return nil, false
}

func (s *testServer) Deliver(to Sender, text string) {
	s.delivered = append(s.delivered, delivery{to: to.Name(), text: format.StripCodes(text, '&')})
}

func (s *testServer) Broadcast(text string) {
	s.broadcasts = append(s.broadcasts, format.StripCodes(text, '&'))
}

func (s *testServer) Log(text string) {
	s.logs = append(s.logs, format.StripCodes(text, '&'))
}

func (s *testServer) OnlinePlayers() []Player {
	players := make([]Player, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool { return players[i].Name() < players[j].Name() })
	return players
}

func (s *testServer) Kick(p Player, reason string) {
	s.kicked = append(s.kicked, p.Name()+": "+reason)
	delete(s.players, strings.ToLower(p.Name()))
}

func (s *testServer) Heal(p Player) {
	s.healed = append(s.healed, p.Name())
}

func (s *testServer) StartedAt() time.Time { return s.started }

// to returns the texts delivered to name.
func (s *testServer) to(name string) []string {
	var texts []string
	for _, d := range s.delivered {
		if d.to == name {
			texts = append(texts, d.text)
		}
	}
	return texts
}

func (s *testServer) reset() {
	s.delivered = nil
	s.broadcasts = nil
	s.logs = nil
}

func testRenderer() *format.Renderer {
	return format.NewRenderer(format.DefaultStyles(), format.DefaultCodePrefix)
}

func mustRegistry(rules ...Rule) *Registry {
	r := NewRegistry(nil)
	for _, rule := range rules {
		if err := r.Register(rule); err != nil {
			panic(err)
		}
	}
	return r
}
