// Package host provides an in-memory game server for driving the command
// engine from a console: online players, worlds, message delivery and the
// server log.
package host

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/haasonsaas/simpleplugin/internal/commands"
	"github.com/haasonsaas/simpleplugin/internal/config"
	"github.com/haasonsaas/simpleplugin/internal/format"
	"github.com/haasonsaas/simpleplugin/internal/observability"
	"github.com/haasonsaas/simpleplugin/internal/storage"
)

var _ commands.Server = (*Server)(nil)

// Server is the console host. It is safe for concurrent use.
type Server struct {
	mu        sync.RWMutex
	players   map[string]*Player
	worlds    []string
	adminName string
	adminID   uuid.UUID
	prefix    rune

	console  io.Writer
	ansi     bool
	terminal *format.Terminal
	outMu    sync.Mutex

	logger    *slog.Logger
	pluginLog *PluginLog
	metrics   *observability.Metrics
	records   storage.RecordStore
	now       func() time.Time
	started   time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithConsole sets where console messages are written. ANSI colours are used
// when w is a terminal.
func WithConsole(w io.Writer) Option {
	return func(s *Server) {
		if w == nil {
			return
		}
		s.console = w
		s.ansi = isTerminal(w)
	}
}

// WithANSI forces ANSI colour output on or off.
func WithANSI(on bool) Option {
	return func(s *Server) { s.ansi = on }
}

// WithLogger sets the logger that receives server log lines.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPluginLog also writes server log lines to a plugin log file.
func WithPluginLog(l *PluginLog) Option {
	return func(s *Server) { s.pluginLog = l }
}

// WithMetrics reports online player counts.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithRecords saves a player record whenever a player leaves.
func WithRecords(records storage.RecordStore) Option {
	return func(s *Server) { s.records = records }
}

// WithNow overrides the clock.
func WithNow(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a server from configuration. Every configured player starts
// online.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		players: make(map[string]*Player),
		console: os.Stdout,
		ansi:    isTerminal(os.Stdout),
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "host")
	s.terminal = format.NewTerminal(s.console)
	if s.ansi {
		s.terminal.ForceColor()
	}
	s.started = s.now()
	s.worlds = append([]string(nil), cfg.Server.Worlds...)
	s.Configure(cfg)

	for _, pc := range cfg.Server.Players {
		id := uuid.Nil
		if pc.UUID != "" {
			parsed, err := uuid.Parse(pc.UUID)
			if err != nil {
				return nil, fmt.Errorf("player %s: %w", pc.Name, err)
			}
			id = parsed
		}
		loc := format.Location{World: pc.World, X: pc.X, Y: pc.Y, Z: pc.Z}
		if _, err := s.Join(NewPlayer(pc.Name, id, pc.Operator, loc)); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Configure applies the reloadable parts of the configuration: admin
// identity and code prefix.
func (s *Server) Configure(cfg *config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adminName = cfg.Admin.Name
	s.adminID = cfg.AdminID()
	s.prefix = format.DefaultCodePrefix
	if r := []rune(cfg.CodePrefix); len(r) == 1 {
		s.prefix = r[0]
	}
}

// Join brings a player online. Names are unique case-insensitively.
func (s *Server) Join(p *Player) (*Player, error) {
	key := strings.ToLower(p.Name())
	s.mu.Lock()
	if _, exists := s.players[key]; exists {
		s.mu.Unlock()
		return nil, fmt.Errorf("player %s is already online", p.Name())
	}
	s.players[key] = p
	n := len(s.players)
	s.mu.Unlock()

	s.reportOnline(n)
	s.logger.Info("player joined", "player", p.Name(), "id", p.ID())
	return p, nil
}

// Quit takes a player offline and saves its record.
func (s *Server) Quit(p commands.Player) {
	s.mu.Lock()
	key := strings.ToLower(p.Name())
	if s.players[key] != p {
		s.mu.Unlock()
		return
	}
	delete(s.players, key)
	n := len(s.players)
	s.mu.Unlock()

	s.reportOnline(n)
	s.saveRecord(p)
	s.logger.Info("player left", "player", p.Name())
}

// Player finds an online player by exact name, ignoring case.
func (s *Server) Player(name string) (*Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[strings.ToLower(name)]
	return p, ok
}

// Worlds lists the configured world names.
func (s *Server) Worlds() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.worlds...)
}

// ResolveOnlinePlayer matches an exact name first, then a unique name prefix.
func (s *Server) ResolveOnlinePlayer(name string) (commands.Player, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.players[name]; ok {
		return p, true
	}
	var match *Player
	for key, p := range s.players {
		if strings.HasPrefix(key, name) {
			if match != nil {
				return nil, false
			}
			match = p
		}
	}
	if match == nil {
		return nil, false
	}
	return match, true
}

// IsAdmin matches the configured admin uuid when set, otherwise the name.
func (s *Server) IsAdmin(p commands.Player) bool {
	if p == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.adminID != uuid.Nil {
		return p.ID() == s.adminID
	}
	return strings.EqualFold(p.Name(), s.adminName)
}

func (s *Server) AdminName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.adminName
}

func (s *Server) Admin() (commands.Player, bool) {
	for _, p := range s.OnlinePlayers() {
		if s.IsAdmin(p) {
			return p, true
		}
	}
	return nil, false
}

// Deliver sends text to a player's inbox, or writes it to the console.
func (s *Server) Deliver(to commands.Sender, text string) {
	if p, ok := to.(*Player); ok {
		p.receive(text)
		return
	}
	s.writeConsole(text)
}

func (s *Server) Broadcast(text string) {
	for _, p := range s.OnlinePlayers() {
		s.Deliver(p, text)
	}
	s.writeConsole(text)
}

// Log writes a server log line through the logger and the plugin log file.
func (s *Server) Log(text string) {
	plain := format.StripCodes(text, s.codePrefix())
	s.logger.Info(plain, "source", "server")
	if err := s.pluginLog.Write(plain); err != nil {
		s.logger.Warn("plugin log write failed", "error", err)
	}
}

// OnlinePlayers lists online players sorted by name.
func (s *Server) OnlinePlayers() []commands.Player {
	s.mu.RLock()
	out := make([]commands.Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, p)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name()) < strings.ToLower(out[j].Name())
	})
	return out
}

func (s *Server) Kick(p commands.Player, reason string) {
	s.logger.Info("player kicked", "player", p.Name(), "reason", reason)
	if hp, ok := p.(*Player); ok {
		hp.receive("Kicked: " + reason)
	}
	s.Quit(p)
}

func (s *Server) Heal(p commands.Player) {
	if hp, ok := p.(*Player); ok {
		hp.SetHealth(MaxHealth)
	}
}

func (s *Server) StartedAt() time.Time { return s.started }

func (s *Server) codePrefix() rune {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefix
}

func (s *Server) writeConsole(text string) {
	prefix := s.codePrefix()
	s.outMu.Lock()
	defer s.outMu.Unlock()
	for _, line := range carryCodes(splitLines(text), prefix) {
		if s.ansi {
			line = s.terminal.Render(line, prefix)
		} else {
			line = format.StripCodes(line, prefix)
		}
		fmt.Fprintln(s.console, line)
	}
}

func (s *Server) reportOnline(n int) {
	if s.metrics != nil {
		s.metrics.SetOnlinePlayers(n)
	}
}

func (s *Server) saveRecord(p commands.Player) {
	if s.records == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rec := &storage.PlayerRecord{ID: p.ID(), Name: p.Name(), LastSeen: s.now(), Location: p.Location()}
	if err := s.records.Save(ctx, rec); err != nil {
		s.logger.Warn("save player record failed", "player", p.Name(), "error", err)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func splitLines(text string) []string {
	return strings.Split(text, "\n")
}

// carryCodes prefixes each continuation line with the last style code of the
// line before it, so a colour survives the line break.
func carryCodes(lines []string, prefix rune) []string {
	var last string
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = last + line
		runes := []rune(line)
		for j := len(runes) - 2; j >= 0; j-- {
			if runes[j] == prefix {
				last = string(runes[j : j+2])
				break
			}
		}
	}
	return out
}
