package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/haasonsaas/simpleplugin/internal/format"
	"github.com/haasonsaas/simpleplugin/internal/storage"
)

// Server is the host plus the game actions the builtin commands need.
type Server interface {
	Host

	// OnlinePlayers lists online players sorted by name.
	OnlinePlayers() []Player

	// Kick disconnects a player.
	Kick(p Player, reason string)

	// Heal restores a player's health.
	Heal(p Player)

	// StartedAt is when the server started.
	StartedAt() time.Time
}

// Builtins are the collaborators of the builtin commands.
type Builtins struct {
	Server  Server
	Records storage.RecordStore
	Version string
	Now     func() time.Time
}

type builtin struct {
	rule    Rule
	aliases []string
	handler Handler
}

// RegisterBuiltins registers the builtin rules and handlers on d.
func RegisterBuiltins(d *Dispatcher, b Builtins) error {
	if b.Server == nil {
		return fmt.Errorf("builtins require a server")
	}
	if b.Now == nil {
		b.Now = time.Now
	}

	for _, cmd := range b.commands(d) {
		if err := d.Registry().Register(cmd.rule); err != nil {
			return fmt.Errorf("register builtin %q: %w", cmd.rule.Name, err)
		}
		if err := d.Handle(cmd.rule.Name, cmd.handler); err != nil {
			return fmt.Errorf("register builtin %q: %w", cmd.rule.Name, err)
		}
		for _, alias := range cmd.aliases {
			if err := d.Alias(alias, cmd.rule.Name); err != nil {
				return fmt.Errorf("register builtin %q: %w", alias, err)
			}
		}
	}
	return nil
}

func (b Builtins) commands(d *Dispatcher) []builtin {
	return []builtin{
		{
			rule: Rule{Name: "simpleplugin", MinArgs: 0, MaxArgs: 0,
				Usage: "/simpleplugin", Description: "Show plugin information"},
			handler: b.about(d),
		},
		{
			rule: Rule{Name: "help", MinArgs: 0, MaxArgs: 1,
				Usage: "/help [command]", Description: "Show available commands"},
			handler: b.help(d),
		},
		{
			rule: Rule{Name: "list", MinArgs: 0, MaxArgs: 0,
				Usage: "/list", Description: "List online players"},
			handler: b.list,
		},
		{
			rule: Rule{Name: "uptime", MinArgs: 0, MaxArgs: 0,
				Usage: "/uptime", Description: "Show how long the server has been running"},
			handler: b.uptime,
		},
		{
			rule: Rule{Name: "where", MinArgs: 0, MaxArgs: 1, Target: TargetRequireOnline,
				Usage: "/where [player]", Description: "Show where a player is"},
			handler: BySource(b.where, b.whereConsole),
		},
		{
			rule: Rule{Name: "msg", MinArgs: 2, MaxArgs: Unbounded, Target: TargetRequireOnline,
				Usage: "/msg <player> <message>", Description: "Send a private message"},
			aliases: []string{"tell"},
			handler: b.msg,
		},
		{
			rule: Rule{Name: "heal", MinArgs: 0, MaxArgs: 1, Target: TargetOperatorForOthers,
				Usage: "/heal [player]", Description: "Restore health"},
			handler: b.heal,
		},
		{
			rule: Rule{Name: "kick", MinArgs: 1, MaxArgs: Unbounded,
				Source: SourceOperatorOnly, Target: TargetRestrictAdmin,
				Usage: "/kick <player> [reason]", Description: "Disconnect a player"},
			handler: b.kick,
		},
		{
			rule: Rule{Name: "seen", MinArgs: 1, MaxArgs: 1, Target: TargetAllowOffline,
				Usage: "/seen <player>", Description: "Show when a player was last online"},
			handler: b.seen,
		},
		{
			rule: Rule{Name: "broadcast", MinArgs: 1, MaxArgs: Unbounded, Source: SourceOperatorOnly,
				Usage: "/broadcast <message>", Description: "Send a message to everyone"},
			handler: b.broadcast,
		},
		{
			rule: Rule{Name: "adminsay", MinArgs: 1, MaxArgs: Unbounded, Source: SourceAdminOnly,
				Usage: "/adminsay <message>", Description: "Speak as the admin"},
			handler: b.adminSay,
		},
		{
			rule: Rule{Name: "sudo", MinArgs: 2, MaxArgs: Unbounded,
				Source: SourceAdminPlayerOnly, Target: TargetRequireOnline,
				Usage: "/sudo <player> <command> [args]", Description: "Run a command as another player"},
			handler: b.sudo(d),
		},
		{
			rule: Rule{Name: "save", MinArgs: 0, MaxArgs: 0, Source: SourceConsoleOnly,
				Usage: "/save", Description: "Save online player records"},
			handler: b.save,
		},
	}
}

func (b Builtins) about(d *Dispatcher) Handler {
	return func(ctx context.Context, inv *Invocation) error {
		version := b.Version
		if version == "" {
			version = "dev"
		}
		inv.SendMessage(fmt.Sprintf("@name(SimplePlugin) version %s with %d commands. Admin: %%admin",
			version, len(d.Registry().Names())))
		return nil
	}
}

func (b Builtins) help(d *Dispatcher) Handler {
	return func(ctx context.Context, inv *Invocation) error {
		if inv.NArgs() == 1 {
			rule, ok := d.Registry().Lookup(inv.Arg(0))
			if !ok {
				inv.SendError("Unknown command @name/" + inv.Literal(inv.Arg(0)))
				return nil
			}
			inv.SendMessage(fmt.Sprintf("@name%s @default- %s", rule.Usage, rule.Description))
			inv.SendMessage(fmt.Sprintf("Arguments: @name%s@default, senders: @name%s@default, target: @name%s",
				rule.Arity(), rule.Source, rule.Target))
			return nil
		}
		var lines []string
		for _, rule := range d.Registry().List() {
			if !canRun(inv, rule) {
				continue
			}
			lines = append(lines, fmt.Sprintf("@name/%s @default- %s", rule.Name, rule.Description))
		}
		inv.SendMessage("Available commands:\n" + strings.Join(lines, "\n"))
		return nil
	}
}

// canRun reports whether the rule's source policy admits the sender. It is
// used to filter help output and never sends messages.
func canRun(inv *Invocation, rule Rule) bool {
	p, isPlayer := inv.SenderPlayer()
	switch rule.Source {
	case SourcePlayerOnly:
		return isPlayer
	case SourceConsoleOnly:
		return !isPlayer
	case SourceOperatorOnly:
		return !isPlayer || p.IsOperator()
	case SourceAdminOnly:
		return !isPlayer || inv.Host().IsAdmin(p)
	case SourceAdminPlayerOnly:
		return isPlayer && inv.Host().IsAdmin(p)
	}
	return true
}

func (b Builtins) list(ctx context.Context, inv *Invocation) error {
	players := b.Server.OnlinePlayers()
	if len(players) == 0 {
		inv.SendMessage("Nobody is online right now.")
		return nil
	}
	names := make([]string, len(players))
	for i, p := range players {
		names[i] = "@name" + p.Name() + "@default"
	}
	noun := "players"
	if len(players) == 1 {
		noun = "player"
	}
	inv.SendMessage(fmt.Sprintf("There are @name%d@default %s online: %s", len(players), noun, strings.Join(names, ", ")))
	return nil
}

func (b Builtins) uptime(ctx context.Context, inv *Invocation) error {
	up := b.Now().Sub(b.Server.StartedAt())
	inv.SendMessage("The server has been up for @name" + format.FormatElapsed(up))
	return nil
}

func (b Builtins) where(ctx context.Context, inv *Invocation) error {
	if inv.HasTarget() {
		inv.SendMessage("%t is at %tloc")
		return nil
	}
	inv.SendMessage("You are at %sloc")
	return nil
}

func (b Builtins) whereConsole(ctx context.Context, inv *Invocation) error {
	if !inv.HasTarget() {
		inv.SendError("The console is everywhere. Try @name/where <player>")
		return nil
	}
	return b.where(ctx, inv)
}

func (b Builtins) msg(ctx context.Context, inv *Invocation) error {
	text := inv.Text(1)
	if err := inv.SendTarget("@name[%s -> you] @default" + text); err != nil {
		return err
	}
	inv.SendMessage("@name[you -> %t] @default" + text)
	return nil
}

func (b Builtins) heal(ctx context.Context, inv *Invocation) error {
	if inv.HasTarget() {
		b.Server.Heal(inv.Target())
		if err := inv.SendTarget("You have been healed by %s"); err != nil {
			return err
		}
		inv.SendMessage("You healed %t")
		return nil
	}
	if inv.NArgs() > 0 {
		inv.SendError(MsgTargetOffline)
		return nil
	}
	p, ok := inv.SenderPlayer()
	if !ok {
		inv.SendError(MsgPlayerOnly)
		return nil
	}
	b.Server.Heal(p)
	inv.SendMessage("You have been healed")
	return nil
}

func (b Builtins) kick(ctx context.Context, inv *Invocation) error {
	if !inv.HasTarget() {
		inv.SendError(MsgTargetOffline)
		return nil
	}
	reason, shown := strings.Join(inv.Args()[1:], " "), inv.Text(1)
	if reason == "" {
		reason, shown = "Kicked by an operator", "Kicked by an operator"
	}
	b.Server.Kick(inv.Target(), reason)
	inv.Broadcast("%t was kicked by %s: " + shown)
	return nil
}

func (b Builtins) seen(ctx context.Context, inv *Invocation) error {
	if inv.HasTarget() {
		inv.SendMessage("%t is online right now")
		return nil
	}
	if b.Records == nil {
		inv.SendError("Player records are disabled on this server")
		return nil
	}
	rec, err := b.Records.Get(ctx, inv.GivenTarget())
	if err != nil {
		return fmt.Errorf("seen %q: %w", inv.GivenTarget(), err)
	}
	if rec == nil {
		inv.SendError(MsgNoRecords)
		return nil
	}
	ago := format.FormatElapsed(b.Now().Sub(rec.LastSeen))
	inv.SendMessage(fmt.Sprintf("@name%s@default was last seen @name%s@default ago at %s",
		rec.Name, ago, inv.renderer.Location(rec.Location, true)))
	return nil
}

func (b Builtins) broadcast(ctx context.Context, inv *Invocation) error {
	inv.Broadcast("@name[Broadcast] @default" + inv.Text(0))
	return nil
}

func (b Builtins) adminSay(ctx context.Context, inv *Invocation) error {
	inv.Broadcast("@admin[" + inv.Literal(inv.Host().AdminName()) + "] @default" + inv.Text(0))
	return nil
}

func (b Builtins) sudo(d *Dispatcher) Handler {
	return func(ctx context.Context, inv *Invocation) error {
		name := normalizeName(inv.Arg(1))
		if d.Registry().Canonical(name) == d.Registry().Canonical(inv.Name()) {
			inv.SendError("You cannot nest @name/" + inv.Literal(name))
			return nil
		}
		if _, ok := d.Registry().Lookup(name); !ok {
			inv.SendError("Unknown command @name/" + inv.Literal(name))
			return nil
		}
		inv.SendMessage("Forcing %t to run @name/" + name)
		_, err := d.Execute(ctx, inv.Target(), name, inv.Args()[2:])
		return err
	}
}

func (b Builtins) save(ctx context.Context, inv *Invocation) error {
	if b.Records == nil {
		inv.SendError("Player records are disabled on this server")
		return nil
	}
	n, err := SaveOnline(ctx, b.Server, b.Records, b.Now())
	if err != nil {
		return err
	}
	inv.SendMessage(fmt.Sprintf("Saved @name%d@default player records", n))
	return nil
}

// SaveOnline writes a record for every online player.
func SaveOnline(ctx context.Context, server Server, records storage.RecordStore, now time.Time) (int, error) {
	saved := 0
	for _, p := range server.OnlinePlayers() {
		rec := &storage.PlayerRecord{
			ID:       p.ID(),
			Name:     p.Name(),
			LastSeen: now,
			Location: p.Location(),
		}
		if err := records.Save(ctx, rec); err != nil {
			return saved, fmt.Errorf("save %s: %w", p.Name(), err)
		}
		saved++
	}
	return saved, nil
}
