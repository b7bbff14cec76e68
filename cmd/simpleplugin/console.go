package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/simpleplugin/internal/commands"
	"github.com/haasonsaas/simpleplugin/internal/config"
	"github.com/haasonsaas/simpleplugin/internal/format"
	"github.com/haasonsaas/simpleplugin/internal/host"
)

var errExit = errors.New("exit")

func runConsole(cmd *cobra.Command, flags *rootFlags, watch bool) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(flags, appOptions{console: cmd.OutOrStdout(), logs: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		if err := a.Close(shutdownCtx); err != nil {
			a.logger.Warn("shutdown incomplete", "error", err)
		}
	}()

	if err := a.serveMetrics(); err != nil {
		return err
	}

	c := &console{app: a, out: cmd.OutOrStdout(), sender: commands.Console{}, parser: commands.NewParser()}

	if a.autosave != nil {
		a.autosave.Start()
		c.tasks = a.autosave.Tasks()
	}
	if watch && a.configPath != "" {
		w := config.NewWatcher(a.configPath, 0, a.logger)
		if err := w.Start(ctx); err != nil {
			a.logger.Warn("config watch disabled", "error", err)
		} else {
			defer w.Close()
			c.updates = w.Updates()
		}
	}

	return c.run(ctx, cmd.InOrStdin())
}

// console runs one command at a time. Input, autosave tasks and config
// reloads are all handled on the loop goroutine.
type console struct {
	app     *app
	out     io.Writer
	sender  commands.Sender
	parser  *commands.Parser
	tasks   <-chan host.Task
	updates <-chan config.Update
}

func (c *console) run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	c.prompt()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := c.handle(ctx, line); err != nil {
				if errors.Is(err, errExit) {
					return nil
				}
				fmt.Fprintf(c.out, "error: %v\n", err)
			}
			c.prompt()
		case task := <-c.tasks:
			task(ctx)
		case u := <-c.updates:
			if u.Err != nil {
				fmt.Fprintf(c.out, "config reload failed: %v\n", u.Err)
				continue
			}
			if err := c.app.reload(u.Config); err != nil {
				fmt.Fprintf(c.out, "config reload failed: %v\n", err)
			}
		}
	}
}

func (c *console) prompt() {
	name := "console"
	if p, ok := commands.AsPlayer(c.sender); ok {
		name = p.Name()
	}
	fmt.Fprintf(c.out, "%s> ", name)
}

func (c *console) handle(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return nil
	case strings.HasPrefix(text, ":"):
		return c.directive(strings.Fields(text[1:]))
	}

	// Players need a command prefix; anything else is chat.
	if _, isPlayer := commands.AsPlayer(c.sender); isPlayer && !c.parser.IsCommand(text) {
		return c.chat(text)
	}
	line, ok := c.parser.ParseConsole(text)
	if !ok {
		return c.chat(text)
	}
	_, err := c.app.dispatcher.Execute(ctx, c.sender, line.Name, line.Args)
	c.app.flushInboxes(c.sender)
	if errors.Is(err, commands.ErrUnknownCommand) {
		c.app.server.Deliver(c.sender, c.app.dispatcher.Renderer().Render(
			"Unknown command. Type @name/help@default for help.", format.TagError, nil))
		c.app.flushInboxes(c.sender)
		return nil
	}
	return err
}

// chat broadcasts text that is not a command, as a player talking.
func (c *console) chat(text string) error {
	r := c.app.dispatcher.Renderer()
	msg := r.Render(fmt.Sprintf("<@name%s@default> %s", r.Escape(c.sender.Name()), r.Escape(text)), format.TagDefault, nil)
	c.app.server.Broadcast(msg)
	c.app.flushInboxes()
	return nil
}

func (c *console) directive(fields []string) error {
	if len(fields) == 0 {
		return fmt.Errorf("empty directive; try :help")
	}
	s := c.app.server
	args := fields[1:]
	switch strings.ToLower(fields[0]) {
	case "exit", "q":
		return errExit
	case "help":
		fmt.Fprintln(c.out, "directives: :as <player>, :console, :join <player> [world], :quit <player>, :op <player>, :deop <player>, :tp <player> <world> <x> <y> <z>, :players, :exit")
	case "console":
		c.sender = commands.Console{}
	case "as":
		if len(args) != 1 {
			return fmt.Errorf("usage: :as <player>")
		}
		p, ok := s.Player(args[0])
		if !ok {
			return fmt.Errorf("player %q is not online", args[0])
		}
		c.sender = p
	case "join":
		if len(args) < 1 || len(args) > 2 {
			return fmt.Errorf("usage: :join <player> [world]")
		}
		world := "world"
		if worlds := s.Worlds(); len(worlds) > 0 {
			world = worlds[0]
		}
		if len(args) == 2 {
			world = args[1]
		}
		p := host.NewPlayer(args[0], host.OfflineID(args[0]), false, format.Location{World: world})
		if _, err := s.Join(p); err != nil {
			return err
		}
	case "quit":
		if len(args) == 0 {
			return errExit
		}
		if len(args) != 1 {
			return fmt.Errorf("usage: :quit <player>")
		}
		p, ok := s.Player(args[0])
		if !ok {
			return fmt.Errorf("player %q is not online", args[0])
		}
		s.Quit(p)
		if c.sender == commands.Sender(p) {
			c.sender = commands.Console{}
		}
	case "op", "deop":
		if len(args) != 1 {
			return fmt.Errorf("usage: :%s <player>", fields[0])
		}
		p, ok := s.Player(args[0])
		if !ok {
			return fmt.Errorf("player %q is not online", args[0])
		}
		p.SetOperator(strings.EqualFold(fields[0], "op"))
	case "tp":
		if len(args) != 5 {
			return fmt.Errorf("usage: :tp <player> <world> <x> <y> <z>")
		}
		p, ok := s.Player(args[0])
		if !ok {
			return fmt.Errorf("player %q is not online", args[0])
		}
		x, y, z, err := parseCoords(args[2:])
		if err != nil {
			return err
		}
		p.MoveTo(format.Location{World: args[1], X: x, Y: y, Z: z})
	case "players":
		for _, p := range s.OnlinePlayers() {
			role := ""
			if s.IsAdmin(p) {
				role = " (admin)"
			} else if p.IsOperator() {
				role = " (op)"
			}
			fmt.Fprintf(c.out, "%s%s at %s\n", p.Name(), role, format.FormatLocation(p.Location(), true))
		}
	default:
		return fmt.Errorf("unknown directive :%s; try :help", fields[0])
	}
	return nil
}
