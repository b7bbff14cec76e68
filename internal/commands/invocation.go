package commands

import (
	"fmt"
	"strings"

	"github.com/haasonsaas/simpleplugin/internal/format"
)

// Invocation is a single command call. It is built once, verified, dispatched
// and then discarded.
type Invocation struct {
	name     string
	args     []string
	sender   Sender
	rule     Rule
	target   Player
	host     Host
	renderer *format.Renderer
	verified bool
}

// NewInvocation resolves the rule for name and, when the rule has a target
// policy, the online player named by the first argument.
func NewInvocation(host Host, sender Sender, name string, args []string, registry *Registry, renderer *format.Renderer) (*Invocation, error) {
	if host == nil {
		return nil, fmt.Errorf("host is required")
	}
	if sender == nil {
		return nil, fmt.Errorf("sender is required")
	}
	if registry == nil || renderer == nil {
		return nil, fmt.Errorf("registry and renderer are required")
	}

	rule, ok := registry.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}

	inv := &Invocation{
		name:     rule.Name,
		args:     append([]string(nil), args...),
		sender:   sender,
		rule:     rule,
		host:     host,
		renderer: renderer,
	}
	if rule.Target != TargetNone && inv.GivenTarget() != "" {
		if p, ok := host.ResolveOnlinePlayer(inv.GivenTarget()); ok {
			inv.target = p
		}
	}
	return inv, nil
}

// Name returns the lower-cased command name.
func (i *Invocation) Name() string { return i.name }

// Rule returns the rule the invocation is checked against.
func (i *Invocation) Rule() Rule { return i.rule }

// Args returns a copy of the arguments.
func (i *Invocation) Args() []string {
	return append([]string(nil), i.args...)
}

// NArgs returns the number of arguments.
func (i *Invocation) NArgs() int { return len(i.args) }

// Arg returns the nth argument or "".
func (i *Invocation) Arg(n int) string {
	if n < 0 || n >= len(i.args) {
		return ""
	}
	return i.args[n]
}

// Text joins the arguments from n on and escapes them so they can be
// appended to a message template as typed.
func (i *Invocation) Text(n int) string {
	if n < 0 || n >= len(i.args) {
		return ""
	}
	return i.renderer.Escape(strings.Join(i.args[n:], " "))
}

// Literal escapes one piece of user input for use in a message template.
func (i *Invocation) Literal(s string) string {
	return i.renderer.Escape(s)
}

// Sender returns who issued the command.
func (i *Invocation) Sender() Sender { return i.sender }

// SenderName returns the sender's display name.
func (i *Invocation) SenderName() string { return i.sender.Name() }

// SenderPlayer returns the sender when it is a player.
func (i *Invocation) SenderPlayer() (Player, bool) { return AsPlayer(i.sender) }

// IsConsole reports whether the console issued the command.
func (i *Invocation) IsConsole() bool {
	_, ok := AsPlayer(i.sender)
	return !ok
}

// GivenTarget returns the first argument verbatim, or "".
func (i *Invocation) GivenTarget() string { return i.Arg(0) }

// Target returns the resolved target, or nil.
func (i *Invocation) Target() Player { return i.target }

// HasTarget reports whether a target was resolved.
func (i *Invocation) HasTarget() bool { return i.target != nil }

// TargetName returns the resolved target's name, falling back to the given
// target token.
func (i *Invocation) TargetName() string {
	if i.target != nil {
		return i.target.Name()
	}
	return i.GivenTarget()
}

// Verified reports whether the invocation passed verification.
func (i *Invocation) Verified() bool { return i.verified }

// Host returns the host the invocation was built against.
func (i *Invocation) Host() Host { return i.host }

// Render applies both template passes with this invocation's values.
func (i *Invocation) Render(text, primary string) string {
	return i.renderer.Render(text, primary, i.instance())
}

// SendMessage renders text in the primary style and sends it to the sender.
func (i *Invocation) SendMessage(text string) {
	i.deliver(i.sender, text, format.TagText)
}

// SendError renders text in the error style and sends it to the sender.
func (i *Invocation) SendError(text string) {
	i.deliver(i.sender, text, format.TagError)
}

// SendTarget renders text in the primary style and sends it to the target.
func (i *Invocation) SendTarget(text string) error {
	if i.target == nil {
		return ErrNoTarget
	}
	i.deliver(i.target, text, format.TagText)
	return nil
}

// Broadcast renders text in the primary style and sends it to everyone.
func (i *Invocation) Broadcast(text string) {
	i.host.Broadcast(i.Render(text, format.TagText))
}

// NotifyAdmins renders text in the primary style and sends it to the admin
// when online and to the server log.
func (i *Invocation) NotifyAdmins(text string) {
	rendered := i.Render(text, format.TagText)
	if admin, ok := i.host.Admin(); ok {
		i.host.Deliver(admin, rendered)
	}
	i.host.Log(rendered)
}

// LogError renders text in the error style and writes it to the server log.
func (i *Invocation) LogError(text string) {
	i.host.Log(i.Render(text, format.TagError))
}

func (i *Invocation) deliver(to Sender, text, primary string) string {
	rendered := i.Render(text, primary)
	i.host.Deliver(to, rendered)
	return rendered
}

func (i *Invocation) instance() *format.Instance {
	inst := &format.Instance{
		AdminName:   i.host.AdminName(),
		SenderName:  i.sender.Name(),
		TargetName:  i.TargetName(),
		GivenTarget: i.GivenTarget(),
		Command:     i.name,
	}
	if p, ok := AsPlayer(i.sender); ok {
		loc := p.Location()
		inst.SenderLocation = &loc
	}
	if i.target != nil {
		loc := i.target.Location()
		inst.TargetLocation = &loc
	}
	return inst
}
