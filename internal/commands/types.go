// Package commands validates plugin command invocations against their rules
// and dispatches them to handlers.
package commands

import (
	"fmt"
	"strings"
)

// Unbounded marks a rule without an upper argument limit.
const Unbounded = -1

// Source restricts which senders may run a command.
type Source int

const (
	SourceAll Source = iota
	SourcePlayerOnly
	SourceOperatorOnly
	SourceAdminOnly
	SourceAdminPlayerOnly
	SourceConsoleOnly
)

var sourceNames = map[Source]string{
	SourceAll:             "ALL",
	SourcePlayerOnly:      "PLAYER_ONLY",
	SourceOperatorOnly:    "OPERATOR_ONLY",
	SourceAdminOnly:       "ADMIN_ONLY",
	SourceAdminPlayerOnly: "ADMIN_AND_PLAYER_ONLY",
	SourceConsoleOnly:     "CONSOLE_ONLY",
}

func (s Source) String() string {
	if name, ok := sourceNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Source(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Source) UnmarshalText(text []byte) error {
	parsed, err := ParseSource(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSource parses a source policy name such as "operator_only".
func ParseSource(name string) (Source, error) {
	key := normalizeEnum(name)
	for s, n := range sourceNames {
		if n == key {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown source policy %q", name)
}

// Target restricts who a command may be aimed at. The target is always the
// first argument.
type Target int

const (
	TargetNone Target = iota
	TargetRestrictAdmin
	TargetOperatorForOthers
	TargetRequireOnline
	TargetAllowOffline
)

var targetNames = map[Target]string{
	TargetNone:              "NONE",
	TargetRestrictAdmin:     "RESTRICT_ADMIN",
	TargetOperatorForOthers: "REQUIRE_OPERATOR_FOR_OTHERS",
	TargetRequireOnline:     "REQUIRE_ONLINE",
	TargetAllowOffline:      "ALLOW_OFFLINE",
}

func (t Target) String() string {
	if name, ok := targetNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Target(%d)", int(t))
}

// MarshalText implements encoding.TextMarshaler.
func (t Target) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Target) UnmarshalText(text []byte) error {
	parsed, err := ParseTarget(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTarget parses a target policy name such as "require_online".
func ParseTarget(name string) (Target, error) {
	key := normalizeEnum(name)
	for t, n := range targetNames {
		if n == key {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown target policy %q", name)
}

func normalizeEnum(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	return strings.NewReplacer("-", "_", " ", "_").Replace(name)
}

// Rule is the static policy for one command name.
type Rule struct {
	// Name is the lower-cased command name without the leading slash
	Name string `json:"name"`

	// MinArgs and MaxArgs bound the argument count; MaxArgs may be Unbounded
	MinArgs int `json:"min_args"`
	MaxArgs int `json:"max_args"`

	Source Source `json:"source"`
	Target Target `json:"target"`

	// Usage shows how to use the command
	Usage string `json:"usage,omitempty"`

	// Description is a short description of what the command does
	Description string `json:"description,omitempty"`
}

// Validate checks the arity invariant.
func (r Rule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("rule name is required")
	}
	if r.MinArgs < 0 {
		return fmt.Errorf("rule %q: min args %d is negative", r.Name, r.MinArgs)
	}
	if r.MaxArgs != Unbounded && r.MaxArgs < r.MinArgs {
		return fmt.Errorf("rule %q: max args %d is below min args %d", r.Name, r.MaxArgs, r.MinArgs)
	}
	return nil
}

// Alias returns a copy of the rule under another name.
func (r Rule) Alias(name string) Rule {
	r.Name = normalizeName(name)
	return r
}

// Bounded reports whether the rule has an upper argument limit.
func (r Rule) Bounded() bool {
	return r.MaxArgs != Unbounded
}

// Arity renders the accepted argument counts, e.g. "1", "0-1" or "2+".
func (r Rule) Arity() string {
	switch {
	case !r.Bounded():
		return fmt.Sprintf("%d+", r.MinArgs)
	case r.MinArgs == r.MaxArgs:
		return fmt.Sprintf("%d", r.MinArgs)
	default:
		return fmt.Sprintf("%d-%d", r.MinArgs, r.MaxArgs)
	}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Reason identifies why an invocation was rejected.
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonTooFewArgs        Reason = "too_few_args"
	ReasonTooManyArgs       Reason = "too_many_args"
	ReasonAdminProtected    Reason = "admin_protected"
	ReasonOperatorForOthers Reason = "operator_for_others"
	ReasonTargetOffline     Reason = "target_offline"
	ReasonPlayerOnly        Reason = "player_only"
	ReasonConsoleOnly       Reason = "console_only"
	ReasonOperatorRequired  Reason = "operator_required"
	ReasonAdminOnly         Reason = "admin_only"
	ReasonMisconfigured     Reason = "misconfigured"
)

// Outcome is the result of verifying an invocation.
type Outcome struct {
	Passed bool
	Reason Reason

	// Message is the rendered text delivered to the sender on rejection
	Message string

	// NotifiedAdmins is set when the rejection was also reported to the admin
	NotifiedAdmins bool
}

// Pass is the outcome of a successful verification.
var Pass = Outcome{Passed: true}
