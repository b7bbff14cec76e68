package commands

import (
	"log/slog"

	"golang.org/x/text/cases"

	"github.com/haasonsaas/simpleplugin/internal/format"
)

// check is one stage of verification. A stage returns Pass to let the next
// stage run.
type check func(v *Validator, inv *Invocation) (Outcome, error)

// stages run in this order and the first rejection wins.
var stages = []check{
	(*Validator).checkArity,
	(*Validator).checkTarget,
	(*Validator).checkSource,
}

// Validator checks invocations against their rules. Every rejection sends
// exactly one error-styled message to the sender.
type Validator struct {
	logger *slog.Logger
}

// NewValidator creates a validator.
func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{logger: logger.With("component", "validator")}
}

// Verify runs the arity, target and source checks. A *ConfigError is returned
// when the rule carries a policy value that is not recognised.
func (v *Validator) Verify(inv *Invocation) (Outcome, error) {
	for _, stage := range stages {
		out, err := stage(v, inv)
		if err != nil || !out.Passed {
			return out, err
		}
	}
	inv.verified = true
	return Pass, nil
}

func (v *Validator) checkArity(inv *Invocation) (Outcome, error) {
	n, rule := inv.NArgs(), inv.Rule()
	switch {
	case n < rule.MinArgs:
		return v.reject(inv, ReasonTooFewArgs, MsgTooFewArgs, ""), nil
	case rule.Bounded() && n > rule.MaxArgs:
		return v.reject(inv, ReasonTooManyArgs, MsgTooManyArgs, ""), nil
	}
	return Pass, nil
}

func (v *Validator) checkTarget(inv *Invocation) (Outcome, error) {
	rule := inv.Rule()
	switch rule.Target {
	case TargetNone, TargetAllowOffline:
		return Pass, nil
	case TargetRestrictAdmin:
		if sameName(inv.GivenTarget(), inv.Host().AdminName()) ||
			(inv.HasTarget() && inv.Host().IsAdmin(inv.Target())) {
			return v.reject(inv, ReasonAdminProtected, MsgAdminProtected, MsgAdminProtectedNotice), nil
		}
		return Pass, nil
	case TargetOperatorForOthers:
		if p, ok := inv.SenderPlayer(); ok && inv.HasTarget() && !p.IsOperator() {
			return v.reject(inv, ReasonOperatorForOthers, MsgOperatorForOthers, ""), nil
		}
		return Pass, nil
	case TargetRequireOnline:
		if inv.HasTarget() || inv.NArgs() == 0 {
			return Pass, nil
		}
		return v.reject(inv, ReasonTargetOffline, MsgTargetOffline, ""), nil
	}
	return v.misconfigured(inv, &ConfigError{Command: rule.Name, Policy: "target", Value: int(rule.Target)})
}

func (v *Validator) checkSource(inv *Invocation) (Outcome, error) {
	rule := inv.Rule()
	player, isPlayer := inv.SenderPlayer()
	switch rule.Source {
	case SourceAll:
		return Pass, nil
	case SourcePlayerOnly:
		if !isPlayer {
			return v.reject(inv, ReasonPlayerOnly, MsgPlayerOnly, ""), nil
		}
		return Pass, nil
	case SourceConsoleOnly:
		if isPlayer {
			return v.reject(inv, ReasonConsoleOnly, MsgConsoleOnly, ""), nil
		}
		return Pass, nil
	case SourceOperatorOnly:
		if !isPlayer || player.IsOperator() {
			return Pass, nil
		}
		return v.reject(inv, ReasonOperatorRequired, MsgOperatorRequired, ""), nil
	case SourceAdminOnly:
		if !isPlayer || inv.Host().IsAdmin(player) {
			return Pass, nil
		}
		return v.reject(inv, ReasonAdminOnly, MsgAdminOnly, MsgAdminOnlyNotice), nil
	case SourceAdminPlayerOnly:
		if !isPlayer {
			return v.reject(inv, ReasonPlayerOnly, MsgPlayerOnly, ""), nil
		}
		if inv.Host().IsAdmin(player) {
			return Pass, nil
		}
		return v.reject(inv, ReasonAdminOnly, MsgAdminOnly, ""), nil
	}
	return v.misconfigured(inv, &ConfigError{Command: rule.Name, Policy: "source", Value: int(rule.Source)})
}

// reject tells the sender why the invocation failed and, when notice is set,
// reports the attempt to the admin.
func (v *Validator) reject(inv *Invocation, reason Reason, message, notice string) Outcome {
	out := Outcome{
		Reason:  reason,
		Message: inv.deliver(inv.Sender(), message, format.TagError),
	}
	if notice != "" {
		inv.NotifyAdmins(notice)
		out.NotifiedAdmins = true
	}
	v.logger.Debug("command rejected",
		"command", inv.Name(),
		"sender", inv.SenderName(),
		"reason", string(reason))
	return out
}

func (v *Validator) misconfigured(inv *Invocation, cerr *ConfigError) (Outcome, error) {
	v.logger.Error("command rule misconfigured", "command", cerr.Command, "error", cerr)
	inv.LogError(cerr.Error())
	return Outcome{
		Reason:  ReasonMisconfigured,
		Message: inv.deliver(inv.Sender(), MsgMisconfigured, format.TagError),
	}, cerr
}

// sameName compares player names with Unicode case folding.
func sameName(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	fold := cases.Fold()
	return fold.String(a) == fold.String(b)
}
