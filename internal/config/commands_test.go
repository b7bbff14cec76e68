package config

import (
	"context"
	"errors"
	"testing"

	"github.com/haasonsaas/simpleplugin/internal/commands"
	"github.com/haasonsaas/simpleplugin/internal/format"
)

type stubHost struct{}

func (stubHost) ResolveOnlinePlayer(string) (commands.Player, bool) { return nil, false }
func (stubHost) IsAdmin(commands.Player) bool                      { return false }
func (stubHost) AdminName() string                                 { return "Notch" }
func (stubHost) Admin() (commands.Player, bool)                    { return nil, false }
func (stubHost) Deliver(commands.Sender, string)                   {}
func (stubHost) Broadcast(string)                                  {}
func (stubHost) Log(string)                                        {}

func newOverrideDispatcher(t *testing.T) *commands.Dispatcher {
	t.Helper()
	reg := commands.NewRegistry(nil)
	for _, rule := range []commands.Rule{
		{Name: "kick", MinArgs: 1, MaxArgs: commands.Unbounded, Source: commands.SourceOperatorOnly, Target: commands.TargetRestrictAdmin},
		{Name: "list", MinArgs: 0, MaxArgs: 0},
	} {
		if err := reg.Register(rule); err != nil {
			t.Fatalf("Register(%s) error = %v", rule.Name, err)
		}
	}
	d := commands.NewDispatcher(reg, stubHost{}, format.NewRenderer(format.DefaultStyles(), format.DefaultCodePrefix))
	noop := func(context.Context, *commands.Invocation) error { return nil }
	for _, name := range []string{"kick", "list"} {
		if err := d.Handle(name, noop); err != nil {
			t.Fatalf("Handle(%s) error = %v", name, err)
		}
	}
	return d
}

func intp(v int) *int { return &v }

func TestApplyCommandOverrides(t *testing.T) {
	d := newOverrideDispatcher(t)
	err := ApplyCommandOverrides(d, map[string]CommandOverride{
		"KICK": {MaxArgs: intp(2), Source: "admin_only", Aliases: []string{"boot"}},
		"list": {Target: "allow_offline", MaxArgs: intp(1)},
	})
	if err != nil {
		t.Fatalf("ApplyCommandOverrides() error = %v", err)
	}

	kick, _ := d.Registry().Lookup("kick")
	if kick.MinArgs != 1 || kick.MaxArgs != 2 {
		t.Errorf("kick arity = %d..%d", kick.MinArgs, kick.MaxArgs)
	}
	if kick.Source != commands.SourceAdminOnly {
		t.Errorf("kick source = %v", kick.Source)
	}
	if kick.Target != commands.TargetRestrictAdmin {
		t.Errorf("kick target should be unchanged, got %v", kick.Target)
	}

	boot, ok := d.Registry().Lookup("boot")
	if !ok {
		t.Fatalf("alias boot not registered")
	}
	if boot.MaxArgs != 2 || boot.Source != commands.SourceAdminOnly {
		t.Errorf("alias should copy the overridden rule, got %+v", boot)
	}

	list, _ := d.Registry().Lookup("list")
	if list.Target != commands.TargetAllowOffline || list.MaxArgs != 1 {
		t.Errorf("list = %+v", list)
	}

	if err := d.Seal(); err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
}

func TestApplyCommandOverridesErrors(t *testing.T) {
	d := newOverrideDispatcher(t)
	err := ApplyCommandOverrides(d, map[string]CommandOverride{
		"fly":  {MaxArgs: intp(1)},
		"kick": {MaxArgs: intp(0)},
	})
	if !errors.Is(err, commands.ErrUnknownCommand) {
		t.Fatalf("expected ErrUnknownCommand for fly, got %v", err)
	}

	kick, _ := d.Registry().Lookup("kick")
	if kick.MaxArgs != commands.Unbounded {
		t.Fatalf("invalid override must leave the rule untouched, got max %d", kick.MaxArgs)
	}
}

func TestCommandOverrideApply(t *testing.T) {
	base := commands.Rule{Name: "heal", MinArgs: 0, MaxArgs: 1, Target: commands.TargetOperatorForOthers}

	tests := []struct {
		name     string
		override CommandOverride
		wantErr  bool
		check    func(t *testing.T, r commands.Rule)
	}{
		{
			name:     "empty keeps rule",
			override: CommandOverride{},
			check: func(t *testing.T, r commands.Rule) {
				if r != base {
					t.Errorf("rule changed: %+v", r)
				}
			},
		},
		{
			name:     "unbounded max",
			override: CommandOverride{MaxArgs: intp(commands.Unbounded)},
			check: func(t *testing.T, r commands.Rule) {
				if r.MaxArgs != commands.Unbounded {
					t.Errorf("max = %d", r.MaxArgs)
				}
			},
		},
		{
			name:     "policies",
			override: CommandOverride{Source: "player-only", Target: "require online"},
			check: func(t *testing.T, r commands.Rule) {
				if r.Source != commands.SourcePlayerOnly || r.Target != commands.TargetRequireOnline {
					t.Errorf("policies = %v/%v", r.Source, r.Target)
				}
			},
		},
		{name: "min above max", override: CommandOverride{MinArgs: intp(2)}, wantErr: true},
		{name: "negative min", override: CommandOverride{MinArgs: intp(-1)}, wantErr: true},
		{name: "bad target", override: CommandOverride{Target: "sideways"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.override.Apply(base)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			tt.check(t, got)
		})
	}
}
