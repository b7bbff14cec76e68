package commands

import (
	"fmt"
	"log/slog"
	"sort"
)

// Registry is the name-keyed rule table. It is filled at startup and sealed
// before the first invocation; after that it is read without locking.
type Registry struct {
	rules   map[string]Rule
	aliases map[string]string
	logger  *slog.Logger
	sealed bool
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		rules:   make(map[string]Rule),
		aliases: make(map[string]string),
		logger:  logger.With("component", "commands"),
	}
}

// Register adds a rule. Names are case-insensitive.
func (r *Registry) Register(rule Rule) error {
	if r.sealed {
		return fmt.Errorf("register %q: %w", rule.Name, ErrRegistrySealed)
	}
	rule.Name = normalizeName(rule.Name)
	if err := rule.Validate(); err != nil {
		return err
	}
	if _, exists := r.rules[rule.Name]; exists {
		return fmt.Errorf("command %q already registered", rule.Name)
	}

	r.rules[rule.Name] = rule
	r.logger.Debug("registered command",
		"name", rule.Name,
		"arity", rule.Arity(),
		"source", rule.Source.String(),
		"target", rule.Target.String())
	return nil
}

// Alias registers a copy of an existing rule under another name.
func (r *Registry) Alias(name, existing string) error {
	rule, ok := r.Lookup(existing)
	if !ok {
		return fmt.Errorf("alias %q: %w: %q", name, ErrUnknownCommand, existing)
	}
	if err := r.Register(rule.Alias(name)); err != nil {
		return err
	}
	r.aliases[normalizeName(name)] = r.Canonical(existing)
	return nil
}

// Canonical returns the command an alias was registered for, or the
// normalized name itself.
func (r *Registry) Canonical(name string) string {
	name = normalizeName(name)
	if canonical, ok := r.aliases[name]; ok {
		return canonical
	}
	return name
}

// Replace overwrites the rule for an already registered name. It is used to
// apply configured overrides before sealing.
func (r *Registry) Replace(rule Rule) error {
	if r.sealed {
		return fmt.Errorf("replace %q: %w", rule.Name, ErrRegistrySealed)
	}
	rule.Name = normalizeName(rule.Name)
	if _, exists := r.rules[rule.Name]; !exists {
		return fmt.Errorf("replace %q: %w", rule.Name, ErrUnknownCommand)
	}
	if err := rule.Validate(); err != nil {
		return err
	}
	r.rules[rule.Name] = rule
	return nil
}

// Seal freezes the registry.
func (r *Registry) Seal() {
	r.sealed = true
}

// Sealed reports whether Seal was called.
func (r *Registry) Sealed() bool {
	return r.sealed
}

// Lookup returns the rule for a command name.
func (r *Registry) Lookup(name string) (Rule, bool) {
	rule, ok := r.rules[normalizeName(name)]
	return rule, ok
}

// List returns all rules sorted by name.
func (r *Registry) List() []Rule {
	rules := make([]Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		rules = append(rules, rule)
	}
	sort.Slice(rules, func(i, j int) bool {
		return rules[i].Name < rules[j].Name
	})
	return rules
}

// Names returns all registered command names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.rules))
	for name := range r.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
