package config

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/haasonsaas/simpleplugin/internal/commands"
)

// ApplyCommandOverrides rewrites registered rules from the configuration and
// registers configured aliases. It must run before the dispatcher is sealed.
func ApplyCommandOverrides(d *commands.Dispatcher, overrides map[string]CommandOverride) error {
	var errs []error
	for _, name := range slices.Sorted(maps.Keys(overrides)) {
		override := overrides[name]
		rule, ok := d.Registry().Lookup(name)
		if !ok {
			errs = append(errs, fmt.Errorf("commands.%s: %w", name, commands.ErrUnknownCommand))
			continue
		}
		updated, err := override.Apply(rule)
		if err != nil {
			errs = append(errs, fmt.Errorf("commands.%s: %w", name, err))
			continue
		}
		if err := d.Registry().Replace(updated); err != nil {
			errs = append(errs, fmt.Errorf("commands.%s: %w", name, err))
			continue
		}
		for _, alias := range override.Aliases {
			if err := d.Alias(alias, name); err != nil {
				errs = append(errs, fmt.Errorf("commands.%s: %w", name, err))
			}
		}
	}
	return errors.Join(errs...)
}
