package commands

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownCommand is returned when a command name has no rule or handler.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrRegistrySealed is returned when registering after Seal.
	ErrRegistrySealed = errors.New("registry is sealed")

	// ErrNotVerified is returned when dispatching an invocation that did not
	// pass verification.
	ErrNotVerified = errors.New("invocation not verified")

	// ErrNoTarget is returned by SendTarget when no target was resolved.
	ErrNoTarget = errors.New("invocation has no target")
)

// ConfigError reports a rule carrying a policy value the validator does not
// recognise. It indicates a broken build rather than bad user input.
type ConfigError struct {
	Command string
	Policy  string
	Value   int
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("command %q: unrecognized %s policy %d", e.Command, e.Policy, e.Value)
}
