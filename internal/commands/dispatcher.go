package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/haasonsaas/simpleplugin/internal/format"
	"github.com/haasonsaas/simpleplugin/internal/observability"
)

// Handler runs a verified invocation. Handlers report results to players
// through the invocation's messaging methods.
type Handler func(ctx context.Context, inv *Invocation) error

// BySource routes to player or console depending on who sent the command.
// A nil branch falls through to the other one.
func BySource(player, console Handler) Handler {
	return func(ctx context.Context, inv *Invocation) error {
		h, fallback := player, console
		if inv.IsConsole() {
			h, fallback = console, player
		}
		if h == nil {
			h = fallback
		}
		if h == nil {
			return nil
		}
		return h(ctx, inv)
	}
}

// Recorder receives command metrics.
type Recorder interface {
	RecordInvocation(command, result string, duration time.Duration)
	RecordRejection(command, reason string)
}

// Results reported to the Recorder.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Dispatcher binds handlers to registered rules and runs invocations through
// verification and dispatch.
type Dispatcher struct {
	registry  *Registry
	validator *Validator
	host      Host
	renderer  *format.Renderer
	handlers  map[string]Handler
	logger    *slog.Logger
	recorder  Recorder
	tracer    *observability.Tracer
	now       func() time.Time
	sealed    bool
}

// Option configures the dispatcher.
type Option func(*Dispatcher)

// WithLogger configures the dispatcher logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithRecorder configures the metrics recorder.
func WithRecorder(recorder Recorder) Option {
	return func(d *Dispatcher) {
		d.recorder = recorder
	}
}

// WithTracer configures the tracer used for command spans.
func WithTracer(tracer *observability.Tracer) Option {
	return func(d *Dispatcher) {
		if tracer != nil {
			d.tracer = tracer
		}
	}
}

// WithNow overrides the clock for tests.
func WithNow(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// NewDispatcher creates a dispatcher over registry.
func NewDispatcher(registry *Registry, host Host, renderer *format.Renderer, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		host:     host,
		renderer: renderer,
		handlers: make(map[string]Handler),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.tracer == nil {
		d.tracer, _ = observability.NewTracer(observability.TraceConfig{})
	}
	d.logger = d.logger.With("component", "dispatcher")
	d.validator = NewValidator(d.logger)
	return d
}

// Registry returns the rule registry.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Renderer returns the current renderer.
func (d *Dispatcher) Renderer() *format.Renderer { return d.renderer }

// SetRenderer swaps the renderer, e.g. after a colour reload. It must be
// called from the goroutine that executes commands.
func (d *Dispatcher) SetRenderer(r *format.Renderer) {
	if r != nil {
		d.renderer = r
	}
}

// Validator returns the validator used by Execute.
func (d *Dispatcher) Validator() *Validator { return d.validator }

// Handle binds a handler to a registered command.
func (d *Dispatcher) Handle(name string, h Handler) error {
	name = normalizeName(name)
	if d.sealed {
		return fmt.Errorf("handle %q: %w", name, ErrRegistrySealed)
	}
	if h == nil {
		return fmt.Errorf("handler for %q is nil", name)
	}
	if _, ok := d.registry.Lookup(name); !ok {
		return fmt.Errorf("handle %q: %w", name, ErrUnknownCommand)
	}
	if _, exists := d.handlers[name]; exists {
		return fmt.Errorf("handler for %q already registered", name)
	}
	d.handlers[name] = h
	return nil
}

// Alias registers name as a copy of an existing rule sharing its handler.
func (d *Dispatcher) Alias(name, existing string) error {
	if err := d.registry.Alias(name, existing); err != nil {
		return err
	}
	h, ok := d.handlers[normalizeName(existing)]
	if !ok {
		return fmt.Errorf("alias %q: no handler for %q", name, existing)
	}
	return d.Handle(name, h)
}

// Seal freezes the registry and handler table. Every rule must have a handler.
func (d *Dispatcher) Seal() error {
	var errs []error
	for _, name := range d.registry.Names() {
		if _, ok := d.handlers[name]; !ok {
			errs = append(errs, fmt.Errorf("command %q has no handler: %w", name, ErrUnknownCommand))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	d.registry.Seal()
	d.sealed = true
	return nil
}

// NewInvocation builds an invocation against this dispatcher's host,
// registry and renderer.
func (d *Dispatcher) NewInvocation(sender Sender, name string, args []string) (*Invocation, error) {
	return NewInvocation(d.host, sender, name, args, d.registry, d.renderer)
}

// Verify checks an invocation against its rule.
func (d *Dispatcher) Verify(inv *Invocation) (Outcome, error) {
	return d.validator.Verify(inv)
}

// Dispatch runs the handler for a verified invocation exactly once.
func (d *Dispatcher) Dispatch(ctx context.Context, inv *Invocation) error {
	if !inv.Verified() {
		return fmt.Errorf("dispatch %q: %w", inv.Name(), ErrNotVerified)
	}
	h, ok := d.handlers[inv.Name()]
	if !ok {
		return fmt.Errorf("dispatch %q: %w", inv.Name(), ErrUnknownCommand)
	}
	return h(ctx, inv)
}

// Execute builds, verifies and dispatches one command. A rejection is not an
// error; it is reported in the outcome and to the sender. Errors indicate
// unknown commands, misconfigured rules or failing handlers.
func (d *Dispatcher) Execute(ctx context.Context, sender Sender, name string, args []string) (Outcome, error) {
	start := d.now()
	id := uuid.NewString()
	name = normalizeName(name)
	ctx = observability.AddInvocation(ctx, id, name, sender.Name())

	ctx, span := d.tracer.Start(ctx, "command.execute",
		"command.name", name,
		"command.sender", sender.Name(),
		"command.args", len(args),
		"command.invocation_id", id)
	defer span.End()

	out, err := d.execute(ctx, sender, name, args)

	result := ResultOK
	switch {
	case err != nil:
		result = ResultError
		d.tracer.RecordError(span, err)
	case !out.Passed:
		result = ResultRejected
		span.SetAttributes(attribute.String("command.reason", string(out.Reason)))
	}
	elapsed := d.now().Sub(start)
	if d.recorder != nil {
		d.recorder.RecordInvocation(name, result, elapsed)
		if !out.Passed && out.Reason != ReasonNone {
			d.recorder.RecordRejection(name, string(out.Reason))
		}
	}
	d.logger.DebugContext(ctx, "command executed",
		"result", result,
		"duration", format.FormatLatency(elapsed))
	return out, err
}

func (d *Dispatcher) execute(ctx context.Context, sender Sender, name string, args []string) (Outcome, error) {
	inv, err := d.NewInvocation(sender, name, args)
	if err != nil {
		return Outcome{}, err
	}

	out, err := d.validator.Verify(inv)
	if err != nil || !out.Passed {
		return out, err
	}

	if err := d.Dispatch(ctx, inv); err != nil {
		d.logger.ErrorContext(ctx, "command failed", "error", err)
		inv.SendError(MsgMisconfigured)
		return out, fmt.Errorf("command %q: %w", name, err)
	}
	return out, nil
}
