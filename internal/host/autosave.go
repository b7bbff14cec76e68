package host

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/haasonsaas/simpleplugin/internal/commands"
	"github.com/haasonsaas/simpleplugin/internal/config"
	"github.com/haasonsaas/simpleplugin/internal/observability"
	"github.com/haasonsaas/simpleplugin/internal/storage"
)

// Task is work handed to the console loop.
type Task func(ctx context.Context)

// Autosaver saves online player records on a cron schedule. The scheduler
// never saves directly; it posts a Task that the console loop runs between
// commands.
type Autosaver struct {
	schedule cron.Schedule
	server   commands.Server
	records  storage.RecordStore
	metrics  *observability.Metrics
	tracer   *observability.Tracer
	logger   *slog.Logger
	now      func() time.Time
	tasks    chan Task

	mu      sync.Mutex
	cron    *cron.Cron
	started bool
}

// AutosaveOption configures an Autosaver.
type AutosaveOption func(*Autosaver)

// WithAutosaveLogger sets the autosave logger.
func WithAutosaveLogger(logger *slog.Logger) AutosaveOption {
	return func(a *Autosaver) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithAutosaveMetrics records save counts.
func WithAutosaveMetrics(m *observability.Metrics) AutosaveOption {
	return func(a *Autosaver) { a.metrics = m }
}

// WithAutosaveTracer traces each save.
func WithAutosaveTracer(t *observability.Tracer) AutosaveOption {
	return func(a *Autosaver) {
		if t != nil {
			a.tracer = t
		}
	}
}

// WithAutosaveNow overrides the clock used for record timestamps.
func WithAutosaveNow(now func() time.Time) AutosaveOption {
	return func(a *Autosaver) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAutosaver parses the cron expression and prepares the scheduler.
func NewAutosaver(expr string, server commands.Server, records storage.RecordStore, opts ...AutosaveOption) (*Autosaver, error) {
	schedule, err := config.ParseSchedule(expr)
	if err != nil {
		return nil, fmt.Errorf("autosave schedule %q: %w", expr, err)
	}
	if records == nil {
		return nil, fmt.Errorf("autosave requires a record store")
	}
	a := &Autosaver{
		schedule: schedule,
		server:   server,
		records:  records,
		logger:   slog.Default(),
		now:      time.Now,
		tasks:    make(chan Task, 1),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.tracer == nil {
		a.tracer, _ = observability.NewTracer(observability.TraceConfig{})
	}
	a.logger = a.logger.With("component", "autosave")
	return a, nil
}

// Tasks delivers save tasks to run on the console loop.
func (a *Autosaver) Tasks() <-chan Task { return a.tasks }

// Start begins scheduling saves.
func (a *Autosaver) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return
	}
	a.cron = cron.New()
	a.cron.Schedule(a.schedule, cron.FuncJob(a.Trigger))
	a.cron.Start()
	a.started = true
}

// Stop stops the scheduler and waits for a running trigger to finish.
func (a *Autosaver) Stop() {
	a.mu.Lock()
	c := a.cron
	a.cron = nil
	a.started = false
	a.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

// Trigger queues a save. A save still waiting to run is not queued twice.
func (a *Autosaver) Trigger() {
	select {
	case a.tasks <- a.run:
	default:
		a.logger.Debug("autosave already pending")
	}
}

func (a *Autosaver) run(ctx context.Context) {
	if _, err := a.Save(ctx); err != nil {
		a.logger.Error("autosave failed", "error", err)
	}
}

// Save writes a record for every online player now.
func (a *Autosaver) Save(ctx context.Context) (int, error) {
	start := time.Now()
	var n int
	err := observability.WithSpan(ctx, a.tracer, "autosave.save", func(ctx context.Context) error {
		var err error
		n, err = commands.SaveOnline(ctx, a.server, a.records, a.now())
		return err
	})
	if a.metrics != nil {
		a.metrics.RecordSaves(n, err)
	}
	if err != nil {
		return n, err
	}
	a.logger.Info("player records saved", "count", n, "duration", time.Since(start))
	return n, nil
}
