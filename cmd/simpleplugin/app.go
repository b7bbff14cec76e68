package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/haasonsaas/simpleplugin/internal/commands"
	"github.com/haasonsaas/simpleplugin/internal/config"
	"github.com/haasonsaas/simpleplugin/internal/host"
	"github.com/haasonsaas/simpleplugin/internal/observability"
	"github.com/haasonsaas/simpleplugin/internal/storage"
)

// app holds the wired engine for one CLI run.
type app struct {
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
	metrics    *observability.Metrics
	tracer     *observability.Tracer
	records    storage.RecordStore
	pluginLog  *host.PluginLog
	server     *host.Server
	dispatcher *commands.Dispatcher
	autosave   *host.Autosaver

	closers []func(context.Context) error
}

// appOptions are the per-command choices that shape wiring.
type appOptions struct {
	// console receives text delivered to the console sender
	console io.Writer
	// logs receives structured logs; defaults to stderr
	logs io.Writer
}

// resolveConfigPath prefers the flag, then SIMPLEPLUGIN_CONFIG. An empty
// result means built-in defaults.
func resolveConfigPath(path string) string {
	if strings.TrimSpace(path) != "" {
		return path
	}
	return strings.TrimSpace(os.Getenv("SIMPLEPLUGIN_CONFIG"))
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func newApp(flags *rootFlags, opts appOptions) (*app, error) {
	a := &app{configPath: resolveConfigPath(flags.configPath)}
	cfg, err := loadConfig(a.configPath)
	if err != nil {
		return nil, err
	}
	a.cfg = cfg
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}

	a.logger = observability.NewLogger(observability.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: opts.logs,
	})
	slog.SetDefault(a.logger)

	if err := a.wire(cfg, opts); err != nil {
		_ = a.Close(context.Background())
		return nil, err
	}
	return a, nil
}

func (a *app) wire(cfg *config.Config, opts appOptions) error {
	a.metrics = observability.NewMetrics()

	tracer, shutdown := observability.NewTracer(observability.TraceConfig{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: version,
		Endpoint:       cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
		Insecure:       cfg.Tracing.Insecure,
	})
	a.tracer = tracer
	a.closers = append(a.closers, shutdown)

	records, err := storage.Open(cfg.Storage.Driver, cfg.Storage.DSN, cfg.Storage.SQLConfig())
	if err != nil {
		return fmt.Errorf("open record store: %w", err)
	}
	a.records = records
	a.closers = append(a.closers, func(context.Context) error { return records.Close() })

	if cfg.Logging.File != "" {
		pl, err := host.OpenPluginLog(cfg.Logging.File)
		if err != nil {
			return err
		}
		a.pluginLog = pl
		a.closers = append(a.closers, func(context.Context) error { return pl.Close() })
	}

	hostOpts := []host.Option{
		host.WithLogger(a.logger),
		host.WithPluginLog(a.pluginLog),
		host.WithMetrics(a.metrics),
		host.WithRecords(records),
	}
	if opts.console != nil {
		hostOpts = append(hostOpts, host.WithConsole(opts.console))
	}
	server, err := host.New(cfg, hostOpts...)
	if err != nil {
		return fmt.Errorf("start host: %w", err)
	}
	a.server = server

	renderer, err := cfg.Renderer()
	if err != nil {
		return err
	}
	a.dispatcher = commands.NewDispatcher(commands.NewRegistry(a.logger), server, renderer,
		commands.WithLogger(a.logger),
		commands.WithRecorder(a.metrics),
		commands.WithTracer(tracer),
	)
	if err := commands.RegisterBuiltins(a.dispatcher, commands.Builtins{
		Server:  server,
		Records: records,
		Version: version,
		Now:     time.Now,
	}); err != nil {
		return err
	}
	if err := config.ApplyCommandOverrides(a.dispatcher, cfg.Commands); err != nil {
		return fmt.Errorf("apply command overrides: %w", err)
	}
	if err := a.dispatcher.Seal(); err != nil {
		return err
	}

	if cfg.Storage.AutosaveEnabled() {
		autosave, err := host.NewAutosaver(cfg.Storage.Autosave, server, records,
			host.WithAutosaveLogger(a.logger),
			host.WithAutosaveMetrics(a.metrics),
			host.WithAutosaveTracer(tracer))
		if err != nil {
			return err
		}
		a.autosave = autosave
	}

	a.logger.Info("engine ready",
		"commands", len(a.dispatcher.Registry().Names()),
		"players", len(server.OnlinePlayers()),
		"storage", cfg.Storage.Driver,
		"tracing", tracer.Exporting())
	return nil
}

// sender resolves the --as flag to an online player, or the console.
func (a *app) sender(name string) (commands.Sender, error) {
	if strings.TrimSpace(name) == "" {
		return commands.Console{}, nil
	}
	p, ok := a.server.Player(name)
	if !ok {
		return nil, fmt.Errorf("player %q is not online", name)
	}
	return p, nil
}

// reload applies a reloaded configuration. Colours, code prefix and admin
// identity change live; storage and command rules need a restart.
func (a *app) reload(cfg *config.Config) error {
	renderer, err := cfg.Renderer()
	if err != nil {
		return err
	}
	a.dispatcher.SetRenderer(renderer)
	a.server.Configure(cfg)
	a.cfg = cfg
	return nil
}

// serveMetrics exposes /metrics and /healthz when metrics are enabled. The
// server is shut down by Close.
func (a *app) serveMetrics() error {
	if !a.cfg.Metrics.Enabled {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok\n")
	})
	srv := &http.Server{
		Addr:              a.cfg.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	listener, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("metrics listen: %w", err)
	}
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server error", "error", err)
		}
	}()
	a.logger.Info("serving metrics", "addr", listener.Addr().String())
	a.closers = append(a.closers, srv.Shutdown)
	return nil
}

// flushInboxes prints messages delivered to players since the last flush.
func (a *app) flushInboxes(extra ...commands.Sender) {
	seen := map[commands.Sender]bool{}
	players := a.server.OnlinePlayers()
	senders := make([]commands.Sender, 0, len(players)+len(extra))
	for _, p := range players {
		senders = append(senders, p)
	}
	senders = append(senders, extra...)

	prefix := a.dispatcher.Renderer().Prefix()
	for _, s := range senders {
		p, ok := s.(*host.Player)
		if !ok || seen[s] {
			continue
		}
		seen[s] = true
		for _, msg := range p.Inbox() {
			label := fmt.Sprintf("%c7[to %s]%cr ", prefix, p.Name(), prefix)
			a.server.Deliver(commands.Console{}, label+strings.ReplaceAll(msg, "\n", "\n"+label))
		}
	}
}

// Close stops background work and releases resources in reverse order.
func (a *app) Close(ctx context.Context) error {
	if a.autosave != nil {
		a.autosave.Stop()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
