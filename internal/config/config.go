// Package config loads the plugin configuration: admin identity, message
// colours, storage, observability, console seed data and per-command rule
// overrides.
package config

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/haasonsaas/simpleplugin/internal/commands"
	"github.com/haasonsaas/simpleplugin/internal/format"
	"github.com/haasonsaas/simpleplugin/internal/storage"
)

// Config is the main configuration structure.
type Config struct {
	Version    int                        `yaml:"version" jsonschema:"required"`
	Admin      AdminConfig                `yaml:"admin"`
	Colors     ColorsConfig               `yaml:"colors"`
	CodePrefix string                     `yaml:"code_prefix"`
	Logging    LoggingConfig              `yaml:"logging"`
	Storage    StorageConfig              `yaml:"storage"`
	Metrics    MetricsConfig              `yaml:"metrics"`
	Tracing    TracingConfig              `yaml:"tracing"`
	Server     ServerConfig               `yaml:"server"`
	Commands   map[string]CommandOverride `yaml:"commands"`
}

// AdminConfig names the one all-powerful player.
type AdminConfig struct {
	Name string `yaml:"name"`
	UUID string `yaml:"uuid"`
}

// ColorsConfig holds the style of each semantic tag as a code character
// ("b") or colour name ("aqua").
type ColorsConfig struct {
	Text      string `yaml:"text"`
	Error     string `yaml:"error"`
	Names     string `yaml:"names"`
	AdminName string `yaml:"admin_name"`
	Locations string `yaml:"locations"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// File receives timestamped copies of server log lines.
	File string `yaml:"file"`
}

type StorageConfig struct {
	Driver       string `yaml:"driver"`
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
	// Autosave is a cron expression ("@every 5m", "*/10 * * * *"). Empty disables it.
	Autosave string `yaml:"autosave"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type TracingConfig struct {
	Endpoint     string  `yaml:"endpoint"`
	ServiceName  string  `yaml:"service_name"`
	SamplingRate float64 `yaml:"sampling_rate"`
	Insecure     bool    `yaml:"insecure"`
}

// ServerConfig seeds the console host with worlds and players.
type ServerConfig struct {
	Worlds  []string       `yaml:"worlds"`
	Players []PlayerConfig `yaml:"players"`
}

type PlayerConfig struct {
	Name     string  `yaml:"name"`
	UUID     string  `yaml:"uuid"`
	Operator bool    `yaml:"operator"`
	World    string  `yaml:"world"`
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Z        float64 `yaml:"z"`
}

// CommandOverride replaces parts of a registered command's rule. Unset
// fields keep the built-in value.
type CommandOverride struct {
	MinArgs *int     `yaml:"min_args"`
	MaxArgs *int     `yaml:"max_args"`
	Source  string   `yaml:"source"`
	Target  string   `yaml:"target"`
	Aliases []string `yaml:"aliases"`
}

// ValidationError lists every problem found in a configuration.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return "invalid config:\n  - " + strings.Join(e.Issues, "\n  - ")
}

// Load reads, validates and decodes the configuration file at path.
func Load(path string) (*Config, error) {
	raw, err := LoadRaw(path)
	if err != nil {
		return nil, err
	}
	if err := ValidateRaw(raw); err != nil {
		return nil, err
	}
	cfg, err := decodeRawConfig(raw)
	if err != nil {
		return nil, err
	}
	if err := ValidateVersion(cfg.Version); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{
		Version: CurrentVersion,
		Admin:   AdminConfig{Name: "Admin"},
	}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.CodePrefix == "" {
		cfg.CodePrefix = string(format.DefaultCodePrefix)
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = storage.DriverMemory
	}
	if cfg.Storage.MaxOpenConns == 0 {
		cfg.Storage.MaxOpenConns = 10
	}
	if cfg.Storage.MaxIdleConns == 0 {
		cfg.Storage.MaxIdleConns = 5
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9090"
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = "simpleplugin"
	}
	if cfg.Tracing.SamplingRate == 0 {
		cfg.Tracing.SamplingRate = 1.0
	}
	if len(cfg.Server.Worlds) == 0 {
		cfg.Server.Worlds = []string{"world", "world_nether", "world_the_end"}
	}
	for i := range cfg.Server.Players {
		if cfg.Server.Players[i].World == "" {
			cfg.Server.Players[i].World = cfg.Server.Worlds[0]
		}
	}
}

// Validate checks values the schema cannot express.
func (c *Config) Validate() error {
	var issues []string
	add := func(msg string, args ...any) {
		issues = append(issues, fmt.Sprintf(msg, args...))
	}

	if strings.TrimSpace(c.Admin.Name) == "" {
		add("admin.name is required")
	}
	if c.Admin.UUID != "" {
		if _, err := uuid.Parse(c.Admin.UUID); err != nil {
			add("admin.uuid: %v", err)
		}
	}
	if _, err := c.Colors.Styles(); err != nil {
		add("colors: %v", err)
	}
	if utf8.RuneCountInString(c.CodePrefix) != 1 {
		add("code_prefix must be a single character, got %q", c.CodePrefix)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		add("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		add("logging.format must be json or text, got %q", c.Logging.Format)
	}

	switch strings.ToLower(c.Storage.Driver) {
	case storage.DriverMemory:
	case storage.DriverSQLite, storage.DriverPostgres:
		if strings.TrimSpace(c.Storage.DSN) == "" {
			add("storage.dsn is required for driver %q", c.Storage.Driver)
		}
	default:
		add("storage.driver must be memory, sqlite or postgres, got %q", c.Storage.Driver)
	}
	if c.Storage.Autosave != "" {
		if _, err := ParseSchedule(c.Storage.Autosave); err != nil {
			add("storage.autosave: %v", err)
		}
	}

	if c.Metrics.Enabled && strings.TrimSpace(c.Metrics.Addr) == "" {
		add("metrics.addr is required when metrics are enabled")
	}
	if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
		add("tracing.sampling_rate must be between 0 and 1")
	}

	worlds := make(map[string]bool, len(c.Server.Worlds))
	for _, w := range c.Server.Worlds {
		worlds[w] = true
	}
	seen := make(map[string]bool, len(c.Server.Players))
	for i, p := range c.Server.Players {
		key := strings.ToLower(strings.TrimSpace(p.Name))
		switch {
		case key == "":
			add("server.players[%d].name is required", i)
		case seen[key]:
			add("server.players[%d]: duplicate player %q", i, p.Name)
		}
		seen[key] = true
		if p.UUID != "" {
			if _, err := uuid.Parse(p.UUID); err != nil {
				add("server.players[%d].uuid: %v", i, err)
			}
		}
		if p.World != "" && !worlds[p.World] {
			add("server.players[%d].world %q is not a configured world", i, p.World)
		}
	}

	for _, name := range slices.Sorted(maps.Keys(c.Commands)) {
		if err := c.Commands[name].validate(); err != nil {
			add("commands.%s: %v", name, err)
		}
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// Styles builds the style table, keeping defaults for unset colours.
func (c ColorsConfig) Styles() (format.StyleTable, error) {
	return format.ParseStyleTable(map[string]string{
		format.TagText:     c.Text,
		format.TagError:    c.Error,
		format.TagName:     c.Names,
		format.TagAdmin:    c.AdminName,
		format.TagLocation: c.Locations,
	})
}

// Renderer builds the message renderer from the colour table and code prefix.
func (c *Config) Renderer() (*format.Renderer, error) {
	styles, err := c.Colors.Styles()
	if err != nil {
		return nil, err
	}
	prefix, _ := utf8.DecodeRuneInString(c.CodePrefix)
	if prefix == utf8.RuneError {
		prefix = format.DefaultCodePrefix
	}
	return format.NewRenderer(styles, prefix), nil
}

// AdminID returns the configured admin UUID, or uuid.Nil.
func (c *Config) AdminID() uuid.UUID {
	id, err := uuid.Parse(c.Admin.UUID)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// SQLConfig returns the connection pool settings for the record store.
func (s StorageConfig) SQLConfig() *storage.SQLConfig {
	cfg := storage.DefaultSQLConfig()
	if s.MaxOpenConns > 0 {
		cfg.MaxOpenConns = s.MaxOpenConns
	}
	if s.MaxIdleConns > 0 {
		cfg.MaxIdleConns = s.MaxIdleConns
	}
	return cfg
}

var scheduleParser = cron.NewParser(
	cron.SecondOptional |
		cron.Minute |
		cron.Hour |
		cron.Dom |
		cron.Month |
		cron.Dow |
		cron.Descriptor,
)

// ParseSchedule parses a cron expression with optional seconds field, or a
// descriptor such as "@hourly" or "@every 5m".
func ParseSchedule(expr string) (cron.Schedule, error) {
	return scheduleParser.Parse(strings.TrimSpace(expr))
}

// AutosaveEnabled reports whether records are saved on a schedule.
func (s StorageConfig) AutosaveEnabled() bool {
	return strings.TrimSpace(s.Autosave) != ""
}

func (o CommandOverride) validate() error {
	var errs []error
	if o.MinArgs != nil && *o.MinArgs < 0 {
		errs = append(errs, fmt.Errorf("min_args must not be negative"))
	}
	if o.MaxArgs != nil && *o.MaxArgs < commands.Unbounded {
		errs = append(errs, fmt.Errorf("max_args must be -1 or greater"))
	}
	if o.MinArgs != nil && o.MaxArgs != nil && *o.MaxArgs != commands.Unbounded && *o.MinArgs > *o.MaxArgs {
		errs = append(errs, fmt.Errorf("min_args %d exceeds max_args %d", *o.MinArgs, *o.MaxArgs))
	}
	if o.Source != "" {
		if _, err := commands.ParseSource(o.Source); err != nil {
			errs = append(errs, err)
		}
	}
	if o.Target != "" {
		if _, err := commands.ParseTarget(o.Target); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Apply returns rule with the override's fields replaced.
func (o CommandOverride) Apply(rule commands.Rule) (commands.Rule, error) {
	if err := o.validate(); err != nil {
		return rule, err
	}
	if o.MinArgs != nil {
		rule.MinArgs = *o.MinArgs
	}
	if o.MaxArgs != nil {
		rule.MaxArgs = *o.MaxArgs
	}
	if o.Source != "" {
		rule.Source, _ = commands.ParseSource(o.Source)
	}
	if o.Target != "" {
		rule.Target, _ = commands.ParseTarget(o.Target)
	}
	return rule, rule.Validate()
}
