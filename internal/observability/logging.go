package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

// LogConfig configures the logging behavior.
type LogConfig struct {
	// Level sets the minimum log level: "debug", "info", "warn", "error"
	Level string

	// Format specifies output format: "json" or "text"
	Format string

	// Output is the writer for log output (defaults to os.Stderr)
	Output io.Writer

	// AddSource includes file and line number in log records
	AddSource bool

	// RedactPatterns are additional regex patterns for sensitive data redaction
	RedactPatterns []string
}

// ContextKey is the type for context keys used in logging.
type ContextKey string

const (
	// InvocationIDKey is the context key for command invocation IDs.
	InvocationIDKey ContextKey = "invocation_id"

	// CommandKey is the context key for the command name.
	CommandKey ContextKey = "command"

	// SenderKey is the context key for the command sender's name.
	SenderKey ContextKey = "sender"
)

// DefaultRedactPatterns contains regex patterns for common sensitive data.
var DefaultRedactPatterns = []string{
	// credentials embedded in database URLs
	`(?i)([a-z0-9+]+://[^:/\s]+:)([^@\s]+)(@)`,

	// key=value style DSN and config secrets
	`(?i)(password|passwd|pwd|secret|token)[\s:=]+["\']?([^\s"']{4,})["\']?`,

	// bearer tokens
	`(?i)bearer\s+[a-zA-Z0-9_\-\.]{16,}`,
}

// sensitiveKeys are attribute keys whose values are always redacted.
var sensitiveKeys = map[string]bool{
	"password":      true,
	"passwd":        true,
	"secret":        true,
	"token":         true,
	"dsn":           true,
	"authorization": true,
}

const redacted = "[REDACTED]"

// NewLogger creates a structured logger with the given configuration.
//
// If config.Output is nil, logs are written to os.Stderr so that they do not
// interleave with console command output. An empty or unknown level means
// "info"; an empty format means "json".
func NewLogger(config LogConfig) *slog.Logger {
	if config.Output == nil {
		config.Output = os.Stderr
	}
	if config.Format == "" {
		config.Format = "json"
	}

	opts := &slog.HandlerOptions{
		Level:     LogLevelFromString(config.Level),
		AddSource: config.AddSource,
	}

	var handler slog.Handler
	if strings.EqualFold(config.Format, "json") {
		handler = slog.NewJSONHandler(config.Output, opts)
	} else {
		handler = slog.NewTextHandler(config.Output, opts)
	}

	redacts := make([]*regexp.Regexp, 0, len(DefaultRedactPatterns)+len(config.RedactPatterns))
	patterns := append(append([]string{}, DefaultRedactPatterns...), config.RedactPatterns...)
	for _, pattern := range patterns {
		if re, err := regexp.Compile(pattern); err == nil {
			redacts = append(redacts, re)
		}
	}

	return slog.New(&contextHandler{next: handler, redacts: redacts})
}

// contextHandler adds invocation fields and the trace ID from the context to
// every record and redacts sensitive values before passing the record on.
type contextHandler struct {
	next    slog.Handler
	redacts []*regexp.Regexp
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, h.redactString(r.Message), r.PC)
	if id := GetInvocationID(ctx); id != "" {
		out.AddAttrs(slog.String(string(InvocationIDKey), id))
	}
	if cmd := GetCommand(ctx); cmd != "" {
		out.AddAttrs(slog.String(string(CommandKey), cmd))
	}
	if sender := GetSender(ctx); sender != "" {
		out.AddAttrs(slog.String(string(SenderKey), sender))
	}
	if traceID := GetTraceID(ctx); traceID != "" {
		out.AddAttrs(slog.String("trace_id", traceID))
	}
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.redactAttr(a))
		return true
	})
	return h.next.Handle(ctx, out)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		clean[i] = h.redactAttr(a)
	}
	return &contextHandler{next: h.next.WithAttrs(clean), redacts: h.redacts}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{next: h.next.WithGroup(name), redacts: h.redacts}
}

// redactAttr redacts sensitive data from an attribute.
func (h *contextHandler) redactAttr(a slog.Attr) slog.Attr {
	if sensitiveKeys[strings.ToLower(strings.ReplaceAll(a.Key, "-", "_"))] {
		return slog.String(a.Key, redacted)
	}
	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return slog.String(a.Key, h.redactString(v.String()))
	case slog.KindGroup:
		group := v.Group()
		clean := make([]any, len(group))
		for i, ga := range group {
			clean[i] = h.redactAttr(ga)
		}
		return slog.Group(a.Key, clean...)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return slog.String(a.Key, h.redactString(err.Error()))
		}
	}
	return slog.Attr{Key: a.Key, Value: v}
}

// redactString applies all redaction patterns to a string.
func (h *contextHandler) redactString(s string) string {
	for _, re := range h.redacts {
		s = re.ReplaceAllString(s, redacted)
	}
	return s
}

// AddInvocation stores the invocation ID, command name and sender in the
// context so that every record logged with it carries them.
func AddInvocation(ctx context.Context, id, command, sender string) context.Context {
	ctx = context.WithValue(ctx, InvocationIDKey, id)
	ctx = context.WithValue(ctx, CommandKey, command)
	return context.WithValue(ctx, SenderKey, sender)
}

// GetInvocationID retrieves the invocation ID from the context.
func GetInvocationID(ctx context.Context) string {
	return contextString(ctx, InvocationIDKey)
}

// GetCommand retrieves the command name from the context.
func GetCommand(ctx context.Context) string {
	return contextString(ctx, CommandKey)
}

// GetSender retrieves the sender name from the context.
func GetSender(ctx context.Context) string {
	return contextString(ctx, SenderKey)
}

func contextString(ctx context.Context, key ContextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// LogLevelFromString converts a string to a slog.Level.
// Returns LevelInfo if the string is not recognized.
func LogLevelFromString(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
