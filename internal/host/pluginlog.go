package host

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// pluginLogLayout matches the plugin log line prefix, e.g. [02/01/06 15:04:05].
const pluginLogLayout = "02/01/06 15:04:05"

// PluginLog appends timestamped server log lines to a file.
type PluginLog struct {
	mu   sync.Mutex
	file *os.File
	w    *bufio.Writer
	now  func() time.Time
}

// OpenPluginLog opens path for appending, creating parent directories.
func OpenPluginLog(path string) (*PluginLog, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open plugin log: %w", err)
	}
	return &PluginLog{file: f, w: bufio.NewWriter(f), now: time.Now}, nil
}

// Write appends one line per line of text and flushes.
func (l *PluginLog) Write(text string) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	stamp := l.now().Format(pluginLogLayout)
	for _, line := range splitLines(text) {
		if _, err := fmt.Fprintf(l.w, "[%s] %s\n", stamp, line); err != nil {
			return err
		}
	}
	return l.w.Flush()
}

// Close flushes and closes the file.
func (l *PluginLog) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.w.Flush(); err != nil {
		_ = l.file.Close()
		return err
	}
	return l.file.Close()
}
