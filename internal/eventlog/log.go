// Package eventlog writes processed telemetry events to an append-only
// JSONL file, one event per line. It is the local exporter: the
// pipeline guarantees every line fits the 100KB event ceiling, so the
// reader can cap its line buffer accordingly.
package eventlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mcpcat/mcpcat-go/internal/event"
)

// Log is an append-only JSONL event log.
type Log struct {
	path string
	mu   sync.Mutex
	file *os.File
}

// Open opens (or creates) an event log file for appending.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("eventlog: create directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("eventlog: open file: %w", err)
	}
	return &Log{path: path, file: file}, nil
}

// Append writes one event as a JSON line.
func (l *Log) Append(e *event.Event) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("eventlog: marshal event %s: %w", e.ID, err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return fmt.Errorf("eventlog: log %s is closed", l.path)
	}
	if _, err := l.file.Write(append(raw, '\n')); err != nil {
		return fmt.Errorf("eventlog: write event %s: %w", e.ID, err)
	}
	return nil
}

// Export satisfies the dispatcher's Exporter interface.
func (l *Log) Export(e *event.Event) error {
	return l.Append(e)
}

// Path returns the log file path.
func (l *Log) Path() string {
	return l.path
}

// Close syncs and closes the underlying file. Further appends fail.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	syncErr := l.file.Sync()
	closeErr := l.file.Close()
	l.file = nil
	if syncErr != nil {
		return fmt.Errorf("eventlog: sync: %w", syncErr)
	}
	if closeErr != nil {
		return fmt.Errorf("eventlog: close: %w", closeErr)
	}
	return nil
}
