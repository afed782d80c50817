package spool

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mcpcat/mcpcat-go/internal/eventlog"
)

func TestLoadConfig(t *testing.T) {
	path := writeFile(t, "watch.yaml", `
spool_dir: /var/spool/mcpcat
output: /var/log/mcpcat/events.jsonl
poll_interval: 2s
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SpoolDir != "/var/spool/mcpcat" {
		t.Errorf("spool_dir = %q", cfg.SpoolDir)
	}
	if cfg.Poll() != 2*time.Second {
		t.Errorf("poll = %v, want 2s", cfg.Poll())
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeFile(t, "watch.yaml", "spool_dir: /tmp/spool\noutput: /tmp/out.jsonl\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Poll() != pollDefault {
		t.Errorf("poll = %v, want default %v", cfg.Poll(), pollDefault)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing spool_dir", "output: /tmp/out.jsonl\n"},
		{"missing output", "spool_dir: /tmp/spool\n"},
		{"bad poll_interval", "spool_dir: /a\noutput: /b\npoll_interval: soon\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "watch.yaml", tt.yaml)
			if _, err := LoadConfig(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestProcessorProcessesFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "events.jsonl")
	log, err := eventlog.Open(logPath)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer log.Close()

	raw := `{"eventType":"mcp:tools/call","resourceName":"` + strings.Repeat("r", 500) + `",` +
		`"parameters":{"imageData":"` + strings.Repeat("A", 12000) + `="}}`
	spoolFile := filepath.Join(dir, "evt.json")
	if err := os.WriteFile(spoolFile, []byte(raw), 0600); err != nil {
		t.Fatalf("write spool file: %v", err)
	}

	p := NewProcessor(log)
	if err := p.Process(spoolFile); err != nil {
		t.Fatalf("process: %v", err)
	}

	if _, err := os.Stat(spoolFile); !os.IsNotExist(err) {
		t.Error("spool file should be removed after processing")
	}
	if err := log.Close(); err != nil {
		t.Fatalf("close log: %v", err)
	}

	f, err := os.Open(logPath)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	events, err := eventlog.ReadAll(f)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("logged %d events, want 1", len(events))
	}
	e := events[0]
	if e.ID == "" {
		t.Error("processor should assign an event ID")
	}
	if len(e.ResourceName) != 259 {
		t.Errorf("resourceName length = %d, want 259", len(e.ResourceName))
	}
	params := e.Parameters.(map[string]any)
	if params["imageData"] != "[binary data redacted - not supported by MCPcat]" {
		t.Errorf("imageData = %.60v", params["imageData"])
	}
}

func TestProcessorQuarantinesBadFile(t *testing.T) {
	dir := t.TempDir()
	log, err := eventlog.Open(filepath.Join(dir, "events.jsonl"))
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer log.Close()

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	p := NewProcessor(log)
	if err := p.Process(bad); err == nil {
		t.Error("expected parse error")
	}
	if _, err := os.Stat(bad + ".bad"); err != nil {
		t.Errorf("quarantine file missing: %v", err)
	}
	if _, err := os.Stat(bad); !os.IsNotExist(err) {
		t.Error("original bad file should be renamed away")
	}
}

func TestWatcherProcessesExistingAndNewFiles(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "a.json")
	if err := os.WriteFile(existing, []byte("{}"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	var mu sync.Mutex
	seen := make(map[string]int)
	w := NewWatcher(dir, 50*time.Millisecond, func(path string) {
		mu.Lock()
		seen[filepath.Base(path)]++
		mu.Unlock()
		_ = os.Remove(path)
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// New file after startup.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "b.json"), []byte("{}"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for {
		mu.Lock()
		n := len(seen)
		mu.Unlock()
		if n == 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("watcher saw %v, want a.json and b.json", seen)
		case <-time.After(20 * time.Millisecond):
		}
	}
	cancel()
	<-done
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
