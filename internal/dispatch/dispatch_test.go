package dispatch

import (
	"strings"
	"sync"
	"testing"

	"github.com/mcpcat/mcpcat-go/internal/event"
)

// collectExporter records everything it is handed.
type collectExporter struct {
	mu     sync.Mutex
	events []event.Event
	block  chan struct{}
}

func (c *collectExporter) Export(e *event.Event) error {
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	c.events = append(c.events, *e)
	c.mu.Unlock()
	return nil
}

func (c *collectExporter) all() []event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]event.Event(nil), c.events...)
}

func TestDispatcherProcessesEvents(t *testing.T) {
	exp := &collectExporter{}
	d := New(exp, 10)

	e := event.Event{
		ID: "evt_1",
		Response: map[string]any{
			"content": []any{map[string]any{"type": "image", "data": "abc"}},
		},
		UserIntent: strings.Repeat("x", 3000),
	}
	if !d.Enqueue(e) {
		t.Fatal("enqueue failed")
	}
	d.Close()

	got := exp.all()
	if len(got) != 1 {
		t.Fatalf("exported %d events, want 1", len(got))
	}
	// The pipeline ran: image redacted, intent bounded.
	content := got[0].Response.(map[string]any)["content"].([]any)
	block := content[0].(map[string]any)
	if block["type"] != "text" {
		t.Errorf("image block not redacted: %v", block)
	}
	if len(got[0].UserIntent) != 2051 {
		t.Errorf("userIntent length = %d, want 2051", len(got[0].UserIntent))
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	release := make(chan struct{})
	exp := &collectExporter{block: release}
	d := New(exp, 1)

	// First event occupies the worker, second fills the queue, third drops.
	d.Enqueue(event.Event{ID: "evt_1"})
	d.Enqueue(event.Event{ID: "evt_2"})

	dropped := false
	for i := 0; i < 100; i++ {
		if !d.Enqueue(event.Event{ID: "evt_overflow"}) {
			dropped = true
			break
		}
	}
	if !dropped {
		t.Error("expected drops on a full queue")
	}
	if d.Dropped() == 0 {
		t.Error("dropped counter not incremented")
	}

	close(release)
	d.Close()
}

func TestEnqueueAfterClose(t *testing.T) {
	d := New(&collectExporter{}, 1)
	d.Close()
	if d.Enqueue(event.Event{ID: "evt_late"}) {
		t.Error("enqueue after close should report false")
	}
}
