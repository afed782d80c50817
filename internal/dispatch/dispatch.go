// Package dispatch runs the event pipeline off the request path. A
// bounded queue feeds a single worker that applies
// truncate(sanitize(e)) and hands the result to an Exporter. When the
// queue is full the newest event is dropped and counted — telemetry
// must never block or back-pressure the host server.
package dispatch

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/mcpcat/mcpcat-go/internal/event"
	"github.com/mcpcat/mcpcat-go/internal/sanitize"
	"github.com/mcpcat/mcpcat-go/internal/truncate"
)

// DefaultQueueSize absorbs bursts without unbounded memory. Sized like
// a busy server's worst one-second burst.
const DefaultQueueSize = 200

// Exporter receives fully processed events. Implementations own any
// batching or buffering; the dispatcher calls them serially.
type Exporter interface {
	Export(e *event.Event) error
}

// Dispatcher owns the queue and the pipeline worker.
type Dispatcher struct {
	queue    chan event.Event
	exporter Exporter
	done     chan struct{}
	dropped  atomic.Int64

	mu     sync.Mutex
	closed bool
}

// New starts a dispatcher delivering to exp. queueSize <= 0 selects
// the default.
func New(exp Exporter, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	d := &Dispatcher{
		queue:    make(chan event.Event, queueSize),
		exporter: exp,
		done:     make(chan struct{}),
	}
	go d.run()
	return d
}

// Enqueue submits an event for processing. It never blocks: a full
// queue or a closed dispatcher drops the event and returns false.
func (d *Dispatcher) Enqueue(e event.Event) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	select {
	case d.queue <- e:
		return true
	default:
		if d.dropped.Add(1) == 1 {
			fmt.Fprintf(os.Stderr, "mcpcat: event queue full, dropping events\n")
		}
		return false
	}
}

// Dropped reports how many events were discarded due to a full queue.
func (d *Dispatcher) Dropped() int64 {
	return d.dropped.Load()
}

// Close drains the queue and stops the worker. Safe to call more than
// once.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.done
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for e := range d.queue {
		processed := truncate.Truncate(sanitize.Sanitize(e))
		if err := d.exporter.Export(&processed); err != nil {
			fmt.Fprintf(os.Stderr, "mcpcat: export event %s: %v\n", processed.ID, err)
		}
	}
}
