package mcpcat

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mcpcat/mcpcat-go/internal/dispatch"
	"github.com/mcpcat/mcpcat-go/internal/event"
	"github.com/mcpcat/mcpcat-go/internal/eventlog"
	"github.com/mcpcat/mcpcat-go/internal/identity"
)

// Tracker owns the telemetry machinery attached to one MCP server.
type Tracker struct {
	projectID  string
	cfg        trackerConfig
	sessions   *identity.Registry
	sessionID  string
	log        *eventlog.Log
	dispatcher *dispatch.Dispatcher

	// Client identity arrives on initialize, after Track returns.
	mu            sync.Mutex
	clientName    string
	clientVersion string
}

// Track attaches telemetry capture to server. One session is opened
// per tracker; every intercepted request becomes an event tagged with
// it. Close the tracker to flush the queue.
func Track(server *mcpsdk.Server, projectID string, opts ...Option) (*Tracker, error) {
	cfg := trackerConfig{}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.eventLogPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("mcpcat: resolve home directory: %w", err)
		}
		cfg.eventLogPath = filepath.Join(home, ".mcpcat", "events.jsonl")
	}

	log, err := eventlog.Open(cfg.eventLogPath)
	if err != nil {
		return nil, fmt.Errorf("mcpcat: open event log: %w", err)
	}

	sessions := identity.NewRegistry()
	t := &Tracker{
		projectID:  projectID,
		cfg:        cfg,
		sessions:   sessions,
		sessionID:  sessions.Begin(),
		log:        log,
		dispatcher: dispatch.New(log, cfg.queueSize),
	}
	server.AddReceivingMiddleware(t.middleware)
	return t, nil
}

// Identify records the acting user explicitly and emits an identify
// event. Servers that cannot resolve users per request call this once
// after their own authentication step.
func (t *Tracker) Identify(user UserIdentity) {
	t.sessions.Identify(t.sessionID, user.toActor())
	e := t.newEvent(event.Identify)
	e.IdentifyActorData = user.actorData()
	t.dispatcher.Enqueue(e)
}

// Custom emits an application-defined event. name becomes the
// resource name; data rides as the parameters tree.
func (t *Tracker) Custom(name string, data any) {
	e := t.newEvent(event.Custom)
	e.ResourceName = name
	e.Parameters = data
	t.dispatcher.Enqueue(e)
}

// Close flushes queued events and closes the event log.
func (t *Tracker) Close() error {
	t.dispatcher.Close()
	return t.log.Close()
}

// newEvent stamps the fields every event shares.
func (t *Tracker) newEvent(typ event.Type) event.Event {
	t.mu.Lock()
	clientName, clientVersion := t.clientName, t.clientVersion
	t.mu.Unlock()
	return event.Event{
		ID:            event.NewID(),
		SessionID:     t.sessionID,
		ProjectID:     t.projectID,
		EventType:     typ,
		Timestamp:     time.Now().UTC(),
		ServerName:    t.cfg.serverName,
		ServerVersion: t.cfg.serverVer,
		ClientName:    clientName,
		ClientVersion: clientVersion,
	}
}
