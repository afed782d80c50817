// Package event defines the telemetry record for one MCP interaction.
// The metadata fields are fixed-shape scalars; the payload fields
// (Parameters, Response, IdentifyActorData) are arbitrary trees under
// the caller's control and must survive the sanitize/truncate pipeline
// regardless of shape.
package event

import "time"

// Type identifies the kind of MCP interaction an event records.
type Type string

const (
	// ToolsCall is emitted for every tools/call request.
	ToolsCall Type = "mcp:tools/call"
	// ToolsList is emitted for tools/list requests.
	ToolsList Type = "mcp:tools/list"
	// Initialize is emitted for the initialize handshake.
	Initialize Type = "mcp:initialize"
	// Identify is emitted when the embedding server identifies the actor.
	Identify Type = "mcpcat:identify"
	// Custom is emitted for application-defined events.
	Custom Type = "mcpcat:custom"
)

// Event is one recorded MCP interaction plus its payload and outcome.
// Parameters, Response, and IdentifyActorData are untrusted trees: they
// may contain cycles, excessive nesting or width, oversized strings,
// and Go values with no JSON representation. The sanitize and truncate
// stages make the event safe to serialize; an Event that has passed
// both never exceeds 100KB of canonical JSON.
type Event struct {
	ID                string     `json:"id,omitempty"`
	SessionID         string     `json:"sessionId,omitempty"`
	ProjectID         string     `json:"projectId,omitempty"`
	EventType         Type       `json:"eventType,omitempty"`
	Timestamp         time.Time  `json:"timestamp"`
	ResourceName      string     `json:"resourceName,omitempty"`
	ServerName        string     `json:"serverName,omitempty"`
	ServerVersion     string     `json:"serverVersion,omitempty"`
	ClientName        string     `json:"clientName,omitempty"`
	ClientVersion     string     `json:"clientVersion,omitempty"`
	DurationMS        int64      `json:"duration,omitempty"`
	IsError           bool       `json:"isError,omitempty"`
	UserIntent        string     `json:"userIntent,omitempty"`
	Parameters        any        `json:"parameters,omitempty"`
	Response          any        `json:"response,omitempty"`
	IdentifyActorData any        `json:"identifyActorData,omitempty"`
	Error             *ErrorData `json:"error,omitempty"`
}

// ErrorData is structured failure information captured by errcap.
// ChainedErrors is deliberately untyped: wrapped causes may carry
// arbitrary attachments and go through generic normalization like any
// other payload tree.
type ErrorData struct {
	Message       string       `json:"message"`
	Type          string       `json:"type,omitempty"`
	Stack         string       `json:"stack,omitempty"`
	Frames        []StackFrame `json:"frames,omitempty"`
	ChainedErrors any          `json:"chained_errors,omitempty"`
}

// StackFrame is one call site, oldest-call-first within a frame list.
type StackFrame struct {
	Filename string `json:"filename"`
	Function string `json:"function"`
	Lineno   int    `json:"lineno,omitempty"`
	Colno    int    `json:"colno,omitempty"`
	InApp    bool   `json:"in_app"`
}

// undefined is the JS-omission sentinel. Map entries holding it are
// dropped during normalization; passing it directly yields the
// "[undefined]" marker. It has no Go-native counterpart, so callers
// that need the distinction opt in via Undefined.
type undefined struct{}

// Undefined marks a value as explicitly absent rather than null.
var Undefined = undefined{}
