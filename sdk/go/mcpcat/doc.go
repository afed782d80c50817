// Package mcpcat instruments an MCP server with telemetry capture.
// Track installs a receiving middleware on a modelcontextprotocol
// go-sdk server; every intercepted request becomes an event that flows
// through the sanitize/truncate pipeline off the request path and
// lands in a local JSONL event log.
//
// Usage:
//
//	server := mcp.NewServer(&mcp.Implementation{Name: "my-server"}, nil)
//	tracker, err := mcpcat.Track(server, "proj_123",
//	    mcpcat.WithEventLogPath("/var/log/my-server/events.jsonl"))
//	defer tracker.Close()
//
// Captured payloads may contain anything the client sent: the pipeline
// strips binary content and bounds every event to 100KB before it is
// written, so the log is always safe to ship.
package mcpcat
