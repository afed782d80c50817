// Package identity tracks MCP sessions and the actors identified on
// them. Sessions are in-memory only: the registry exists so that every
// event emitted during a session carries the same session ID and the
// actor data supplied by the embedding server's identify call.
package identity

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// sessionTTL is how long a session survives without activity before
// the sweep reclaims it.
const sessionTTL = 30 * time.Minute

// Actor is the identified end user behind a session.
type Actor struct {
	ID   string         `json:"userId"`
	Name string         `json:"userName,omitempty"`
	Data map[string]any `json:"userData,omitempty"`
}

// Session is one active MCP connection.
type Session struct {
	ID           string    `json:"session_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	Actor        *Actor    `json:"actor,omitempty"`
}

// NewSessionID generates a session ID with the "ses_" prefix.
func NewSessionID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("ses_%x", time.Now().UnixNano())
	}
	return "ses_" + hex.EncodeToString(b)
}
