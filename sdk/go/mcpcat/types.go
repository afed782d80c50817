package mcpcat

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mcpcat/mcpcat-go/internal/identity"
)

// UserIdentity is the actor behind a session, supplied by the
// embedding server's identify callback.
type UserIdentity struct {
	UserID   string
	UserName string
	UserData map[string]any
}

// IdentifyFunc resolves the acting user from an incoming tools/call
// request. Returning nil leaves the session anonymous.
type IdentifyFunc func(ctx context.Context, req mcpsdk.Request) *UserIdentity

// toActor maps the public identity to the internal registry type.
func (u *UserIdentity) toActor() identity.Actor {
	return identity.Actor{
		ID:   u.UserID,
		Name: u.UserName,
		Data: u.UserData,
	}
}

// actorData is the identifyActorData payload attached to events.
func (u *UserIdentity) actorData() map[string]any {
	data := map[string]any{"userId": u.UserID}
	if u.UserName != "" {
		data["userName"] = u.UserName
	}
	if len(u.UserData) > 0 {
		data["userData"] = u.UserData
	}
	return data
}
