package mcpcat

import (
	"context"
	"encoding/json"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mcpcat/mcpcat-go/internal/errcap"
	"github.com/mcpcat/mcpcat-go/internal/event"
)

// middleware intercepts every incoming request, lets it run, and
// records the outcome. Recording never interferes with the call: the
// handler's result and error pass through untouched, and event
// processing happens on the dispatcher's worker.
func (t *Tracker) middleware(next mcpsdk.MethodHandler) mcpsdk.MethodHandler {
	return func(ctx context.Context, method string, req mcpsdk.Request) (mcpsdk.Result, error) {
		start := time.Now()
		res, err := next(ctx, method, req)
		t.record(ctx, method, req, res, err, start)
		return res, err
	}
}

func (t *Tracker) record(ctx context.Context, method string, req mcpsdk.Request, res mcpsdk.Result, callErr error, start time.Time) {
	t.sessions.Touch(t.sessionID)

	params := jsonTree(req.GetParams())

	e := t.newEvent(eventTypeForMethod(method))
	e.Timestamp = start.UTC()
	e.DurationMS = time.Since(start).Milliseconds()
	e.Parameters = params

	switch method {
	case "initialize":
		name, version := clientInfoFrom(params)
		t.mu.Lock()
		t.clientName, t.clientVersion = name, version
		t.mu.Unlock()
		e.ClientName, e.ClientVersion = name, version
	case "tools/call":
		e.ResourceName = stringAt(params, "name")
		e.UserIntent = userIntentFrom(params)
		if t.cfg.identify != nil {
			if user := t.cfg.identify(ctx, req); user != nil {
				t.sessions.Identify(t.sessionID, user.toActor())
			}
		}
	}

	if res != nil {
		tree := jsonTree(res)
		e.Response = tree
		e.IsError = isErrorResult(tree)
	}
	if callErr != nil {
		e.IsError = true
		e.Error = errcap.Capture(callErr)
	}

	if actor := t.sessions.ActorFor(t.sessionID); actor != nil {
		user := UserIdentity{UserID: actor.ID, UserName: actor.Name, UserData: actor.Data}
		e.IdentifyActorData = user.actorData()
	}

	t.dispatcher.Enqueue(e)
}

// eventTypeForMethod maps an RPC method to its event type. Methods
// without a dedicated type keep their name under the mcp: prefix.
func eventTypeForMethod(method string) event.Type {
	switch method {
	case "tools/call":
		return event.ToolsCall
	case "tools/list":
		return event.ToolsList
	case "initialize":
		return event.Initialize
	default:
		return event.Type("mcp:" + method)
	}
}

// jsonTree converts a wire struct into the generic tree the pipeline
// operates on. Anything that cannot round-trip becomes nil rather
// than an error — capture must not fail the request.
func jsonTree(v any) any {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil
	}
	return tree
}

func stringAt(tree any, key string) string {
	m, ok := tree.(map[string]any)
	if !ok {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

// userIntentFrom pulls the "context" argument that context-aware
// clients attach to tool calls.
func userIntentFrom(params any) string {
	m, ok := params.(map[string]any)
	if !ok {
		return ""
	}
	args, ok := m["arguments"].(map[string]any)
	if !ok {
		return ""
	}
	intent, _ := args["context"].(string)
	return intent
}

func clientInfoFrom(params any) (name, version string) {
	m, ok := params.(map[string]any)
	if !ok {
		return "", ""
	}
	info, ok := m["clientInfo"].(map[string]any)
	if !ok {
		return "", ""
	}
	name, _ = info["name"].(string)
	version, _ = info["version"].(string)
	return name, version
}

func isErrorResult(tree any) bool {
	m, ok := tree.(map[string]any)
	if !ok {
		return false
	}
	isErr, _ := m["isError"].(bool)
	return isErr
}
