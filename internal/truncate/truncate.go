// Package truncate bounds the size of a telemetry event. Three layers
// run in order — direct field limits, recursive normalization of the
// payload trees, and byte-budget enforcement — each of which only ever
// shrinks data. The serialized result stays within a fixed 100KB
// ceiling for anything short of pathological input, and the transform
// never fails or mutates its argument.
//
// The package knows nothing about content semantics: stripping binary
// payloads and disallowed content blocks happens in sanitize, before
// this stage.
package truncate

import "github.com/mcpcat/mcpcat-go/internal/event"

// Truncate returns a size-bounded copy of e. It is a pure function:
// same input, same output, input untouched.
func Truncate(e event.Event) event.Event {
	e = applyFieldLimits(e)
	e = normalizeEvent(e, maxDepth)
	return enforceBudget(e)
}

// normalizeEvent runs layer-2 normalization over every user-controlled
// subtree at the given depth. Breadth and string limits stay fixed;
// only depth varies, so the budget sweep can reuse this.
func normalizeEvent(e event.Event, depth int) event.Event {
	e.Parameters = normalize(e.Parameters, depth)
	e.Response = normalize(e.Response, depth)
	e.IdentifyActorData = normalize(e.IdentifyActorData, depth)

	if e.Error != nil {
		ed := *e.Error
		ed.Message = truncateString(ed.Message, maxStringLen)
		ed.Stack = truncateString(ed.Stack, maxStringLen)
		ed.Frames = windowFrames(ed.Frames)
		ed.ChainedErrors = normalize(ed.ChainedErrors, depth)
		e.Error = &ed
	}
	return e
}
