package truncate

import "github.com/mcpcat/mcpcat-go/internal/event"

// Fixed limits. These are compile-time constants on purpose: the
// pipeline has no configuration surface, which keeps the size
// guarantee independent of runtime state.
const (
	// maxEventBytes is the ceiling on the serialized UTF-8 size of an
	// event after truncation.
	maxEventBytes = 102400

	// Field-level limits, applied before any recursion.
	maxUserIntentLen   = 2048
	maxNameLen         = 256
	maxErrorMessageLen = 2048
	maxTextContentLen  = 32768
	maxStackFrames     = 50

	// Recursive normalization limits.
	maxDepth     = 10
	maxBreadth   = 100
	maxStringLen = 32768
)

// truncateString bounds s to limit runes, appending "..." on overflow.
// A string at exactly the limit is returned unchanged; an overflowing
// one comes back with exactly limit+3 characters.
func truncateString(s string, limit int) string {
	if len(s) <= limit {
		// Byte length bounds rune count, so this is already in range.
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// windowFrames keeps the first and last half of an overlong frame
// list, dropping the middle. Frames are oldest-call-first, so this
// preserves both the call entry point and the failure site.
func windowFrames(frames []event.StackFrame) []event.StackFrame {
	if len(frames) <= maxStackFrames {
		return frames
	}
	half := maxStackFrames / 2
	out := make([]event.StackFrame, 0, maxStackFrames)
	out = append(out, frames[:half]...)
	out = append(out, frames[len(frames)-half:]...)
	return out
}

// applyFieldLimits is layer 1: direct, non-recursive limits on the
// fixed-shape fields and on text content blocks.
func applyFieldLimits(e event.Event) event.Event {
	e.UserIntent = truncateString(e.UserIntent, maxUserIntentLen)
	e.ResourceName = truncateString(e.ResourceName, maxNameLen)
	e.ServerName = truncateString(e.ServerName, maxNameLen)
	e.ServerVersion = truncateString(e.ServerVersion, maxNameLen)
	e.ClientName = truncateString(e.ClientName, maxNameLen)
	e.ClientVersion = truncateString(e.ClientVersion, maxNameLen)

	if e.Error != nil {
		ed := *e.Error
		ed.Message = truncateString(ed.Message, maxErrorMessageLen)
		ed.Frames = windowFrames(ed.Frames)
		e.Error = &ed
	}

	e.Response = limitTextBlocks(e.Response)
	return e
}

// limitTextBlocks bounds the text of each text content block. The
// response is rebuilt rather than mutated; anything not shaped like a
// content array passes through.
func limitTextBlocks(resp any) any {
	m, ok := resp.(map[string]any)
	if !ok {
		return resp
	}
	content, ok := m["content"].([]any)
	if !ok {
		return resp
	}

	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	rewritten := make([]any, len(content))
	for i, block := range content {
		rewritten[i] = block
		bm, ok := block.(map[string]any)
		if !ok {
			continue
		}
		if t, _ := bm["type"].(string); t != "text" {
			continue
		}
		text, ok := bm["text"].(string)
		if !ok || len(text) <= maxTextContentLen {
			continue
		}
		nb := make(map[string]any, len(bm))
		for k, v := range bm {
			nb[k] = v
		}
		nb["text"] = truncateString(text, maxTextContentLen)
		rewritten[i] = nb
	}
	out["content"] = rewritten
	return out
}
