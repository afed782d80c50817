// Package errcap converts Go errors into the structured ErrorData that
// rides on telemetry events. It records the message, the dynamic error
// type, the unwrap chain, and optionally the call stack at the capture
// site. Capture is total: nil in, nil out, never an error.
package errcap

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/mcpcat/mcpcat-go/internal/event"
)

// modulePath marks frames as in_app when their function lives in this
// module.
const modulePath = "github.com/mcpcat/mcpcat-go"

// maxChainLen bounds the unwrap walk. Unwrap implementations are
// caller code and nothing stops a cycle.
const maxChainLen = 32

// maxFrames bounds stack capture; the truncator windows further.
const maxFrames = 64

// Capture builds ErrorData from err without a stack trace.
func Capture(err error) *event.ErrorData {
	if err == nil {
		return nil
	}
	ed := &event.ErrorData{
		Message: err.Error(),
		Type:    fmt.Sprintf("%T", err),
	}
	if chain := unwrapChain(err); len(chain) > 0 {
		ed.ChainedErrors = chain
	}
	return ed
}

// CaptureWithStack is Capture plus the call stack at the capture site.
// skip counts additional stack frames to drop above the caller of
// CaptureWithStack itself.
func CaptureWithStack(err error, skip int) *event.ErrorData {
	ed := Capture(err)
	if ed == nil {
		return nil
	}
	// skip past runtime.Callers, callerFrames, and this function.
	ed.Frames = callerFrames(skip + 3)
	ed.Stack = formatStack(ed.Frames)
	return ed
}

// unwrapChain walks errors.Unwrap collecting each cause as a small
// message/type record.
func unwrapChain(err error) []any {
	var chain []any
	for cause := errors.Unwrap(err); cause != nil && len(chain) < maxChainLen; cause = errors.Unwrap(cause) {
		chain = append(chain, map[string]any{
			"message": cause.Error(),
			"type":    fmt.Sprintf("%T", cause),
		})
	}
	return chain
}

// callerFrames returns the current stack as StackFrames ordered
// oldest-call-first.
func callerFrames(skip int) []event.StackFrame {
	pcs := make([]uintptr, maxFrames)
	n := runtime.Callers(skip, pcs)
	if n == 0 {
		return nil
	}
	frames := runtime.CallersFrames(pcs[:n])

	// runtime yields innermost-first; collect then reverse.
	var collected []event.StackFrame
	for {
		fr, more := frames.Next()
		if fr.Function != "" {
			collected = append(collected, event.StackFrame{
				Filename: fr.File,
				Function: fr.Function,
				Lineno:   fr.Line,
				InApp:    strings.HasPrefix(fr.Function, modulePath),
			})
		}
		if !more {
			break
		}
	}
	for i, j := 0, len(collected)-1; i < j; i, j = i+1, j-1 {
		collected[i], collected[j] = collected[j], collected[i]
	}
	return collected
}

// formatStack renders frames newest-first in the familiar
// "function\n\tfile:line" layout.
func formatStack(frames []event.StackFrame) string {
	if len(frames) == 0 {
		return ""
	}
	var b strings.Builder
	for i := len(frames) - 1; i >= 0; i-- {
		fr := frames[i]
		fmt.Fprintf(&b, "%s\n\t%s:%d\n", fr.Function, fr.Filename, fr.Lineno)
	}
	return b.String()
}
