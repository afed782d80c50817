// Package sanitize strips content that must never leave the process:
// non-text tool result blocks and large encoded binary blobs. It is
// the first stage of the event pipeline and knows nothing about size
// budgets; bounding the event is the truncate package's job.
package sanitize

import (
	"fmt"
	"reflect"
	"regexp"
	"time"

	"github.com/mcpcat/mcpcat-go/internal/event"
)

// Redaction markers. These are fixed strings so downstream consumers
// can distinguish redacted data from real payload text.
const (
	imageRedacted          = "[image content redacted - not supported by MCPcat]"
	audioRedacted          = "[audio content redacted - not supported by MCPcat]"
	binaryResourceRedacted = "[binary resource content redacted - not supported by MCPcat]"
	binaryDataRedacted     = "[binary data redacted - not supported by MCPcat]"
)

// minBase64Len is the size gate: strings shorter than this are never
// scanned for the base64 pattern, whatever their content.
const minBase64Len = 10240

// base64Re matches strings made of the base64 alphabet with optional
// trailing padding. Embedded newlines are allowed (MIME-style wrapping).
var base64Re = regexp.MustCompile(`^[A-Za-z0-9+/\r\n]+={0,2}$`)

// Sanitize returns a copy of e with disallowed content replaced by
// redaction markers. It never fails: malformed or absent payloads pass
// through unchanged, and the input event is not mutated.
func Sanitize(e event.Event) event.Event {
	e.Response = sanitizeResponse(e.Response)
	e.Parameters = scanValue(e.Parameters, newPathSet())
	e.IdentifyActorData = scanValue(e.IdentifyActorData, newPathSet())
	e.Error = sanitizeError(e.Error)
	return e
}

// sanitizeResponse rewrites the content block array and runs the blob
// scanner over structuredContent. Anything that is not the expected
// shape passes through untouched.
func sanitizeResponse(resp any) any {
	m, ok := resp.(map[string]any)
	if !ok {
		return resp
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	if content, ok := m["content"].([]any); ok {
		rewritten := make([]any, len(content))
		for i, block := range content {
			rewritten[i] = sanitizeBlock(block)
		}
		out["content"] = rewritten
	}
	if sc, ok := m["structuredContent"].(map[string]any); ok {
		out["structuredContent"] = scanValue(sc, newPathSet())
	}
	return out
}

// sanitizeBlock applies the type-discriminated content block rules.
func sanitizeBlock(block any) any {
	m, ok := block.(map[string]any)
	if !ok {
		return block
	}
	blockType, _ := m["type"].(string)
	switch blockType {
	case "text", "resource_link":
		return block
	case "image":
		return textBlock(imageRedacted)
	case "audio":
		return textBlock(audioRedacted)
	case "resource":
		// A resource carrying a blob is binary; one carrying text is not.
		if res, ok := m["resource"].(map[string]any); ok {
			if _, hasBlob := res["blob"]; hasBlob {
				return textBlock(binaryResourceRedacted)
			}
		}
		return block
	default:
		return textBlock(fmt.Sprintf("[unsupported content type %q redacted - not supported by MCPcat]", blockType))
	}
}

func textBlock(text string) map[string]any {
	return map[string]any{"type": "text", "text": text}
}

// sanitizeError redacts blob-like strings in the error payload without
// disturbing its structure.
func sanitizeError(ed *event.ErrorData) *event.ErrorData {
	if ed == nil {
		return nil
	}
	out := *ed
	if s, ok := scanString(out.Message); ok {
		out.Message = s
	}
	if s, ok := scanString(out.Stack); ok {
		out.Stack = s
	}
	out.ChainedErrors = scanValue(out.ChainedErrors, newPathSet())
	return &out
}

// scanValue walks an arbitrary tree and replaces every large
// base64-looking string with the binary data marker. Containers are
// rebuilt, never mutated. The visited set guards against reference
// cycles so the walk always terminates; the cycle itself is left for
// the truncator to mark.
func scanValue(v any, visited pathSet) any {
	switch val := v.(type) {
	case string:
		if s, ok := scanString(val); ok {
			return s
		}
		return val
	case map[string]any:
		id := reflect.ValueOf(val).Pointer()
		if visited[id] {
			return val
		}
		visited[id] = true
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = scanValue(child, visited)
		}
		delete(visited, id)
		return out
	case []any:
		id := reflect.ValueOf(val).Pointer()
		if visited[id] {
			return val
		}
		visited[id] = true
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = scanValue(child, visited)
		}
		delete(visited, id)
		return out
	case time.Time:
		return val
	default:
		return scanReflect(reflect.ValueOf(v), visited)
	}
}

var timeType = reflect.TypeOf(time.Time{})

// scanReflect extends the scan to typed values. Callers may attach any
// Go value as a payload, so a blob can sit behind a concrete element
// type the generic cases never see: map[string]string, []string, a
// struct field. Typed containers are rebuilt as generic trees with
// their strings scanned; scalars and unserializable kinds pass through
// for the truncator to bound or mark.
func scanReflect(rv reflect.Value, visited pathSet) any {
	if !rv.IsValid() {
		return nil
	}
	switch rv.Kind() {
	case reflect.String:
		if s, ok := scanString(rv.String()); ok {
			return s
		}
		return rv.Interface()

	case reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return scanReflect(rv.Elem(), visited)

	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		id := rv.Pointer()
		if visited[id] {
			return rv.Interface()
		}
		visited[id] = true
		out := scanReflect(rv.Elem(), visited)
		delete(visited, id)
		return out

	case reflect.Map:
		if rv.IsNil() {
			return nil
		}
		id := rv.Pointer()
		if visited[id] {
			return rv.Interface()
		}
		visited[id] = true
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[scanMapKey(iter.Key())] = scanReflect(iter.Value(), visited)
		}
		delete(visited, id)
		return out

	case reflect.Slice:
		if rv.IsNil() {
			return nil
		}
		id := rv.Pointer()
		if visited[id] {
			return rv.Interface()
		}
		visited[id] = true
		out := scanList(rv, visited)
		delete(visited, id)
		return out

	case reflect.Array:
		return scanList(rv, visited)

	case reflect.Struct:
		if rv.Type() == timeType {
			return rv.Interface()
		}
		return scanStruct(rv, visited)

	default:
		if rv.CanInterface() {
			return rv.Interface()
		}
		return nil
	}
}

func scanList(rv reflect.Value, visited pathSet) []any {
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = scanReflect(rv.Index(i), visited)
	}
	return out
}

// scanStruct rebuilds exported fields under their json tag names so
// the scanned tree serializes the same way the struct would have.
func scanStruct(rv reflect.Value, visited pathSet) map[string]any {
	t := rv.Type()
	out := make(map[string]any)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := structFieldName(f)
		if name == "" {
			continue
		}
		out[name] = scanReflect(rv.Field(i), visited)
	}
	return out
}

func structFieldName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	name := tag
	for i := 0; i < len(tag); i++ {
		if tag[i] == ',' {
			name = tag[:i]
			break
		}
	}
	if name == "" {
		return f.Name
	}
	return name
}

func scanMapKey(k reflect.Value) string {
	if k.Kind() == reflect.Interface && !k.IsNil() {
		k = k.Elem()
	}
	if k.Kind() == reflect.String {
		return k.String()
	}
	return fmt.Sprint(k.Interface())
}

// scanString reports whether s crosses the size gate and matches the
// base64 alphabet, returning the redaction marker if so.
func scanString(s string) (string, bool) {
	if len(s) >= minBase64Len && base64Re.MatchString(s) {
		return binaryDataRedacted, true
	}
	return "", false
}

// pathSet tracks container identities on the active recursion path.
type pathSet map[uintptr]bool

func newPathSet() pathSet {
	return make(pathSet)
}
