package truncate

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/mcpcat/mcpcat-go/internal/event"
	"github.com/mcpcat/mcpcat-go/internal/sanitize"
)

func TestSizeBoundHuge(t *testing.T) {
	params := make(map[string]any, 20)
	for i := 0; i < 20; i++ {
		params[keyName(i)] = strings.Repeat("a", 20000)
	}
	e := event.Event{
		EventType:  event.ToolsCall,
		Timestamp:  time.Now().UTC(),
		Parameters: params,
	}

	out := Truncate(e)

	if size := serializedSize(out); size > maxEventBytes {
		t.Errorf("serialized size = %d, want <= %d", size, maxEventBytes)
	}
}

func TestSizeBoundDeepAndWide(t *testing.T) {
	// Breadth and depth explosion: 100 keys per level, several levels,
	// each leaf a sizable string.
	build := func(depth int) map[string]any {
		var rec func(d int) map[string]any
		rec = func(d int) map[string]any {
			m := make(map[string]any, 30)
			for i := 0; i < 30; i++ {
				if d == 0 {
					m[keyName(i)] = strings.Repeat("b", 200)
				} else {
					m[keyName(i)] = rec(d - 1)
				}
			}
			return m
		}
		return rec(depth)
	}
	e := event.Event{Parameters: build(3)}

	out := Truncate(e)

	if size := serializedSize(out); size > maxEventBytes {
		t.Errorf("serialized size = %d, want <= %d", size, maxEventBytes)
	}
}

func TestWithinBudgetUnchangedByLayer3(t *testing.T) {
	e := event.Event{
		UserIntent: "small",
		Parameters: map[string]any{"key": "value"},
	}
	out := Truncate(e)
	if out.UserIntent != "small" {
		t.Errorf("userIntent = %q", out.UserIntent)
	}
	want := map[string]any{"key": "value"}
	if !reflect.DeepEqual(out.Parameters, want) {
		t.Errorf("parameters = %v, want %v", out.Parameters, want)
	}
}

func TestIdempotence(t *testing.T) {
	e := event.Event{
		EventType:  event.ToolsCall,
		Timestamp:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		UserIntent: "look up the weather",
		Parameters: map[string]any{
			"name":      "get_weather",
			"arguments": map[string]any{"city": "Oslo", "days": 3},
		},
		Response: map[string]any{
			"content": []any{map[string]any{"type": "text", "text": "sunny"}},
		},
	}

	once := Truncate(e)
	twice := Truncate(once)

	if !reflect.DeepEqual(once, twice) {
		t.Error("Truncate is not idempotent on an in-limits event")
	}
}

func TestTruncateDoesNotMutateInput(t *testing.T) {
	e := event.Event{
		UserIntent: strings.Repeat("x", 3000),
		Parameters: map[string]any{
			"nested": map[string]any{"long": strings.Repeat("y", 50000)},
		},
		Error: &event.ErrorData{
			Message: strings.Repeat("m", 3000),
			Frames:  make([]event.StackFrame, 80),
		},
	}
	before, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal input: %v", err)
	}

	Truncate(e)

	after, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal input after: %v", err)
	}
	if string(before) != string(after) {
		t.Error("input event mutated by Truncate")
	}
}

func TestEndToEndScenario(t *testing.T) {
	e := event.Event{
		UserIntent: strings.Repeat("x", 3000),
		Parameters: map[string]any{
			"imageData": strings.Repeat("A", 12001),
		},
		Response: map[string]any{
			"content": []any{
				map[string]any{"type": "text", "text": strings.Repeat("z", 40000)},
				map[string]any{"type": "image", "data": "iVBOR", "mimeType": "image/png"},
			},
		},
	}

	out := Truncate(sanitize.Sanitize(e))

	if len(out.UserIntent) != 2051 || !strings.HasSuffix(out.UserIntent, "...") {
		t.Errorf("userIntent length = %d, want 2051 ending in ...", len(out.UserIntent))
	}

	imageData := out.Parameters.(map[string]any)["imageData"]
	if imageData != "[binary data redacted - not supported by MCPcat]" {
		t.Errorf("imageData = %.60v", imageData)
	}

	content := out.Response.(map[string]any)["content"].([]any)
	wantImage := map[string]any{
		"type": "text",
		"text": "[image content redacted - not supported by MCPcat]",
	}
	if !reflect.DeepEqual(content[1], wantImage) {
		t.Errorf("content[1] = %v, want %v", content[1], wantImage)
	}

	text := content[0].(map[string]any)["text"].(string)
	if len(text) > 32771 {
		t.Errorf("content[0].text length = %d, want <= 32771", len(text))
	}

	if size := serializedSize(out); size > maxEventBytes {
		t.Errorf("serialized size = %d, want <= %d", size, maxEventBytes)
	}
}

func TestPipelineCyclicPathological(t *testing.T) {
	// Cyclic and oversized at once: layer-2 depth-1 normalization must
	// leave the surgery layer an acyclic tree it can safely round-trip.
	m := map[string]any{}
	m["self"] = m
	for i := 0; i < 4; i++ {
		m[keyName(i)] = strings.Repeat("p q r! ", 6000) // non-base64, ~42KB
	}
	e := event.Event{Parameters: m, Response: m}

	out := Truncate(sanitize.Sanitize(e))

	if size := serializedSize(out); size > maxEventBytes {
		t.Errorf("serialized size = %d, want <= %d", size, maxEventBytes)
	}
	if _, err := json.Marshal(out); err != nil {
		t.Errorf("result not serializable: %v", err)
	}
}

func TestPipelineTypedContainerBlob(t *testing.T) {
	// A blob behind a concrete element type must not outlive the
	// pipeline: the scanner redacts it before normalization genericizes
	// the container.
	blob := strings.Repeat("A", 12000) + "="
	e := event.Event{Parameters: map[string]string{"imageData": blob}}

	out := Truncate(sanitize.Sanitize(e))

	got := out.Parameters.(map[string]any)["imageData"]
	if got != "[binary data redacted - not supported by MCPcat]" {
		t.Errorf("imageData = %.60v, want redaction marker", got)
	}
}

func TestSurgeryShrinksLargestFirst(t *testing.T) {
	// Force the surgery path: strings under the normalizer's limit but
	// jointly over budget, so no depth sweep can help.
	params := map[string]any{
		"big":    strings.Repeat("a", 32000),
		"bigger": strings.Repeat("b", 32000),
		"small":  "untouched",
	}
	resp := map[string]any{
		"one": strings.Repeat("c", 32000),
		"two": strings.Repeat("d", 32000),
	}
	e := event.Event{Parameters: params, Response: resp}

	out := Truncate(e)

	if size := serializedSize(out); size > maxEventBytes {
		t.Errorf("serialized size = %d, want <= %d", size, maxEventBytes)
	}
	small := out.Parameters.(map[string]any)["small"]
	if small != "untouched" {
		t.Errorf("short string was cut: %v", small)
	}
}

func TestErrorPayloadBounded(t *testing.T) {
	e := event.Event{Error: &event.ErrorData{
		Message: strings.Repeat("m", 5000),
		Stack:   strings.Repeat("s", 50000),
		Frames:  make([]event.StackFrame, 120),
		ChainedErrors: []any{
			map[string]any{"message": strings.Repeat("c", 50000)},
		},
	}}

	out := Truncate(e)

	if len(out.Error.Message) != maxErrorMessageLen+3 {
		t.Errorf("message length = %d", len(out.Error.Message))
	}
	if len(out.Error.Stack) != maxStringLen+3 {
		t.Errorf("stack length = %d", len(out.Error.Stack))
	}
	if len(out.Error.Frames) != 50 {
		t.Errorf("frame count = %d, want 50", len(out.Error.Frames))
	}
	chained := out.Error.ChainedErrors.([]any)[0].(map[string]any)["message"].(string)
	if len(chained) != maxStringLen+3 {
		t.Errorf("chained message length = %d", len(chained))
	}
}
