package eventlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/mcpcat/mcpcat-go/internal/event"
)

// maxLineBytes caps the scanner buffer. Processed events never exceed
// 100KB serialized; the headroom covers raw (pre-pipeline) spool files.
const maxLineBytes = 1 << 20

// ReadAll decodes every event line from r. Blank lines are skipped; a
// malformed line aborts with its line number.
func ReadAll(r io.Reader) ([]event.Event, error) {
	var events []event.Event
	err := Scan(r, func(e event.Event) error {
		events = append(events, e)
		return nil
	})
	return events, err
}

// Scan streams event lines from r into fn, stopping on the first
// error from fn.
func Scan(r io.Reader, fn func(event.Event) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var e event.Event
		if err := json.Unmarshal(raw, &e); err != nil {
			return fmt.Errorf("eventlog: line %d: %w", line, err)
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("eventlog: scan: %w", err)
	}
	return nil
}
