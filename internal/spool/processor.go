package spool

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mcpcat/mcpcat-go/internal/event"
	"github.com/mcpcat/mcpcat-go/internal/eventlog"
	"github.com/mcpcat/mcpcat-go/internal/sanitize"
	"github.com/mcpcat/mcpcat-go/internal/truncate"
)

// Processor turns one raw spool file into a processed log entry.
type Processor struct {
	log *eventlog.Log
}

// NewProcessor creates a processor appending to log.
func NewProcessor(log *eventlog.Log) *Processor {
	return &Processor{log: log}
}

// Process reads a raw event file, runs the pipeline, appends the
// result, and removes the file. A file that does not parse is moved
// aside with a .bad suffix rather than deleted — the producer's bug
// should stay inspectable.
func (p *Processor) Process(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("spool: read %s: %w", path, err)
	}

	var e event.Event
	if err := json.Unmarshal(raw, &e); err != nil {
		if renameErr := os.Rename(path, path+".bad"); renameErr != nil {
			return fmt.Errorf("spool: quarantine %s: %w", path, renameErr)
		}
		return fmt.Errorf("spool: parse %s: %w", path, err)
	}
	if e.ID == "" {
		e.ID = event.NewID()
	}

	processed := truncate.Truncate(sanitize.Sanitize(e))
	if err := p.log.Append(&processed); err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("spool: remove %s: %w", path, err)
	}
	return nil
}
