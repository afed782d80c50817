package truncate

import (
	"encoding/json"
	"sort"

	"github.com/mcpcat/mcpcat-go/internal/event"
)

// Largest-field surgery parameters. Surgery only runs when even
// depth-1 normalization cannot meet the byte ceiling.
const (
	surgeryMaxPasses   = 10
	surgeryMinLen      = 100 // strings at or below this are never cut
	surgeryMinCut      = 10  // planned cuts smaller than this are skipped
	surgeryQuoteBuffer = 256 // slack for quoting/escaping overhead
)

// serializedSize is the UTF-8 byte length of the event's canonical
// JSON form. A marshal failure (impossible after normalization, but
// never trusted) reports an over-budget size so reduction continues.
func serializedSize(e event.Event) int {
	raw, err := json.Marshal(e)
	if err != nil {
		return maxEventBytes + 1
	}
	return len(raw)
}

// enforceBudget is layer 3. It re-normalizes the payload fields at
// progressively smaller depths until the event fits, then falls back
// to cutting the largest strings in the tree. The result is best
// effort: pathological input with nothing left to cut is returned as
// reduced as possible rather than failing.
func enforceBudget(e event.Event) event.Event {
	if serializedSize(e) <= maxEventBytes {
		return e
	}
	for depth := maxDepth - 1; depth >= 1; depth-- {
		candidate := normalizeEvent(e, depth)
		if serializedSize(candidate) <= maxEventBytes {
			return candidate
		}
	}
	return shrinkLargestStrings(normalizeEvent(e, 1))
}

// stringSlot is one mutable string location in a generic tree.
type stringSlot struct {
	val string
	set func(string)
}

// shrinkLargestStrings deep-copies the event through a JSON round trip
// (safe: depth-1 normalization already replaced cycles with markers)
// and repeatedly truncates the longest strings until the budget is met
// or nothing useful remains to cut.
func shrinkLargestStrings(e event.Event) event.Event {
	raw, err := json.Marshal(e)
	if err != nil {
		return e
	}
	if len(raw) <= maxEventBytes {
		return e
	}
	var tree map[string]any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return e
	}

	size := len(raw)
	for pass := 0; pass < surgeryMaxPasses && size > maxEventBytes; pass++ {
		deficit := size - maxEventBytes
		slots := collectStrings(tree)
		// Longest first; ties keep traversal order for reproducibility.
		sort.SliceStable(slots, func(i, j int) bool {
			return len(slots[i].val) > len(slots[j].val)
		})

		cutAny := false
		for _, slot := range slots {
			if deficit <= 0 {
				break
			}
			cut := len(slot.val) / 2
			if want := deficit + surgeryQuoteBuffer; cut > want {
				cut = want
			}
			if cut < surgeryMinCut {
				continue
			}
			slot.set(truncateString(slot.val, len(slot.val)-cut))
			deficit -= cut
			cutAny = true
		}
		if !cutAny {
			break
		}

		shrunk, err := json.Marshal(tree)
		if err != nil {
			break
		}
		size = len(shrunk)
		raw = shrunk
	}

	var out event.Event
	if err := json.Unmarshal(raw, &out); err != nil {
		return e
	}
	return out
}

// collectStrings gathers every string longer than surgeryMinLen, in
// deterministic traversal order (sorted keys for objects).
func collectStrings(tree map[string]any) []stringSlot {
	var slots []stringSlot
	walkStrings(tree, &slots)
	return slots
}

func walkStrings(v any, slots *[]stringSlot) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if s, ok := val[k].(string); ok {
				if len(s) > surgeryMinLen {
					k := k
					*slots = append(*slots, stringSlot{val: s, set: func(ns string) { val[k] = ns }})
				}
				continue
			}
			walkStrings(val[k], slots)
		}
	case []any:
		for i, child := range val {
			if s, ok := child.(string); ok {
				if len(s) > surgeryMinLen {
					i := i
					*slots = append(*slots, stringSlot{val: s, set: func(ns string) { val[i] = ns }})
				}
				continue
			}
			walkStrings(child, slots)
		}
	}
}
