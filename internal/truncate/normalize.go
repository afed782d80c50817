package truncate

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"runtime"
	"sort"
	"time"

	"github.com/mcpcat/mcpcat-go/internal/event"
)

// Sentinel markers substituted for elided or unserializable data.
// They are plain strings so the output stays a valid JSON tree.
const (
	undefinedMarker = "[undefined]"
	nanMarker       = "[NaN]"
	posInfMarker    = "[Infinity]"
	negInfMarker    = "[-Infinity]"
	objectMarker    = "[Object]"
	arrayMarker     = "[Array]"
	circularMarker  = "[Circular ~]"
	overflowMarker  = "[MaxProperties ~]"
	overflowKey     = "..."
)

var (
	timeType   = reflect.TypeOf(time.Time{})
	bigIntType = reflect.TypeOf(big.Int{})
)

// pathSet tracks container identities on the active recursion path.
// Entries are added on entry and removed on exit, so shared acyclic
// subtrees normalize normally and only true back-edges are flagged.
type pathSet map[uintptr]bool

// normalize converts an arbitrary value into a depth/breadth-bounded,
// cycle-free tree of JSON-serializable values. It never fails: every
// unserializable kind becomes a descriptive marker string.
func normalize(v any, depth int) any {
	return normalizeWith(v, depth, maxBreadth, maxStringLen)
}

func normalizeWith(v any, depth, breadth, strLen int) any {
	return normalizeValue(reflect.ValueOf(v), depth, breadth, strLen, make(pathSet))
}

func normalizeValue(rv reflect.Value, depth, breadth, strLen int, visited pathSet) any {
	if !rv.IsValid() {
		return nil
	}
	if rv.CanInterface() && rv.Interface() == any(event.Undefined) {
		return undefinedMarker
	}

	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint()

	case reflect.Float32, reflect.Float64:
		return normalizeFloat(rv.Float())

	case reflect.Complex64, reflect.Complex128:
		return fmt.Sprintf("[Complex: %v]", rv.Complex())

	case reflect.String:
		return truncateString(rv.String(), strLen)

	case reflect.Func:
		return functionMarker(rv)

	case reflect.Chan:
		return "[Channel]"

	case reflect.UnsafePointer:
		return "[Pointer]"

	case reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return normalizeValue(rv.Elem(), depth, breadth, strLen, visited)

	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		if rv.Type().Elem() == bigIntType {
			return fmt.Sprintf("[BigInt: %s]", rv.Interface().(*big.Int).String())
		}
		id := rv.Pointer()
		if visited[id] {
			return circularMarker
		}
		visited[id] = true
		out := normalizeValue(rv.Elem(), depth, breadth, strLen, visited)
		delete(visited, id)
		return out

	case reflect.Map:
		if rv.IsNil() {
			return nil
		}
		id := rv.Pointer()
		if visited[id] {
			return circularMarker
		}
		if depth <= 0 {
			return objectMarker
		}
		visited[id] = true
		out := normalizeMap(rv, depth, breadth, strLen, visited)
		delete(visited, id)
		return out

	case reflect.Slice:
		if rv.IsNil() {
			return nil
		}
		id := rv.Pointer()
		if visited[id] {
			return circularMarker
		}
		if depth <= 0 {
			return arrayMarker
		}
		visited[id] = true
		out := normalizeList(rv, depth, breadth, strLen, visited)
		delete(visited, id)
		return out

	case reflect.Array:
		if depth <= 0 {
			return arrayMarker
		}
		return normalizeList(rv, depth, breadth, strLen, visited)

	case reflect.Struct:
		if rv.Type() == timeType {
			return rv.Interface().(time.Time).UTC().Format("2006-01-02T15:04:05.000Z")
		}
		if rv.Type() == bigIntType {
			bi := rv.Interface().(big.Int)
			return fmt.Sprintf("[BigInt: %s]", bi.String())
		}
		if depth <= 0 {
			return objectMarker
		}
		return normalizeStruct(rv, depth, breadth, strLen, visited)

	default:
		return fmt.Sprintf("[%s]", rv.Kind())
	}
}

func normalizeFloat(f float64) any {
	switch {
	case math.IsNaN(f):
		return nanMarker
	case math.IsInf(f, 1):
		return posInfMarker
	case math.IsInf(f, -1):
		return negInfMarker
	default:
		return f
	}
}

func functionMarker(rv reflect.Value) string {
	if rv.IsNil() {
		return "[Function: anonymous]"
	}
	name := ""
	if fn := runtime.FuncForPC(rv.Pointer()); fn != nil {
		name = fn.Name()
	}
	if name == "" {
		name = "anonymous"
	}
	return fmt.Sprintf("[Function: %s]", name)
}

// normalizeMap rebuilds a map with at most breadth entries. Keys are
// visited in sorted order so the output is reproducible; entries whose
// value is the Undefined sentinel are dropped, mirroring JSON's
// omission of undefined object properties.
func normalizeMap(rv reflect.Value, depth, breadth, strLen int, visited pathSet) any {
	type entry struct {
		key string
		val reflect.Value
	}
	entries := make([]entry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		entries = append(entries, entry{mapKeyString(iter.Key()), iter.Value()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	out := make(map[string]any, min(len(entries), breadth))
	kept := 0
	for _, ent := range entries {
		if ent.val.CanInterface() && ent.val.Interface() == any(event.Undefined) {
			continue
		}
		if kept >= breadth {
			out[overflowKey] = overflowMarker
			break
		}
		out[ent.key] = normalizeValue(ent.val, depth-1, breadth, strLen, visited)
		kept++
	}
	return out
}

func mapKeyString(k reflect.Value) string {
	if k.Kind() == reflect.Interface && !k.IsNil() {
		k = k.Elem()
	}
	if k.Kind() == reflect.String {
		return k.String()
	}
	return fmt.Sprint(k.Interface())
}

func normalizeList(rv reflect.Value, depth, breadth, strLen int, visited pathSet) any {
	n := rv.Len()
	if n <= breadth {
		out := make([]any, n)
		for i := 0; i < n; i++ {
			out[i] = normalizeValue(rv.Index(i), depth-1, breadth, strLen, visited)
		}
		return out
	}
	out := make([]any, breadth+1)
	for i := 0; i < breadth; i++ {
		out[i] = normalizeValue(rv.Index(i), depth-1, breadth, strLen, visited)
	}
	out[breadth] = overflowMarker
	return out
}

// normalizeStruct maps exported fields through their json tag names.
// Structs reach the normalizer when callers attach typed values to a
// payload; they serialize like objects, so they are bounded like objects.
func normalizeStruct(rv reflect.Value, depth, breadth, strLen int, visited pathSet) any {
	t := rv.Type()
	out := make(map[string]any)
	kept := 0
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := jsonFieldName(f)
		if name == "" {
			continue
		}
		if kept >= breadth {
			out[overflowKey] = overflowMarker
			break
		}
		out[name] = normalizeValue(rv.Field(i), depth-1, breadth, strLen, visited)
		kept++
	}
	return out
}

func jsonFieldName(f reflect.StructField) string {
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
