package fieldpath

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

type (
	// Event is an attribute map, as produced by the (out of scope) search
	// backend. Field names follow a dotted-path convention: "a.b.c" may
	// either be a literal top-level key, or a traversal through nested
	// maps, with the literal key always preferred.
	Event = map[string]any

	// LookupFunc resolves a dotted path against an event, returning the
	// zero value and false if the path is absent. A lookup miss is not an
	// error; it is the caller's job to decide what null means.
	LookupFunc func(event Event, path string) (any, bool)
)

// Lookup is the default LookupFunc: it first checks whether path is itself a
// literal key (attribute names are permitted to contain dots), then falls
// back to splitting on "." and traversing nested maps.
func Lookup(event Event, path string) (any, bool) {
	if event == nil || path == "" {
		return nil, false
	}

	if v, ok := event[path]; ok {
		return v, true
	}

	if !strings.Contains(path, ".") {
		return nil, false
	}

	var cur any = event
	for _, part := range strings.Split(path, ".") {
		m, ok := asEvent(cur)
		if !ok {
			return nil, false
		}
		v, ok := m[part]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

func asEvent(v any) (Event, bool) {
	switch m := v.(type) {
	case Event:
		return m, true
	case map[string]any:
		return m, true
	default:
		return nil, false
	}
}

// Hashable converts an arbitrary looked-up value into something usable as a
// Go map key. Types that are already comparable pass through unchanged;
// slices, maps, and other non-comparable kinds are rendered to a stable
// string representation, following the spirit of elastalert's util.hashable
// (which stringifies lists before using them as dict keys).
func Hashable(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Func:
		return fmt.Sprintf("%#v", v)
	default:
		return v
	}
}

// CanonicalTimestamp renders a moment in its canonical string form, for
// insertion into a Match. Values that are not a time.Time are returned
// unmodified, on the assumption they are already in a wire-ready shape.
func CanonicalTimestamp(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return v
}
