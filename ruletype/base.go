package ruletype

import (
	"reflect"
	"time"

	"github.com/drewolson/alertcore/fieldpath"
)

type (
	// Match is an event, possibly enriched with rule-specific extra
	// fields, appended to a rule's match list.
	Match = fieldpath.Event

	// TermBucket is one aggregated bucket from a terms query: key is the
	// query_key value the bucket represents, doc_count its hit count.
	TermBucket struct {
		Key      any
		DocCount int
	}

	// Rule is the contract every rule type satisfies. Exactly one of the
	// three ingestion methods is called per batch, chosen by the host
	// driver according to the rule's configured query mode; a rule that
	// does not support the chosen mode returns *UnsupportedOperationError.
	Rule interface {
		// AddData ingests raw events.
		AddData(events []fieldpath.Event) error
		// AddCountData ingests a single {timestamp: count} pre-aggregated
		// data point.
		AddCountData(counts map[time.Time]int) error
		// AddTermsData ingests per-key aggregated buckets for a moment.
		AddTermsData(terms map[time.Time][]TermBucket) error
		// GarbageCollect advances logical time, evicting state that has
		// aged out and/or synthesizing placeholder observations so
		// time-based rules can fire during silence.
		GarbageCollect(now time.Time) error
		// Matches returns a copy of the accumulated match list, without
		// clearing it.
		Matches() []Match
		// Drain returns the accumulated match list and clears it. This is
		// the only operation that removes matches; no ingestion method
		// does.
		Drain() []Match
		// GetMatchStr returns a human-readable summary of match, for
		// alert bodies.
		GetMatchStr(match Match) string
	}

	// base holds the state and behavior common to every rule type:
	// accumulated matches, the configured timestamp field/lookup, and
	// match canonicalization (spec's add_match).
	base struct {
		name         string
		tsField      string
		useLocalTime bool
		lookup       fieldpath.LookupFunc
		matches      []Match
	}
)

const defaultTimestampField = "@timestamp"

func newBase(name string, rules Options) base {
	tsField := defaultTimestampField
	if v, ok := rules.String("timestamp_field"); ok && v != "" {
		tsField = v
	}

	lookup := fieldpath.Lookup
	if v, ok := rules["lookup"]; ok {
		if fn, ok := v.(fieldpath.LookupFunc); ok {
			lookup = fn
		}
	}

	return base{
		name:         name,
		tsField:      tsField,
		useLocalTime: rules.Bool("use_local_time"),
		lookup:       lookup,
	}
}

// addMatch copies event, runs it through enrich (if non-nil), normalizes its
// timestamp field to canonical string form, and appends it to matches. The
// caller's event map is never mutated.
func (b *base) addMatch(event fieldpath.Event, enrich func(fieldpath.Event) fieldpath.Event) {
	out := make(fieldpath.Event, len(event)+2)
	for k, v := range event {
		out[k] = v
	}
	if enrich != nil {
		out = enrich(out)
	}
	if v, ok := out[b.tsField]; ok {
		out[b.tsField] = fieldpath.CanonicalTimestamp(v)
	}
	b.matches = append(b.matches, out)
}

func (b *base) Matches() []Match {
	out := make([]Match, len(b.matches))
	copy(out, b.matches)
	return out
}

func (b *base) Drain() []Match {
	m := b.matches
	b.matches = nil
	return m
}

func (b *base) GetMatchStr(Match) string {
	return ""
}

// The three ingestion methods default to unsupported; concrete rule types
// override whichever they implement.

func (b *base) AddData([]fieldpath.Event) error {
	return &UnsupportedOperationError{Rule: b.name, Op: "add_data"}
}

func (b *base) AddCountData(map[time.Time]int) error {
	return &UnsupportedOperationError{Rule: b.name, Op: "add_count_data"}
}

func (b *base) AddTermsData(map[time.Time][]TermBucket) error {
	return &UnsupportedOperationError{Rule: b.name, Op: "add_terms_data"}
}

func (b *base) GarbageCollect(time.Time) error {
	return nil
}

// timeOf reads a time.Time field off event via lookup, defaulting to the
// zero value (not an error - lookup misses are null, not failures).
func (b *base) timeOf(event fieldpath.Event, field string) time.Time {
	v, _ := b.lookup(event, field)
	t, _ := v.(time.Time)
	return t
}

func isFalsy(v any) bool {
	if v == nil {
		return true
	}
	switch x := v.(type) {
	case string:
		return x == ""
	case bool:
		return !x
	case int:
		return x == 0
	case int64:
		return x == 0
	case float64:
		return x == 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	}
	return false
}

// parseCanonical recovers a time.Time from a value that may already be one,
// or may be the canonical string form addMatch produced.
func parseCanonical(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	}
	return time.Time{}, false
}

func prettyTS(t time.Time, useLocalTime bool) string {
	if useLocalTime {
		t = t.Local()
	} else {
		t = t.UTC()
	}
	return t.Format(time.RFC3339)
}
