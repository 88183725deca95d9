package ruletype

import (
	"fmt"
	"time"

	"github.com/drewolson/alertcore/fieldpath"
	"github.com/drewolson/alertcore/window"
)

// FrequencyRule matches when num_events occur within timeframe, per
// partition key (query_key, or the literal key "all" when unpartitioned).
// Once matched, that key's window is dropped entirely, forcing a fresh
// accumulation before it can match again.
type FrequencyRule struct {
	base
	numEvents   int
	timeframe   time.Duration
	queryKey    string
	hasQueryKey bool

	occurrences map[any]*window.Window
}

// NewFrequencyRule constructs a FrequencyRule. Required options: num_events,
// timeframe.
func NewFrequencyRule(opts Options) (*FrequencyRule, error) {
	const name = "frequency"

	numEvents, ok := opts.Int("num_events")
	if !ok {
		return nil, missingOption(name, "num_events")
	}
	timeframe, ok := opts.Duration("timeframe")
	if !ok {
		return nil, missingOption(name, "timeframe")
	}

	r := &FrequencyRule{
		numEvents:   numEvents,
		timeframe:   timeframe,
		occurrences: map[any]*window.Window{},
	}
	r.base = newBase(name, opts)
	if qk, ok := opts.String("query_key"); ok && qk != "" {
		r.queryKey = qk
		r.hasQueryKey = true
	}
	return r, nil
}

func (r *FrequencyRule) tsOf(event fieldpath.Event) time.Time {
	return r.timeOf(event, r.tsField)
}

func (r *FrequencyRule) keyFor(event fieldpath.Event) any {
	if !r.hasQueryKey {
		return "all"
	}
	v, _ := r.lookup(event, r.queryKey)
	return fieldpath.Hashable(v)
}

func (r *FrequencyRule) windowFor(key any) *window.Window {
	w, ok := r.occurrences[key]
	if !ok {
		w = window.New(r.timeframe, r.tsOf, nil)
		r.occurrences[key] = w
	}
	return w
}

func (r *FrequencyRule) AddData(events []fieldpath.Event) error {
	for _, event := range events {
		r.windowFor(r.keyFor(event)).Append(window.Entry{Event: event, Count: 1})
		r.checkForMatch()
	}
	return nil
}

func (r *FrequencyRule) AddCountData(counts map[time.Time]int) error {
	if len(counts) > 1 {
		return &ShapeError{Rule: r.name, Msg: "add_count_data accepts at most one entry"}
	}
	for ts, count := range counts {
		event := fieldpath.Event{r.tsField: ts}
		r.windowFor("all").Append(window.Entry{Event: event, Count: count})
		r.checkForMatch()
	}
	return nil
}

func (r *FrequencyRule) AddTermsData(terms map[time.Time][]TermBucket) error {
	if !r.hasQueryKey {
		return &ConfigError{Rule: r.name, Msg: "add_terms_data requires query_key"}
	}
	for ts, buckets := range terms {
		for _, bucket := range buckets {
			event := fieldpath.Event{r.tsField: ts, r.queryKey: bucket.Key}
			key := fieldpath.Hashable(bucket.Key)
			r.windowFor(key).Append(window.Entry{Event: event, Count: bucket.DocCount})
			r.checkForMatch()
		}
	}
	return nil
}

// checkForMatch matches any key whose window count has reached num_events,
// emitting the window's newest event and dropping the window.
func (r *FrequencyRule) checkForMatch() {
	for key, w := range r.occurrences {
		if w.Count() >= r.numEvents {
			newest, _ := w.Newest()
			r.addMatch(newest.Event, nil)
			delete(r.occurrences, key)
		}
	}
}

// GarbageCollect drops any key whose newest entry is older than timeframe.
func (r *FrequencyRule) GarbageCollect(now time.Time) error {
	var stale []any
	for key, w := range r.occurrences {
		newest, ok := w.Newest()
		if !ok {
			continue
		}
		if now.Sub(r.tsOf(newest.Event)) > r.timeframe {
			stale = append(stale, key)
		}
	}
	for _, key := range stale {
		delete(r.occurrences, key)
	}
	return nil
}

func (r *FrequencyRule) GetMatchStr(match Match) string {
	end, ok := parseCanonical(match[r.tsField])
	if !ok {
		return ""
	}
	start := end.Add(-r.timeframe)
	return fmt.Sprintf("At least %d events occurred between %s and %s\n\n",
		r.numEvents, prettyTS(start, r.useLocalTime), prettyTS(end, r.useLocalTime))
}
