package ruletype

import (
	"fmt"
	"time"

	"github.com/drewolson/alertcore/fieldpath"
	"github.com/drewolson/alertcore/window"
)

// FlatlineRule matches when fewer than threshold events occur within
// timeframe, evaluated against a single unpartitioned stream (query_key is
// forbidden). A warmup period - timeframe since the first observed event -
// must elapse before the rule will match, so that an absence of data at
// startup doesn't fire immediately.
type FlatlineRule struct {
	base
	threshold int
	timeframe time.Duration

	win       *window.Window
	firstSeen *time.Time
}

// NewFlatlineRule constructs a FlatlineRule. Required options: timeframe,
// threshold. query_key is forbidden.
func NewFlatlineRule(opts Options) (*FlatlineRule, error) {
	const name = "flatline"

	if opts.Has("query_key") {
		return nil, forbiddenOption(name, "query_key")
	}
	threshold, ok := opts.Int("threshold")
	if !ok {
		return nil, missingOption(name, "threshold")
	}
	timeframe, ok := opts.Duration("timeframe")
	if !ok {
		return nil, missingOption(name, "timeframe")
	}

	r := &FlatlineRule{threshold: threshold, timeframe: timeframe}
	r.base = newBase(name, opts)
	r.win = window.New(timeframe, r.tsOf, nil)
	return r, nil
}

func (r *FlatlineRule) tsOf(event fieldpath.Event) time.Time {
	return r.timeOf(event, r.tsField)
}

func (r *FlatlineRule) AddData(events []fieldpath.Event) error {
	for _, event := range events {
		r.win.Append(window.Entry{Event: event, Count: 1})
		r.checkForMatch()
	}
	return nil
}

func (r *FlatlineRule) AddCountData(counts map[time.Time]int) error {
	if len(counts) > 1 {
		return &ShapeError{Rule: r.name, Msg: "add_count_data accepts at most one entry"}
	}
	for ts, count := range counts {
		r.win.Append(window.Entry{Event: fieldpath.Event{r.tsField: ts}, Count: count})
		r.checkForMatch()
	}
	return nil
}

func (r *FlatlineRule) checkForMatch() {
	newest, ok := r.win.Newest()
	if !ok {
		return
	}
	mostRecent := r.tsOf(newest.Event)
	if r.firstSeen == nil {
		t := mostRecent
		r.firstSeen = &t
	}

	if mostRecent.Sub(*r.firstSeen) < r.timeframe {
		return
	}

	if r.win.Count() < r.threshold {
		r.addMatch(newest.Event, nil)
		r.win.Reset()
		r.firstSeen = nil
	}
}

// GarbageCollect appends a synthetic zero-count entry at now, advancing the
// window's notion of time (evicting old entries) and re-evaluating the match
// condition - the mechanism by which a sustained absence of events fires a
// match once timeframe has elapsed.
func (r *FlatlineRule) GarbageCollect(now time.Time) error {
	r.win.Append(window.Entry{Event: fieldpath.Event{r.tsField: now}, Count: 0})
	r.checkForMatch()
	return nil
}

func (r *FlatlineRule) GetMatchStr(match Match) string {
	end, ok := parseCanonical(match[r.tsField])
	if !ok {
		return ""
	}
	start := end.Add(-r.timeframe)
	return fmt.Sprintf("An abnormally low number of events occurred around %s.\nBetween %s and %s, there were less than %d events.\n\n",
		prettyTS(end, r.useLocalTime), prettyTS(start, r.useLocalTime), prettyTS(end, r.useLocalTime), r.threshold)
}
