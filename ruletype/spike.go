package ruletype

import (
	"fmt"
	"time"

	"github.com/drewolson/alertcore/fieldpath"
	"github.com/drewolson/alertcore/window"
)

// spikeKeyState is the per-key pair of adjacent windows a SpikeRule tracks:
// reference covers [now-2*timeframe, now-timeframe), current covers
// [now-timeframe, now]. firstEvent anchors that key's warmup period.
type spikeKeyState struct {
	ref, cur   *window.Window
	firstEvent fieldpath.Event
}

// SpikeRule matches when the event rate in the current window spikes (or
// dips) relative to the reference window, by at least a factor of
// spike_height.
type SpikeRule struct {
	base
	timeframe      time.Duration
	spikeHeight    float64
	spikeType      string // "up", "down", or "both"
	thresholdCur   int
	thresholdRef   int
	queryKey       string
	hasQueryKey    bool
	alertOnNewData bool

	keys map[any]*spikeKeyState
	// refWindowFilledOnce is global to the rule, not per-key: combined with
	// alert_on_new_data, this lets a newly-seen key bypass its own warmup
	// once any key has warmed up.
	refWindowFilledOnce bool
}

// NewSpikeRule constructs a SpikeRule. Required options: timeframe,
// spike_height, spike_type (one of "up", "down", "both").
func NewSpikeRule(opts Options) (*SpikeRule, error) {
	const name = "spike"

	timeframe, ok := opts.Duration("timeframe")
	if !ok {
		return nil, missingOption(name, "timeframe")
	}
	spikeHeight, ok := opts.Float("spike_height")
	if !ok {
		return nil, missingOption(name, "spike_height")
	}
	spikeType, ok := opts.String("spike_type")
	if !ok {
		return nil, missingOption(name, "spike_type")
	}
	switch spikeType {
	case "up", "down", "both":
	default:
		return nil, &ConfigError{Rule: name, Msg: fmt.Sprintf("invalid spike_type %q", spikeType)}
	}

	r := &SpikeRule{
		timeframe:   timeframe,
		spikeHeight: spikeHeight,
		spikeType:   spikeType,
		keys:        map[any]*spikeKeyState{},
	}
	r.base = newBase(name, opts)
	if qk, ok := opts.String("query_key"); ok && qk != "" {
		r.queryKey = qk
		r.hasQueryKey = true
	}
	r.alertOnNewData = opts.Bool("alert_on_new_data")
	if thr, ok := opts.Int("threshold_cur"); ok {
		r.thresholdCur = thr
	}
	if thr, ok := opts.Int("threshold_ref"); ok {
		r.thresholdRef = thr
	}
	return r, nil
}

func (r *SpikeRule) tsOf(event fieldpath.Event) time.Time {
	return r.timeOf(event, r.tsField)
}

func (r *SpikeRule) AddData(events []fieldpath.Event) error {
	for _, event := range events {
		key := any("all")
		if r.hasQueryKey {
			v, ok := r.lookup(event, r.queryKey)
			if !ok || v == nil {
				key = "other"
			} else {
				key = fieldpath.Hashable(v)
			}
		}
		r.handleEvent(event, 1, key)
	}
	return nil
}

func (r *SpikeRule) AddCountData(counts map[time.Time]int) error {
	if len(counts) > 1 {
		return &ShapeError{Rule: r.name, Msg: "add_count_data accepts at most one entry"}
	}
	for ts, count := range counts {
		r.handleEvent(fieldpath.Event{r.tsField: ts}, count, "all")
	}
	return nil
}

func (r *SpikeRule) AddTermsData(terms map[time.Time][]TermBucket) error {
	if !r.hasQueryKey {
		return &ConfigError{Rule: r.name, Msg: "add_terms_data requires query_key"}
	}
	for ts, buckets := range terms {
		for _, bucket := range buckets {
			event := fieldpath.Event{r.tsField: ts, r.queryKey: bucket.Key}
			r.handleEvent(event, bucket.DocCount, fieldpath.Hashable(bucket.Key))
		}
	}
	return nil
}

func (r *SpikeRule) handleEvent(event fieldpath.Event, count int, key any) {
	state, ok := r.keys[key]
	if !ok {
		state = &spikeKeyState{firstEvent: event}
		state.ref = window.New(r.timeframe, r.tsOf, nil)
		state.cur = window.New(r.timeframe, r.tsOf, func(e window.Entry) { state.ref.Append(e) })
		r.keys[key] = state
	}

	state.cur.Append(window.Entry{Event: event, Count: count})

	if r.tsOf(event).Sub(r.tsOf(state.firstEvent)) < 2*r.timeframe {
		// Reference window has not yet filled for this key. Unless
		// query_key and alert_on_new_data are both set and some key's
		// reference window has already filled once during this rule's
		// lifetime, suppress.
		if !(r.hasQueryKey && r.alertOnNewData) || !r.refWindowFilledOnce {
			return
		}
	} else {
		r.refWindowFilledOnce = true
	}

	refCount, curCount := state.ref.Count(), state.cur.Count()
	if r.findMatches(refCount, curCount) {
		newest, _ := state.cur.Newest()
		match := newest.Event
		r.addMatch(match, r.enrich(curCount, refCount))

		state.cur.Reset()
		state.ref.Reset()
		state.firstEvent = match
	}
}

func (r *SpikeRule) enrich(curCount, refCount int) func(fieldpath.Event) fieldpath.Event {
	return func(event fieldpath.Event) fieldpath.Event {
		event["spike_count"] = curCount
		event["reference_count"] = refCount
		return event
	}
}

func (r *SpikeRule) findMatches(ref, cur int) bool {
	if cur < r.thresholdCur || ref < r.thresholdRef {
		return false
	}

	spikeUp := float64(cur) >= float64(ref)*r.spikeHeight
	spikeDown := float64(cur) <= float64(ref)/r.spikeHeight

	return ((r.spikeType == "up" || r.spikeType == "both") && spikeUp) ||
		((r.spikeType == "down" || r.spikeType == "both") && spikeDown)
}

// GarbageCollect ages both windows for every key in the absence of new data,
// by synthesizing a zero-count placeholder observation at now, and may fire
// a down-spike as a result. A key with nothing left in either window is
// forgotten, unless it's the unpartitioned "all" key.
func (r *SpikeRule) GarbageCollect(now time.Time) error {
	var stale []any
	for key, state := range r.keys {
		if key != any("all") && state.ref.Count() == 0 && state.cur.Count() == 0 {
			stale = append(stale, key)
			continue
		}

		placeholder := fieldpath.Event{r.tsField: now}
		if key != any("all") {
			placeholder[r.queryKey] = key
		}
		r.handleEvent(placeholder, 0, key)
	}
	for _, key := range stale {
		delete(r.keys, key)
	}
	return nil
}

func (r *SpikeRule) GetMatchStr(match Match) string {
	end, ok := parseCanonical(match[r.tsField])
	if !ok {
		return ""
	}
	spikeCount, _ := match["spike_count"].(int)
	refCount, _ := match["reference_count"].(int)
	return fmt.Sprintf("An abnormal number (%d) of events occurred around %s.\nPreceding that time, there were only %d events within %s\n\n",
		spikeCount, prettyTS(end, r.useLocalTime), refCount, r.timeframe)
}
