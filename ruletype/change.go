package ruletype

import (
	"time"

	"github.com/drewolson/alertcore/fieldpath"
)

// ChangeRule matches when the value of compare_key, for a given query_key,
// differs from the last value observed for that key. If timeframe is
// configured, a change only counts when it occurs within timeframe of the
// previous observation for that key.
type ChangeRule struct {
	base
	queryKey     string
	compareKey   string
	ignoreNull   bool
	timeframe    time.Duration
	hasTimeframe bool

	lastValue map[any]any
	lastTime  map[any]time.Time
	// changeMap remembers only the most recent (old, new) pair per key - a
	// known coarseness: if a key changes twice before the host drains
	// matches, the earlier old_value is overwritten.
	changeMap map[any][2]any
}

// NewChangeRule constructs a ChangeRule. Required options: query_key,
// compare_key, ignore_null.
func NewChangeRule(opts Options) (*ChangeRule, error) {
	const name = "change"

	queryKey, ok := opts.String("query_key")
	if !ok {
		return nil, missingOption(name, "query_key")
	}
	compareKey, ok := opts.String("compare_key")
	if !ok {
		return nil, missingOption(name, "compare_key")
	}
	if !opts.Has("ignore_null") {
		return nil, missingOption(name, "ignore_null")
	}

	r := &ChangeRule{
		queryKey:   queryKey,
		compareKey: compareKey,
		ignoreNull: opts.Bool("ignore_null"),
		lastValue:  map[any]any{},
		lastTime:   map[any]time.Time{},
		changeMap:  map[any][2]any{},
	}
	r.base = newBase(name, opts)
	if tf, ok := opts.Duration("timeframe"); ok {
		r.timeframe = tf
		r.hasTimeframe = true
	}
	return r, nil
}

func (r *ChangeRule) AddData(events []fieldpath.Event) error {
	for _, event := range events {
		r.process(event)
	}
	return nil
}

func (r *ChangeRule) process(event fieldpath.Event) {
	rawKey, _ := r.lookup(event, r.queryKey)
	key := fieldpath.Hashable(rawKey)

	value, _ := r.lookup(event, r.compareKey)
	if isFalsy(value) && r.ignoreNull {
		return
	}

	changed := false
	if prior, hasPrior := r.lastValue[key]; hasPrior {
		changed = fieldpath.Hashable(prior) != fieldpath.Hashable(value)
		if changed {
			r.changeMap[key] = [2]any{prior, value}

			if r.hasTimeframe {
				if lastTime, ok := r.lastTime[key]; ok {
					changed = r.timeOf(event, r.tsField).Sub(lastTime) <= r.timeframe
				}
			}
		}
	}

	r.lastValue[key] = value
	if r.hasTimeframe {
		r.lastTime[key] = r.timeOf(event, r.tsField)
	}

	if changed {
		r.addMatch(event, r.enrich(key))
	}
}

func (r *ChangeRule) enrich(key any) func(fieldpath.Event) fieldpath.Event {
	return func(event fieldpath.Event) fieldpath.Event {
		if change, ok := r.changeMap[key]; ok {
			event["old_value"] = change[0]
			event["new_value"] = change[1]
		}
		return event
	}
}
