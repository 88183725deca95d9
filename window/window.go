package window

import (
	"iter"
	"time"

	"github.com/drewolson/alertcore/fieldpath"
)

const initialRingSize = 8

type (
	// Entry is one chronological observation: an event together with the
	// count it contributes (1, for raw events; an aggregated doc_count, for
	// terms/count data).
	Entry struct {
		Event fieldpath.Event
		Count int
	}

	// TimestampFunc projects the moment an Entry's Event occurred at. It is
	// configurable per Window so a rule can key off whichever field it was
	// told to (timestamp_field, defaulting to "@timestamp").
	TimestampFunc func(fieldpath.Event) time.Time

	// OnRemovedFunc is invoked, in chronological order, once per entry
	// evicted by Append. It may be nil.
	OnRemovedFunc func(Entry)

	// Window is a chronologically ordered, duration-bounded container of
	// Entry values. See package doc for the storage strategy.
	//
	// A Window must be created with New; the zero value is not usable.
	Window struct {
		timeframe time.Duration
		ts        TimestampFunc
		onRemoved OnRemovedFunc
		buf       *ring[Entry]
	}
)

// New creates a Window that evicts entries once its duration would reach or
// exceed timeframe. onRemoved, if non-nil, is called once per evicted entry.
func New(timeframe time.Duration, ts TimestampFunc, onRemoved OnRemovedFunc) *Window {
	if ts == nil {
		panic(`window: nil TimestampFunc`)
	}
	return &Window{
		timeframe: timeframe,
		ts:        ts,
		onRemoved: onRemoved,
		buf:       newRing[Entry](initialRingSize),
	}
}

// Append inserts e in chronological order - at the tail if its timestamp is
// not earlier than the current newest entry, otherwise at the position a
// binary search locates - then evicts from the head, invoking onRemoved,
// until the window's duration is strictly less than timeframe.
func (w *Window) Append(e Entry) {
	ts := w.ts(e.Event).UnixNano()

	n := w.buf.Len()
	if n == 0 || ts >= w.buf.Get(n-1).ts {
		w.buf.Insert(n, ringEntry[Entry]{ts: ts, value: e})
	} else {
		w.buf.Insert(w.buf.Search(ts), ringEntry[Entry]{ts: ts, value: e})
	}

	for w.durationNanos() >= int64(w.timeframe) {
		oldest := w.buf.Get(0)
		w.buf.RemoveBefore(1)
		if w.onRemoved != nil {
			w.onRemoved(oldest.value)
		}
	}
}

// Count returns the sum of Count across all entries currently held.
func (w *Window) Count() int {
	total := 0
	for i, n := 0, w.buf.Len(); i < n; i++ {
		total += w.buf.Get(i).value.Count
	}
	return total
}

// Duration returns ts(newest) - ts(oldest), or zero for an empty window.
func (w *Window) Duration() time.Duration {
	return time.Duration(w.durationNanos())
}

func (w *Window) durationNanos() int64 {
	n := w.buf.Len()
	if n == 0 {
		return 0
	}
	return w.buf.Get(n-1).ts - w.buf.Get(0).ts
}

// Len returns the number of entries currently held.
func (w *Window) Len() int {
	return w.buf.Len()
}

// Newest returns the chronologically last entry, and false if the window is
// empty.
func (w *Window) Newest() (Entry, bool) {
	n := w.buf.Len()
	if n == 0 {
		return Entry{}, false
	}
	return w.buf.Get(n - 1).value, true
}

// All iterates entries in chronological (non-decreasing timestamp) order,
// regardless of insertion order.
func (w *Window) All() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for i, n := 0, w.buf.Len(); i < n; i++ {
			if !yield(w.buf.Get(i).value) {
				return
			}
		}
	}
}

// Reset discards every held entry without invoking onRemoved. Rules use this
// to force a fresh accumulation after a match fires.
func (w *Window) Reset() {
	w.buf = newRing[Entry](initialRingSize)
}
