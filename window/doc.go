// Package window implements Window, a chronologically ordered container of
// (event, count) entries bounded to a configured timeframe.
//
// It backs every time-based rule (Frequency, Flatline, Spike): each rule
// keeps one Window per partition key, appends observations to it, and relies
// on Window to evict stale entries and size itself correctly as time passes.
//
// The storage is a generic ring buffer adapted from
// github.com/joeycumines/go-catrate's internal ringBuffer (mask/bounds
// arithmetic, binary-search insertion position, doubling growth); unlike
// catrate's buffer, which stores a bare ordered element, Window's ring stores
// an explicit (timestamp, payload) pair, because the payload (an event plus
// its count) has no natural ordering of its own — only its projected
// timestamp does.
package window
