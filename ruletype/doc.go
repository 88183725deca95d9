// Package ruletype implements the alerting engine's rule evaluation core:
// the shared Rule contract, and the seven concrete rule types (Blacklist,
// Whitelist, Change, Any, Frequency, Flatline, Spike).
//
// Every rule type is grounded on original_source/elastalert/ruletypes.py,
// translated from Python's dynamic, dict-keyed rule state into Go structs
// implementing the Rule interface - the "capability {add_data,
// add_count_data, add_terms_data, garbage_collect}" dispatch table the
// engine's specification calls for. Rules that do not support a given
// ingestion mode return an *UnsupportedOperationError rather than silently
// discarding the call.
//
// Rule state lives entirely in memory, scoped to one process: there is no
// persistence, and no coordination between instances. Each Rule is safe
// for use by exactly one goroutine at a time (see package window for the
// sliding-window primitive each time-based rule is built on).
package ruletype
