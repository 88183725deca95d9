// Package harness wires the ruletype core into a runnable driver: a batched
// ingestion loop over a channel (standing in for the out-of-scope
// search-backend query loop), a ticked garbage-collection schedule, rate
// limited logging, and outgoing match batching. It is a reference consumer
// of package ruletype, not part of the rule evaluation core itself.
package harness
