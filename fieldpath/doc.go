// Package fieldpath implements dotted-path lookups against event attribute
// maps, and the supporting conversions (hashable keys, canonical timestamp
// strings) the rule engine needs from its event shape.
//
// It exists to give the rule evaluation core a concrete collaborator for the
// "field-path lookup utility" and "timestamp formatting helpers" named, but
// deliberately left unspecified, by the engine's specification. Callers that
// already have their own lookup (e.g. backed by a real search client) can
// ignore this package and supply their own fieldpath.LookupFunc instead.
package fieldpath
