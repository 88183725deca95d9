package ruletype

import "time"

// Options is a rule configuration: option name to value. Rule file loading
// and validation of option *shape* beyond what each rule type requires is
// out of scope (an external collaborator's concern); Options only knows how
// to read back the handful of types a rule option realistically holds.
type Options map[string]any

// Has reports whether key is present, regardless of value.
func (o Options) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// String reads a string option.
func (o Options) String(key string) (string, bool) {
	v, ok := o[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Duration reads a time.Duration option, also accepting a plain int/int64 of
// nanoseconds (as a TOML/JSON-sourced config would supply).
func (o Options) Duration(key string) (time.Duration, bool) {
	v, ok := o[key]
	if !ok {
		return 0, false
	}
	switch d := v.(type) {
	case time.Duration:
		return d, true
	case int:
		return time.Duration(d), true
	case int64:
		return time.Duration(d), true
	}
	return 0, false
}

// Int reads an integer option, accepting the numeric kinds a decoded config
// document is likely to produce.
func (o Options) Int(key string) (int, bool) {
	v, ok := o[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

// Float reads a float64 option, accepting integer kinds too.
func (o Options) Float(key string) (float64, bool) {
	v, ok := o[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// Bool reads a boolean option, defaulting to false if absent or the wrong
// type.
func (o Options) Bool(key string) bool {
	v, ok := o[key]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// AnySlice reads a heterogeneous list option (blacklist/whitelist entries),
// accepting either []any (the shape produced by most config decoders) or
// []string (the shape a test or hand-built config is likely to use).
func (o Options) AnySlice(key string) ([]any, bool) {
	v, ok := o[key]
	if !ok {
		return nil, false
	}
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	}
	return nil, false
}
