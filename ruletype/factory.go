package ruletype

import "fmt"

// New constructs a Rule from its configured type name and options. kind is
// one of "blacklist", "whitelist", "change", "any", "frequency",
// "flatline", "spike". Unknown kinds are a configuration error, same as a
// missing required option.
func New(kind string, opts Options) (Rule, error) {
	switch kind {
	case "blacklist":
		return NewBlacklistRule(opts)
	case "whitelist":
		return NewWhitelistRule(opts)
	case "change":
		return NewChangeRule(opts)
	case "any":
		return NewAnyRule(opts)
	case "frequency":
		return NewFrequencyRule(opts)
	case "flatline":
		return NewFlatlineRule(opts)
	case "spike":
		return NewSpikeRule(opts)
	default:
		return nil, &ConfigError{Rule: kind, Msg: fmt.Sprintf("unknown rule type %q", kind)}
	}
}
