package ruletype

import "fmt"

type (
	// ConfigError reports a missing required option, or a forbidden option
	// combination, discovered while constructing a rule. It is fatal to
	// that rule - the caller should not retry construction with the same
	// options. AddTermsData on a Frequency or Spike rule built without
	// query_key also returns a ConfigError, at call time.
	ConfigError struct {
		Rule string
		Msg  string
	}

	// UnsupportedOperationError reports that a rule was called via an
	// ingestion method it does not implement (e.g. AddCountData on an
	// AnyRule). It is the driver's responsibility to route data
	// to the right method; this error signals a routing mistake, not a
	// data problem.
	UnsupportedOperationError struct {
		Rule string
		Op   string
	}

	// ShapeError reports that the data passed to an ingestion method had
	// the wrong shape, e.g. add_count_data given more than one entry.
	ShapeError struct {
		Rule string
		Msg  string
	}
)

func (e *ConfigError) Error() string {
	return fmt.Sprintf("ruletype: %s: %s", e.Rule, e.Msg)
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("ruletype: %s: %s not supported", e.Rule, e.Op)
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("ruletype: %s: %s", e.Rule, e.Msg)
}

func missingOption(rule, opt string) error {
	return &ConfigError{Rule: rule, Msg: fmt.Sprintf("missing required option %q", opt)}
}

func forbiddenOption(rule, opt string) error {
	return &ConfigError{Rule: rule, Msg: fmt.Sprintf("option %q is not permitted", opt)}
}
