package ruletype

import "github.com/drewolson/alertcore/fieldpath"

// AnyRule matches every event it's given - a pass-through, useful for
// alerting on the mere presence of matching search results.
type AnyRule struct {
	base
}

// NewAnyRule constructs an AnyRule. No required options.
func NewAnyRule(opts Options) (*AnyRule, error) {
	r := &AnyRule{}
	r.base = newBase("any", opts)
	return r, nil
}

func (r *AnyRule) AddData(events []fieldpath.Event) error {
	for _, event := range events {
		r.addMatch(event, nil)
	}
	return nil
}
