package ruletype

import (
	"fmt"

	"github.com/drewolson/alertcore/fieldpath"
)

// compareRule is the shared AddData behavior for Blacklist/Whitelist: each
// event becomes a match iff compare(event) is true.
type compareRule struct {
	base
	compareKey string
	compare    func(fieldpath.Event) bool
}

func (r *compareRule) AddData(events []fieldpath.Event) error {
	for _, event := range events {
		if r.compare(event) {
			r.addMatch(event, nil)
		}
	}
	return nil
}

func (r *compareRule) GetMatchStr(Match) string {
	return fmt.Sprintf("Event matched against field %q\n\n", r.compareKey)
}

type (
	// BlacklistRule matches events whose compare_key value is in blacklist.
	BlacklistRule struct {
		compareRule
		blacklist []any
	}

	// WhitelistRule matches events whose compare_key value is absent from
	// whitelist. A null value matches unless ignore_null is set.
	WhitelistRule struct {
		compareRule
		whitelist  []any
		ignoreNull bool
	}
)

// NewBlacklistRule constructs a BlacklistRule. Required options:
// compare_key, blacklist.
func NewBlacklistRule(opts Options) (*BlacklistRule, error) {
	const name = "blacklist"

	compareKey, ok := opts.String("compare_key")
	if !ok {
		return nil, missingOption(name, "compare_key")
	}
	blacklist, ok := opts.AnySlice("blacklist")
	if !ok {
		return nil, missingOption(name, "blacklist")
	}

	r := &BlacklistRule{blacklist: blacklist}
	r.base = newBase(name, opts)
	r.compareKey = compareKey
	r.compare = r.matches
	return r, nil
}

func (r *BlacklistRule) matches(event fieldpath.Event) bool {
	value, _ := r.lookup(event, r.compareKey)
	h := fieldpath.Hashable(value)
	for _, b := range r.blacklist {
		if fieldpath.Hashable(b) == h {
			return true
		}
	}
	return false
}

// NewWhitelistRule constructs a WhitelistRule. Required options:
// compare_key, whitelist, ignore_null.
func NewWhitelistRule(opts Options) (*WhitelistRule, error) {
	const name = "whitelist"

	compareKey, ok := opts.String("compare_key")
	if !ok {
		return nil, missingOption(name, "compare_key")
	}
	whitelist, ok := opts.AnySlice("whitelist")
	if !ok {
		return nil, missingOption(name, "whitelist")
	}
	if !opts.Has("ignore_null") {
		return nil, missingOption(name, "ignore_null")
	}

	r := &WhitelistRule{whitelist: whitelist, ignoreNull: opts.Bool("ignore_null")}
	r.base = newBase(name, opts)
	r.compareKey = compareKey
	r.compare = r.matches
	return r, nil
}

func (r *WhitelistRule) matches(event fieldpath.Event) bool {
	value, ok := r.lookup(event, r.compareKey)
	if !ok || value == nil {
		return !r.ignoreNull
	}
	h := fieldpath.Hashable(value)
	for _, w := range r.whitelist {
		if fieldpath.Hashable(w) == h {
			return false
		}
	}
	return true
}
