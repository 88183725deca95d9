package ruletype

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DispatchesByKind(t *testing.T) {
	cases := []struct {
		kind string
		opts Options
		want any
	}{
		{"blacklist", Options{"compare_key": "k", "blacklist": []any{"x"}}, &BlacklistRule{}},
		{"whitelist", Options{"compare_key": "k", "whitelist": []any{"x"}, "ignore_null": false}, &WhitelistRule{}},
		{"change", Options{"query_key": "k", "compare_key": "v", "ignore_null": false}, &ChangeRule{}},
		{"any", Options{}, &AnyRule{}},
		{"frequency", Options{"num_events": 1, "timeframe": time.Second}, &FrequencyRule{}},
		{"flatline", Options{"threshold": 1, "timeframe": time.Second}, &FlatlineRule{}},
		{"spike", Options{"timeframe": time.Second, "spike_height": 2.0, "spike_type": "up"}, &SpikeRule{}},
	}

	for _, tc := range cases {
		t.Run(tc.kind, func(t *testing.T) {
			r, err := New(tc.kind, tc.opts)
			require.NoError(t, err)
			assert.IsType(t, tc.want, r)
		})
	}
}

func TestNew_UnknownKindIsConfigError(t *testing.T) {
	_, err := New("nonexistent", Options{})
	require.Error(t, err)
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}
