package ruletype

import (
	"testing"
	"time"

	"github.com/drewolson/alertcore/fieldpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrequencyRule_S3(t *testing.T) {
	r, err := NewFrequencyRule(Options{
		"num_events": 3,
		"timeframe":  10 * time.Second,
	})
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		event := fieldpath.Event{"@timestamp": base.Add(time.Duration(i) * time.Second)}
		require.NoError(t, r.AddData([]fieldpath.Event{event}))
	}

	// Threshold of 3 reached exactly once: the window is dropped as soon as
	// it hits num_events, so events 3 and 4 only refill it to a count of 2.
	matches := r.Matches()
	require.Len(t, matches, 1)
}

func TestFrequencyRule_RefillsAfterMatch(t *testing.T) {
	r, err := NewFrequencyRule(Options{
		"num_events": 2,
		"timeframe":  time.Minute,
	})
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		event := fieldpath.Event{"@timestamp": base.Add(time.Duration(i) * time.Second)}
		require.NoError(t, r.AddData([]fieldpath.Event{event}))
	}
	assert.Len(t, r.Matches(), 2)
}

func TestFrequencyRule_PartitionedByQueryKey(t *testing.T) {
	r, err := NewFrequencyRule(Options{
		"num_events": 2,
		"timeframe":  time.Minute,
		"query_key":  "host",
	})
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []fieldpath.Event{
		{"@timestamp": base, "host": "A"},
		{"@timestamp": base.Add(time.Second), "host": "B"},
		{"@timestamp": base.Add(2 * time.Second), "host": "B"},
	}
	require.NoError(t, r.AddData(events))

	// Host A only saw one event, host B saw two and matched.
	matches := r.Matches()
	require.Len(t, matches, 1)
	assert.Equal(t, "B", matches[0]["host"])
}

func TestFrequencyRule_GarbageCollectDropsStaleKeys(t *testing.T) {
	r, err := NewFrequencyRule(Options{
		"num_events": 5,
		"timeframe":  10 * time.Second,
	})
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, r.AddData([]fieldpath.Event{{"@timestamp": base}}))
	require.Len(t, r.occurrences, 1)

	require.NoError(t, r.GarbageCollect(base.Add(time.Hour)))
	assert.Empty(t, r.occurrences)
}

func TestFrequencyRule_MissingRequiredOptions(t *testing.T) {
	_, err := NewFrequencyRule(Options{"num_events": 3})
	require.Error(t, err)
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestFrequencyRule_AddTermsDataRequiresQueryKey(t *testing.T) {
	r, err := NewFrequencyRule(Options{"num_events": 2, "timeframe": time.Minute})
	require.NoError(t, err)

	err = r.AddTermsData(map[time.Time][]TermBucket{
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC): {{Key: "A", DocCount: 1}},
	})
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}
