package ruletype

import (
	"testing"
	"time"

	"github.com/drewolson/alertcore/fieldpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpikeRule_S5_SpikeUp(t *testing.T) {
	r, err := NewSpikeRule(Options{
		"timeframe":    10 * time.Second,
		"spike_height": 2.0,
		"spike_type":   "up",
	})
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// Warm up at a steady 1/sec rate through t=0..19: this fills the
	// reference window with the events that age out of current as it
	// slides (t=0..9) and reaches the 2*timeframe warmup boundary, all
	// without the two windows ever drifting from a 1x ratio.
	for i := 0; i < 20; i++ {
		event := fieldpath.Event{"@timestamp": base.Add(time.Duration(i) * time.Second)}
		require.NoError(t, r.AddData([]fieldpath.Event{event}))
	}
	assert.Empty(t, r.Matches(), "still inside the 2*timeframe warmup period")

	// Past the warmup boundary, cluster many events inside a single
	// timeframe (all within 200ms of t=20s) instead of spacing them a
	// second apart - clustered events accumulate in the current window
	// rather than aging out of it, driving cur well past ref*spike_height.
	// One event per second, by contrast, keeps the two windows at parity
	// forever and never spikes.
	for i := 0; i < 20; i++ {
		event := fieldpath.Event{"@timestamp": base.Add(20*time.Second + time.Duration(i)*10*time.Millisecond)}
		require.NoError(t, r.AddData([]fieldpath.Event{event}))
	}

	matches := r.Matches()
	require.NotEmpty(t, matches)
	spikeCount, _ := matches[0]["spike_count"].(int)
	refCount, _ := matches[0]["reference_count"].(int)
	assert.GreaterOrEqual(t, float64(spikeCount), float64(refCount)*2.0)
}

func TestSpikeRule_WarmupSuppressesEarlyMatch(t *testing.T) {
	r, err := NewSpikeRule(Options{
		"timeframe":    10 * time.Second,
		"spike_height": 2.0,
		"spike_type":   "up",
	})
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	// A burst immediately, well before 2*timeframe has elapsed since the
	// first event seen by this key.
	for i := 0; i < 20; i++ {
		event := fieldpath.Event{"@timestamp": base.Add(time.Duration(i) * time.Millisecond)}
		require.NoError(t, r.AddData([]fieldpath.Event{event}))
	}
	assert.Empty(t, r.Matches())
}

func TestSpikeRule_SpikeDown(t *testing.T) {
	r, err := NewSpikeRule(Options{
		"timeframe":    10 * time.Second,
		"spike_height": 2.0,
		"spike_type":   "down",
	})
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		event := fieldpath.Event{"@timestamp": base.Add(time.Duration(i) * time.Second)}
		require.NoError(t, r.AddData([]fieldpath.Event{event}))
	}
	require.NoError(t, r.AddData([]fieldpath.Event{{"@timestamp": base.Add(20 * time.Second)}}))

	// The event at t=20 is past the warmup boundary and leaves a current
	// count of 1 against a reference of 10, which already fires the
	// down-spike. The garbage collection ticks that follow fall inside the
	// warmup restarted by that match.
	for i := 21; i < 35; i++ {
		require.NoError(t, r.GarbageCollect(base.Add(time.Duration(i)*time.Second)))
	}

	matches := r.Matches()
	require.NotEmpty(t, matches)
}

func TestSpikeRule_ThresholdCurRejectsSparseCurrent(t *testing.T) {
	r, err := NewSpikeRule(Options{
		"timeframe":     10 * time.Second,
		"spike_height":  1.0,
		"spike_type":    "up",
		"threshold_cur": 100,
	})
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		event := fieldpath.Event{"@timestamp": base.Add(time.Duration(i) * time.Second)}
		require.NoError(t, r.AddData([]fieldpath.Event{event}))
	}
	for i := 10; i < 30; i++ {
		event := fieldpath.Event{"@timestamp": base.Add(time.Duration(i) * time.Second)}
		require.NoError(t, r.AddData([]fieldpath.Event{event}))
	}
	assert.Empty(t, r.Matches(), "threshold_cur of 100 was never reached")
}

func TestSpikeRule_AlertOnNewDataBypassesWarmupOncePeerHasFilled(t *testing.T) {
	r, err := NewSpikeRule(Options{
		"timeframe":         10 * time.Second,
		"spike_height":      2.0,
		"spike_type":        "up",
		"query_key":         "host",
		"alert_on_new_data": true,
	})
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		event := fieldpath.Event{"@timestamp": base.Add(time.Duration(i) * time.Second), "host": "A"}
		require.NoError(t, r.AddData([]fieldpath.Event{event}))
	}
	require.True(t, r.refWindowFilledOnce)

	// A brand new key, "B", arrives after some other key's reference window
	// has already filled once; alert_on_new_data + query_key means its own
	// warmup is bypassed - this is the documented Open Question decision:
	// refWindowFilledOnce is rule-global, not per-key.
	for i := 0; i < 20; i++ {
		event := fieldpath.Event{"@timestamp": base.Add(time.Duration(25+i) * time.Second), "host": "B"}
		require.NoError(t, r.AddData([]fieldpath.Event{event}))
	}

	found := false
	for _, m := range r.Matches() {
		if m["host"] == "B" {
			found = true
		}
	}
	assert.True(t, found, "key B should have been allowed to match despite its own warmup not elapsing")
}

func TestSpikeRule_InvalidSpikeType(t *testing.T) {
	_, err := NewSpikeRule(Options{
		"timeframe":    10 * time.Second,
		"spike_height": 2.0,
		"spike_type":   "sideways",
	})
	require.Error(t, err)
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}
