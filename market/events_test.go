package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkBars(start time.Time, step time.Duration, closes ...float64) []Bar {
	bars := make([]Bar, len(closes))
	for i, c := range closes {
		bars[i] = Bar{
			Timestamp: start.Add(time.Duration(i) * step),
			Open:      c,
			High:      c + 0.0005,
			Low:       c - 0.0005,
			Close:     c,
			Volume:    100,
		}
	}
	return bars
}

func TestBuildEventStreamOrdering(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	h1 := NewFrame("EURUSD", H1, mkBars(start, time.Hour, 1.10, 1.11, 1.12, 1.13))
	m15 := NewFrame("GBPUSD", M15, mkBars(start, 15*time.Minute, 1.25, 1.26, 1.27))

	events := BuildEventStream([]*FrameSet{
		{Symbol: "EURUSD", Entry: []*Frame{h1}},
		{Symbol: "GBPUSD", Entry: []*Frame{m15}},
	})

	// Each frame contributes len-1 events: row 0 has no previous bar.
	require.Len(t, events, 5)

	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].Timestamp.Before(events[i-1].Timestamp),
			"event %d out of order", i)
	}
	for _, ev := range events {
		assert.Greater(t, ev.Row, 0)
	}
}

func TestBuildEventStreamTieBreak(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	a := NewFrame("EURUSD", H1, mkBars(start, time.Hour, 1.10, 1.11))
	b := NewFrame("GBPUSD", H1, mkBars(start, time.Hour, 1.25, 1.26))

	// Both frames emit an event at the same timestamp; discovery order
	// of the input sets decides who goes first.
	events := BuildEventStream([]*FrameSet{
		{Symbol: "EURUSD", Entry: []*Frame{a}},
		{Symbol: "GBPUSD", Entry: []*Frame{b}},
	})
	require.Len(t, events, 2)
	assert.Equal(t, "EURUSD", events[0].Symbol)
	assert.Equal(t, "GBPUSD", events[1].Symbol)
	assert.Equal(t, events[0].Timestamp, events[1].Timestamp)
}

func TestParseEntryMode(t *testing.T) {
	t.Parallel()

	m, err := ParseEntryMode("H1_ONLY")
	require.NoError(t, err)
	assert.Equal(t, H1Only, m)

	m, err = ParseEntryMode("HYBRID")
	require.NoError(t, err)
	assert.Equal(t, Hybrid, m)

	_, err = ParseEntryMode("weekly")
	assert.Error(t, err)
}

func TestFrameSliceIsIndependent(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	f := NewFrame("EURUSD", H1, mkBars(start, time.Hour, 1.10, 1.11, 1.12, 1.13))

	s := f.Slice(start.Add(time.Hour), start.Add(2*time.Hour))
	require.Equal(t, 2, s.Len())
	assert.Equal(t, 1.11, s.At(0).Close)

	s.At(0).Close = 9.99
	assert.Equal(t, 1.11, f.At(1).Close, "slice mutation leaked into source")
}

func TestFrameSliceZeroEndIsUnbounded(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	f := NewFrame("EURUSD", H1, mkBars(start, time.Hour, 1.10, 1.11, 1.12))

	s := f.Slice(start.Add(time.Hour), time.Time{})
	assert.Equal(t, 2, s.Len())
}

func TestContextAtNeverLooksForward(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	ctx := NewFrame("EURUSD", H1, mkBars(start, time.Hour, 1.10, 1.11, 1.12))
	fs := &FrameSet{Symbol: "EURUSD", Context: ctx}

	// Before the first context bar there is nothing to look at.
	_, ok := fs.ContextAt(start.Add(-time.Minute))
	assert.False(t, ok)

	// Mid-hour lookups resolve to the bar already begun, not the next.
	bar, ok := fs.ContextAt(start.Add(90 * time.Minute))
	require.True(t, ok)
	assert.Equal(t, start.Add(time.Hour), bar.Timestamp)

	bar, ok = fs.ContextAt(start.Add(10 * time.Hour))
	require.True(t, ok)
	assert.Equal(t, start.Add(2*time.Hour), bar.Timestamp)
}
