package market

import (
	"fmt"
	"sort"
	"time"
)

// EntryMode selects which timeframes generate tradeable signals.
type EntryMode int

const (
	H1Only EntryMode = iota
	M15WithH1Ctx
	Hybrid
)

func (m EntryMode) String() string {
	switch m {
	case H1Only:
		return "H1_ONLY"
	case M15WithH1Ctx:
		return "M15_WITH_H1_CTX"
	case Hybrid:
		return "HYBRID"
	}
	return "unknown"
}

// ParseEntryMode maps the config-file spelling to an EntryMode.
func ParseEntryMode(s string) (EntryMode, error) {
	switch s {
	case "H1_ONLY", "":
		return H1Only, nil
	case "M15_WITH_H1_CTX":
		return M15WithH1Ctx, nil
	case "HYBRID":
		return Hybrid, nil
	}
	return 0, fmt.Errorf("invalid entry mode %q", s)
}

// BarEvent points at one row of one symbol's entry frame. The merged
// event sequence is non-decreasing in timestamp; ties keep the
// symbol-then-timeframe discovery order of the input sets.
type BarEvent struct {
	Timestamp time.Time
	Symbol    string
	Timeframe Timeframe
	Row       int
}

// BuildEventStream merges every entry frame of every symbol into one
// chronological event list. The first row of each frame is excluded:
// signal evaluation always needs a previous row.
func BuildEventStream(sets []*FrameSet) []BarEvent {
	var events []BarEvent
	for _, fs := range sets {
		for _, f := range fs.Entry {
			for row := 1; row < len(f.Bars); row++ {
				events = append(events, BarEvent{
					Timestamp: f.Bars[row].Timestamp,
					Symbol:    fs.Symbol,
					Timeframe: f.Timeframe,
					Row:       row,
				})
			}
		}
	}

	// Stable: equal timestamps keep discovery order.
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	return events
}
