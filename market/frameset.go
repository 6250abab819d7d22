package market

import (
	"sort"
	"time"
)

// FrameSet bundles one symbol's entry-timeframe frames with its
// designated context frame. Entry frames keep their discovery order;
// the event merger uses that order to break timestamp ties.
type FrameSet struct {
	Symbol  string
	Entry   []*Frame
	Context *Frame
}

// EntryFrame returns the entry frame for the given timeframe, or nil.
func (fs *FrameSet) EntryFrame(tf Timeframe) *Frame {
	for _, f := range fs.Entry {
		if f.Timeframe == tf {
			return f
		}
	}
	return nil
}

// ContextAt returns the last context bar at or before ts. Lookup is
// strictly backward so lower-timeframe entries never see future
// higher-timeframe data.
func (fs *FrameSet) ContextAt(ts time.Time) (*Bar, bool) {
	if fs.Context == nil || len(fs.Context.Bars) == 0 {
		return nil, false
	}
	bars := fs.Context.Bars
	// First bar strictly after ts; the one before it is our answer.
	idx := sort.Search(len(bars), func(i int) bool {
		return bars[i].Timestamp.After(ts)
	})
	if idx == 0 {
		return nil, false
	}
	return &bars[idx-1], true
}

// Slice returns a copy of the frame set restricted to
// start <= timestamp <= end, with independently owned bar slices.
func (fs *FrameSet) Slice(start, end time.Time) *FrameSet {
	out := &FrameSet{Symbol: fs.Symbol}
	for _, f := range fs.Entry {
		out.Entry = append(out.Entry, f.Slice(start, end))
	}
	if fs.Context != nil {
		// Keep earlier context bars: backward lookup may legitimately
		// reach before the window start.
		out.Context = fs.Context.Slice(time.Time{}, end)
	}
	return out
}
