package challenge

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/omegafx/propsim/backtest"
	"github.com/omegafx/propsim/filters"
	"github.com/omegafx/propsim/indicators"
	"github.com/omegafx/propsim/market"
	"github.com/omegafx/propsim/risk"
)

// defaultSweepStep is the seed spacing in events between windows.
const defaultSweepStep = 500

// Evaluator runs challenge windows over a fixed portfolio. The frame
// sets and tier map are shared read-only across windows; every window
// gets its own sliced frames and a fresh account state.
type Evaluator struct {
	Sets     []*market.FrameSet
	Contract Contract

	Firm     risk.FirmProfile
	Breakout backtest.BreakoutConfig
	Gate     filters.Gate
	Tiers    *filters.TierMap

	InitialMode      risk.Mode
	MaxOpenPositions int
}

// RunSingle simulates one challenge window starting at the given seed
// offset into the event stream.
func (e *Evaluator) RunSingle(events []market.BarEvent, seed int) (Outcome, error) {
	if err := e.Contract.Validate(); err != nil {
		return Outcome{}, err
	}
	if seed < 0 || seed >= len(events) {
		return Outcome{}, fmt.Errorf("seed %d out of range: %w", seed, ErrInsufficientData)
	}

	startTS := events[seed].Timestamp
	var end time.Time
	if e.Contract.MaxCalendarDays > 0 {
		end = startTS.AddDate(0, 0, e.Contract.MaxCalendarDays)
	}

	var sliced []*market.FrameSet
	for _, fs := range e.Sets {
		if s, ok := e.windowSet(fs, startTS, end); ok {
			sliced = append(sliced, s)
		}
	}
	if len(sliced) == 0 {
		return Outcome{}, fmt.Errorf("window at seed %d is empty: %w", seed, ErrInsufficientData)
	}

	eng := &backtest.Engine{
		Sets:             sliced,
		Breakout:         e.Breakout,
		Gate:             e.Gate,
		Tiers:            e.Tiers,
		Firm:             e.Firm,
		StartEquity:      e.Contract.StartEquity,
		InitialMode:      e.InitialMode,
		MaxOpenPositions: e.MaxOpenPositions,
	}
	result, err := eng.Run()
	if err != nil {
		return Outcome{}, fmt.Errorf("window at seed %d: %v: %w", seed, err, ErrInsufficientData)
	}

	return Evaluate(result, e.Contract, startTS, seed), nil
}

// windowSet slices one symbol's frames to the challenge window and
// recomputes their indicators, so breakout levels and the ATR
// volatility bands reflect only the bars the window can see. The
// second return is false when no entry frame keeps at least two bars.
func (e *Evaluator) windowSet(fs *market.FrameSet, startTS, end time.Time) (*market.FrameSet, bool) {
	s := fs.Slice(startTS, end)
	usable := false
	for _, f := range s.Entry {
		// The event merger needs a previous bar, so a single
		// leftover bar cannot contribute.
		if f.Len() >= 2 {
			usable = true
			break
		}
	}
	if !usable {
		return nil, false
	}

	lookback := e.Breakout.LookbackBars
	if lookback <= 0 {
		lookback = backtest.DefaultBreakoutConfig().LookbackBars
	}
	for _, f := range s.Entry {
		indicators.Annotate(f, lookback)
	}
	if s.Context != nil {
		s.Context = s.Context.Slice(startTS, end)
		indicators.AnnotateContext(s.Context, lookback)
	}
	return s, true
}

// Sweep runs windows at every step-th event offset, in parallel, and
// returns their outcomes in seed order. The sweep ends at the first
// window with insufficient data; any other error aborts it.
func (e *Evaluator) Sweep(step int) ([]Outcome, error) {
	if step <= 0 {
		step = defaultSweepStep
	}
	events := market.BuildEventStream(e.Sets)
	if len(events) == 0 {
		return nil, ErrInsufficientData
	}

	var seeds []int
	for s := 0; s < len(events); s += step {
		seeds = append(seeds, s)
	}

	outcomes := make([]Outcome, len(seeds))
	errs := make([]error, len(seeds))

	sem := make(chan struct{}, runtime.NumCPU())
	var wg sync.WaitGroup
	for i, seed := range seeds {
		wg.Add(1)
		go func(i, seed int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes[i], errs[i] = e.RunSingle(events, seed)
		}(i, seed)
	}
	wg.Wait()

	var out []Outcome
	for i := range seeds {
		if errs[i] != nil {
			if errors.Is(errs[i], ErrInsufficientData) {
				break
			}
			return out, errs[i]
		}
		out = append(out, outcomes[i])
	}

	log.WithFields(log.Fields{
		"windows": len(out),
		"step":    step,
	}).Debug("challenge sweep complete")

	return out, nil
}

// SweepSummary aggregates a sweep into headline rates.
type SweepSummary struct {
	Windows     int
	Passes      int
	PassRate    float64
	ByReason    map[FailureReason]int
	AvgDays     float64
	AvgTrades   float64
	WorstEquity float64
}

// Summarize rolls a list of outcomes into a SweepSummary.
func Summarize(outcomes []Outcome) SweepSummary {
	s := SweepSummary{
		Windows:  len(outcomes),
		ByReason: make(map[FailureReason]int),
	}
	if len(outcomes) == 0 {
		return s
	}
	days, trades := 0, 0
	s.WorstEquity = outcomes[0].MinEquity
	for _, o := range outcomes {
		if o.Passed {
			s.Passes++
		} else {
			s.ByReason[o.FailureReason]++
		}
		days += o.NumTradingDays
		trades += o.NumTrades
		if o.MinEquity < s.WorstEquity {
			s.WorstEquity = o.MinEquity
		}
	}
	s.PassRate = float64(s.Passes) / float64(len(outcomes))
	s.AvgDays = float64(days) / float64(len(outcomes))
	s.AvgTrades = float64(trades) / float64(len(outcomes))
	return s
}
