package market

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	log "github.com/sirupsen/logrus"
)

var requiredColumns = []string{"timestamp", "open", "high", "low", "close", "volume"}

// Frame is one symbol's bar series for a single timeframe, sorted by
// timestamp. Context frames additionally carry the symbol's ATR
// percentile thresholds used for volatility classification.
type Frame struct {
	Symbol    string
	Timeframe Timeframe
	Bars      []Bar

	// 33rd/66th percentile of the annotated ATR series. Only set on
	// context frames, see AnnotateContext.
	ATRLow      float64
	ATRHigh     float64
	HasATRBands bool
}

// NewFrame builds a frame from pre-constructed bars, sorting them by
// timestamp. Used by tests and synthetic data generators.
func NewFrame(symbol string, tf Timeframe, bars []Bar) *Frame {
	f := &Frame{Symbol: symbol, Timeframe: tf, Bars: bars}
	sort.SliceStable(f.Bars, func(i, j int) bool {
		return f.Bars[i].Timestamp.Before(f.Bars[j].Timestamp)
	})
	return f
}

// Len returns the number of bars in the frame.
func (f *Frame) Len() int { return len(f.Bars) }

// At returns the bar at index i.
func (f *Frame) At(i int) *Bar { return &f.Bars[i] }

type csvBar struct {
	Timestamp string `csv:"timestamp"`
	Open      string `csv:"open"`
	High      string `csv:"high"`
	Low       string `csv:"low"`
	Close     string `csv:"close"`
	Volume    string `csv:"volume"`
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	// Unix seconds as a last resort.
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unparsable timestamp %q", s)
}

// LoadFrameCSV reads an OHLCV CSV with columns
// {timestamp,open,high,low,close,volume} (case-insensitive, UTC).
// Unparsable rows are dropped with a warning; a missing column or an
// empty-after-clean file is an ErrDataValidation.
func LoadFrameCSV(path, symbol string, tf Timeframe) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrDataValidation, path, err)
	}
	defer f.Close()

	frame, err := ReadFrameCSV(f, symbol, tf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return frame, nil
}

// ReadFrameCSV is LoadFrameCSV over an arbitrary reader.
func ReadFrameCSV(r io.Reader, symbol string, tf Timeframe) (*Frame, error) {
	br := bufio.NewReader(r)
	header, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: read header: %v", ErrDataValidation, err)
	}
	lower := strings.ToLower(header)
	have := make(map[string]bool)
	for _, name := range strings.Split(strings.TrimRight(lower, "\r\n"), ",") {
		have[strings.TrimSpace(name)] = true
	}
	for _, col := range requiredColumns {
		if !have[col] {
			return nil, fmt.Errorf("%w: missing required column %q", ErrDataValidation, col)
		}
	}

	cr := csv.NewReader(io.MultiReader(strings.NewReader(lower), br))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var rows []*csvBar
	if err := gocsv.UnmarshalCSV(cr, &rows); err != nil {
		return nil, fmt.Errorf("%w: parse csv: %v", ErrDataValidation, err)
	}

	bars := make([]Bar, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		bar, err := row.toBar()
		if err != nil {
			dropped++
			continue
		}
		bars = append(bars, bar)
	}
	if dropped > 0 {
		log.WithFields(log.Fields{
			"symbol":  symbol,
			"dropped": dropped,
		}).Warn("dropped unparsable rows")
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no usable rows after cleaning", ErrDataValidation)
	}

	return NewFrame(symbol, tf, bars), nil
}

func (r *csvBar) toBar() (Bar, error) {
	ts, err := parseTimestamp(r.Timestamp)
	if err != nil {
		return Bar{}, err
	}
	vals := [5]float64{}
	for i, s := range []string{r.Open, r.High, r.Low, r.Close, r.Volume} {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return Bar{}, fmt.Errorf("non-numeric field %q", s)
		}
		vals[i] = v
	}
	return Bar{
		Timestamp: ts,
		Open:      vals[0],
		High:      vals[1],
		Low:       vals[2],
		Close:     vals[3],
		Volume:    vals[4],
	}, nil
}

// Slice returns a shallow copy of the frame restricted to bars with
// start <= timestamp <= end. A zero end means no upper bound. The
// returned frame owns an independent bar slice so callers can annotate
// it without touching the source.
func (f *Frame) Slice(start, end time.Time) *Frame {
	lo := sort.Search(len(f.Bars), func(i int) bool {
		return !f.Bars[i].Timestamp.Before(start)
	})
	hi := len(f.Bars)
	if !end.IsZero() {
		hi = sort.Search(len(f.Bars), func(i int) bool {
			return f.Bars[i].Timestamp.After(end)
		})
	}
	out := &Frame{
		Symbol:      f.Symbol,
		Timeframe:   f.Timeframe,
		ATRLow:      f.ATRLow,
		ATRHigh:     f.ATRHigh,
		HasATRBands: f.HasATRBands,
	}
	if lo < hi {
		out.Bars = append([]Bar(nil), f.Bars[lo:hi]...)
	}
	return out
}
