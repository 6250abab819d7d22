package backtest

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/omegafx/propsim/indicators"
	"github.com/omegafx/propsim/market"
)

// SymbolData names the CSV files backing one symbol. The H1 file is
// always required; M15 only for the modes that enter on M15 bars.
type SymbolData struct {
	Symbol  string `yaml:"symbol" json:"symbol"`
	M15Path string `yaml:"m15_csv" json:"m15_csv"`
	H1Path  string `yaml:"h1_csv" json:"h1_csv"`
}

// LoadFrameSets loads and annotates every symbol's frames for the
// given entry mode. A symbol whose data fails to load is skipped with
// a warning; the run proceeds on the survivors. Only an empty
// portfolio is an error.
func LoadFrameSets(sources []SymbolData, mode market.EntryMode, breakoutLookback int) ([]*market.FrameSet, error) {
	var sets []*market.FrameSet
	for _, src := range sources {
		fs, err := loadSymbol(src, mode, breakoutLookback)
		if err != nil {
			log.WithError(err).WithField("symbol", src.Symbol).Warn("skipping symbol")
			continue
		}
		sets = append(sets, fs)
	}
	if len(sets) == 0 {
		return nil, fmt.Errorf("no usable symbol data: %w", market.ErrDataValidation)
	}
	return sets, nil
}

func loadSymbol(src SymbolData, mode market.EntryMode, breakoutLookback int) (*market.FrameSet, error) {
	h1, err := market.LoadFrameCSV(src.H1Path, src.Symbol, market.H1)
	if err != nil {
		return nil, err
	}
	indicators.AnnotateContext(h1, breakoutLookback)

	fs := &market.FrameSet{Symbol: src.Symbol, Context: h1}
	switch mode {
	case market.H1Only:
		fs.Entry = []*market.Frame{h1}
		return fs, nil
	}

	m15, err := market.LoadFrameCSV(src.M15Path, src.Symbol, market.M15)
	if err != nil {
		return nil, err
	}
	indicators.Annotate(m15, breakoutLookback)

	fs.Entry = []*market.Frame{m15}
	if mode == market.Hybrid {
		fs.Entry = append(fs.Entry, h1)
	}
	return fs, nil
}
