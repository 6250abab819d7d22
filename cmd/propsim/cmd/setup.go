package cmd

import (
	"fmt"

	"github.com/omegafx/propsim/backtest"
	"github.com/omegafx/propsim/challenge"
	"github.com/omegafx/propsim/config"
	"github.com/omegafx/propsim/filters"
	"github.com/omegafx/propsim/journal"
	"github.com/omegafx/propsim/market"
)

// loadConfig reads the configured file, or the defaults when no file
// was given.
func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return config.Default(), nil
	}
	return config.LoadFromFile(cfgFile)
}

// loadPortfolio loads and annotates every symbol's frames.
func loadPortfolio(cfg *config.Config) ([]*market.FrameSet, error) {
	mode, err := cfg.EntryMode()
	if err != nil {
		return nil, err
	}
	return backtest.LoadFrameSets(cfg.Data.Symbols, mode, cfg.Breakout.LookbackBars)
}

// newEngine assembles a backtest engine from the configuration.
func newEngine(cfg *config.Config, sets []*market.FrameSet) (*backtest.Engine, error) {
	mode, err := cfg.InitialMode()
	if err != nil {
		return nil, err
	}
	return &backtest.Engine{
		Sets:             sets,
		Breakout:         cfg.Breakout,
		Gate:             cfg.Filters.Gate(),
		Tiers:            newTierMap(cfg),
		Firm:             cfg.Firm,
		StartEquity:      cfg.Account.StartEquity,
		InitialMode:      mode,
		MaxOpenPositions: cfg.Data.MaxOpenPositions,
	}, nil
}

// newEvaluator assembles a challenge evaluator from the configuration.
func newEvaluator(cfg *config.Config, sets []*market.FrameSet) (*challenge.Evaluator, error) {
	mode, err := cfg.InitialMode()
	if err != nil {
		return nil, err
	}
	return &challenge.Evaluator{
		Sets:             sets,
		Contract:         cfg.Challenge.Contract,
		Firm:             cfg.Firm,
		Breakout:         cfg.Breakout,
		Gate:             cfg.Filters.Gate(),
		Tiers:            newTierMap(cfg),
		InitialMode:      mode,
		MaxOpenPositions: cfg.Data.MaxOpenPositions,
	}, nil
}

func newTierMap(cfg *config.Config) *filters.TierMap {
	tm := filters.NewTierMap(cfg.TierMap.EdgePath, cfg.TierMap.OverridePath)
	tm.Enabled = cfg.TierMap.Enabled
	return tm
}

// openJournal builds the configured journal backend, or nil for none.
func openJournal(cfg *config.Config) (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "", "none":
		return nil, nil
	case "csv":
		return journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.EquityFile, cfg.Journal.DailyFile), nil
	case "sqlite":
		return journal.NewSQLite(cfg.Journal.DBPath)
	}
	return nil, fmt.Errorf("unknown journal type %q", cfg.Journal.Type)
}
