// Package config loads and validates the simulator configuration from
// YAML or JSON files, with .env overrides for the firm limits.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/omegafx/propsim/backtest"
	"github.com/omegafx/propsim/challenge"
	"github.com/omegafx/propsim/filters"
	"github.com/omegafx/propsim/market"
	"github.com/omegafx/propsim/risk"
)

// ErrConfiguration marks every validation failure so callers can
// distinguish bad config from bad data.
var ErrConfiguration = errors.New("configuration")

// Config represents the complete simulator configuration.
type Config struct {
	Account   AccountConfig           `json:"account" yaml:"account"`
	Data      DataConfig              `json:"data" yaml:"data"`
	Strategy  StrategyConfig          `json:"strategy" yaml:"strategy"`
	Breakout  backtest.BreakoutConfig `json:"breakout" yaml:"breakout"`
	Filters   FilterConfig            `json:"filters" yaml:"filters"`
	TierMap   TierMapConfig           `json:"tier_map" yaml:"tier_map"`
	Firm      risk.FirmProfile        `json:"firm" yaml:"firm"`
	Challenge ChallengeConfig         `json:"challenge" yaml:"challenge"`
	Journal   JournalConfig           `json:"journal" yaml:"journal"`
}

// AccountConfig contains account initialization parameters.
type AccountConfig struct {
	Currency    string  `json:"currency" yaml:"currency"`
	StartEquity float64 `json:"start_equity" yaml:"start_equity"`
	InitialMode string  `json:"initial_mode" yaml:"initial_mode"`
}

// DataConfig names the portfolio CSVs and the entry mode.
type DataConfig struct {
	Symbols          []backtest.SymbolData `json:"symbols" yaml:"symbols"`
	EntryMode        string                `json:"entry_mode" yaml:"entry_mode"`
	MaxOpenPositions int                   `json:"max_open_positions" yaml:"max_open_positions"`
}

// StrategyConfig selects the signal source.
type StrategyConfig struct {
	Name string `json:"name" yaml:"name"`
}

// FilterConfig switches the veto filters individually.
type FilterConfig struct {
	Session         *bool `json:"session,omitempty" yaml:"session,omitempty"`
	Trend           *bool `json:"trend,omitempty" yaml:"trend,omitempty"`
	LowVolatility   *bool `json:"low_volatility,omitempty" yaml:"low_volatility,omitempty"`
	HighVolSideways *bool `json:"high_vol_sideways,omitempty" yaml:"high_vol_sideways,omitempty"`
}

// Gate builds the filter gate: every filter defaults on, and each can
// be switched off individually.
func (f FilterConfig) Gate() filters.Gate {
	g := filters.DefaultGate()
	if f.Session != nil {
		g.SessionFilter = *f.Session
	}
	if f.Trend != nil {
		g.TrendFilter = *f.Trend
	}
	if f.LowVolatility != nil {
		g.LowVolFilter = *f.LowVolatility
	}
	if f.HighVolSideways != nil {
		g.HighVolSidewaysFilter = *f.HighVolSideways
	}
	return g
}

// TierMapConfig points at the edge and override CSVs.
type TierMapConfig struct {
	Enabled      bool   `json:"enabled" yaml:"enabled"`
	EdgePath     string `json:"edge_path,omitempty" yaml:"edge_path,omitempty"`
	OverridePath string `json:"override_path,omitempty" yaml:"override_path,omitempty"`
}

// ChallengeConfig wraps the contract plus the sweep spacing.
type ChallengeConfig struct {
	Contract  challenge.Contract `json:"contract" yaml:"contract"`
	SweepStep int                `json:"sweep_step" yaml:"sweep_step"`
}

// JournalConfig contains journaling parameters.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv" or "sqlite"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DailyFile  string `json:"daily_file,omitempty" yaml:"daily_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoadFromFile loads configuration from a file, trying YAML first and
// falling back to JSON. A .env file next to the process, if present,
// overrides the firm limits.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", jsonErr)
		}
	}

	if err := godotenv.Load(); err == nil {
		log.Debug("loaded .env overrides")
	}
	cfg.Firm.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveToFile writes the configuration as YAML or JSON based on the
// file extension.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// EntryMode parses the configured entry mode.
func (c *Config) EntryMode() (market.EntryMode, error) {
	return market.ParseEntryMode(strings.ToUpper(strings.TrimSpace(c.Data.EntryMode)))
}

// InitialMode parses the configured starting risk mode.
func (c *Config) InitialMode() (risk.Mode, error) {
	switch strings.ToLower(strings.TrimSpace(c.Account.InitialMode)) {
	case "", "conservative":
		return risk.Conservative, nil
	case "ultra_conservative":
		return risk.UltraConservative, nil
	case "ultra_ultra_conservative":
		return risk.UltraUltraConservative, nil
	}
	return 0, fmt.Errorf("unknown initial mode %q: %w", c.Account.InitialMode, ErrConfiguration)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Account.Currency == "" {
		return fmt.Errorf("account.currency is required: %w", ErrConfiguration)
	}
	if c.Account.StartEquity <= 0 {
		return fmt.Errorf("account.start_equity must be positive: %w", ErrConfiguration)
	}
	if _, err := c.InitialMode(); err != nil {
		return err
	}
	if len(c.Data.Symbols) == 0 {
		return fmt.Errorf("data.symbols is required: %w", ErrConfiguration)
	}
	mode, err := c.EntryMode()
	if err != nil {
		return fmt.Errorf("data.entry_mode: %v: %w", err, ErrConfiguration)
	}
	for _, s := range c.Data.Symbols {
		if s.Symbol == "" {
			return fmt.Errorf("data.symbols entries need a symbol: %w", ErrConfiguration)
		}
		if s.H1Path == "" {
			return fmt.Errorf("symbol %s: h1_csv is required: %w", s.Symbol, ErrConfiguration)
		}
		if mode != market.H1Only && s.M15Path == "" {
			return fmt.Errorf("symbol %s: m15_csv is required for entry mode %s: %w",
				s.Symbol, mode, ErrConfiguration)
		}
	}
	if c.Breakout.LookbackBars <= 0 {
		return fmt.Errorf("breakout.lookback_bars must be positive: %w", ErrConfiguration)
	}
	if c.Firm.InternalMaxDailyLossFraction > c.Firm.PropMaxDailyLossFraction {
		return fmt.Errorf("firm internal daily limit exceeds the prop cap: %w", ErrConfiguration)
	}
	if err := c.Challenge.Contract.Validate(); err != nil {
		return fmt.Errorf("%v: %w", err, ErrConfiguration)
	}
	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for CSV type: %w", ErrConfiguration)
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type: %w", ErrConfiguration)
		}
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite', or 'none': %w", ErrConfiguration)
	}
	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			Currency:    "USD",
			StartEquity: 100_000,
			InitialMode: "conservative",
		},
		Data: DataConfig{
			EntryMode:        "H1_ONLY",
			MaxOpenPositions: 1,
			Symbols: []backtest.SymbolData{
				{Symbol: "EURUSD", H1Path: "data/eurusd_h1.csv"},
			},
		},
		Strategy: StrategyConfig{Name: "sma-cross"},
		Breakout: backtest.DefaultBreakoutConfig(),
		TierMap:  TierMapConfig{Enabled: true},
		Firm:     risk.DefaultFirmProfile(),
		Challenge: ChallengeConfig{
			Contract:  challenge.DefaultContract(),
			SweepStep: 500,
		},
		Journal: JournalConfig{
			Type:       "csv",
			TradesFile: "./trades.csv",
			EquityFile: "./equity.csv",
			DailyFile:  "./daily.csv",
		},
	}
}
