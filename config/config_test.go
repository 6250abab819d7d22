package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omegafx/propsim/market"
	"github.com/omegafx/propsim/risk"
)

const sampleYAML = `account:
  currency: USD
  start_equity: 50000
  initial_mode: ultra_conservative
data:
  entry_mode: hybrid
  max_open_positions: 2
  symbols:
    - symbol: EURUSD
      m15_csv: data/eurusd_m15.csv
      h1_csv: data/eurusd_h1.csv
strategy:
  name: sma-cross
filters:
  session: false
tier_map:
  enabled: true
  edge_path: data/edge.csv
firm:
  internal_max_daily_loss_fraction: 0.02
  internal_max_trailing_dd_fraction: 0.04
  prop_max_daily_loss_fraction: 0.05
  prop_max_total_loss_fraction: 0.06
challenge:
  contract:
    start_equity: 50000
    profit_target_fraction: 0.08
    max_total_loss_fraction: 0.06
    max_daily_loss_fraction: 0.05
    min_trading_days: 3
  sweep_step: 250
journal:
  type: sqlite
  db_path: ./journal.db
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFromFileYAML(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 50_000.0, cfg.Account.StartEquity)

	mode, err := cfg.InitialMode()
	require.NoError(t, err)
	assert.Equal(t, risk.UltraConservative, mode)

	entry, err := cfg.EntryMode()
	require.NoError(t, err)
	assert.Equal(t, market.Hybrid, entry, "entry mode is case-insensitive")

	gate := cfg.Filters.Gate()
	assert.False(t, gate.SessionFilter)
	assert.True(t, gate.TrendFilter, "unset filters stay on")

	assert.Equal(t, 0.08, cfg.Challenge.Contract.ProfitTargetFraction)
	assert.Equal(t, 250, cfg.Challenge.SweepStep)
	assert.Equal(t, "sqlite", cfg.Journal.Type)
}

func TestLoadFromFileJSONFallback(t *testing.T) {
	body := `{
  "account": {"currency": "USD", "start_equity": 25000},
  "data": {
    "entry_mode": "H1_ONLY",
    "symbols": [{"symbol": "GBPUSD", "h1_csv": "gbp_h1.csv"}]
  }
}`
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 25_000.0, cfg.Account.StartEquity)
	assert.Equal(t, "GBPUSD", cfg.Data.Symbols[0].Symbol)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateFailures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no currency", func(c *Config) { c.Account.Currency = "" }},
		{"zero equity", func(c *Config) { c.Account.StartEquity = 0 }},
		{"bad mode", func(c *Config) { c.Account.InitialMode = "reckless" }},
		{"no symbols", func(c *Config) { c.Data.Symbols = nil }},
		{"bad entry mode", func(c *Config) { c.Data.EntryMode = "M5_ONLY" }},
		{"missing h1 path", func(c *Config) { c.Data.Symbols[0].H1Path = "" }},
		{"hybrid without m15", func(c *Config) { c.Data.EntryMode = "HYBRID" }},
		{"zero lookback", func(c *Config) { c.Breakout.LookbackBars = 0 }},
		{"inverted firm limits", func(c *Config) { c.Firm.InternalMaxDailyLossFraction = 0.10 }},
		{"bad contract", func(c *Config) { c.Challenge.Contract.ProfitTargetFraction = 0 }},
		{"csv without files", func(c *Config) { c.Journal.TradesFile = "" }},
		{"unknown journal", func(c *Config) { c.Journal.Type = "parquet" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestDefaultValidates(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestInitialModeDefaultsConservative(t *testing.T) {
	cfg := Default()
	cfg.Account.InitialMode = ""
	mode, err := cfg.InitialMode()
	require.NoError(t, err)
	assert.Equal(t, risk.Conservative, mode)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Account.StartEquity = 12_345

	yamlPath := filepath.Join(dir, "out.yaml")
	require.NoError(t, cfg.SaveToFile(yamlPath))
	back, err := LoadFromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, 12_345.0, back.Account.StartEquity)

	jsonPath := filepath.Join(dir, "out.json")
	require.NoError(t, cfg.SaveToFile(jsonPath))
	back, err = LoadFromFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 12_345.0, back.Account.StartEquity)
}

func TestJournalNoneNeedsNoPaths(t *testing.T) {
	cfg := Default()
	cfg.Journal = JournalConfig{Type: "none"}
	assert.NoError(t, cfg.Validate())
}
