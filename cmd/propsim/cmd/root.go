package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "propsim",
	Short: "A prop-firm FX challenge simulator",
	Long: `Propsim simulates funded-account challenges over historical FX data.

It provides tools for:
  - Backtesting a multi-symbol, multi-timeframe signal portfolio
  - Hysteretic risk-mode management with firm-style loss rails
  - Scoring runs against prop-firm evaluation contracts
  - Sweeping challenge windows across history for pass-rate estimates
  - Journaling trades and equity to CSV or SQLite`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		lvl, err := log.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		log.SetLevel(lvl)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}
