package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/omegafx/propsim/journal"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run a full-history backtest over the configured portfolio",
	Long: `Backtest folds the merged event stream of every configured symbol and
timeframe through the signal, filter, and risk pipeline, then prints a
performance summary and journals the results.

Example:
  propsim backtest -c propsim.yaml`,
	RunE: runBacktest,
}

func init() {
	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sets, err := loadPortfolio(cfg)
	if err != nil {
		return err
	}
	engine, err := newEngine(cfg, sets)
	if err != nil {
		return err
	}

	result, err := engine.Run()
	if err != nil {
		return err
	}

	if j, err := openJournal(cfg); err != nil {
		return err
	} else if j != nil {
		defer j.Close()
		if err := journal.Export(j, result); err != nil {
			return fmt.Errorf("journal: %w", err)
		}
	}

	fmt.Printf("Backtest Complete!\n")
	fmt.Printf("  Start Equity:  $%.2f\n", result.StartEquity)
	fmt.Printf("  Final Equity:  $%.2f\n", result.FinalEquity)
	fmt.Printf("  Total Return:  %.2f%%\n", result.TotalReturn*100)
	fmt.Printf("  Max Drawdown:  %.2f%%\n", result.MaxDrawdown*100)
	fmt.Printf("  Trades:        %d\n", len(result.Trades))
	fmt.Printf("  Win Rate:      %.2f%%\n", result.WinRate*100)
	fmt.Printf("  Avg R:R:       %.2f\n", result.AverageRR)
	fmt.Printf("  Trading Days:  %d\n", len(result.DailyStats))
	fmt.Printf("  Final Mode:    %s\n", result.FinalMode)
	if result.InternalStopOut {
		fmt.Printf("  Internal stop-out at %s\n", result.InternalStopTime.Format("2006-01-02 15:04"))
	}
	if result.PropFail {
		fmt.Printf("  Prop account failed at %s\n", result.PropFailTime.Format("2006-01-02 15:04"))
	}

	if len(result.Funnel.FilteredByReason) > 0 {
		fmt.Printf("\nEntry Funnel: %d raw signals\n", result.Funnel.RawSignals)
		for reason, count := range result.Funnel.FilteredByReason {
			fmt.Printf("  filtered by %-20s %d\n", reason.String()+":", count)
		}
	}

	return nil
}
