package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/omegafx/propsim/market"
)

var challengeSeed int

var challengeCmd = &cobra.Command{
	Use:   "challenge",
	Short: "Run a single challenge window against the evaluation contract",
	Long: `Challenge backtests one window starting at the given seed offset into
the merged event stream and scores it against the configured contract.

Example:
  propsim challenge -c propsim.yaml --seed 2500`,
	RunE: runChallenge,
}

func init() {
	rootCmd.AddCommand(challengeCmd)
	challengeCmd.Flags().IntVar(&challengeSeed, "seed", 0, "event-stream offset the window starts at")
}

func runChallenge(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sets, err := loadPortfolio(cfg)
	if err != nil {
		return err
	}
	ev, err := newEvaluator(cfg, sets)
	if err != nil {
		return err
	}

	events := market.BuildEventStream(sets)
	outcome, err := ev.RunSingle(events, challengeSeed)
	if err != nil {
		return err
	}

	verdict := "FAILED"
	if outcome.Passed {
		verdict = "PASSED"
	}
	fmt.Printf("Challenge %s\n", verdict)
	fmt.Printf("  Window:        %s .. %s\n",
		outcome.StartTimestamp.Format("2006-01-02 15:04"),
		outcome.EndTimestamp.Format("2006-01-02 15:04"))
	if !outcome.Passed {
		fmt.Printf("  Reason:        %s\n", outcome.FailureReason)
	}
	fmt.Printf("  Final Equity:  $%.2f\n", outcome.FinalEquity)
	fmt.Printf("  Peak / Min:    $%.2f / $%.2f\n", outcome.PeakEquity, outcome.MinEquity)
	fmt.Printf("  Trading Days:  %d\n", outcome.NumTradingDays)
	fmt.Printf("  Trades:        %d\n", outcome.NumTrades)
	fmt.Printf("  Worst Day:     %.2f%%\n", outcome.MaxObservedDailyLossFraction*100)
	for symbol, n := range outcome.TradesPerSymbol {
		fmt.Printf("    %-10s %d trades\n", symbol, n)
	}

	return nil
}
