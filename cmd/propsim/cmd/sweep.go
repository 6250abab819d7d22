package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/omegafx/propsim/challenge"
)

var sweepStep int

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Sweep challenge windows across history",
	Long: `Sweep runs a challenge window at every step-th event offset and
reports the aggregate pass rate.

Example:
  propsim sweep -c propsim.yaml --step 500`,
	RunE: runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
	sweepCmd.Flags().IntVar(&sweepStep, "step", 0, "seed spacing in events (0 uses the configured value)")
}

func runSweep(cmd *cobra.Command, args []string) error {
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

	step := sweepStep
	if step <= 0 {
		step = cfg.Challenge.SweepStep
	}
	outcomes, err := ev.Sweep(step)
	if err != nil {
		return err
	}
	if len(outcomes) == 0 {
		return fmt.Errorf("sweep produced no windows")
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Seed", "Start", "End", "Result", "Days", "Trades", "Final Equity"})
	for _, o := range outcomes {
		result := string(o.FailureReason)
		if o.Passed {
			result = "pass"
		}
		table.Append([]string{
			fmt.Sprintf("%d", o.SeedIndex),
			o.StartTimestamp.Format("2006-01-02"),
			o.EndTimestamp.Format("2006-01-02"),
			result,
			fmt.Sprintf("%d", o.NumTradingDays),
			fmt.Sprintf("%d", o.NumTrades),
			fmt.Sprintf("%.2f", o.FinalEquity),
		})
	}
	table.Render()

	summary := challenge.Summarize(outcomes)
	fmt.Printf("\nWindows:    %d\n", summary.Windows)
	fmt.Printf("Pass Rate:  %.1f%% (%d passed)\n", summary.PassRate*100, summary.Passes)
	fmt.Printf("Avg Days:   %.1f\n", summary.AvgDays)
	fmt.Printf("Avg Trades: %.1f\n", summary.AvgTrades)
	fmt.Printf("Worst Min Equity: $%.2f\n", summary.WorstEquity)
	for reason, n := range summary.ByReason {
		fmt.Printf("  %-18s %d\n", string(reason)+":", n)
	}

	return nil
}
