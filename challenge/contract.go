// Package challenge scores completed backtests against prop-firm
// evaluation contracts and sweeps challenge windows across history.
package challenge

import (
	"errors"
	"fmt"
)

// ErrInsufficientData marks a challenge window that cannot be run at
// all, usually a seed offset past the end of usable data.
var ErrInsufficientData = errors.New("insufficient data for challenge window")

// Contract is the prop-firm evaluation the account has to beat. Zero
// values for the day and calendar limits mean unbounded.
type Contract struct {
	StartEquity          float64 `yaml:"start_equity" json:"start_equity"`
	ProfitTargetFraction float64 `yaml:"profit_target_fraction" json:"profit_target_fraction"`
	MaxTotalLossFraction float64 `yaml:"max_total_loss_fraction" json:"max_total_loss_fraction"`
	MaxDailyLossFraction float64 `yaml:"max_daily_loss_fraction" json:"max_daily_loss_fraction"`
	MinTradingDays       int     `yaml:"min_trading_days" json:"min_trading_days"`
	MaxTradingDays       int     `yaml:"max_trading_days" json:"max_trading_days"`
	MaxCalendarDays      int     `yaml:"max_calendar_days" json:"max_calendar_days"`
}

// DefaultContract is a two-phase evaluation first step: 10% target,
// 6% total loss, 5% daily loss, at least two trading days, no time
// limit.
func DefaultContract() Contract {
	return Contract{
		StartEquity:          100_000.0,
		ProfitTargetFraction: 0.10,
		MaxTotalLossFraction: 0.06,
		MaxDailyLossFraction: 0.05,
		MinTradingDays:       2,
	}
}

// Validate rejects contracts that cannot terminate sensibly.
func (c Contract) Validate() error {
	if c.StartEquity <= 0 {
		return fmt.Errorf("challenge: start equity must be positive, got %v", c.StartEquity)
	}
	if c.ProfitTargetFraction <= 0 {
		return fmt.Errorf("challenge: profit target fraction must be positive, got %v", c.ProfitTargetFraction)
	}
	if c.MaxTotalLossFraction <= 0 || c.MaxTotalLossFraction >= 1 {
		return fmt.Errorf("challenge: max total loss fraction must be in (0,1), got %v", c.MaxTotalLossFraction)
	}
	if c.MaxDailyLossFraction <= 0 || c.MaxDailyLossFraction >= 1 {
		return fmt.Errorf("challenge: max daily loss fraction must be in (0,1), got %v", c.MaxDailyLossFraction)
	}
	if c.MinTradingDays < 0 || c.MaxTradingDays < 0 || c.MaxCalendarDays < 0 {
		return fmt.Errorf("challenge: day limits must be non-negative")
	}
	if c.MaxTradingDays > 0 && c.MinTradingDays > c.MaxTradingDays {
		return fmt.Errorf("challenge: min trading days %d exceeds max trading days %d",
			c.MinTradingDays, c.MaxTradingDays)
	}
	return nil
}

// TargetEquity is the absolute equity level that satisfies the profit
// target.
func (c Contract) TargetEquity() float64 {
	return c.StartEquity * (1 + c.ProfitTargetFraction)
}

// LossFloor is the absolute equity level of the total-loss breach.
func (c Contract) LossFloor() float64 {
	return c.StartEquity * (1 - c.MaxTotalLossFraction)
}
