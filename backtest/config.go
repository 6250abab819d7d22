package backtest

// BreakoutConfig tunes the breakout pattern check and the dynamic exit
// management.
type BreakoutConfig struct {
	LookbackBars        int     `yaml:"lookback_bars" json:"lookback_bars"`
	ATRDistanceMax      float64 `yaml:"atr_distance_max" json:"atr_distance_max"`
	TrailingATRMultiple float64 `yaml:"trailing_atr_multiple" json:"trailing_atr_multiple"`
	BreakevenTriggerR   float64 `yaml:"breakeven_trigger_r" json:"breakeven_trigger_r"`
	ExtendedTPR         float64 `yaml:"extended_tp_r" json:"extended_tp_r"`
}

// DefaultBreakoutConfig returns the standard exit tuning: breakeven at
// 1.5R, extended take-profit at 4R, one-ATR trail.
func DefaultBreakoutConfig() BreakoutConfig {
	return BreakoutConfig{
		LookbackBars:        20,
		ATRDistanceMax:      1.5,
		TrailingATRMultiple: 1.0,
		BreakevenTriggerR:   1.5,
		ExtendedTPR:         4.0,
	}
}

// meetsBreakoutConditions tags an entry as a breakout when price sits
// on the right side of both SMAs, beyond the rolling breakout level,
// and within ATRDistanceMax ATRs of the slow SMA.
func meetsBreakoutConditions(
	direction int, // +1 long, -1 short
	entryPrice float64,
	smaSlow, smaTrend, breakoutLevel, atrValue float64,
	valid bool,
	cfg BreakoutConfig,
) bool {
	if !valid {
		return false
	}
	distanceLimit := cfg.ATRDistanceMax * atrValue
	dist := entryPrice - smaSlow
	if dist < 0 {
		dist = -dist
	}

	if direction > 0 {
		if entryPrice <= smaSlow || entryPrice <= smaTrend {
			return false
		}
		if entryPrice < breakoutLevel {
			return false
		}
	} else {
		if entryPrice >= smaSlow || entryPrice >= smaTrend {
			return false
		}
		if entryPrice > breakoutLevel {
			return false
		}
	}
	return dist <= distanceLimit
}
