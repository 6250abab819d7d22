// Package risk implements the hysteretic risk-mode state machine, the
// drawdown rails, and position sizing.
package risk

// Mode is one of the three ordered risk-aggression levels. The zero
// value is the floor: forced drawdown transitions land there.
type Mode int

const (
	UltraUltraConservative Mode = iota
	UltraConservative
	Conservative
)

func (m Mode) String() string {
	switch m {
	case Conservative:
		return "conservative"
	case UltraConservative:
		return "ultra_conservative"
	}
	return "ultra_ultra_conservative"
}

// Down returns the next mode toward the floor (no-op at the floor).
func (m Mode) Down() Mode {
	if m > UltraUltraConservative {
		return m - 1
	}
	return m
}

// Up returns the next mode toward Conservative (no-op at the top).
func (m Mode) Up() Mode {
	if m < Conservative {
		return m + 1
	}
	return m
}

// Profile is the per-mode risk configuration.
type Profile struct {
	RiskPerTradeFraction   float64
	DailyLossLimitFraction float64
	MaxTrailingDDFraction  float64
	MaxTradesPerDay        int
	MaxOpenTrades          int
}

// Profiles maps each mode to its limits. Fractions assume up to a few
// sequential full-loss trades staying under the daily caps.
var Profiles = map[Mode]Profile{
	UltraUltraConservative: {
		RiskPerTradeFraction:   0.0020,
		DailyLossLimitFraction: 0.01,
		MaxTrailingDDFraction:  0.02,
		MaxTradesPerDay:        2,
		MaxOpenTrades:          1,
	},
	UltraConservative: {
		RiskPerTradeFraction:   0.0040,
		DailyLossLimitFraction: 0.015,
		MaxTrailingDDFraction:  0.03,
		MaxTradesPerDay:        3,
		MaxOpenTrades:          1,
	},
	Conservative: {
		RiskPerTradeFraction:   0.0060,
		DailyLossLimitFraction: 0.02,
		MaxTrailingDDFraction:  0.04,
		MaxTradesPerDay:        4,
		MaxOpenTrades:          1,
	},
}
