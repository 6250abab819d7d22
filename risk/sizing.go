package risk

import (
	"fmt"
	"math"

	"github.com/omegafx/propsim/market"
)

// Lot size bounds shared by every symbol.
const (
	MinLot = 0.01
	MaxLot = 2.0
)

// SizingInputs feed a single position-size calculation.
type SizingInputs struct {
	Equity           float64
	RiskFraction     float64
	StopDistancePips float64
	Meta             market.SymbolMeta
}

// SizingResult is the bounded lot size plus the money actually at risk
// if the stop is hit at that size.
type SizingResult struct {
	Lots       float64
	RiskAmount float64
}

// PositionSize converts a risk fraction and stop distance into a lot
// size clamped to [MinLot, MaxLot] and rounded to the symbol lot step.
func PositionSize(in SizingInputs) (SizingResult, error) {
	if in.Equity <= 0 {
		return SizingResult{}, fmt.Errorf("sizing: equity must be positive, got %v", in.Equity)
	}
	if in.RiskFraction <= 0 {
		return SizingResult{}, fmt.Errorf("sizing: risk fraction must be positive, got %v", in.RiskFraction)
	}
	if in.StopDistancePips <= 0 {
		return SizingResult{}, fmt.Errorf("sizing: stop distance must be positive, got %v", in.StopDistancePips)
	}

	pipValue := in.Meta.PipValuePerLot
	if pipValue <= 0 {
		return SizingResult{}, fmt.Errorf("sizing: bad pip value for %s", in.Meta.Symbol)
	}

	riskAmount := in.Equity * in.RiskFraction
	rawLots := riskAmount / (in.StopDistancePips * pipValue)

	lots := math.Min(math.Max(rawLots, MinLot), MaxLot)
	if step := in.Meta.LotStep; step > 0 {
		lots = math.Round(lots/step) * step
		lots = math.Min(math.Max(lots, MinLot), MaxLot)
	}
	lots = math.Round(lots*1e4) / 1e4

	return SizingResult{
		Lots:       lots,
		RiskAmount: in.StopDistancePips * pipValue * lots,
	}, nil
}
