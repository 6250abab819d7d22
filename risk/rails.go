package risk

import "fmt"

// CanOpenNewTrade checks the worst-case daily loss budget before an
// entry: today's realized losses plus the max loss of every open
// position plus the proposed trade's risk must fit under the internal
// daily limit. The internal limit must never exceed the prop firm's
// daily cap; that is a configuration error, not a veto.
func CanOpenNewTrade(
	todaysRealizedPnL float64,
	openPositionsRisk float64,
	proposedRiskAmount float64,
	equityStartOfDay float64,
	internalDailyLossFraction float64,
	propDailyLossFraction float64,
) (bool, error) {
	internalLimit := internalDailyLossFraction * equityStartOfDay
	propLimit := propDailyLossFraction * equityStartOfDay
	if internalLimit-propLimit > 1e-9 {
		return false, fmt.Errorf(
			"risk: internal daily limit %.2f exceeds prop firm daily cap %.2f",
			internalLimit, propLimit)
	}

	realizedLoss := 0.0
	if todaysRealizedPnL < 0 {
		realizedLoss = -todaysRealizedPnL
	}

	worstCase := realizedLoss + openPositionsRisk + proposedRiskAmount
	return worstCase <= internalLimit, nil
}
