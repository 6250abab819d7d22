package indicators

import "github.com/montanaflynn/stats"

// Percentile returns the p-th percentile (0-100) of values, or 0 when
// the input is empty. Used for the per-symbol ATR volatility bands.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	v, err := stats.Percentile(stats.Float64Data(values), p)
	if err != nil {
		return 0
	}
	return v
}
