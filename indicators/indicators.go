// Package indicators provides the streaming technical indicators used
// to annotate price frames.
package indicators

import "github.com/omegafx/propsim/market"

// Indicator computes a single streaming value from bars.
// It is deterministic and safe to use in replays and backtests.
type Indicator interface {
	// Name returns a stable identifier like "SMA(20)" or "ATR(14)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next *closed* bar and updates internal state.
	Update(b market.Bar)

	// Ready reports whether Value() is meaningful (warmup completed).
	Ready() bool

	// Value returns the current value. Callers should check Ready() first.
	Value() float64
}
