package strategies

import (
	"github.com/omegafx/propsim/market"
)

// Variant tags reported on decisions, used by the driver's funnel
// diagnostics.
const (
	VariantCross    = "v1_cross"
	VariantMomentum = "v2_momentum"
)

// SMACross trades fast/slow SMA crossovers with ATR-based stops: stop
// at 1.5x ATR, target at 3x ATR (both in pips). A secondary momentum
// variant takes continuation entries while the fast SMA holds its side
// and price stays near the slow SMA.
type SMACross struct {
	PipSize      float64
	StopATRMult  float64
	TPATRMult    float64
	MomentumBand float64 // fractional band around SMA_slow, ~10 pips
}

func init() {
	Register("sma-cross", func(meta market.SymbolMeta) Source {
		return NewSMACross(meta)
	})
}

func NewSMACross(meta market.SymbolMeta) *SMACross {
	return &SMACross{
		PipSize:      meta.PipSize,
		StopATRMult:  1.5,
		TPATRMult:    3.0,
		MomentumBand: 0.001,
	}
}

func (s *SMACross) Name() string { return "sma-cross" }

func (s *SMACross) Evaluate(current, previous *market.Bar) Decision {
	if !ready(current) || !ready(previous) {
		return Decision{Action: Flat, Reason: "Insufficient data"}
	}

	fastNow := current.SMAFast.Value
	slowNow := current.SMASlow.Value
	fastPrev := previous.SMAFast.Value
	slowPrev := previous.SMASlow.Value

	atrPips := current.ATR14.Value / s.PipSize
	stop := s.StopATRMult * atrPips
	tp := s.TPATRMult * atrPips

	if fastPrev <= slowPrev && fastNow > slowNow {
		return Decision{
			Action:                 Long,
			StopDistancePips:       stop,
			TakeProfitDistancePips: tp,
			Reason:                 "SMA bullish crossover",
			Variant:                VariantCross,
		}
	}
	if fastPrev >= slowPrev && fastNow < slowNow {
		return Decision{
			Action:                 Short,
			StopDistancePips:       stop,
			TakeProfitDistancePips: tp,
			Reason:                 "SMA bearish crossover",
			Variant:                VariantCross,
		}
	}

	if action := s.momentum(current, previous); action != Flat {
		return Decision{
			Action:                 action,
			StopDistancePips:       stop,
			TakeProfitDistancePips: tp,
			Reason:                 "SMA momentum continuation",
			Variant:                VariantMomentum,
		}
	}

	return Decision{Action: Flat, Reason: "No signal"}
}

func (s *SMACross) momentum(current, previous *market.Bar) Action {
	fastNow := current.SMAFast.Value
	slowNow := current.SMASlow.Value
	fastPrev := previous.SMAFast.Value
	slowPrev := previous.SMASlow.Value

	if fastNow > slowNow && fastPrev > slowPrev && current.Close >= slowNow*(1-s.MomentumBand) {
		return Long
	}
	if fastNow < slowNow && fastPrev < slowPrev && current.Close <= slowNow*(1+s.MomentumBand) {
		return Short
	}
	return Flat
}

func ready(b *market.Bar) bool {
	return b.SMAFast.Valid && b.SMASlow.Valid && b.ATR14.Valid
}
