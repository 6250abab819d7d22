// Package execution abstracts order fills so the driver can run
// against perfect simulated fills or a slippage model.
package execution

import (
	"context"
	"time"

	"github.com/omegafx/propsim/market"
	"github.com/omegafx/propsim/strategies"
)

// OrderRequest asks for a market fill at the given reference price.
type OrderRequest struct {
	Symbol string
	Side   strategies.Action
	Lots   float64
	Price  float64
	Time   time.Time
}

// Fill is the executed side of a request.
type Fill struct {
	TradeID string
	Price   float64
	Time    time.Time
}

// Backend executes entries and exits. Implementations must be safe
// for concurrent use: sweep workers share one backend.
type Backend interface {
	Open(ctx context.Context, req OrderRequest) (Fill, error)
	Close(ctx context.Context, tradeID string, price float64, ts time.Time) (Fill, error)
}

// slip shifts a reference price against the trade by pips.
func slip(symbol string, side strategies.Action, price, pips float64, closing bool) float64 {
	if pips == 0 {
		return price
	}
	meta := market.MetaFor(symbol)
	adverse := pips * meta.PipSize
	long := side == strategies.Long
	if closing {
		long = !long
	}
	if long {
		return price + adverse
	}
	return price - adverse
}
