// Package strategies defines the signal-source capability consumed by
// the backtest driver, plus the concrete built-in sources.
package strategies

import (
	"fmt"
	"strings"

	"github.com/omegafx/propsim/market"
)

// Action is a directional decision for the current bar.
type Action int8

const (
	Flat Action = iota
	Long
	Short
)

func (a Action) String() string {
	switch a {
	case Long:
		return "long"
	case Short:
		return "short"
	}
	return "flat"
}

// Decision is the output of a signal source for one bar. Stop and
// take-profit distances are in pips and only meaningful when Action is
// Long or Short.
type Decision struct {
	Action                 Action
	StopDistancePips       float64
	TakeProfitDistancePips float64
	Reason                 string
	Variant                string
}

// Source emits directional decisions per bar. Evaluate receives the
// current and previous row of the same frame; during indicator warm-up
// it must return a Flat decision rather than an error.
type Source interface {
	Name() string
	Evaluate(current, previous *market.Bar) Decision
}

// Factory builds a source configured for one symbol.
type Factory func(meta market.SymbolMeta) Source

var registry = make(map[string]Factory)

// Register adds a named source factory. Later registrations replace
// earlier ones.
func Register(name string, f Factory) {
	registry[strings.ToLower(name)] = f
}

// New builds the named source for the given symbol metadata.
func New(name string, meta market.SymbolMeta) (Source, error) {
	f, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
	return f(meta), nil
}
