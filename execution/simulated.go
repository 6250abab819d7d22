package execution

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/omegafx/propsim/strategies"
)

// Simulated fills every order instantly at the reference price plus a
// fixed adverse slippage. Zero slippage gives perfect fills.
type Simulated struct {
	SlippagePips float64

	mu   sync.Mutex
	book map[string]OrderRequest
}

// NewSimulated creates a simulated backend with the given adverse
// slippage in pips.
func NewSimulated(slippagePips float64) *Simulated {
	return &Simulated{
		SlippagePips: slippagePips,
		book:         make(map[string]OrderRequest),
	}
}

func (s *Simulated) Open(ctx context.Context, req OrderRequest) (Fill, error) {
	if err := ctx.Err(); err != nil {
		return Fill{}, err
	}
	if req.Lots <= 0 {
		return Fill{}, fmt.Errorf("execution: lots must be positive, got %v", req.Lots)
	}
	if req.Side != strategies.Long && req.Side != strategies.Short {
		return Fill{}, fmt.Errorf("execution: side must be long or short")
	}

	id := ulid.Make().String()
	s.mu.Lock()
	s.book[id] = req
	s.mu.Unlock()

	return Fill{
		TradeID: id,
		Price:   slip(req.Symbol, req.Side, req.Price, s.SlippagePips, false),
		Time:    req.Time,
	}, nil
}

func (s *Simulated) Close(ctx context.Context, tradeID string, price float64, ts time.Time) (Fill, error) {
	if err := ctx.Err(); err != nil {
		return Fill{}, err
	}

	s.mu.Lock()
	req, ok := s.book[tradeID]
	if ok {
		delete(s.book, tradeID)
	}
	s.mu.Unlock()
	if !ok {
		return Fill{}, fmt.Errorf("execution: trade %q not open", tradeID)
	}

	return Fill{
		TradeID: tradeID,
		Price:   slip(req.Symbol, req.Side, price, s.SlippagePips, true),
		Time:    ts,
	}, nil
}

// OpenCount reports how many trades are currently on the book.
func (s *Simulated) OpenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.book)
}
