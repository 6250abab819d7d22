package indicators

import (
	"fmt"

	"github.com/omegafx/propsim/market"
)

// SMA is a streaming Simple Moving Average over bar closes.
type SMA struct {
	period int
	window []float64
	sum    float64
}

// NewSMA creates a Simple Moving Average indicator with the given period.
func NewSMA(period int) *SMA {
	return &SMA{
		period: period,
		window: make([]float64, 0, period),
	}
}

func (m *SMA) Name() string {
	return fmt.Sprintf("SMA(%d)", m.period)
}

func (m *SMA) Warmup() int {
	return m.period
}

func (m *SMA) Reset() {
	m.window = m.window[:0]
	m.sum = 0
}

func (m *SMA) Update(b market.Bar) {
	m.window = append(m.window, b.Close)
	m.sum += b.Close
	if len(m.window) > m.period {
		m.sum -= m.window[0]
		m.window = m.window[1:]
	}
}

func (m *SMA) Ready() bool {
	return len(m.window) >= m.period
}

func (m *SMA) Value() float64 {
	if !m.Ready() {
		return 0
	}
	return m.sum / float64(len(m.window))
}
