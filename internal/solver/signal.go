package solver

import (
	"fmt"
	"math"
)

// Signal — категориальный сигнал эвристики.
type Signal string

const (
	SignalBuy  Signal = "buy"
	SignalSell Signal = "sell"
	SignalHold Signal = "hold"
)

// Пороги эвристики.
const (
	MomentumThreshold = 0.005
	SharpeThreshold   = 1.0
)

// SignalResult — результат MomentumSignal.
type SignalResult struct {
	Signal     Signal  `json:"signal"`
	MeanReturn float64 `json:"meanReturn"`
	Volatility float64 `json:"volatility"`
	Sharpe     float64 `json:"sharpe"`
}

// MomentumSignal считает среднюю доходность и её стандартное отклонение
// по последним lookback доходностям и выдаёт buy/sell/hold.
//
// Это эвристика, а не торговая модель. lookback <= 0 означает весь ряд.
// При нулевой волатильности Sharpe равен 0 и решает только средняя доходность.
func MomentumSignal(prices []float64, lookback int) (SignalResult, error) {
	if len(prices) < 2 {
		return SignalResult{}, fmt.Errorf("%w: need at least 2 prices, got %d", ErrInvalidParams, len(prices))
	}

	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			return SignalResult{}, fmt.Errorf("%w: zero price at index %d", ErrInvalidParams, i-1)
		}
		returns = append(returns, prices[i]/prices[i-1]-1)
	}
	if lookback > 0 && lookback < len(returns) {
		returns = returns[len(returns)-lookback:]
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	vol := math.Sqrt(variance / float64(len(returns)))

	res := SignalResult{MeanReturn: mean, Volatility: vol, Signal: SignalHold}
	if vol > 0 {
		res.Sharpe = mean / vol
	}

	sharpeOK := func(positive bool) bool {
		if vol == 0 {
			return true
		}
		if positive {
			return res.Sharpe > SharpeThreshold
		}
		return res.Sharpe < -SharpeThreshold
	}

	switch {
	case mean > MomentumThreshold && sharpeOK(true):
		res.Signal = SignalBuy
	case mean < -MomentumThreshold && sharpeOK(false):
		res.Signal = SignalSell
	}
	return res, nil
}
