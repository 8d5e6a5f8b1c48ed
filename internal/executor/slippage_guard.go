package executor

import (
	"fmt"
	"math"
	"sync"

	"github.com/kirillm/solana-trade-bot/internal/domain"
)

// SlippageGuard защита от чрезмерного отклонения цены исполнения
// от целевой цены intent
type SlippageGuard struct {
	mu               sync.RWMutex
	thresholdPercent float64
}

func NewSlippageGuard(thresholdPercent float64) *SlippageGuard {
	return &SlippageGuard{thresholdPercent: thresholdPercent}
}

// Check сравнивает текущую цену рынка с целевой ценой intent
func (sg *SlippageGuard) Check(fillPrice, targetPrice float64) error {
	if targetPrice <= 0 {
		// intent без целевой цены (рыночное исполнение) не проверяется
		return nil
	}

	sg.mu.RLock()
	threshold := sg.thresholdPercent
	sg.mu.RUnlock()

	slippage := math.Abs((fillPrice - targetPrice) / targetPrice * 100.0)
	if slippage > threshold {
		return fmt.Errorf("%w: %.2f%% (threshold: %.2f%%)", domain.ErrSlippage, slippage, threshold)
	}

	return nil
}

// Threshold возвращает текущий порог в процентах
func (sg *SlippageGuard) Threshold() float64 {
	sg.mu.RLock()
	defer sg.mu.RUnlock()
	return sg.thresholdPercent
}

// SetThreshold устанавливает новый порог
func (sg *SlippageGuard) SetThreshold(thresholdPercent float64) {
	sg.mu.Lock()
	defer sg.mu.Unlock()
	sg.thresholdPercent = thresholdPercent
}
