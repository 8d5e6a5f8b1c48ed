package domain

// Trade sides
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Strategy kinds
const (
	StrategySniper = "SNIPER"
	StrategyGrid   = "GRID"
	StrategyTrend  = "TREND"
)

// StrategyKinds перечисляет все поддерживаемые стратегии
var StrategyKinds = []string{StrategySniper, StrategyGrid, StrategyTrend}

// Stop-loss watcher statuses
const (
	StopLossWatching  = "WATCHING"
	StopLossTriggered = "TRIGGERED"
	StopLossCancelled = "CANCELLED"
)

// Advisory signals
const (
	SignalBuy     = "buy"
	SignalSell    = "sell"
	SignalNeutral = "neutral"
)

// Solana constants
const (
	QuoteMintSOL     = "So11111111111111111111111111111111111111112"
	CommitmentLevel  = "confirmed"
	QuoteProbeAmount = 1_000_000 // lamport-scale probe size for quote requests
)

// ValidStrategy проверяет, что строка является известной стратегией
func ValidStrategy(kind string) bool {
	switch kind {
	case StrategySniper, StrategyGrid, StrategyTrend:
		return true
	}
	return false
}
