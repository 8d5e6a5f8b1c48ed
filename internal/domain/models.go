package domain

import "time"

// Trade представляет исполненную сделку (покупку или продажу) в журнале.
// Записи append-only: после вставки никогда не изменяются и не удаляются,
// корректировки делаются новыми компенсирующими записями.
type Trade struct {
	ID        int64     `db:"id"`
	Mint      string    `db:"mint"`
	Side      string    `db:"side"` // "BUY" or "SELL"
	Quantity  float64   `db:"quantity"`
	Price     float64   `db:"price"`
	Amount    float64   `db:"amount"`
	Signature string    `db:"signature"` // подпись транзакции в сети
	IntentID  string    `db:"intent_id"`
	Strategy  string    `db:"strategy"` // "SNIPER", "GRID", "TREND"
	CreatedAt time.Time `db:"created_at"`
}

// TradeIntent представляет намерение совершить сделку. Передается от стратегии
// или стоп-лосса в executor и потребляется ровно один раз, нигде не хранится.
type TradeIntent struct {
	Mint     string
	Side     string // "BUY" or "SELL"
	Price    float64
	Quantity float64
	Strategy string
}

// Position представляет одну открытую позицию. Не более одной открытой
// позиции на пару (mint, strategy) в любой момент времени.
type Position struct {
	Mint       string
	Strategy   string
	EntryPrice float64
	Quantity   float64
	OpenedAt   time.Time
}

// PnLSnapshot представляет снапшот прибыли для аналитики
type PnLSnapshot struct {
	ID            int64     `db:"id"`
	Mint          string    `db:"mint"`
	Profit        float64   `db:"profit"`
	ProfitPercent float64   `db:"profit_percent"`
	CurrentPrice  float64   `db:"current_price"`
	CreatedAt     time.Time `db:"created_at"`
}

// PoolEvent представляет событие появления нового пула ликвидности
type PoolEvent struct {
	PoolID     string    `json:"pool_id"`
	BaseMint   string    `json:"base_mint"`
	QuoteMint  string    `json:"quote_mint"`
	ObservedAt time.Time `json:"observed_at"`
}
