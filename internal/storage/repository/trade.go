package repository

import (
	"database/sql"

	"github.com/kirillm/solana-trade-bot/internal/domain"
)

// TradeRepository реализует работу с журналом сделок
type TradeRepository struct {
	db *sql.DB
}

// NewTradeRepository создает новый репозиторий для журнала сделок
func NewTradeRepository(db *sql.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// Save вставляет новую запись о сделке. Записи никогда не обновляются.
func (r *TradeRepository) Save(trade *domain.Trade) error {
	query := `
		INSERT INTO trades (mint, side, quantity, price, amount, signature, intent_id, strategy, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	return r.db.QueryRow(
		query,
		trade.Mint,
		trade.Side,
		trade.Quantity,
		trade.Price,
		trade.Amount,
		trade.Signature,
		trade.IntentID,
		trade.Strategy,
		trade.CreatedAt,
	).Scan(&trade.ID)
}

// GetRecent получает последние N сделок по mint, новые первыми
func (r *TradeRepository) GetRecent(mint string, limit int) ([]domain.Trade, error) {
	query := `
		SELECT id, mint, side, quantity, price, amount,
		       COALESCE(signature, ''), COALESCE(intent_id, ''), strategy, created_at
		FROM trades
		WHERE mint = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.queryTrades(query, mint, limit)
}

// GetAllByMint получает все сделки по mint в хронологическом порядке.
// Используется для расчета прибыли, где порядок записей существенен.
func (r *TradeRepository) GetAllByMint(mint string) ([]domain.Trade, error) {
	query := `
		SELECT id, mint, side, quantity, price, amount,
		       COALESCE(signature, ''), COALESCE(intent_id, ''), strategy, created_at
		FROM trades
		WHERE mint = $1
		ORDER BY created_at ASC
	`
	return r.queryTrades(query, mint)
}

// queryTrades выполняет запрос и возвращает список сделок
func (r *TradeRepository) queryTrades(query string, args ...interface{}) ([]domain.Trade, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		var trade domain.Trade
		err := rows.Scan(
			&trade.ID,
			&trade.Mint,
			&trade.Side,
			&trade.Quantity,
			&trade.Price,
			&trade.Amount,
			&trade.Signature,
			&trade.IntentID,
			&trade.Strategy,
			&trade.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		trades = append(trades, trade)
	}

	return trades, rows.Err()
}
