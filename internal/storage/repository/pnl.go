package repository

import (
	"database/sql"

	"github.com/kirillm/solana-trade-bot/internal/domain"
)

// PnLRepository реализует работу со снапшотами прибыли
type PnLRepository struct {
	db *sql.DB
}

func NewPnLRepository(db *sql.DB) *PnLRepository {
	return &PnLRepository{db: db}
}

// Save сохраняет снапшот прибыли
func (r *PnLRepository) Save(snapshot *domain.PnLSnapshot) error {
	query := `
		INSERT INTO pnl_snapshots (mint, profit, profit_percent, current_price, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	return r.db.QueryRow(
		query,
		snapshot.Mint,
		snapshot.Profit,
		snapshot.ProfitPercent,
		snapshot.CurrentPrice,
		snapshot.CreatedAt,
	).Scan(&snapshot.ID)
}

// GetRecent получает последние N снапшотов по mint
func (r *PnLRepository) GetRecent(mint string, limit int) ([]domain.PnLSnapshot, error) {
	query := `
		SELECT id, mint, profit, profit_percent, current_price, created_at
		FROM pnl_snapshots
		WHERE mint = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(query, mint, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []domain.PnLSnapshot
	for rows.Next() {
		var s domain.PnLSnapshot
		if err := rows.Scan(&s.ID, &s.Mint, &s.Profit, &s.ProfitPercent, &s.CurrentPrice, &s.CreatedAt); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}

	return snapshots, rows.Err()
}
