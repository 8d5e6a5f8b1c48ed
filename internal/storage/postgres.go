package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/kirillm/solana-trade-bot/internal/storage/repository"
	_ "github.com/lib/pq"
)

// PostgresStorage является фасадом для работы с PostgreSQL через репозитории
type PostgresStorage struct {
	db     *sql.DB
	Trades *repository.TradeRepository
	PnL    *repository.PnLRepository
}

func NewPostgresStorage(host string, port int, user, password, dbname, sslmode string, maxOpenConns, maxIdleConns int, connMaxLifetime time.Duration) (*PostgresStorage, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Настройка connection pool из конфигурации
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	storage := &PostgresStorage{
		db:     db,
		Trades: repository.NewTradeRepository(db),
		PnL:    repository.NewPnLRepository(db),
	}

	// Запускаем миграции
	if err := storage.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return storage, nil
}

func (s *PostgresStorage) migrate() error {
	migrations := []string{
		// Журнал сделок. Только вставки: записи никогда не обновляются.
		`CREATE TABLE IF NOT EXISTS trades (
			id SERIAL PRIMARY KEY,
			mint VARCHAR(64) NOT NULL,
			side VARCHAR(10) NOT NULL,
			quantity DECIMAL(30, 12) NOT NULL,
			price DECIMAL(30, 12) NOT NULL,
			amount DECIMAL(30, 12) NOT NULL,
			signature VARCHAR(128),
			intent_id VARCHAR(40),
			strategy VARCHAR(20) NOT NULL DEFAULT 'SNIPER',
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		// Снапшоты прибыли
		`CREATE TABLE IF NOT EXISTS pnl_snapshots (
			id SERIAL PRIMARY KEY,
			mint VARCHAR(64) NOT NULL,
			profit DECIMAL(30, 12) NOT NULL,
			profit_percent DECIMAL(12, 4) NOT NULL,
			current_price DECIMAL(30, 12) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		// Индексы
		`CREATE INDEX IF NOT EXISTS idx_trades_mint ON trades(mint)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_created_at ON trades(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_pnl_snapshots_mint ON pnl_snapshots(mint)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// Close закрывает соединение с базой
func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
