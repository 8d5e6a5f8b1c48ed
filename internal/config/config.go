package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config содержит все настройки приложения
type Config struct {
	Telegram TelegramConfig
	Solana   SolanaConfig
	Feed     FeedConfig
	Database DatabaseConfig
	Strategy StrategyDefaults
	APIPort  int
	LogLevel string
}

type TelegramConfig struct {
	BotToken string
	ChatID   int64
}

type SolanaConfig struct {
	RPCEndpoint      string
	WalletPrivateKey string // base58-encoded ed25519 keypair
}

type FeedConfig struct {
	JupiterAPI         string
	JupiterFallbackAPI string // запасной quote-эндпоинт, пустой = без запасного
	PoolWSEndpoint     string
	AdvisoryAPI        string
	PriceRateLimit     float64 // запросов в секунду к источнику цен
	SlippagePercent    float64 // допустимое отклонение исполнения от целевой цены
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// StrategyDefaults начальные параметры стратегий. Могут быть переопределены
// файлом strategies.yaml и меняются на лету через /set_params.
type StrategyDefaults struct {
	WatchMints []string       `yaml:"watch_mints"`
	Sniper     SniperConfig   `yaml:"sniper"`
	Grid       GridConfig     `yaml:"grid"`
	Trend      TrendConfig    `yaml:"trend"`
	StopLoss   StopLossConfig `yaml:"stop_loss"`
}

type SniperConfig struct {
	ProfitTarget float64 `yaml:"profit_target"`
	OrderSize    float64 `yaml:"order_size"`
}

type GridConfig struct {
	Levels    []float64     `yaml:"levels"`
	OrderSize float64       `yaml:"order_size"`
	EvalEvery time.Duration `yaml:"eval_every"`
}

type TrendConfig struct {
	Period       int           `yaml:"period"`
	RSIThreshold float64       `yaml:"rsi_threshold"`
	UseAdvisory  bool          `yaml:"use_advisory"`
	SampleEvery  time.Duration `yaml:"sample_every"`
	OrderSize    float64       `yaml:"order_size"`
}

type StopLossConfig struct {
	FixedRatio    float64       `yaml:"fixed_ratio"`
	TrailingRatio float64       `yaml:"trailing_ratio"`
	CheckInterval time.Duration `yaml:"check_interval"`
}

// Load загружает конфигурацию из .env файла и окружения
func Load() (*Config, error) {
	// Загружаем .env файл (если есть)
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using environment variables")
	}

	chatID, err := strconv.ParseInt(getEnv("TELEGRAM_CHAT_ID", "0"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	maxOpenConns, err := strconv.Atoi(getEnv("DB_MAX_OPEN_CONNS", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %w", err)
	}

	maxIdleConns, err := strconv.Atoi(getEnv("DB_MAX_IDLE_CONNS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_IDLE_CONNS: %w", err)
	}

	connMaxLifetime, err := time.ParseDuration(getEnv("DB_CONN_MAX_LIFETIME", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %w", err)
	}

	priceRateLimit, err := strconv.ParseFloat(getEnv("PRICE_RATE_LIMIT", "5"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid PRICE_RATE_LIMIT: %w", err)
	}

	slippagePercent, err := strconv.ParseFloat(getEnv("SLIPPAGE_PERCENT", "1.0"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid SLIPPAGE_PERCENT: %w", err)
	}

	apiPort, err := strconv.Atoi(getEnv("API_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid API_PORT: %w", err)
	}

	strategyDefaults, err := loadStrategyDefaults(getEnv("STRATEGY_CONFIG_FILE", "strategies.yaml"))
	if err != nil {
		return nil, err
	}

	config := &Config{
		Telegram: TelegramConfig{
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:   chatID,
		},
		Solana: SolanaConfig{
			RPCEndpoint:      getEnv("RPC_ENDPOINT", "https://api.mainnet-beta.solana.com"),
			WalletPrivateKey: getEnv("WALLET_PRIVATE_KEY", ""),
		},
		Feed: FeedConfig{
			JupiterAPI:         getEnv("JUPITER_API", "https://quote-api.jup.ag/v6/quote"),
			JupiterFallbackAPI: getEnv("JUPITER_FALLBACK_API", ""),
			PoolWSEndpoint:     getEnv("POOL_WS_ENDPOINT", ""),
			AdvisoryAPI:        getEnv("ADVISORY_API", ""),
			PriceRateLimit:     priceRateLimit,
			SlippagePercent:    slippagePercent,
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            dbPort,
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			DBName:          getEnv("DB_NAME", "solana_trade_bot"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    maxOpenConns,
			MaxIdleConns:    maxIdleConns,
			ConnMaxLifetime: connMaxLifetime,
		},
		Strategy: strategyDefaults,
		APIPort:  apiPort,
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// loadStrategyDefaults читает параметры стратегий из yaml файла.
// Отсутствующий файл не ошибка: берутся встроенные значения.
func loadStrategyDefaults(path string) (StrategyDefaults, error) {
	defaults := StrategyDefaults{
		WatchMints: splitList(getEnv("WATCH_MINTS", "")),
		Sniper: SniperConfig{
			ProfitTarget: 0.1,
			OrderSize:    1000.0,
		},
		Grid: GridConfig{
			Levels:    []float64{0.000018, 0.000019, 0.00002, 0.000021},
			OrderSize: 1000.0,
			EvalEvery: 60 * time.Second,
		},
		Trend: TrendConfig{
			Period:       14,
			RSIThreshold: 30.0,
			UseAdvisory:  false,
			SampleEvery:  time.Second,
			OrderSize:    1000.0,
		},
		StopLoss: StopLossConfig{
			FixedRatio:    0.05,
			TrailingRatio: 0.05,
			CheckInterval: 60 * time.Second,
		},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaults, nil
		}
		return defaults, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &defaults); err != nil {
		return defaults, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return defaults, nil
}

// Validate проверяет обязательные поля конфигурации
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if c.Solana.WalletPrivateKey == "" {
		return fmt.Errorf("WALLET_PRIVATE_KEY is required")
	}
	if c.Feed.PoolWSEndpoint == "" {
		return fmt.Errorf("POOL_WS_ENDPOINT is required")
	}
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Strategy.Trend.Period < 2 {
		return fmt.Errorf("trend period must be at least 2")
	}
	if c.Feed.SlippagePercent <= 0 {
		return fmt.Errorf("SLIPPAGE_PERCENT must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
