package config

// Config is the top-level configuration for portsync.
type Config struct {
	App      AppConfig      `toml:"app"`
	Venue    VenueConfig    `toml:"venue"`
	Binance  BinanceConfig  `toml:"binance"`
	Database DatabaseConfig `toml:"database"`
	Sync     SyncConfig     `toml:"sync"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
}

// VenueConfig describes the external brokerage REST API.
type VenueConfig struct {
	TradingURL     string `toml:"trading_url"`
	DataURL        string `toml:"data_url"`
	KeyID          string `toml:"key_id"`
	SecretKey      string `toml:"secret_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxRetries     int    `toml:"max_retries"`
	RetryBackoffMS int    `toml:"retry_backoff_ms"`
	RatePerSecond  int    `toml:"rate_per_second"`
}

// BinanceConfig enables the crypto daily-bar source.
type BinanceConfig struct {
	Enabled       bool     `toml:"enabled"`
	RESTBaseURL   string   `toml:"rest_base_url"`
	CryptoSymbols []string `toml:"crypto_symbols"`
}

type DatabaseConfig struct {
	Path     string `toml:"path"`
	BarsPath string `toml:"bars_path"`
}

// SyncConfig controls reconciliation behaviour and the background scheduler.
type SyncConfig struct {
	OrderLookbackDays  int     `toml:"order_lookback_days"`
	BackfillDays       int     `toml:"backfill_days"`
	BackfillOnCreate   bool    `toml:"backfill_on_create"`
	AutoIntervalMin    int     `toml:"auto_interval_minutes"`
	Accounts           []int64 `toml:"accounts"`
	QuantityTolerance  float64 `toml:"quantity_tolerance"`
	PriceToleranceCent float64 `toml:"price_tolerance"`
}
