package config

import "strings"

const (
	defaultAppEnv      = "dev"
	defaultAppLogLevel = "info"
	defaultAppHTTPAddr = ":9980"

	defaultVenueTradingURL = "https://paper-api.alpaca.markets"
	defaultVenueDataURL    = "https://data.alpaca.markets"
	defaultVenueTimeout    = 15
	defaultVenueRetries    = 3
	defaultVenueBackoffMS  = 500
	defaultVenueRate       = 5

	defaultBinanceREST = "https://api.binance.com"

	defaultDatabasePath = "data/portsync.db"
	defaultBarsPath     = "data/bars.db"

	defaultOrderLookbackDays = 7
	defaultBackfillDays      = 365
	defaultQtyTolerance      = 1e-4
	defaultPriceTolerance    = 0.01
)

func (c *Config) applyDefaults() {
	c.App.applyDefaults()
	c.Venue.applyDefaults()
	c.Binance.applyDefaults()
	c.Database.applyDefaults()
	c.Sync.applyDefaults()
}

func (a *AppConfig) applyDefaults() {
	if strings.TrimSpace(a.Env) == "" {
		a.Env = defaultAppEnv
	}
	if strings.TrimSpace(a.LogLevel) == "" {
		a.LogLevel = defaultAppLogLevel
	}
	if strings.TrimSpace(a.HTTPAddr) == "" {
		a.HTTPAddr = defaultAppHTTPAddr
	}
}

func (v *VenueConfig) applyDefaults() {
	if strings.TrimSpace(v.TradingURL) == "" {
		v.TradingURL = defaultVenueTradingURL
	}
	if strings.TrimSpace(v.DataURL) == "" {
		v.DataURL = defaultVenueDataURL
	}
	if v.TimeoutSeconds <= 0 {
		v.TimeoutSeconds = defaultVenueTimeout
	}
	if v.MaxRetries <= 0 {
		v.MaxRetries = defaultVenueRetries
	}
	if v.RetryBackoffMS <= 0 {
		v.RetryBackoffMS = defaultVenueBackoffMS
	}
	if v.RatePerSecond <= 0 {
		v.RatePerSecond = defaultVenueRate
	}
}

func (b *BinanceConfig) applyDefaults() {
	if strings.TrimSpace(b.RESTBaseURL) == "" {
		b.RESTBaseURL = defaultBinanceREST
	}
}

func (d *DatabaseConfig) applyDefaults() {
	if strings.TrimSpace(d.Path) == "" {
		d.Path = defaultDatabasePath
	}
	if strings.TrimSpace(d.BarsPath) == "" {
		d.BarsPath = defaultBarsPath
	}
}

func (s *SyncConfig) applyDefaults() {
	if s.OrderLookbackDays <= 0 {
		s.OrderLookbackDays = defaultOrderLookbackDays
	}
	if s.BackfillDays <= 0 {
		s.BackfillDays = defaultBackfillDays
	}
	if s.QuantityTolerance <= 0 {
		s.QuantityTolerance = defaultQtyTolerance
	}
	if s.PriceToleranceCent <= 0 {
		s.PriceToleranceCent = defaultPriceTolerance
	}
}
