package config

import (
	"fmt"
	"strings"
)

func validate(c *Config) error {
	if err := c.Venue.validate(); err != nil {
		return err
	}
	if err := c.Sync.validate(); err != nil {
		return err
	}
	return nil
}

func (v *VenueConfig) validate() error {
	if strings.TrimSpace(v.TradingURL) == "" {
		return fmt.Errorf("venue.trading_url cannot be empty")
	}
	if strings.TrimSpace(v.DataURL) == "" {
		return fmt.Errorf("venue.data_url cannot be empty")
	}
	if v.TimeoutSeconds <= 0 {
		return fmt.Errorf("venue.timeout_seconds must be > 0")
	}
	return nil
}

func (s *SyncConfig) validate() error {
	if s.OrderLookbackDays <= 0 {
		return fmt.Errorf("sync.order_lookback_days must be > 0")
	}
	if s.BackfillDays <= 0 {
		return fmt.Errorf("sync.backfill_days must be > 0")
	}
	if s.AutoIntervalMin < 0 {
		return fmt.Errorf("sync.auto_interval_minutes cannot be negative")
	}
	for _, id := range s.Accounts {
		if id <= 0 {
			return fmt.Errorf("sync.accounts contains invalid account id %d", id)
		}
	}
	return nil
}
