package config

import (
	"os"
	"strconv"
)

// FromEnv overlays TALLY_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("TALLY_DEFAULT_CURRENCY"); v != "" {
		cfg.DefaultCurrency = v
	}
	if v := os.Getenv("TALLY_CHANGE_FEED_DEFAULT_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ChangeFeed.DefaultPageSize = n
		}
	}
	if v := os.Getenv("TALLY_CHANGE_FEED_MAX_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ChangeFeed.MaxPageSize = n
		}
	}
	if v := os.Getenv("TALLY_INKWELL_ENDPOINT"); v != "" {
		cfg.Inkwell.Endpoint = v
	}
	if v := os.Getenv("TALLY_INKWELL_API_KEY"); v != "" {
		cfg.Inkwell.APIKey = v
	}
	if v := os.Getenv("TALLY_INKWELL_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Inkwell.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("TALLY_INVOICE_IVA_PERCENT"); v != "" {
		cfg.InvoiceDefaults.IvaPercent = v
	}
	if v := os.Getenv("TALLY_INVOICE_IIBB_PERCENT"); v != "" {
		cfg.InvoiceDefaults.IibbPercent = v
	}
}
