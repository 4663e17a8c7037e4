package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	DefaultCurrency string          `json:"defaultCurrency" yaml:"defaultCurrency"`
	ChangeFeed      ChangeFeed      `json:"changeFeed" yaml:"changeFeed"`
	Inkwell         Inkwell         `json:"inkwell" yaml:"inkwell"`
	InvoiceDefaults InvoiceDefaults `json:"invoiceDefaults" yaml:"invoiceDefaults"`
}

// ChangeFeed captures paging bounds for the change feeds.
type ChangeFeed struct {
	DefaultPageSize int `json:"defaultPageSize" yaml:"defaultPageSize"`
	MaxPageSize     int `json:"maxPageSize" yaml:"maxPageSize"`
}

// Inkwell configures the outbound client for the external bookkeeping service.
type Inkwell struct {
	Endpoint       string `json:"endpoint" yaml:"endpoint"`
	APIKey         string `json:"apiKey" yaml:"apiKey"`
	TimeoutSeconds int    `json:"timeoutSeconds" yaml:"timeoutSeconds"`
}

// InvoiceDefaults captures baseline tax percentages applied to new invoices.
type InvoiceDefaults struct {
	IvaPercent  string `json:"ivaPercent" yaml:"ivaPercent"`
	IibbPercent string `json:"iibbPercent" yaml:"iibbPercent"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		DefaultCurrency: "ARS",
		ChangeFeed: ChangeFeed{
			DefaultPageSize: 100,
			MaxPageSize:     500,
		},
		Inkwell: Inkwell{
			TimeoutSeconds: 15,
		},
		InvoiceDefaults: InvoiceDefaults{
			IvaPercent:  "21",
			IibbPercent: "3",
		},
	}
}

// Load reads configuration from a JSON or YAML file (by extension). If path
// is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	return cfg, nil
}
