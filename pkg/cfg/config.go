// Package cfg loads the copier runtime configuration. Replication options
// come from a yaml file, credentials come from the environment.
package cfg

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/peter-kozarec/parity/pkg/common"
	"github.com/peter-kozarec/parity/pkg/copier"
	"github.com/peter-kozarec/parity/pkg/utility/fixed"
)

// Credentials are the cTrader OpenAPI application and access token, read from
// the environment so the yaml file can be committed.
type Credentials struct {
	AppID       string
	AppSecret   string
	AccessToken string
}

// Config is the file representation of the copier configuration.
type Config struct {
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	SourceAccount      int64 `json:"source_account" yaml:"source_account"`
	DestinationAccount int64 `json:"destination_account" yaml:"destination_account"`

	Instruments []int64 `json:"instruments" yaml:"instruments"`

	GlobalRiskRatio  float64 `json:"global_risk_ratio,omitempty" yaml:"global_risk_ratio,omitempty"`
	MinLotSize       int64   `json:"min_lot_size,omitempty" yaml:"min_lot_size,omitempty"`
	MaxLotMultiplier float64 `json:"max_lot_multiplier,omitempty" yaml:"max_lot_multiplier,omitempty"`

	FallbackMultipliers       map[int64]float64 `json:"fallback_multipliers,omitempty" yaml:"fallback_multipliers,omitempty"`
	DefaultFallbackMultiplier float64           `json:"default_fallback_multiplier,omitempty" yaml:"default_fallback_multiplier,omitempty"`
	GlobalOverrideMultiplier  float64           `json:"global_override_multiplier,omitempty" yaml:"global_override_multiplier,omitempty"`

	OrderComment string `json:"order_comment,omitempty" yaml:"order_comment,omitempty"`

	JournalPath string `json:"journal_path,omitempty" yaml:"journal_path,omitempty"`
}

// LoadFromFile loads configuration from a file, trying yaml first and falling
// back to json.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config (tried yaml and json): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadCredentials reads credentials from the environment. The CtSourceAccount
// and CtDestinationAccount variables, when set, override the file values.
func (c *Config) LoadCredentials() (Credentials, error) {
	creds := Credentials{
		AppID:       os.Getenv("CtAppId"),
		AppSecret:   os.Getenv("CtAppSecret"),
		AccessToken: os.Getenv("CtAccessToken"),
	}
	if creds.AppID == "" || creds.AppSecret == "" || creds.AccessToken == "" {
		return Credentials{}, fmt.Errorf("CtAppId, CtAppSecret and CtAccessToken must be set")
	}

	if v := os.Getenv("CtSourceAccount"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Credentials{}, fmt.Errorf("invalid CtSourceAccount: %w", err)
		}
		c.SourceAccount = id
	}
	if v := os.Getenv("CtDestinationAccount"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Credentials{}, fmt.Errorf("invalid CtDestinationAccount: %w", err)
		}
		c.DestinationAccount = id
	}
	return creds, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	if c.SourceAccount == 0 {
		return fmt.Errorf("source_account is required")
	}
	if c.DestinationAccount == 0 {
		return fmt.Errorf("destination_account is required")
	}
	if c.SourceAccount == c.DestinationAccount {
		return fmt.Errorf("source and destination accounts must differ")
	}
	if len(c.Instruments) == 0 {
		return fmt.Errorf("at least one instrument is required")
	}
	if c.GlobalRiskRatio < 0 {
		return fmt.Errorf("global_risk_ratio must not be negative")
	}
	if c.MaxLotMultiplier < 0 {
		return fmt.Errorf("max_lot_multiplier must not be negative")
	}
	return nil
}

// Copier converts the file representation to the engine configuration. Zero
// values are left zero so the engine applies its own defaults.
func (c *Config) Copier() copier.Configuration {
	out := copier.Configuration{
		SourceAccount:      c.SourceAccount,
		DestinationAccount: c.DestinationAccount,
		MinLotSize:         c.MinLotSize,
		OrderComment:       c.OrderComment,
	}
	for _, id := range c.Instruments {
		out.Instruments = append(out.Instruments, id)
	}
	if c.GlobalRiskRatio != 0 {
		out.GlobalRiskRatio = fixed.FromFloat64(c.GlobalRiskRatio)
	}
	if c.MaxLotMultiplier != 0 {
		out.MaxLotMultiplier = fixed.FromFloat64(c.MaxLotMultiplier)
	}
	if c.DefaultFallbackMultiplier != 0 {
		out.DefaultFallbackMultiplier = fixed.FromFloat64(c.DefaultFallbackMultiplier)
	}
	if c.GlobalOverrideMultiplier != 0 {
		out.GlobalOverrideMultiplier = fixed.FromFloat64(c.GlobalOverrideMultiplier)
	}
	if len(c.FallbackMultipliers) > 0 {
		out.PerInstrumentFallbackMultiplier = make(map[common.InstrumentID]fixed.Point, len(c.FallbackMultipliers))
		for id, m := range c.FallbackMultipliers {
			out.PerInstrumentFallbackMultiplier[id] = fixed.FromFloat64(m)
		}
	}
	return out
}
