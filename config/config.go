package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rustyeddy/riskdesk/market"
	"github.com/rustyeddy/riskdesk/risk"
	"gopkg.in/yaml.v3"
)

// Config represents the complete riskdesk configuration
type Config struct {
	Account AccountConfig `json:"account" yaml:"account"`
	Risk    RiskConfig    `json:"risk" yaml:"risk"`
	Trading TradingConfig `json:"trading" yaml:"trading"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
	Log     LogConfig     `json:"log" yaml:"log"`
}

// AccountConfig describes the account used when the caller does not
// pass a balance explicitly.
type AccountConfig struct {
	ID       string  `json:"id" yaml:"id"`
	Currency string  `json:"currency" yaml:"currency"`
	Balance  float64 `json:"balance" yaml:"balance"`
}

// RiskConfig holds the calculator limits and the stop/target defaults.
type RiskConfig struct {
	risk.Limits `yaml:",inline"`

	ATRPeriod     int       `json:"atr_period" yaml:"atr_period"`
	ATRMultiplier float64   `json:"atr_multiplier" yaml:"atr_multiplier"`
	TPRatios      []float64 `json:"tp_ratios" yaml:"tp_ratios"`
}

type TradingConfig struct {
	DefaultSymbol    string `json:"default_symbol" yaml:"default_symbol"`
	DefaultTimeframe string `json:"default_timeframe" yaml:"default_timeframe"`
	MagicNumber      int    `json:"magic_number" yaml:"magic_number"`
}

// JournalConfig points at the SQLite ledger.
type JournalConfig struct {
	DBPath string `json:"db_path" yaml:"db_path"`
}

type LogConfig struct {
	Level       string `json:"level" yaml:"level"` // debug, info, warn, error
	File        string `json:"file,omitempty" yaml:"file,omitempty"`
	Development bool   `json:"development,omitempty" yaml:"development,omitempty"`
}

// LoadFromFile loads configuration from a file (YAML, or JSON as a fallback).
// Fields missing from the file keep their Default values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Load builds the effective configuration: defaults, then the config
// file if path is set, then the .env file if envFile is set, then the
// process environment. Either path may be empty.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}

	if envFile != "" {
		// godotenv never overrides variables already set in the process.
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from environment variables. The names
// use the keys of the bot's .env files.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	floats := []struct {
		key string
		dst *float64
	}{
		{"RISK_PER_TRADE", &c.Risk.RiskPerTrade},
		{"MAX_DRAWDOWN", &c.Risk.MaxDrawdown},
		{"MAX_DAILY_LOSS", &c.Risk.MaxDailyLoss},
		{"POINT_VALUE", &c.Risk.PointValue},
		{"ATR_MULTIPLIER", &c.Risk.ATRMultiplier},
		{"ACCOUNT_BALANCE", &c.Account.Balance},
	}
	for _, f := range floats {
		v, ok := lookup(f.key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("env %s: %w", f.key, err)
		}
		*f.dst = x
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"MAGIC_NUMBER", &c.Trading.MagicNumber},
		{"ATR_PERIOD", &c.Risk.ATRPeriod},
	}
	for _, i := range ints {
		v, ok := lookup(i.key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		x, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("env %s: %w", i.key, err)
		}
		*i.dst = x
	}

	strs := []struct {
		key string
		dst *string
	}{
		{"DEFAULT_SYMBOL", &c.Trading.DefaultSymbol},
		{"DEFAULT_TIMEFRAME", &c.Trading.DefaultTimeframe},
		{"LOG_LEVEL", &c.Log.Level},
		{"LOG_FILE", &c.Log.File},
		{"RISKDESK_DB", &c.Journal.DBPath},
	}
	for _, s := range strs {
		if v, ok := lookup(s.key); ok && v != "" {
			*s.dst = v
		}
	}
	return nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.Currency == "" {
		return fmt.Errorf("account.currency is required")
	}
	if c.Account.Balance < 0 {
		return fmt.Errorf("account.balance must not be negative")
	}
	if err := c.Risk.Limits.Validate(); err != nil {
		return fmt.Errorf("risk: %w", err)
	}
	if c.Risk.ATRPeriod <= 0 {
		return fmt.Errorf("risk.atr_period must be positive")
	}
	if c.Risk.ATRMultiplier <= 0 {
		return fmt.Errorf("risk.atr_multiplier must be positive")
	}
	for _, r := range c.Risk.TPRatios {
		if r <= 0 {
			return fmt.Errorf("risk.tp_ratios must all be positive")
		}
	}
	if c.Trading.DefaultSymbol == "" {
		return fmt.Errorf("trading.default_symbol is required")
	}
	if _, err := market.Lookup(c.Trading.DefaultSymbol); err != nil {
		return fmt.Errorf("trading.default_symbol: %w", err)
	}
	if _, err := market.ParseTimeframe(c.Trading.DefaultTimeframe); err != nil {
		return fmt.Errorf("trading.default_timeframe: %w", err)
	}
	if c.Journal.DBPath == "" {
		return fmt.Errorf("journal.db_path is required")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("log.level must be one of debug, info, warn, error")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			ID:       "MT5-DEMO",
			Currency: "USD",
			Balance:  10000,
		},
		Risk: RiskConfig{
			Limits:        risk.DefaultLimits(),
			ATRPeriod:     14,
			ATRMultiplier: risk.DefaultATRMultiplier,
			TPRatios:      append([]float64(nil), risk.DefaultTPRatios...),
		},
		Trading: TradingConfig{
			DefaultSymbol:    "EURUSD",
			DefaultTimeframe: "H1",
			MagicNumber:      123456,
		},
		Journal: JournalConfig{
			DBPath: "./riskdesk.sqlite",
		},
		Log: LogConfig{
			Level: "info",
			File:  "trading_bot.log",
		},
	}
}
