// Package config loads marketsim settings from an optional YAML file and
// MARKETSIM_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/talgya/marketsim/internal/economy"
	"github.com/talgya/marketsim/internal/engine"
	"github.com/talgya/marketsim/internal/planner"
)

// Config represents the complete application configuration
type Config struct {
	Market  MarketConfig  `mapstructure:"market"`
	Supply  SupplyConfig  `mapstructure:"supply"`
	Plan    PlanConfig    `mapstructure:"plan"`
	Run     RunConfig     `mapstructure:"run"`
	Storage StorageConfig `mapstructure:"storage"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// MarketConfig describes the market entities.
type MarketConfig struct {
	Seed             int64    `mapstructure:"seed"` // 0 = crypto-random
	Company          string   `mapstructure:"company"`
	Materials        []string `mapstructure:"materials"`
	Products         []string `mapstructure:"products"`
	Customers        int      `mapstructure:"customers"`
	Capital          float64  `mapstructure:"capital"`
	BudgetMean       float64  `mapstructure:"budget_mean"`
	BudgetMeanSpread float64  `mapstructure:"budget_mean_spread"`
}

// SupplyConfig holds the distributions random supply curves are drawn from.
type SupplyConfig struct {
	CoefficientMean float64 `mapstructure:"coefficient_mean"`
	CoefficientStd  float64 `mapstructure:"coefficient_std"`
	ExponentMean    float64 `mapstructure:"exponent_mean"`
	ExponentStd     float64 `mapstructure:"exponent_std"`
	InterceptMin    float64 `mapstructure:"intercept_min"`
	InterceptMax    float64 `mapstructure:"intercept_max"`
}

// PlanConfig selects and tunes the company strategy. Investments and Margins
// are listed in product order; viper folds map keys to lower case, which would
// lose product names.
type PlanConfig struct {
	Strategy          string    `mapstructure:"strategy"`
	Fraction          float64   `mapstructure:"fraction"`
	MarginPercent     float64   `mapstructure:"margin_percent"`
	Investments       []float64 `mapstructure:"investments"`
	Margins           []float64 `mapstructure:"margins"`
	DriftFrequency    float64   `mapstructure:"drift_frequency"`
	DriftMarginSpread float64   `mapstructure:"drift_margin_spread"`
}

// RunConfig controls the round loop.
type RunConfig struct {
	Rounds         int           `mapstructure:"rounds"`
	Interval       time.Duration `mapstructure:"interval"`
	RandomizeEvery uint64        `mapstructure:"randomize_every"`
}

// StorageConfig holds ledger configuration
type StorageConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DBPath  string `mapstructure:"db_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from path, if non-empty, and from environment
// variables. An empty path yields defaults plus environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// MARKETSIM_MARKET_SEED overrides market.seed
	v.SetEnvPrefix("MARKETSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	def := engine.DefaultConfig()

	// Market defaults
	v.SetDefault("market.seed", 0)
	v.SetDefault("market.company", def.CompanyName)
	v.SetDefault("market.materials", def.Materials)
	v.SetDefault("market.products", def.Products)
	v.SetDefault("market.customers", def.Customers)
	v.SetDefault("market.capital", def.Capital)
	v.SetDefault("market.budget_mean", def.BudgetMean)
	v.SetDefault("market.budget_mean_spread", def.BudgetMeanSpread)

	// Supply defaults
	v.SetDefault("supply.coefficient_mean", def.Supply.CoefficientMean)
	v.SetDefault("supply.coefficient_std", def.Supply.CoefficientStd)
	v.SetDefault("supply.exponent_mean", def.Supply.ExponentMean)
	v.SetDefault("supply.exponent_std", def.Supply.ExponentStd)
	v.SetDefault("supply.intercept_min", def.Supply.InterceptMin)
	v.SetDefault("supply.intercept_max", def.Supply.InterceptMax)

	// Plan defaults
	v.SetDefault("plan.strategy", "fixed")
	v.SetDefault("plan.fraction", 1.0)
	v.SetDefault("plan.margin_percent", 5.0)
	v.SetDefault("plan.investments", []float64{20000, 20000, 30000, 20000, 10000})
	v.SetDefault("plan.margins", []float64{5, 10, 5, 1, 3})
	v.SetDefault("plan.drift_frequency", 0.15)
	v.SetDefault("plan.drift_margin_spread", 4.0)

	// Run defaults
	v.SetDefault("run.rounds", 1)
	v.SetDefault("run.interval", "0s")
	v.SetDefault("run.randomize_every", 0)

	// Storage defaults
	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.db_path", "./data/marketsim.db")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Market config
	if c.Market.Company == "" {
		return fmt.Errorf("market.company is required")
	}
	if len(c.Market.Materials) == 0 {
		return fmt.Errorf("market.materials must contain at least one material")
	}
	if len(c.Market.Products) == 0 {
		return fmt.Errorf("market.products must contain at least one product")
	}
	if c.Market.Customers < 1 {
		return fmt.Errorf("market.customers must be at least 1")
	}
	if c.Market.Capital < 0 {
		return fmt.Errorf("market.capital must not be negative")
	}
	if c.Market.BudgetMean <= 0 {
		return fmt.Errorf("market.budget_mean must be positive")
	}
	if c.Market.BudgetMeanSpread < 0 {
		return fmt.Errorf("market.budget_mean_spread must not be negative")
	}

	// Validate Supply config
	if c.Supply.CoefficientMean <= 0 || c.Supply.CoefficientStd < 0 {
		return fmt.Errorf("supply.coefficient_mean must be positive and supply.coefficient_std not negative")
	}
	if c.Supply.ExponentMean < 0 || c.Supply.ExponentStd < 0 {
		return fmt.Errorf("supply.exponent_mean and supply.exponent_std must not be negative")
	}
	if !(c.Supply.InterceptMin > 0) || c.Supply.InterceptMax < c.Supply.InterceptMin {
		return fmt.Errorf("supply intercept range must satisfy 0 < intercept_min <= intercept_max")
	}

	// Validate Plan config
	switch c.Plan.Strategy {
	case "even", "drift":
	case "fixed":
		if len(c.Plan.Investments) != len(c.Market.Products) {
			return fmt.Errorf("plan.investments needs one amount per product (%d), got %d",
				len(c.Market.Products), len(c.Plan.Investments))
		}
		if len(c.Plan.Margins) != len(c.Market.Products) {
			return fmt.Errorf("plan.margins needs one percent per product (%d), got %d",
				len(c.Market.Products), len(c.Plan.Margins))
		}
		total := 0.0
		for _, v := range c.Plan.Investments {
			if v < 0 {
				return fmt.Errorf("plan.investments must not be negative")
			}
			total += v
		}
		if total > c.Market.Capital*(1+1e-9) {
			return fmt.Errorf("plan.investments total %.2f exceeds market.capital %.2f", total, c.Market.Capital)
		}
	default:
		return fmt.Errorf("plan.strategy must be one of: even, fixed, drift")
	}
	if c.Plan.Fraction < 0 || c.Plan.Fraction > 1 {
		return fmt.Errorf("plan.fraction must be between 0.0 and 1.0")
	}
	if c.Plan.MarginPercent < 0 {
		return fmt.Errorf("plan.margin_percent must not be negative")
	}
	if c.Plan.DriftFrequency < 0 || c.Plan.DriftMarginSpread < 0 {
		return fmt.Errorf("plan drift parameters must not be negative")
	}

	// Validate Run config
	if c.Run.Rounds < 1 {
		return fmt.Errorf("run.rounds must be at least 1")
	}
	if c.Run.Interval < 0 {
		return fmt.Errorf("run.interval must not be negative")
	}

	// Validate Storage config
	if c.Storage.Enabled && c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required when storage is enabled")
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// Engine converts the market and supply sections into an engine.Config.
func (c *Config) Engine() engine.Config {
	return engine.Config{
		Seed:             c.Market.Seed,
		CompanyName:      c.Market.Company,
		Materials:        c.Market.Materials,
		Products:         c.Market.Products,
		Customers:        c.Market.Customers,
		Capital:          c.Market.Capital,
		BudgetMean:       c.Market.BudgetMean,
		BudgetMeanSpread: c.Market.BudgetMeanSpread,
		Supply: economy.SupplyParams{
			CoefficientMean: c.Supply.CoefficientMean,
			CoefficientStd:  c.Supply.CoefficientStd,
			ExponentMean:    c.Supply.ExponentMean,
			ExponentStd:     c.Supply.ExponentStd,
			InterceptMin:    c.Supply.InterceptMin,
			InterceptMax:    c.Supply.InterceptMax,
		},
	}
}

// PlannerSettings keys the plan lists by product name.
func (c *Config) PlannerSettings() planner.Settings {
	s := planner.Settings{
		Fraction:          c.Plan.Fraction,
		MarginPercent:     c.Plan.MarginPercent,
		Investments:       make(map[string]float64, len(c.Market.Products)),
		Margins:           make(map[string]float64, len(c.Market.Products)),
		DriftFrequency:    c.Plan.DriftFrequency,
		DriftMarginSpread: c.Plan.DriftMarginSpread,
	}
	for i, name := range c.Market.Products {
		if i < len(c.Plan.Investments) {
			s.Investments[name] = c.Plan.Investments[i]
		}
		if i < len(c.Plan.Margins) {
			s.Margins[name] = c.Plan.Margins[i]
		}
	}
	return s
}
