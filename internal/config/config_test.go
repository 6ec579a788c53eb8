package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "marketsim.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}

	if cfg.Market.Customers != 1000 {
		t.Errorf("Unexpected customer count: %d", cfg.Market.Customers)
	}
	if cfg.Market.Capital != 100000 {
		t.Errorf("Unexpected capital: %v", cfg.Market.Capital)
	}
	if got := strings.Join(cfg.Market.Products, ","); got != "F302,X304,Viper,Starfury,Jumper" {
		t.Errorf("Unexpected products: %s", got)
	}
	if cfg.Plan.Strategy != "fixed" {
		t.Errorf("Unexpected strategy: %s", cfg.Plan.Strategy)
	}

	s := cfg.PlannerSettings()
	if s.Investments["Viper"] != 30000 || s.Margins["X304"] != 10 {
		t.Errorf("Unexpected fixed plan: %v %v", s.Investments, s.Margins)
	}
	total := 0.0
	for _, v := range s.Investments {
		total += v
	}
	if total != cfg.Market.Capital {
		t.Errorf("default plan invests %v of %v", total, cfg.Market.Capital)
	}

	ec := cfg.Engine()
	if ec.Supply.CoefficientMean != 0.01 || ec.Supply.InterceptMax != 0.05 {
		t.Errorf("Unexpected supply params: %+v", ec.Supply)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
market:
  seed: 42
  company: acme
  materials: [iron, copper]
  products: [Widget, Gadget]
  customers: 25
  capital: 5000

plan:
  strategy: fixed
  investments: [3000, 2000]
  margins: [10, 20]

run:
  rounds: 4
  interval: 250ms

storage:
  enabled: true
  db_path: "./data/test.db"

logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if cfg.Market.Seed != 42 || cfg.Market.Company != "acme" {
		t.Errorf("Unexpected market: %+v", cfg.Market)
	}
	if cfg.Run.Interval != 250*time.Millisecond || cfg.Run.Rounds != 4 {
		t.Errorf("Unexpected run: %+v", cfg.Run)
	}
	if !cfg.Storage.Enabled {
		t.Errorf("storage should be enabled")
	}
	// unset keys keep their defaults
	if cfg.Market.BudgetMean != 25 {
		t.Errorf("Unexpected budget mean: %v", cfg.Market.BudgetMean)
	}

	s := cfg.PlannerSettings()
	if s.Investments["Widget"] != 3000 || s.Margins["Gadget"] != 20 {
		t.Errorf("plan not keyed by product name: %v %v", s.Investments, s.Margins)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("MARKETSIM_MARKET_SEED", "7")
	t.Setenv("MARKETSIM_LOGGING_LEVEL", "warn")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Market.Seed != 7 {
		t.Errorf("seed = %d, want 7", cfg.Market.Seed)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("level = %s, want warn", cfg.Logging.Level)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no products", func(c *Config) { c.Market.Products = nil }},
		{"no customers", func(c *Config) { c.Market.Customers = 0 }},
		{"negative capital", func(c *Config) { c.Market.Capital = -1 }},
		{"zero budget mean", func(c *Config) { c.Market.BudgetMean = 0 }},
		{"inverted intercepts", func(c *Config) { c.Supply.InterceptMin = 1; c.Supply.InterceptMax = 0.5 }},
		{"zero intercept min", func(c *Config) { c.Supply.InterceptMin = 0 }},
		{"unknown strategy", func(c *Config) { c.Plan.Strategy = "greedy" }},
		{"short fixed plan", func(c *Config) { c.Plan.Investments = c.Plan.Investments[:2] }},
		{"fixed plan above capital", func(c *Config) { c.Market.Capital = 50000 }},
		{"negative fixed investment", func(c *Config) { c.Plan.Investments[0] = -1 }},
		{"fraction above one", func(c *Config) { c.Plan.Fraction = 1.5 }},
		{"zero rounds", func(c *Config) { c.Run.Rounds = 0 }},
		{"storage without path", func(c *Config) { c.Storage.Enabled = true; c.Storage.DBPath = "" }},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}
