// Command marketsim runs the supply/demand market simulation.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/talgya/marketsim/internal/config"
	"github.com/talgya/marketsim/internal/engine"
	"github.com/talgya/marketsim/internal/persistence"
	"github.com/talgya/marketsim/internal/planner"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfgPath string
	root := &cobra.Command{
		Use:          "marketsim",
		Short:        "Toy market: materials, products, one company and a customer population",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "YAML config file (defaults and MARKETSIM_* env when empty)")

	root.AddCommand(
		newRunCmd(&cfgPath),
		newMarketCmd(&cfgPath),
		newHistoryCmd(&cfgPath),
	)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads and validates the configuration, applies overrides, and
// installs the default logger.
func loadConfig(path string, override func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	setupLogger(cfg.Logging)
	return cfg, nil
}

func setupLogger(lc config.LoggingConfig) {
	var level slog.Level
	switch strings.ToLower(lc.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if lc.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func openLedger(path string) (*persistence.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create ledger dir: %w", err)
		}
	}
	db, err := persistence.Open(path)
	if err != nil {
		return nil, err
	}
	slog.Info("ledger opened", "path", path)
	return db, nil
}

func newRunCmd(cfgPath *string) *cobra.Command {
	var (
		rounds   int
		strategy string
		seed     int64
		quiet    bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run rounds of plan, produce, price and sell",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath, func(c *config.Config) {
				if cmd.Flags().Changed("rounds") {
					c.Run.Rounds = rounds
				}
				if cmd.Flags().Changed("strategy") {
					c.Plan.Strategy = strategy
				}
				if cmd.Flags().Changed("seed") {
					c.Market.Seed = seed
				}
			})
			if err != nil {
				return err
			}

			sim, err := engine.New(cfg.Engine())
			if err != nil {
				return err
			}
			p, err := planner.ByName(cfg.Plan.Strategy, sim.Streams.Seed, cfg.PlannerSettings())
			if err != nil {
				return err
			}

			eng := engine.NewEngine(sim, p)
			eng.Interval = cfg.Run.Interval
			eng.RandomizeEvery = cfg.Run.RandomizeEvery
			eng.OnRandomized = func(round uint64) {
				printWarn(fmt.Sprintf("Market re-randomized before round %d.", round))
			}

			var (
				db    *persistence.DB
				runID string
			)
			if cfg.Storage.Enabled {
				db, err = openLedger(cfg.Storage.DBPath)
				if err != nil {
					return err
				}
				defer db.Close()
				if runID, err = db.StartRun(sim, p.Name()); err != nil {
					return err
				}
			}

			eng.OnSettled = func(rep engine.RoundReport) error {
				if !quiet {
					renderRound(rep)
				}
				if db != nil {
					return db.SaveRound(runID, rep)
				}
				return nil
			}

			reports, err := eng.Run(cmd.Context(), cfg.Run.Rounds)
			if errors.Is(err, context.Canceled) {
				printWarn(fmt.Sprintf("Interrupted after %d round(s).", len(reports)))
				return nil
			}
			if err != nil {
				return err
			}
			renderSummary(reports, sim.Streams.Seed, runID)
			return nil
		},
	}
	cmd.Flags().IntVarP(&rounds, "rounds", "n", 1, "number of rounds to run")
	cmd.Flags().StringVarP(&strategy, "strategy", "s", "fixed", "planner strategy: even, fixed, drift")
	cmd.Flags().Int64Var(&seed, "seed", 0, "market seed (0 = random)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print only the final summary")
	return cmd
}

func newMarketCmd(cfgPath *string) *cobra.Command {
	var (
		seed      int64
		buckets   int
		samples   int
		maxDemand float64
	)
	cmd := &cobra.Command{
		Use:   "market",
		Short: "Show supply curves, material requirements and the customer population",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath, func(c *config.Config) {
				if cmd.Flags().Changed("seed") {
					c.Market.Seed = seed
				}
			})
			if err != nil {
				return err
			}
			sim, err := engine.New(cfg.Engine())
			if err != nil {
				return err
			}
			renderMarket(sim, sim.Market(buckets), samples, maxDemand)
			return nil
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", 0, "market seed (0 = random)")
	cmd.Flags().IntVar(&buckets, "buckets", 10, "budget histogram buckets")
	cmd.Flags().IntVar(&samples, "samples", 0, "supply curve points to print per material")
	cmd.Flags().Float64Var(&maxDemand, "max-demand", 100000, "largest demand sampled on each supply curve")
	return cmd
}

func newHistoryCmd(cfgPath *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent rounds from the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath, nil)
			if err != nil {
				return err
			}
			if _, err := os.Stat(cfg.Storage.DBPath); err != nil {
				return fmt.Errorf("no ledger at %s: %w", cfg.Storage.DBPath, err)
			}
			db, err := persistence.Open(cfg.Storage.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			rows, err := db.RecentRounds(limit)
			if err != nil {
				return err
			}
			renderHistory(rows)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "number of rounds to show")
	return cmd
}
