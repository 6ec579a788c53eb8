package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/talgya/marketsim/internal/planner"
)

// Engine drives a Simulation forward one round at a time.
type Engine struct {
	Sim      *Simulation
	Planner  planner.Planner
	Interval time.Duration // pause between rounds, 0 runs flat out

	// Callbacks, populated during setup.
	OnSettled    func(rep RoundReport) error // after every settled round
	OnRandomized func(round uint64)          // after each market re-draw

	// RandomizeEvery re-draws the market before every Nth round. 0 never does.
	RandomizeEvery uint64
}

// NewEngine creates an engine for sim driven by p.
func NewEngine(sim *Simulation, p planner.Planner) *Engine {
	return &Engine{Sim: sim, Planner: p}
}

// Run plays rounds until that many have settled or ctx is done. It returns
// the reports in order; on cancellation the reports settled so far come back
// with ctx's error.
func (e *Engine) Run(ctx context.Context, rounds int) ([]RoundReport, error) {
	if e.Sim == nil || e.Planner == nil {
		return nil, fmt.Errorf("engine needs a simulation and a planner")
	}
	slog.Info("simulation engine started",
		"round", e.Sim.Round,
		"rounds", rounds,
		"strategy", e.Planner.Name(),
	)

	reports := make([]RoundReport, 0, max(rounds, 0))
	for i := 0; i < rounds; i++ {
		if err := ctx.Err(); err != nil {
			slog.Info("simulation engine stopped", "round", e.Sim.Round, "reason", err)
			return reports, err
		}

		rep, err := e.step()
		if err != nil {
			return reports, err
		}
		reports = append(reports, rep)

		if e.Interval > 0 && i < rounds-1 {
			select {
			case <-ctx.Done():
			case <-time.After(e.Interval):
			}
		}
	}

	slog.Info("simulation engine stopped", "round", e.Sim.Round)
	return reports, nil
}

// step advances the simulation by one round.
func (e *Engine) step() (RoundReport, error) {
	next := e.Sim.Round + 1
	if e.RandomizeEvery > 0 && next > 1 && (next-1)%e.RandomizeEvery == 0 {
		if err := e.Sim.Randomize(); err != nil {
			return RoundReport{}, fmt.Errorf("round %d randomize: %w", next, err)
		}
		if e.OnRandomized != nil {
			e.OnRandomized(next)
		}
	}

	plan := e.Planner.Plan(next, e.Sim.ProductNames(), e.Sim.Capital())
	rep, err := e.Sim.RunRound(plan)
	if err != nil {
		return RoundReport{}, err
	}
	if e.OnSettled != nil {
		if err := e.OnSettled(rep); err != nil {
			return rep, fmt.Errorf("round %d settled hook: %w", rep.Round, err)
		}
	}
	return rep, nil
}
