// Package planner provides company strategies that decide, each round, how
// much capital goes to every product and at what profit margin.
package planner

import (
	"fmt"
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Plan is one round's per-product investments and margin percentages.
type Plan struct {
	Investments map[string]float64 `json:"investments"`
	Margins     map[string]float64 `json:"margins"`
}

// Total is the sum of all investments.
func (p Plan) Total() float64 {
	sum := 0.0
	for _, v := range p.Investments {
		sum += v
	}
	return sum
}

// Planner decides the plan for a round given the product names, in setup
// order, and the capital available.
type Planner interface {
	Name() string
	Plan(round uint64, products []string, capital float64) Plan
}

// Even splits a fraction of capital equally and applies one margin to all.
type Even struct {
	Fraction      float64 // share of capital to invest, in [0, 1]
	MarginPercent float64
}

func (e Even) Name() string { return "even" }

func (e Even) Plan(_ uint64, products []string, capital float64) Plan {
	weights := make([]float64, len(products))
	for i := range weights {
		weights[i] = 1
	}
	margins := make([]float64, len(products))
	for i := range margins {
		margins[i] = e.MarginPercent
	}
	return split(products, capital*clamp01(e.Fraction), weights, margins)
}

// Fixed replays the same investments and margins every round.
type Fixed struct {
	Investments map[string]float64
	Margins     map[string]float64
}

func (f Fixed) Name() string { return "fixed" }

func (f Fixed) Plan(_ uint64, _ []string, _ float64) Plan {
	p := Plan{
		Investments: make(map[string]float64, len(f.Investments)),
		Margins:     make(map[string]float64, len(f.Margins)),
	}
	for k, v := range f.Investments {
		p.Investments[k] = v
	}
	for k, v := range f.Margins {
		p.Margins[k] = v
	}
	return p
}

// Drift walks per-product allocations and margins through smooth noise so
// consecutive rounds differ a little and distant rounds differ a lot.
type Drift struct {
	noise        opensimplex.Noise
	Fraction     float64 // share of capital to invest
	Frequency    float64 // noise steps per round
	BaseMargin   float64 // margin percent at the noise midpoint
	MarginSpread float64 // maximum deviation from BaseMargin
}

// productSpacing separates products along the noise's second axis.
const productSpacing = 7.3

// NewDrift creates a drift planner seeded independently of the market.
func NewDrift(seed int64, fraction, frequency, baseMargin, marginSpread float64) *Drift {
	return &Drift{
		noise:        opensimplex.NewNormalized(seed),
		Fraction:     fraction,
		Frequency:    frequency,
		BaseMargin:   baseMargin,
		MarginSpread: marginSpread,
	}
}

func (d *Drift) Name() string { return "drift" }

func (d *Drift) Plan(round uint64, products []string, capital float64) Plan {
	x := float64(round) * d.Frequency
	weights := make([]float64, len(products))
	margins := make([]float64, len(products))
	for i := range products {
		y := float64(i) * productSpacing
		weights[i] = d.noise.Eval2(x, y)
		// Offset on the first axis decorrelates margins from allocations.
		m := d.BaseMargin + (2*d.noise.Eval2(x+1000, y)-1)*d.MarginSpread
		margins[i] = math.Max(m, 0)
	}
	return split(products, capital*clamp01(d.Fraction), weights, margins)
}

// split divides budget across products in proportion to weights. Negative
// weights count as zero; all-zero weights fall back to an even split.
func split(products []string, budget float64, weights, margins []float64) Plan {
	p := Plan{
		Investments: make(map[string]float64, len(products)),
		Margins:     make(map[string]float64, len(products)),
	}
	total := 0.0
	for _, w := range weights {
		total += math.Max(w, 0)
	}
	for i, name := range products {
		share := 1 / float64(len(products))
		if total > 0 {
			share = math.Max(weights[i], 0) / total
		}
		p.Investments[name] = budget * share
		p.Margins[name] = margins[i]
	}
	return p
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}

// ByName returns the planner for a strategy name.
func ByName(name string, seed int64, cfg Settings) (Planner, error) {
	switch name {
	case "even":
		return Even{Fraction: cfg.Fraction, MarginPercent: cfg.MarginPercent}, nil
	case "fixed":
		return Fixed{Investments: cfg.Investments, Margins: cfg.Margins}, nil
	case "drift":
		return NewDrift(seed, cfg.Fraction, cfg.DriftFrequency, cfg.MarginPercent, cfg.DriftMarginSpread), nil
	}
	return nil, fmt.Errorf("unknown planner strategy %q", name)
}

// Settings collects the parameters every strategy may need.
type Settings struct {
	Fraction          float64
	MarginPercent     float64
	Investments       map[string]float64
	Margins           map[string]float64
	DriftFrequency    float64
	DriftMarginSpread float64
}
