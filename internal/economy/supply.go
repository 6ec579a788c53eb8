// Package economy provides the supply side of the market (materials and their
// supply curves), products priced at material cost plus margin, and the company
// that turns capital into production.
package economy

import (
	"math"
	"math/rand"

	"github.com/talgya/marketsim/internal/entropy"
)

// Default supply parameters for a freshly created material.
const (
	DefaultCoefficient = 5.0
	DefaultExponent    = 1.0
	DefaultIntercept   = 10.0
)

// SupplyCurve maps cumulative demand to unit price:
// price = Coefficient * demand^Exponent + Intercept.
type SupplyCurve struct {
	Coefficient float64 `json:"coefficient"`
	Exponent    float64 `json:"exponent"`
	Intercept   float64 `json:"intercept"`
}

// NewSupplyCurve validates and returns a supply curve. The coefficient and
// intercept must be positive, the exponent non-negative.
func NewSupplyCurve(coefficient, exponent, intercept float64) (SupplyCurve, error) {
	c := SupplyCurve{Coefficient: coefficient, Exponent: exponent, Intercept: intercept}
	if err := c.validate(""); err != nil {
		return SupplyCurve{}, err
	}
	return c, nil
}

func (c SupplyCurve) validate(entity string) error {
	switch {
	case !(c.Coefficient > 0) || math.IsInf(c.Coefficient, 0):
		return configErr("supply curve", entity, c.Coefficient, "coefficient must be positive")
	case !(c.Exponent >= 0) || math.IsInf(c.Exponent, 0):
		return configErr("supply curve", entity, c.Exponent, "exponent must be non-negative")
	case !(c.Intercept > 0) || math.IsInf(c.Intercept, 0):
		return configErr("supply curve", entity, c.Intercept, "intercept must be positive")
	}
	return nil
}

// PriceAt evaluates the curve at demand.
func (c SupplyCurve) PriceAt(demand float64) float64 {
	return c.Coefficient*math.Pow(demand, c.Exponent) + c.Intercept
}

// CurvePoint is one sampled (demand, price) pair.
type CurvePoint struct {
	Demand float64 `json:"demand"`
	Price  float64 `json:"price"`
}

// Sample evaluates the curve at n evenly spaced demands over [0, maxDemand].
func (c SupplyCurve) Sample(maxDemand float64, n int) []CurvePoint {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []CurvePoint{{Demand: 0, Price: c.PriceAt(0)}}
	}
	points := make([]CurvePoint, n)
	step := maxDemand / float64(n-1)
	for i := range points {
		d := step * float64(i)
		points[i] = CurvePoint{Demand: d, Price: c.PriceAt(d)}
	}
	return points
}

// SupplyParams describes the distributions random supply curves are drawn from.
type SupplyParams struct {
	CoefficientMean float64
	CoefficientStd  float64
	ExponentMean    float64
	ExponentStd     float64
	InterceptMin    float64
	InterceptMax    float64
}

// DefaultSupplyParams keeps curves positive, near-linear and mildly convex.
func DefaultSupplyParams() SupplyParams {
	return SupplyParams{
		CoefficientMean: 0.01,
		CoefficientStd:  0.001,
		ExponentMean:    1.0,
		ExponentStd:     0.1,
		InterceptMin:    0.01,
		InterceptMax:    0.05,
	}
}

// maxRedraws bounds the rejection loop for out-of-range normal draws.
const maxRedraws = 64

// RandomSupplyCurve draws a curve from p. Normal draws that land outside the
// valid range are redrawn, then clamped as a last resort.
func RandomSupplyCurve(rng *rand.Rand, p SupplyParams) SupplyCurve {
	coeff := entropy.Normal(rng, p.CoefficientMean, p.CoefficientStd)
	for i := 0; coeff <= 0 && i < maxRedraws; i++ {
		coeff = entropy.Normal(rng, p.CoefficientMean, p.CoefficientStd)
	}
	if coeff <= 0 {
		coeff = math.Abs(p.CoefficientMean)
	}

	exp := entropy.Normal(rng, p.ExponentMean, p.ExponentStd)
	for i := 0; exp < 0 && i < maxRedraws; i++ {
		exp = entropy.Normal(rng, p.ExponentMean, p.ExponentStd)
	}
	if exp < 0 {
		exp = 0
	}

	return SupplyCurve{
		Coefficient: coeff,
		Exponent:    exp,
		Intercept:   entropy.Uniform(rng, p.InterceptMin, p.InterceptMax),
	}
}

// Material is a raw input with a supply curve and the demand placed on it
// during the current round.
type Material struct {
	name   string
	curve  SupplyCurve
	demand float64
}

// NewMaterial creates a material with the default supply curve.
func NewMaterial(name string) (*Material, error) {
	if name == "" {
		return nil, configErr("new material", name, nil, "name is empty")
	}
	return &Material{
		name: name,
		curve: SupplyCurve{
			Coefficient: DefaultCoefficient,
			Exponent:    DefaultExponent,
			Intercept:   DefaultIntercept,
		},
	}, nil
}

// NewMaterials creates one default material per name. Names must be unique.
func NewMaterials(names []string) ([]*Material, error) {
	if len(names) == 0 {
		return nil, configErr("new materials", "", nil, "material name list is empty")
	}
	seen := make(map[string]bool, len(names))
	out := make([]*Material, 0, len(names))
	for _, name := range names {
		if seen[name] {
			return nil, configErr("new materials", name, nil, "duplicate material name")
		}
		seen[name] = true
		m, err := NewMaterial(name)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (m *Material) Name() string { return m.name }

func (m *Material) Curve() SupplyCurve { return m.curve }

func (m *Material) Demand() float64 { return m.demand }

// Price is the unit price at the current cumulative demand.
func (m *Material) Price() float64 {
	return m.curve.PriceAt(m.demand)
}

// SetCurve replaces the supply parameters.
func (m *Material) SetCurve(c SupplyCurve) error {
	if err := c.validate(m.name); err != nil {
		return err
	}
	m.curve = c
	return nil
}

// Randomize redraws the supply parameters from p.
func (m *Material) Randomize(rng *rand.Rand, p SupplyParams) {
	m.curve = RandomSupplyCurve(rng, p)
}

// IncreaseDemand adds amount to the cumulative demand. Demand is only ever
// cleared by Reset.
func (m *Material) IncreaseDemand(amount float64) error {
	if !(amount >= 0) || math.IsInf(amount, 0) {
		return configErr("increase demand", m.name, amount, "demand increment must be non-negative")
	}
	m.demand += amount
	return nil
}

// SetDemand overwrites the cumulative demand.
func (m *Material) SetDemand(demand float64) error {
	if !(demand >= 0) || math.IsInf(demand, 0) {
		return configErr("set demand", m.name, demand, "demand must be non-negative")
	}
	m.demand = demand
	return nil
}

// Reset clears the round's demand and keeps the supply curve.
func (m *Material) Reset() {
	m.demand = 0
}
