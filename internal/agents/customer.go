// Package agents provides the customer population: budgets, product
// preferences, and the budget-constrained stochastic purchase loop.
package agents

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/talgya/marketsim/internal/economy"
	"github.com/talgya/marketsim/internal/entropy"
)

// ParetoShape is the tail shape of the budget distribution. With shape 2 the
// unscaled draw has mean 1, so the scale equals the population mean budget.
const ParetoShape = 2.0

// PreferenceTolerance bounds how far a preference vector may sum from 1.
const PreferenceTolerance = 1e-9

// State tracks a customer through one round.
type State uint8

const (
	StateIdle       State = iota // budget restored, nothing bought yet
	StatePurchasing              // inside the purchase loop
	StateExhausted               // nothing affordable and in stock remains
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePurchasing:
		return "purchasing"
	case StateExhausted:
		return "exhausted"
	}
	return "unknown"
}

// Customer is an independent buyer with a fixed budget and a fixed preference
// distribution over products. Products are shared with the company.
type Customer struct {
	name        string
	products    []*economy.Product
	preferences []float64
	purchases   []int

	budget    float64
	remaining float64
	state     State
}

// NewCustomer creates a customer with zero budget and preferences spread
// evenly over products.
func NewCustomer(name string, products []*economy.Product) (*Customer, error) {
	if name == "" {
		return nil, configErr("new customer", name, nil, "name is empty")
	}
	if len(products) == 0 {
		return nil, configErr("new customer", name, nil, "product list is empty")
	}
	prefs := make([]float64, len(products))
	for i := range prefs {
		prefs[i] = 1 / float64(len(products))
	}
	return &Customer{
		name:        name,
		products:    products,
		preferences: prefs,
		purchases:   make([]int, len(products)),
	}, nil
}

func configErr(op, entity string, value any, reason string) error {
	return &economy.Error{Op: op, Entity: entity, Value: value, Err: fmt.Errorf("%w: %s", economy.ErrConfiguration, reason)}
}

func (c *Customer) Name() string { return c.name }

func (c *Customer) State() State { return c.state }

func (c *Customer) Budget() float64 { return c.budget }

func (c *Customer) Remaining() float64 { return c.remaining }

// Products returns the products this customer chooses between.
func (c *Customer) Products() []*economy.Product { return c.products }

// Preferences returns a copy of the preference vector, aligned with Products.
func (c *Customer) Preferences() []float64 {
	return append([]float64(nil), c.preferences...)
}

// Purchases returns a copy of this round's per-product purchase counts.
func (c *Customer) Purchases() []int {
	return append([]int(nil), c.purchases...)
}

// TotalPurchases is the number of units bought this round.
func (c *Customer) TotalPurchases() int {
	n := 0
	for _, v := range c.purchases {
		n += v
	}
	return n
}

// SetBudget sets the total budget and restores the remaining budget to it.
func (c *Customer) SetBudget(budget float64) error {
	if !(budget >= 0) || math.IsInf(budget, 0) {
		return configErr("set budget", c.name, budget, "budget must be non-negative")
	}
	c.budget = budget
	c.remaining = budget
	return nil
}

// RandomizeBudget draws the budget from a Lomax distribution scaled by mean.
func (c *Customer) RandomizeBudget(rng *rand.Rand, mean float64) error {
	if !(mean > 0) || math.IsInf(mean, 0) {
		return configErr("randomize budget", c.name, mean, "budget mean must be positive")
	}
	scale := mean / entropy.LomaxMean(ParetoShape)
	return c.SetBudget(entropy.Lomax(rng, ParetoShape) * scale)
}

// SetPreferences installs a preference vector aligned with Products. It must
// be non-negative and sum to 1.
func (c *Customer) SetPreferences(prefs []float64) error {
	if len(prefs) != len(c.products) {
		return configErr("set preferences", c.name, len(prefs), fmt.Sprintf("want %d preferences", len(c.products)))
	}
	sum := 0.0
	for _, p := range prefs {
		if !(p >= 0) || p > 1 {
			return configErr("set preferences", c.name, p, "preference must be in [0, 1]")
		}
		sum += p
	}
	if math.Abs(sum-1) > PreferenceTolerance {
		return configErr("set preferences", c.name, sum, "preferences must sum to 1")
	}
	copy(c.preferences, prefs)
	return nil
}

// RandomizePreferences draws a uniformly random point on the simplex.
func (c *Customer) RandomizePreferences(rng *rand.Rand) {
	copy(c.preferences, entropy.Simplex(rng, len(c.products)))
}

// Purchase runs the purchase loop until nothing the customer prefers is both
// affordable and in stock. Each pass re-weights products by preference, zeroes
// the unaffordable or sold-out ones, renormalizes, draws one, and buys a unit.
// It returns the number of units bought.
func (c *Customer) Purchase(rng *rand.Rand) (int, error) {
	if c.state != StateIdle {
		return 0, &economy.Error{Op: "purchase", Entity: c.name, Value: c.state.String(),
			Err: fmt.Errorf("%w: customer must be reset before purchasing again", economy.ErrOrdering)}
	}
	c.state = StatePurchasing

	weights := make([]float64, len(c.products))
	bought := 0
	for {
		total := 0.0
		for i, p := range c.products {
			weights[i] = 0
			if p.InStock() && c.remaining >= p.SellPrice() {
				weights[i] = c.preferences[i]
				total += weights[i]
			}
		}
		if total <= 0 {
			break
		}

		i := pick(rng, weights, total)
		p := c.products[i]
		if err := p.RecordSale(); err != nil {
			c.state = StateExhausted
			return bought, fmt.Errorf("customer %s: %w", c.name, err)
		}
		c.remaining -= p.SellPrice()
		c.purchases[i]++
		bought++
	}

	c.state = StateExhausted
	slog.Debug("customer exhausted",
		"customer", c.name,
		"bought", bought,
		"remaining_budget", c.remaining,
	)
	return bought, nil
}

// pick draws an index with probability weights[i]/total. Only indices with a
// positive weight can be returned.
func pick(rng *rand.Rand, weights []float64, total float64) int {
	u := rng.Float64() * total
	last := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		last = i
		if u < w {
			return i
		}
		u -= w
	}
	return last
}

// SoftReset restores the full budget and clears this round's purchases.
// Product sale counts are reset by the company.
func (c *Customer) SoftReset() {
	c.remaining = c.budget
	clear(c.purchases)
	c.state = StateIdle
}
