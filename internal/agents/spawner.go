// Customer spawning: creates the population and re-draws budgets and
// preferences when the market is re-randomized.
package agents

import (
	"fmt"
	"math/rand"

	"github.com/talgya/marketsim/internal/economy"
	"github.com/talgya/marketsim/internal/entropy"
)

// minBudgetMean keeps a re-drawn population mean strictly positive.
const minBudgetMean = 0.01

// SpawnConfig controls population generation.
type SpawnConfig struct {
	Count      int
	BudgetMean float64 // mean of the per-customer budget distribution
	MeanSpread float64 // std of the normal the population mean is re-drawn from; 0 keeps it fixed
}

// Spawner creates customers and re-randomizes their budgets and preferences
// from the demand-side stream.
type Spawner struct {
	rng    *rand.Rand
	cfg    SpawnConfig
	mean   float64
	nextID int
}

// NewSpawner creates a spawner drawing from rng.
func NewSpawner(rng *rand.Rand, cfg SpawnConfig) (*Spawner, error) {
	if cfg.Count < 1 {
		return nil, configErr("new spawner", "", cfg.Count, "customer count must be at least 1")
	}
	if !(cfg.BudgetMean > 0) {
		return nil, configErr("new spawner", "", cfg.BudgetMean, "budget mean must be positive")
	}
	if cfg.MeanSpread < 0 {
		return nil, configErr("new spawner", "", cfg.MeanSpread, "budget mean spread must be non-negative")
	}
	return &Spawner{rng: rng, cfg: cfg, mean: cfg.BudgetMean, nextID: 1}, nil
}

// BudgetMean is the population mean budget currently in use.
func (s *Spawner) BudgetMean() float64 { return s.mean }

// SpawnPopulation creates the configured number of customers named C1, C2, ...
// with random budgets and preferences over products.
func (s *Spawner) SpawnPopulation(products []*economy.Product) ([]*Customer, error) {
	customers := make([]*Customer, 0, s.cfg.Count)
	for i := 0; i < s.cfg.Count; i++ {
		c, err := s.spawnOne(products)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, nil
}

func (s *Spawner) spawnOne(products []*economy.Product) (*Customer, error) {
	name := fmt.Sprintf("C%d", s.nextID)
	s.nextID++

	c, err := NewCustomer(name, products)
	if err != nil {
		return nil, err
	}
	if err := c.RandomizeBudget(s.rng, s.mean); err != nil {
		return nil, err
	}
	c.RandomizePreferences(s.rng)
	return c, nil
}

// RandomizeBudgetMean re-draws the population mean from a normal centred on
// the configured mean.
func (s *Spawner) RandomizeBudgetMean() float64 {
	if s.cfg.MeanSpread == 0 {
		s.mean = s.cfg.BudgetMean
		return s.mean
	}
	m := entropy.Normal(s.rng, s.cfg.BudgetMean, s.cfg.MeanSpread)
	if m < minBudgetMean {
		m = minBudgetMean
	}
	s.mean = m
	return s.mean
}

// Rerandomize re-draws the population mean, then every customer's budget and
// preferences, and soft-resets each customer.
func (s *Spawner) Rerandomize(customers []*Customer) error {
	mean := s.RandomizeBudgetMean()
	for _, c := range customers {
		if err := c.RandomizeBudget(s.rng, mean); err != nil {
			return err
		}
		c.RandomizePreferences(s.rng)
		c.SoftReset()
	}
	return nil
}
