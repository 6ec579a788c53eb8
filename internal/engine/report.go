package engine

import (
	"github.com/talgya/marketsim/internal/agents"
	"github.com/talgya/marketsim/internal/economy"
)

// MaterialReport is the per-round readout for one material.
type MaterialReport struct {
	Material string              `json:"material"`
	Curve    economy.SupplyCurve `json:"curve"`
	Demand   float64             `json:"demand"`
	Price    float64             `json:"price"`
}

// RoundReport is everything the driver reads back after a round.
type RoundReport struct {
	Round      uint64                  `json:"round"`
	Seed       int64                   `json:"seed"`
	Company    economy.CompanyReport   `json:"company"`
	Products   []economy.ProductReport `json:"products"` // last row is the totals row
	Materials  []MaterialReport        `json:"materials"`
	Population agents.PopulationStats  `json:"population"`
}

// Report reads the current state. It has no side effects.
func (s *Simulation) Report() RoundReport {
	mats := make([]MaterialReport, len(s.Materials))
	for i, m := range s.Materials {
		mats[i] = MaterialReport{
			Material: m.Name(),
			Curve:    m.Curve(),
			Demand:   m.Demand(),
			Price:    m.Price(),
		}
	}
	return RoundReport{
		Round:      s.Round,
		Seed:       s.Streams.Seed,
		Company:    s.Company.Report(),
		Products:   s.Company.ProductReports(),
		Materials:  mats,
		Population: agents.Summarize(s.Customers),
	}
}

// MarketView is the static description of the market: supply curves, the
// requirement matrix and population aggregates.
type MarketView struct {
	Materials    []MaterialReport      `json:"materials"`
	ProductNames []string              `json:"product_names"`
	Requirements [][]float64           `json:"requirements"` // [material][product]
	BudgetMean   float64               `json:"budget_mean"`
	Histogram    []agents.BudgetBucket `json:"histogram"`
	Shares       []agents.ProductShare `json:"shares"`
}

// Market builds a MarketView with a budget histogram of the given bucket count.
func (s *Simulation) Market(buckets int) MarketView {
	return MarketView{
		Materials:    s.Report().Materials,
		ProductNames: s.ProductNames(),
		Requirements: economy.RequirementMatrix(s.Materials, s.Products),
		BudgetMean:   s.Spawner.BudgetMean(),
		Histogram:    agents.BudgetHistogram(s.Customers, buckets),
		Shares:       agents.BudgetPerProduct(s.Customers),
	}
}
