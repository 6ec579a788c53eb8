package economy

import (
	"fmt"
	"log/slog"
	"math"
)

// capitalTolerance absorbs float rounding when a plan splits capital exactly.
const capitalTolerance = 1e-9

// Company allocates capital across products, turns it into production and
// realizes profit from sales. Materials and products are shared, not owned.
type Company struct {
	name      string
	capital   float64
	products  []*Product
	materials []*Material
	index     map[string]*Product

	investments map[string]float64
	margins     map[string]float64
	planned     map[string]int // floor(investment / planning basis), before capping

	phase   Phase
	revenue float64
	profit  float64
}

// NewCompany creates a company in the Planning phase.
func NewCompany(name string, capital float64, products []*Product, materials []*Material) (*Company, error) {
	if name == "" {
		return nil, configErr("new company", name, nil, "name is empty")
	}
	if !(capital >= 0) || math.IsInf(capital, 0) {
		return nil, configErr("new company", name, capital, "capital must be non-negative")
	}
	if len(products) == 0 {
		return nil, configErr("new company", name, nil, "product list is empty")
	}
	known := make(map[*Material]bool, len(materials))
	names := make(map[string]bool, len(materials))
	for _, m := range materials {
		if names[m.Name()] {
			return nil, configErr("new company", name, m.Name(), "duplicate material name")
		}
		names[m.Name()] = true
		known[m] = true
	}
	index := make(map[string]*Product, len(products))
	for _, p := range products {
		if _, dup := index[p.Name()]; dup {
			return nil, configErr("new company", name, p.Name(), "duplicate product name")
		}
		for _, m := range p.Materials() {
			if !known[m] {
				return nil, configErr("new company", p.Name(), m.Name(), "material missing from company material list")
			}
		}
		index[p.Name()] = p
	}
	return &Company{
		name:        name,
		capital:     capital,
		products:    products,
		materials:   materials,
		index:       index,
		investments: make(map[string]float64, len(products)),
		margins:     make(map[string]float64, len(products)),
		planned:     make(map[string]int, len(products)),
	}, nil
}

func (c *Company) Name() string { return c.name }

func (c *Company) Phase() Phase { return c.phase }

func (c *Company) Products() []*Product { return c.products }

func (c *Company) Materials() []*Material { return c.materials }

// Product looks up a product by name.
func (c *Company) Product(name string) (*Product, bool) {
	p, ok := c.index[name]
	return p, ok
}

func (c *Company) TotalCapital() float64 { return c.capital }

// RemainingCapital is total capital less the staged investments.
func (c *Company) RemainingCapital() float64 {
	return c.capital - c.invested()
}

func (c *Company) invested() float64 {
	sum := 0.0
	for _, v := range c.investments {
		sum += v
	}
	return sum
}

func (c *Company) Investment(product string) float64 { return c.investments[product] }

func (c *Company) MarginPercent(product string) float64 { return c.margins[product] }

// PlannedUnits is the unit count the planning basis allowed for product,
// before production was capped at its investment.
func (c *Company) PlannedUnits(product string) int { return c.planned[product] }

// Revenue is the realized revenue of the last settled round.
func (c *Company) Revenue() float64 { return c.revenue }

// Profit is the realized profit of the last settled round.
func (c *Company) Profit() float64 { return c.profit }

func (c *Company) requirePhase(op string, want Phase) error {
	if c.phase != want {
		return orderingErr(op, c.name, fmt.Sprintf("phase is %s, want %s", c.phase, want))
	}
	return nil
}

// SetCapital replaces the total capital. Staged investments must still fit.
func (c *Company) SetCapital(capital float64) error {
	if err := c.requirePhase("set capital", PhasePlanning); err != nil {
		return err
	}
	if !(capital >= 0) || math.IsInf(capital, 0) {
		return configErr("set capital", c.name, capital, "capital must be non-negative")
	}
	if inv := c.invested(); inv > capital {
		return overdraftErr("set capital", c.name, capital, fmt.Sprintf("staged investments total %.2f", inv))
	}
	c.capital = capital
	return nil
}

// SetInvestments stages per-product investment amounts, replacing any earlier
// plan. Products not named get zero. Amounts must be non-negative and sum to
// at most the total capital; a rejected plan leaves the previous one in place.
func (c *Company) SetInvestments(amounts map[string]float64) error {
	if err := c.requirePhase("set investments", PhasePlanning); err != nil {
		return err
	}
	sum := 0.0
	for name, v := range amounts {
		if _, ok := c.index[name]; !ok {
			return configErr("set investments", c.name, name, "unknown product")
		}
		if !(v >= 0) || math.IsInf(v, 0) {
			return configErr("set investments", name, v, "investment must be non-negative")
		}
		sum += v
	}
	if sum > c.capital*(1+capitalTolerance) {
		return overdraftErr("set investments", c.name, sum, fmt.Sprintf("exceeds capital %.2f", c.capital))
	}
	clear(c.investments)
	for name, v := range amounts {
		c.investments[name] = v
	}
	return nil
}

// SetMarginPercents stages per-product profit margins as a percentage of
// unit cost, replacing any earlier plan.
func (c *Company) SetMarginPercents(percents map[string]float64) error {
	if err := c.requirePhase("set margins", PhasePlanning); err != nil {
		return err
	}
	for name, v := range percents {
		if _, ok := c.index[name]; !ok {
			return configErr("set margins", c.name, name, "unknown product")
		}
		if !(v >= 0) || math.IsInf(v, 0) {
			return configErr("set margins", name, v, "margin percent must be non-negative")
		}
	}
	clear(c.margins)
	for name, v := range percents {
		c.margins[name] = v
	}
	return nil
}

// PlanProduction converts each product's investment into whole units at its
// planning basis (last round's settled unit cost, or the current cost when
// there is none). Those unit counts push material prices up, so each product
// is then capped at the most units whose realized cost still fits its
// investment. Every product's production is registered and pushed into
// material demand, and only then is each product priced.
func (c *Company) PlanProduction() error {
	if err := c.requirePhase("plan production", PhasePlanning); err != nil {
		return err
	}

	units := make([]int, len(c.products))
	for i, p := range c.products {
		basis := p.PlanningBasis()
		if basis > 0 {
			units[i] = int(math.Floor(c.investments[p.Name()] / basis))
		}
		c.planned[p.Name()] = units[i]
	}

	demand := make(map[string]float64, len(c.materials))
	for _, m := range c.materials {
		demand[m.Name()] = m.Demand()
	}
	for i, p := range c.products {
		p.addDemand(demand, float64(units[i]))
	}

	// Lowering one product's units only lowers the others' costs, so a single
	// pass leaves every product within its investment.
	for i, p := range c.products {
		units[i] = c.capUnits(p, units[i], demand)
	}

	for i, p := range c.products {
		if err := p.RegisterProduction(units[i]); err != nil {
			return err
		}
	}
	for _, p := range c.products {
		if err := p.PostProductionDemand(); err != nil {
			return err
		}
	}
	c.phase = PhaseDemandSettled

	for _, p := range c.products {
		if err := p.SetProfitMargin(c.margins[p.Name()]); err != nil {
			return err
		}
		inv := c.investments[p.Name()]
		if cost := p.TotalMaterialCost(); cost > inv*(1+capitalTolerance) {
			return overdraftErr("plan production", p.Name(), cost, fmt.Sprintf("exceeds investment %.2f", inv))
		}
		slog.Debug("production planned",
			"company", c.name,
			"product", p.Name(),
			"investment", inv,
			"planned_units", c.planned[p.Name()],
			"units", p.Produced(),
			"unit_cost", p.UnitCost(),
		)
	}
	c.phase = PhasePriceSettled
	return nil
}

// capUnits returns the largest n <= units with n * cost(n) within p's
// investment, cost taken at the tallied demand. The tally is updated to n.
func (c *Company) capUnits(p *Product, units int, demand map[string]float64) int {
	inv := c.investments[p.Name()]
	fits := func(n int) bool {
		if n == 0 {
			return true
		}
		return float64(n)*p.costWithDemand(demand, float64(n-units)) <= inv
	}
	if fits(units) {
		return units
	}

	// fits(lo) holds and fits(hi) does not; cost is non-decreasing in n.
	lo, hi := 0, units
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		if fits(mid) {
			lo = mid
		} else {
			hi = mid
		}
	}
	p.addDemand(demand, float64(lo-units))
	slog.Debug("production capped at investment",
		"company", c.name,
		"product", p.Name(),
		"planned_units", units,
		"units", lo,
	)
	return lo
}

// OpenSales moves a priced round into the Selling phase.
func (c *Company) OpenSales() error {
	if err := c.requirePhase("open sales", PhasePriceSettled); err != nil {
		return err
	}
	c.phase = PhaseSelling
	return nil
}

// RecordSalesAndProfit tallies realized revenue and profit from every product
// and closes the round.
func (c *Company) RecordSalesAndProfit() error {
	if err := c.requirePhase("record sales", PhaseSelling); err != nil {
		return err
	}
	revenue, profit := 0.0, 0.0
	for _, p := range c.products {
		revenue += p.ActualTotalPrice()
		profit += p.ActualProfit()
	}
	c.revenue = revenue
	c.profit = profit
	c.phase = PhaseSettled
	return nil
}

// SoftReset zeroes investments, margins and realized results, restores total
// capital to capital, and resets every product and material. Supply curves
// and requirements are kept.
func (c *Company) SoftReset(capital float64) error {
	if !(capital >= 0) || math.IsInf(capital, 0) {
		return configErr("soft reset", c.name, capital, "capital must be non-negative")
	}
	clear(c.investments)
	clear(c.margins)
	clear(c.planned)
	c.capital = capital
	c.revenue = 0
	c.profit = 0
	for _, p := range c.products {
		p.Reset()
	}
	for _, m := range c.materials {
		m.Reset()
	}
	c.phase = PhasePlanning
	return nil
}
