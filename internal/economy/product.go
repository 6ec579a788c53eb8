package economy

import (
	"math"
	"math/rand"

	"github.com/talgya/marketsim/internal/entropy"
)

// Requirement limits for randomly assigned material requirements.
const (
	maxRequiredMaterials = 2
	minRequirement       = 1
	maxRequirement       = 3
)

// Product is a manufactured item that consumes fixed per-unit quantities of
// materials and sells at material cost plus a margin.
type Product struct {
	name      string
	materials []*Material // shared with the company and every other product
	reqs      map[string]float64

	produced int
	sold     int

	demandPosted  bool
	priced        bool
	unitCost      float64
	settledCost   float64 // unit cost at the last settled demand; survives Reset
	marginPercent float64
	unitProfit    float64
	sellPrice     float64
}

// NewProduct creates a product that may draw on the given materials. All
// requirements start at zero.
func NewProduct(name string, materials []*Material) (*Product, error) {
	if name == "" {
		return nil, configErr("new product", name, nil, "name is empty")
	}
	if len(materials) == 0 {
		return nil, configErr("new product", name, nil, "material list is empty")
	}
	reqs := make(map[string]float64, len(materials))
	for _, m := range materials {
		if _, dup := reqs[m.Name()]; dup {
			return nil, configErr("new product", name, m.Name(), "duplicate material")
		}
		reqs[m.Name()] = 0
	}
	return &Product{name: name, materials: materials, reqs: reqs}, nil
}

// NewProducts creates one product per name, all drawing on materials.
func NewProducts(names []string, materials []*Material) ([]*Product, error) {
	if len(names) == 0 {
		return nil, configErr("new products", "", nil, "product name list is empty")
	}
	seen := make(map[string]bool, len(names))
	out := make([]*Product, 0, len(names))
	for _, name := range names {
		if seen[name] {
			return nil, configErr("new products", name, nil, "duplicate product name")
		}
		seen[name] = true
		p, err := NewProduct(name, materials)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (p *Product) Name() string { return p.name }

// Materials returns the materials this product may draw on, in setup order.
func (p *Product) Materials() []*Material { return p.materials }

// Requirement returns the per-unit quantity of the named material.
func (p *Product) Requirement(material string) float64 { return p.reqs[material] }

// Requirements returns a copy of the per-unit requirements.
func (p *Product) Requirements() map[string]float64 {
	out := make(map[string]float64, len(p.reqs))
	for k, v := range p.reqs {
		out[k] = v
	}
	return out
}

// SetMaterialRequirements installs per-unit requirements. Materials missing
// from reqs are set to zero; unknown names or negative quantities are rejected
// and leave the product unchanged.
func (p *Product) SetMaterialRequirements(reqs map[string]float64) error {
	for name, qty := range reqs {
		if _, ok := p.reqs[name]; !ok {
			return configErr("set requirements", p.name, name, "unknown material")
		}
		if !(qty >= 0) || math.IsInf(qty, 0) {
			return configErr("set requirements", p.name, qty, "requirement must be non-negative")
		}
	}
	for name := range p.reqs {
		p.reqs[name] = reqs[name]
	}
	p.settledCost = 0
	return nil
}

// RandomizeRequirements picks one or two distinct materials (two only when at
// least two exist) and gives each an integer requirement in [1, 3]. Every
// other requirement is zero.
func (p *Product) RandomizeRequirements(rng *rand.Rand) {
	n := len(p.materials)
	k := 1
	if n >= maxRequiredMaterials {
		k = 1 + rng.Intn(maxRequiredMaterials)
	}

	for name := range p.reqs {
		p.reqs[name] = 0
	}
	p.settledCost = 0
	for _, idx := range entropy.Subset(rng, n, k) {
		qty := minRequirement + rng.Intn(maxRequirement-minRequirement+1)
		p.reqs[p.materials[idx].Name()] = float64(qty)
	}
}

// RegisterProduction sets this round's produced units.
func (p *Product) RegisterProduction(units int) error {
	if units < 0 {
		return configErr("register production", p.name, units, "units must be non-negative")
	}
	if p.demandPosted {
		return orderingErr("register production", p.name, "demand already posted this round")
	}
	p.produced = units
	return nil
}

// IncreaseProduction adds units to this round's production, for batches
// registered in parts.
func (p *Product) IncreaseProduction(units int) error {
	if units < 0 {
		return configErr("increase production", p.name, units, "units must be non-negative")
	}
	if p.demandPosted {
		return orderingErr("increase production", p.name, "demand already posted this round")
	}
	p.produced += units
	return nil
}

// PostProductionDemand writes produced*requirement into each required
// material's demand. It may run once per round, and every product sharing a
// material must post before any of their costs are read.
func (p *Product) PostProductionDemand() error {
	if p.demandPosted {
		return orderingErr("post demand", p.name, "demand already posted this round")
	}
	for _, m := range p.materials {
		req := p.reqs[m.Name()]
		if req == 0 {
			continue
		}
		if err := m.IncreaseDemand(float64(p.produced) * req); err != nil {
			return err
		}
	}
	p.demandPosted = true
	return nil
}

// DemandPosted reports whether this round's demand has reached the materials.
func (p *Product) DemandPosted() bool { return p.demandPosted }

// PlanningCost is the per-unit material cost at the materials' current
// prices, with no phase check.
func (p *Product) PlanningCost() float64 {
	cost := 0.0
	for _, m := range p.materials {
		req := p.reqs[m.Name()]
		if req == 0 {
			continue
		}
		cost += req * m.Price()
	}
	return cost
}

// UnitMaterialCost is the per-unit material cost at post-demand prices.
// Repeated calls return the same value while no material demand changes.
func (p *Product) UnitMaterialCost() (float64, error) {
	if !p.demandPosted {
		return 0, orderingErr("unit cost", p.name, "demand not posted this round")
	}
	p.unitCost = p.PlanningCost()
	p.settledCost = p.unitCost
	return p.unitCost, nil
}

// SettledCost is the unit cost computed at the most recent settled demand. It
// is 0 before the first round and after the requirements change.
func (p *Product) SettledCost() float64 { return p.settledCost }

// PlanningBasis is the unit cost production is planned with: the last settled
// cost when there is one, otherwise the cost at current prices.
func (p *Product) PlanningBasis() float64 {
	if p.settledCost > 0 {
		return p.settledCost
	}
	return p.PlanningCost()
}

// addDemand adds units of this product to a material-name demand tally.
func (p *Product) addDemand(demand map[string]float64, units float64) {
	for _, m := range p.materials {
		if req := p.reqs[m.Name()]; req != 0 {
			demand[m.Name()] += units * req
		}
	}
}

// costWithDemand is the per-unit cost if the tallied demand changed by delta
// units of this product.
func (p *Product) costWithDemand(demand map[string]float64, delta float64) float64 {
	cost := 0.0
	for _, m := range p.materials {
		req := p.reqs[m.Name()]
		if req == 0 {
			continue
		}
		cost += req * m.Curve().PriceAt(math.Max(demand[m.Name()]+delta*req, 0))
	}
	return cost
}

// SetProfitMargin prices the product at unit cost plus percent of unit cost.
func (p *Product) SetProfitMargin(percent float64) error {
	if !(percent >= 0) || math.IsInf(percent, 0) {
		return configErr("set margin", p.name, percent, "margin percent must be non-negative")
	}
	cost, err := p.UnitMaterialCost()
	if err != nil {
		return err
	}
	p.marginPercent = percent
	p.unitProfit = cost * percent / 100
	p.sellPrice = cost + p.unitProfit
	p.priced = true
	return nil
}

// RecordSale sells one unit. The caller checks stock first; a sale past the
// produced count or before the product is priced is rejected.
func (p *Product) RecordSale() error {
	if !p.priced {
		return orderingErr("record sale", p.name, "product not priced this round")
	}
	if p.sold >= p.produced {
		return overdraftErr("record sale", p.name, p.sold, "product sold out")
	}
	p.sold++
	return nil
}

func (p *Product) Produced() int { return p.produced }

func (p *Product) Sold() int { return p.sold }

// Remaining is the unsold stock.
func (p *Product) Remaining() int { return p.produced - p.sold }

// InStock reports whether at least one unit is left.
func (p *Product) InStock() bool { return p.produced > p.sold }

// UnitCost is the cost cached by the last UnitMaterialCost call.
func (p *Product) UnitCost() float64 { return p.unitCost }

func (p *Product) MarginPercent() float64 { return p.marginPercent }

func (p *Product) UnitProfit() float64 { return p.unitProfit }

func (p *Product) SellPrice() float64 { return p.sellPrice }

// TotalMaterialCost is charged against the whole batch, sold or not.
func (p *Product) TotalMaterialCost() float64 {
	return p.unitCost * float64(p.produced)
}

// PotentialTotalPrice assumes every produced unit sells.
func (p *Product) PotentialTotalPrice() float64 {
	return p.sellPrice * float64(p.produced)
}

// PotentialTotalProfit assumes every produced unit sells.
func (p *Product) PotentialTotalProfit() float64 {
	return p.unitProfit * float64(p.produced)
}

// ActualTotalPrice is the revenue from units sold.
func (p *Product) ActualTotalPrice() float64 {
	return p.sellPrice * float64(p.sold)
}

// ActualProfit is revenue less the material cost of the full batch.
func (p *Product) ActualProfit() float64 {
	return p.ActualTotalPrice() - p.TotalMaterialCost()
}

// Reset clears per-round state. Requirements and the settled cost are kept.
func (p *Product) Reset() {
	p.produced = 0
	p.sold = 0
	p.demandPosted = false
	p.priced = false
	p.unitCost = 0
	p.marginPercent = 0
	p.unitProfit = 0
	p.sellPrice = 0
}
