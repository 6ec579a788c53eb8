package economy

import (
	"errors"
	"testing"
)

func newTestCompany(t *testing.T, capital float64) (*Company, []*Material, []*Product) {
	t.Helper()
	ms, ps := newTestMarket(t, []string{"ore", "wood"}, []string{"axe", "plank"})
	_ = ms[0].SetCurve(SupplyCurve{Coefficient: 0.5, Exponent: 1, Intercept: 2})
	_ = ms[1].SetCurve(SupplyCurve{Coefficient: 0.1, Exponent: 1, Intercept: 1})
	_ = ps[0].SetMaterialRequirements(map[string]float64{"ore": 1, "wood": 1})
	_ = ps[1].SetMaterialRequirements(map[string]float64{"wood": 2})
	c, err := NewCompany("acme", capital, ps, ms)
	if err != nil {
		t.Fatalf("NewCompany: %v", err)
	}
	return c, ms, ps
}

func TestCompanyPlanProduction(t *testing.T) {
	c, ms, ps := newTestCompany(t, 1000)
	if err := c.SetInvestments(map[string]float64{"axe": 300, "plank": 200}); err != nil {
		t.Fatalf("SetInvestments: %v", err)
	}
	if err := c.SetMarginPercents(map[string]float64{"axe": 10, "plank": 0}); err != nil {
		t.Fatalf("SetMarginPercents: %v", err)
	}
	nearlyEqual(t, "remaining capital", c.RemainingCapital(), 500)

	// First round: no settled cost yet, so the basis is the zero-demand cost.
	axe, plank := ps[0], ps[1]
	nearlyEqual(t, "axe basis", axe.PlanningBasis(), 3)
	nearlyEqual(t, "plank basis", plank.PlanningBasis(), 2)

	if err := c.PlanProduction(); err != nil {
		t.Fatalf("PlanProduction: %v", err)
	}
	if c.Phase() != PhasePriceSettled {
		t.Fatalf("phase = %s, want price-settled", c.Phase())
	}
	if c.PlannedUnits("axe") != 100 || c.PlannedUnits("plank") != 100 {
		t.Fatalf("planned axe=%d plank=%d, want 100 and 100", c.PlannedUnits("axe"), c.PlannedUnits("plank"))
	}

	// 100 axes and 100 planks would cost far more than invested. Axe is capped
	// first against that demand (10 * 29 = 290), then plank against axe's
	// reduced demand (17 * 10.8 = 183.6).
	if axe.Produced() != 10 || plank.Produced() != 17 {
		t.Fatalf("produced axe=%d plank=%d, want 10 and 17", axe.Produced(), plank.Produced())
	}

	// Shared wood carries demand from both products.
	nearlyEqual(t, "ore demand", ms[0].Demand(), 10)
	nearlyEqual(t, "wood demand", ms[1].Demand(), 10+2*17)

	orePrice := 0.5*10 + 2
	woodPrice := 0.1*44 + 1
	nearlyEqual(t, "axe unit cost", axe.UnitCost(), orePrice+woodPrice)
	nearlyEqual(t, "plank unit cost", plank.UnitCost(), 2*woodPrice)
	nearlyEqual(t, "axe sell price", axe.SellPrice(), (orePrice+woodPrice)*1.1)
	nearlyEqual(t, "axe settled cost", axe.SettledCost(), orePrice+woodPrice)

	for _, p := range ps {
		if p.TotalMaterialCost() > c.Investment(p.Name()) {
			t.Fatalf("%s costs %v, invested %v", p.Name(), p.TotalMaterialCost(), c.Investment(p.Name()))
		}
	}
}

func TestCompanyPlanProductionCapsAtInvestment(t *testing.T) {
	ms, ps := newTestMarket(t, []string{"ore"}, []string{"axe"})
	if err := ms[0].SetCurve(SupplyCurve{Coefficient: 0.5, Exponent: 1, Intercept: 2}); err != nil {
		t.Fatal(err)
	}
	if err := ps[0].SetMaterialRequirements(map[string]float64{"ore": 1}); err != nil {
		t.Fatal(err)
	}
	c, err := NewCompany("smith", 1000, ps, ms)
	if err != nil {
		t.Fatalf("NewCompany: %v", err)
	}
	_ = c.SetInvestments(map[string]float64{"axe": 300})
	if err := c.PlanProduction(); err != nil {
		t.Fatalf("PlanProduction: %v", err)
	}

	// 300 / 2 = 150 planned. n units cost n * (0.5n + 2): 22 * 13 = 286 fits
	// and 23 * 13.5 = 310.5 does not.
	axe := ps[0]
	if c.PlannedUnits("axe") != 150 {
		t.Fatalf("planned units = %d, want 150", c.PlannedUnits("axe"))
	}
	if axe.Produced() != 22 {
		t.Fatalf("produced = %d, want 22", axe.Produced())
	}
	nearlyEqual(t, "unit cost", axe.UnitCost(), 13)
	nearlyEqual(t, "total cost", axe.TotalMaterialCost(), 286)
}

func TestCompanyPlansWithSettledCost(t *testing.T) {
	ms, ps := newTestMarket(t, []string{"ore"}, []string{"axe"})
	_ = ms[0].SetCurve(SupplyCurve{Coefficient: 0.5, Exponent: 1, Intercept: 2})
	_ = ps[0].SetMaterialRequirements(map[string]float64{"ore": 1})
	c, err := NewCompany("smith", 1000, ps, ms)
	if err != nil {
		t.Fatalf("NewCompany: %v", err)
	}
	axe := ps[0]

	round := func() {
		t.Helper()
		if err := c.SetInvestments(map[string]float64{"axe": 300}); err != nil {
			t.Fatalf("SetInvestments: %v", err)
		}
		if err := c.PlanProduction(); err != nil {
			t.Fatalf("PlanProduction: %v", err)
		}
		if err := c.OpenSales(); err != nil {
			t.Fatalf("OpenSales: %v", err)
		}
		if err := c.RecordSalesAndProfit(); err != nil {
			t.Fatalf("RecordSalesAndProfit: %v", err)
		}
	}

	round()
	nearlyEqual(t, "round 1 settled cost", axe.SettledCost(), 13)

	if err := c.SoftReset(1000); err != nil {
		t.Fatalf("SoftReset: %v", err)
	}
	nearlyEqual(t, "settled cost after reset", axe.SettledCost(), 13)
	nearlyEqual(t, "round 2 basis", axe.PlanningBasis(), 13)

	round()
	// floor(300 / 13) = 23 at the settled cost, capped to 22 once priced.
	if c.PlannedUnits("axe") != 23 {
		t.Fatalf("round 2 planned %d units, want 23", c.PlannedUnits("axe"))
	}
	if axe.Produced() != 22 {
		t.Fatalf("round 2 produced %d units, want 22", axe.Produced())
	}

	// New requirements invalidate the remembered cost.
	_ = c.SoftReset(1000)
	if err := axe.SetMaterialRequirements(map[string]float64{"ore": 2}); err != nil {
		t.Fatal(err)
	}
	if axe.SettledCost() != 0 {
		t.Fatalf("settled cost %v kept after requirements changed", axe.SettledCost())
	}
	nearlyEqual(t, "basis falls back to current cost", axe.PlanningBasis(), 4)
}

func TestNewCompanyRejectsInconsistentMarket(t *testing.T) {
	ms, ps := newTestMarket(t, []string{"ore", "wood"}, []string{"axe", "plank"})
	_ = ps[0].SetMaterialRequirements(map[string]float64{"ore": 1})

	if _, err := NewCompany("acme", 100, []*Product{ps[0], ps[0]}, ms); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("duplicate product: got %v, want ErrConfiguration", err)
	}
	if _, err := NewCompany("acme", 100, ps, ms[1:]); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("product material outside company list: got %v, want ErrConfiguration", err)
	}
	other, err := NewMaterials([]string{"ore", "wood"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewCompany("acme", 100, ps, other); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("same-named foreign materials: got %v, want ErrConfiguration", err)
	}
	if _, err := NewCompany("acme", 100, ps, []*Material{ms[0], ms[1], ms[0]}); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("duplicate material: got %v, want ErrConfiguration", err)
	}
	if _, err := NewCompany("acme", 100, ps, ms); err != nil {
		t.Fatalf("consistent market rejected: %v", err)
	}
}

func TestCompanyPhaseOrdering(t *testing.T) {
	c, _, _ := newTestCompany(t, 100)

	if err := c.OpenSales(); !errors.Is(err, ErrOrdering) {
		t.Fatalf("open sales in planning: got %v", err)
	}
	if err := c.RecordSalesAndProfit(); !errors.Is(err, ErrOrdering) {
		t.Fatalf("record sales in planning: got %v", err)
	}
	if err := c.PlanProduction(); err != nil {
		t.Fatalf("PlanProduction: %v", err)
	}
	if err := c.PlanProduction(); !errors.Is(err, ErrOrdering) {
		t.Fatalf("second plan: got %v", err)
	}
	if err := c.SetInvestments(map[string]float64{"axe": 1}); !errors.Is(err, ErrOrdering) {
		t.Fatalf("invest after plan: got %v", err)
	}
	if err := c.OpenSales(); err != nil {
		t.Fatalf("OpenSales: %v", err)
	}
	if err := c.RecordSalesAndProfit(); err != nil {
		t.Fatalf("RecordSalesAndProfit: %v", err)
	}
	if c.Phase() != PhaseSettled {
		t.Fatalf("phase = %s, want settled", c.Phase())
	}
	if err := c.SoftReset(100); err != nil {
		t.Fatalf("SoftReset: %v", err)
	}
	if c.Phase() != PhasePlanning {
		t.Fatalf("phase = %s, want planning", c.Phase())
	}
}

func TestCompanyInvestmentValidation(t *testing.T) {
	c, _, _ := newTestCompany(t, 500)
	if err := c.SetInvestments(map[string]float64{"axe": 400, "plank": 200}); !errors.Is(err, ErrOverdraft) {
		t.Fatalf("over capital: got %v, want ErrOverdraft", err)
	}
	if err := c.SetInvestments(map[string]float64{"axe": -1}); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("negative: got %v, want ErrConfiguration", err)
	}
	if err := c.SetInvestments(map[string]float64{"drill": 1}); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("unknown product: got %v, want ErrConfiguration", err)
	}
	if err := c.SetMarginPercents(map[string]float64{"axe": -5}); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("negative margin: got %v, want ErrConfiguration", err)
	}
	if c.RemainingCapital() != 500 {
		t.Fatalf("rejected plans changed remaining capital: %v", c.RemainingCapital())
	}
	if err := c.SetInvestments(map[string]float64{"axe": 500}); err != nil {
		t.Fatalf("full capital: %v", err)
	}
	if err := c.SetCapital(100); !errors.Is(err, ErrOverdraft) {
		t.Fatalf("capital below staged investments: got %v", err)
	}
	if _, err := NewCompany("x", -1, c.Products(), c.Materials()); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("negative capital: got %v", err)
	}
}

func TestCompanyRecordSalesAndProfit(t *testing.T) {
	c, _, ps := newTestCompany(t, 1000)
	_ = c.SetInvestments(map[string]float64{"axe": 300, "plank": 200})
	_ = c.SetMarginPercents(map[string]float64{"axe": 20, "plank": 20})
	_ = c.PlanProduction()
	_ = c.OpenSales()

	for i := 0; i < 5; i++ {
		if err := ps[0].RecordSale(); err != nil {
			t.Fatalf("RecordSale: %v", err)
		}
	}
	if err := c.RecordSalesAndProfit(); err != nil {
		t.Fatalf("RecordSalesAndProfit: %v", err)
	}
	axe, plank := ps[0], ps[1]
	nearlyEqual(t, "revenue", c.Revenue(), axe.SellPrice()*5)
	nearlyEqual(t, "profit", c.Profit(), axe.SellPrice()*5-axe.TotalMaterialCost()-plank.TotalMaterialCost())

	rows := c.ProductReports()
	if len(rows) != 3 || rows[2].Product != TotalsRow {
		t.Fatalf("unexpected report rows: %+v", rows)
	}
	if rows[2].Produced != axe.Produced()+plank.Produced() || rows[2].Sold != 5 {
		t.Fatalf("totals row = %+v", rows[2])
	}
	nearlyEqual(t, "totals actual profit", rows[2].ActualProfit, c.Profit())
}

func TestCompanySoftResetRoundTrip(t *testing.T) {
	c, ms, ps := newTestCompany(t, 1000)
	curves := []SupplyCurve{ms[0].Curve(), ms[1].Curve()}
	reqs := []map[string]float64{ps[0].Requirements(), ps[1].Requirements()}

	_ = c.SetInvestments(map[string]float64{"axe": 600})
	_ = c.SetMarginPercents(map[string]float64{"axe": 5})
	_ = c.PlanProduction()
	_ = c.OpenSales()
	_ = ps[0].RecordSale()
	_ = c.RecordSalesAndProfit()

	if err := c.SoftReset(1000); err != nil {
		t.Fatalf("SoftReset: %v", err)
	}
	for _, r := range c.ProductReports() {
		if r != (ProductReport{Product: r.Product}) {
			t.Fatalf("report row not zeroed after reset: %+v", r)
		}
	}
	rep := c.Report()
	if rep.Revenue != 0 || rep.Profit != 0 || rep.RemainingCapital != 1000 || rep.TotalCapital != 1000 {
		t.Fatalf("company report after reset = %+v", rep)
	}
	for i, m := range ms {
		if m.Demand() != 0 {
			t.Fatalf("material %s demand %v after reset", m.Name(), m.Demand())
		}
		if m.Curve() != curves[i] {
			t.Fatalf("material %s curve changed by reset", m.Name())
		}
	}
	for i, p := range ps {
		for k, v := range reqs[i] {
			if p.Requirement(k) != v {
				t.Fatalf("product %s requirement %s changed by reset", p.Name(), k)
			}
		}
	}
}

func TestRequirementMatrix(t *testing.T) {
	_, ms, ps := newTestCompany(t, 0)
	m := RequirementMatrix(ms, ps)
	want := [][]float64{{1, 0}, {1, 2}}
	for i := range want {
		for j := range want[i] {
			if m[i][j] != want[i][j] {
				t.Fatalf("matrix[%d][%d] = %v, want %v", i, j, m[i][j], want[i][j])
			}
		}
	}
}
