package planner

import (
	"math"
	"testing"
)

var products = []string{"F302", "X304", "Viper", "Starfury", "Jumper"}

func TestEvenPlan(t *testing.T) {
	p := Even{Fraction: 1, MarginPercent: 5}.Plan(1, products, 100000)
	for _, name := range products {
		if math.Abs(p.Investments[name]-20000) > 1e-9 {
			t.Fatalf("%s investment = %v, want 20000", name, p.Investments[name])
		}
		if p.Margins[name] != 5 {
			t.Fatalf("%s margin = %v, want 5", name, p.Margins[name])
		}
	}
	if p.Total() > 100000*(1+1e-12) {
		t.Fatalf("total %v exceeds capital", p.Total())
	}

	half := Even{Fraction: 0.5}.Plan(1, products, 1000)
	if math.Abs(half.Total()-500) > 1e-9 {
		t.Fatalf("half fraction total = %v", half.Total())
	}
}

func TestFixedPlanCopies(t *testing.T) {
	f := Fixed{
		Investments: map[string]float64{"F302": 20000},
		Margins:     map[string]float64{"F302": 5},
	}
	p := f.Plan(3, products, 100000)
	p.Investments["F302"] = 1
	if f.Investments["F302"] != 20000 {
		t.Fatalf("plan aliases the fixed configuration")
	}
}

func TestDriftPlan(t *testing.T) {
	d := NewDrift(42, 0.8, 0.1, 10, 5)
	for round := uint64(1); round <= 50; round++ {
		p := d.Plan(round, products, 100000)
		if p.Total() > 80000*(1+1e-9) {
			t.Fatalf("round %d total %v above invested fraction", round, p.Total())
		}
		for _, name := range products {
			if p.Investments[name] < 0 {
				t.Fatalf("round %d negative investment for %s", round, name)
			}
			if m := p.Margins[name]; m < 0 || m > 15+1e-9 {
				t.Fatalf("round %d margin %v outside [0, 15]", round, m)
			}
		}
	}

	again := NewDrift(42, 0.8, 0.1, 10, 5).Plan(7, products, 100000)
	first := d.Plan(7, products, 100000)
	for _, name := range products {
		if again.Investments[name] != first.Investments[name] {
			t.Fatalf("drift planner not deterministic for a seed")
		}
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"even", "fixed", "drift"} {
		p, err := ByName(name, 1, Settings{Fraction: 1})
		if err != nil {
			t.Fatalf("ByName(%q): %v", name, err)
		}
		if p.Name() != name {
			t.Fatalf("ByName(%q).Name() = %q", name, p.Name())
		}
	}
	if _, err := ByName("greedy", 1, Settings{}); err == nil {
		t.Fatalf("expected unknown strategy error")
	}
}
