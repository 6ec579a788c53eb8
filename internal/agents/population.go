package agents

import "math"

// BudgetBucket is one histogram bin over customer budgets: [Lower, Upper).
// The last bin also includes its upper edge.
type BudgetBucket struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// BudgetHistogram bins customer budgets into n equal-width buckets spanning
// the smallest to the largest budget.
func BudgetHistogram(customers []*Customer, n int) []BudgetBucket {
	if n < 1 || len(customers) == 0 {
		return nil
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, c := range customers {
		lo = math.Min(lo, c.Budget())
		hi = math.Max(hi, c.Budget())
	}

	width := (hi - lo) / float64(n)
	buckets := make([]BudgetBucket, n)
	for i := range buckets {
		buckets[i].Lower = lo + width*float64(i)
		buckets[i].Upper = lo + width*float64(i+1)
	}
	buckets[n-1].Upper = hi

	for _, c := range customers {
		i := n - 1
		if width > 0 {
			i = int((c.Budget() - lo) / width)
			if i >= n {
				i = n - 1
			}
		}
		buckets[i].Count++
	}
	return buckets
}

// ProductShare aggregates the population's leaning toward one product.
type ProductShare struct {
	Product   string  `json:"product"`
	Budget    float64 `json:"budget"`    // Σ budget × preference
	Share     float64 `json:"share"`     // Budget over the population's total budget
	Purchases int     `json:"purchases"` // units bought this round
}

// BudgetPerProduct weights each customer's budget by their preference for
// every product. Customers are assumed to share one product list; the first
// customer's list is used for names and order.
func BudgetPerProduct(customers []*Customer) []ProductShare {
	if len(customers) == 0 {
		return nil
	}
	products := customers[0].Products()
	shares := make([]ProductShare, len(products))
	for i, p := range products {
		shares[i].Product = p.Name()
	}

	total := 0.0
	for _, c := range customers {
		total += c.Budget()
		for i, pref := range c.preferences {
			shares[i].Budget += c.Budget() * pref
			shares[i].Purchases += c.purchases[i]
		}
	}
	if total > 0 {
		for i := range shares {
			shares[i].Share = shares[i].Budget / total
		}
	}
	return shares
}

// PopulationStats summarizes budgets and spending across customers.
type PopulationStats struct {
	Customers   int     `json:"customers"`
	TotalBudget float64 `json:"total_budget"`
	MeanBudget  float64 `json:"mean_budget"`
	Spent       float64 `json:"spent"`
	Purchases   int     `json:"purchases"`
	Exhausted   int     `json:"exhausted"`
}

// Summarize computes PopulationStats for customers.
func Summarize(customers []*Customer) PopulationStats {
	var st PopulationStats
	st.Customers = len(customers)
	for _, c := range customers {
		st.TotalBudget += c.Budget()
		st.Spent += c.Budget() - c.Remaining()
		st.Purchases += c.TotalPurchases()
		if c.State() == StateExhausted {
			st.Exhausted++
		}
	}
	if st.Customers > 0 {
		st.MeanBudget = st.TotalBudget / float64(st.Customers)
	}
	return st
}
