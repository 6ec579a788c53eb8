package economy

// TotalsRow labels the aggregate row appended to product reports.
const TotalsRow = "All products"

// ProductReport is the per-round readout for one product.
type ProductReport struct {
	Product              string  `json:"product" db:"product"`
	Investment           float64 `json:"investment" db:"investment"`
	Produced             int     `json:"produced" db:"produced"`
	UnitCost             float64 `json:"unit_cost" db:"unit_cost"`
	UnitPrice            float64 `json:"unit_price" db:"unit_price"`
	UnitProfit           float64 `json:"unit_profit" db:"unit_profit"`
	TotalCost            float64 `json:"total_cost" db:"total_cost"`
	PotentialTotalPrice  float64 `json:"potential_total_price" db:"potential_total_price"`
	PotentialTotalProfit float64 `json:"potential_total_profit" db:"potential_total_profit"`
	Sold                 int     `json:"sold" db:"sold"`
	Remaining            int     `json:"remaining" db:"remaining"`
	ActualProfit         float64 `json:"actual_profit" db:"actual_profit"`
}

// CompanyReport summarizes the company after a round.
type CompanyReport struct {
	Company          string  `json:"company"`
	Phase            string  `json:"phase"`
	TotalCapital     float64 `json:"total_capital"`
	RemainingCapital float64 `json:"remaining_capital"`
	Revenue          float64 `json:"revenue"`
	Profit           float64 `json:"profit"`
}

// ProductReports returns one row per product in setup order followed by a
// totals row that sums every column.
func (c *Company) ProductReports() []ProductReport {
	rows := make([]ProductReport, 0, len(c.products)+1)
	total := ProductReport{Product: TotalsRow}
	for _, p := range c.products {
		r := ProductReport{
			Product:              p.Name(),
			Investment:           c.investments[p.Name()],
			Produced:             p.Produced(),
			UnitCost:             p.UnitCost(),
			UnitPrice:            p.SellPrice(),
			UnitProfit:           p.UnitProfit(),
			TotalCost:            p.TotalMaterialCost(),
			PotentialTotalPrice:  p.PotentialTotalPrice(),
			PotentialTotalProfit: p.PotentialTotalProfit(),
			Sold:                 p.Sold(),
			Remaining:            p.Remaining(),
			ActualProfit:         p.ActualProfit(),
		}
		rows = append(rows, r)

		total.Investment += r.Investment
		total.Produced += r.Produced
		total.UnitCost += r.UnitCost
		total.UnitPrice += r.UnitPrice
		total.UnitProfit += r.UnitProfit
		total.TotalCost += r.TotalCost
		total.PotentialTotalPrice += r.PotentialTotalPrice
		total.PotentialTotalProfit += r.PotentialTotalProfit
		total.Sold += r.Sold
		total.Remaining += r.Remaining
		total.ActualProfit += r.ActualProfit
	}
	return append(rows, total)
}

// Report summarizes capital and realized results.
func (c *Company) Report() CompanyReport {
	return CompanyReport{
		Company:          c.name,
		Phase:            c.phase.String(),
		TotalCapital:     c.capital,
		RemainingCapital: c.RemainingCapital(),
		Revenue:          c.revenue,
		Profit:           c.profit,
	}
}

// RequirementMatrix returns per-unit requirements indexed [material][product],
// following the order of materials and products.
func RequirementMatrix(materials []*Material, products []*Product) [][]float64 {
	out := make([][]float64, len(materials))
	for i, m := range materials {
		row := make([]float64, len(products))
		for j, p := range products {
			row[j] = p.Requirement(m.Name())
		}
		out[i] = row
	}
	return out
}
