package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/talgya/marketsim/internal/economy"
	"github.com/talgya/marketsim/internal/engine"
	"github.com/talgya/marketsim/internal/persistence"
)

var (
	accent  = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	warn    = color.New(color.FgYellow, color.Bold)
	danger  = color.New(color.FgRed, color.Bold)
	neutral = color.New(color.FgHiWhite)
)

func printWarn(msg string) {
	warn.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

// money colours a signed amount green or red.
func money(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	switch {
	case v > 0:
		return success.Sprint(s)
	case v < 0:
		return danger.Sprint(s)
	}
	return s
}

func renderRound(rep engine.RoundReport) {
	accent.Printf("\n== ROUND %d ==\n", rep.Round)

	fmt.Println("Plan")
	fmt.Printf("%-14s %12s %9s %10s %10s %10s %12s %12s %12s\n",
		"PRODUCT", "INVESTMENT", "PRODUCED", "UNIT COST", "UNIT PRICE", "UNIT PROF", "TOTAL COST", "POT. PRICE", "POT. PROFIT")
	for _, p := range rep.Products {
		line := fmt.Sprintf("%-14s %12.2f %9d %10.4f %10.4f %10.4f %12.2f %12.2f %12.2f",
			p.Product, p.Investment, p.Produced, p.UnitCost, p.UnitPrice, p.UnitProfit,
			p.TotalCost, p.PotentialTotalPrice, p.PotentialTotalProfit)
		if p.Product == economy.TotalsRow {
			neutral.Println(line)
			continue
		}
		fmt.Println(line)
	}

	fmt.Println("\nSales")
	fmt.Printf("%-14s %9s %9s %9s %14s\n", "PRODUCT", "PRODUCED", "SOLD", "REMAINING", "ACTUAL PROFIT")
	for _, p := range rep.Products {
		fmt.Printf("%-14s %9d %9d %9d %14s\n",
			p.Product, p.Produced, p.Sold, p.Remaining, money(p.ActualProfit))
	}

	fmt.Printf("\nCapital:   %.2f (unused %.2f)\n", rep.Company.TotalCapital, rep.Company.RemainingCapital)
	fmt.Printf("Revenue:   %.2f\n", rep.Company.Revenue)
	fmt.Printf("Profit:    %s\n", money(rep.Company.Profit))
	fmt.Printf("Customers: %d bought %d units, spent %.2f of %.2f\n",
		rep.Population.Customers, rep.Population.Purchases, rep.Population.Spent, rep.Population.TotalBudget)
}

func renderSummary(reports []engine.RoundReport, seed int64, runID string) {
	if len(reports) == 0 {
		return
	}
	revenue, profit := 0.0, 0.0
	for _, r := range reports {
		revenue += r.Company.Revenue
		profit += r.Company.Profit
	}
	accent.Println("\n== SUMMARY ==")
	fmt.Printf("Seed:    %d\n", seed)
	fmt.Printf("Rounds:  %d\n", len(reports))
	fmt.Printf("Revenue: %.2f\n", revenue)
	fmt.Printf("Profit:  %s\n", money(profit))
	if runID != "" {
		fmt.Printf("Run:     %s\n", runID)
	}
}

func renderMarket(sim *engine.Simulation, view engine.MarketView, samples int, maxDemand float64) {
	accent.Printf("\n== MARKET (seed %d) ==\n", sim.Streams.Seed)

	fmt.Println("Supply curves: price = coefficient * demand^exponent + intercept")
	fmt.Printf("%-12s %12s %10s %10s\n", "MATERIAL", "COEFFICIENT", "EXPONENT", "INTERCEPT")
	for _, m := range view.Materials {
		fmt.Printf("%-12s %12.6f %10.4f %10.4f\n", m.Material, m.Curve.Coefficient, m.Curve.Exponent, m.Curve.Intercept)
	}

	if samples > 1 {
		for _, m := range sim.Materials {
			fmt.Printf("\n%s\n", m.Name())
			for _, pt := range m.Curve().Sample(maxDemand, samples) {
				fmt.Printf("  %12.2f -> %10.4f\n", pt.Demand, pt.Price)
			}
		}
	}

	fmt.Println("\nMaterial requirements per unit")
	fmt.Printf("%-12s", "MATERIAL")
	for _, name := range view.ProductNames {
		fmt.Printf(" %9s", name)
	}
	fmt.Println()
	for i, row := range view.Requirements {
		fmt.Printf("%-12s", view.Materials[i].Material)
		for _, v := range row {
			fmt.Printf(" %9.0f", v)
		}
		fmt.Println()
	}

	fmt.Printf("\nCustomers: %d, budget mean %.2f\n", len(sim.Customers), view.BudgetMean)
	peak := 0
	for _, b := range view.Histogram {
		peak = max(peak, b.Count)
	}
	for _, b := range view.Histogram {
		bar := 0
		if peak > 0 {
			bar = b.Count * 40 / peak
		}
		fmt.Printf("  [%8.2f, %8.2f) %6d %s\n", b.Lower, b.Upper, b.Count, strings.Repeat("#", bar))
	}

	fmt.Println("\nBudget per product")
	fmt.Printf("%-14s %12s %8s\n", "PRODUCT", "BUDGET", "SHARE")
	for _, s := range view.Shares {
		fmt.Printf("%-14s %12.2f %7.1f%%\n", s.Product, s.Budget, 100*s.Share)
	}
}

func renderHistory(rows []persistence.RoundRow) {
	accent.Println("\n== HISTORY ==")
	if len(rows) == 0 {
		printInfo("No rounds recorded.")
		return
	}
	fmt.Printf("%-8s %-8s %6s %12s %12s %12s %9s\n",
		"RUN", "STRATEGY", "ROUND", "CAPITAL", "REVENUE", "PROFIT", "UNITS")
	for _, r := range rows {
		fmt.Printf("%-8s %-8s %6d %12.2f %12.2f %12s %9d\n",
			r.RunID[:8], r.Strategy, r.Round, r.TotalCapital, r.Revenue, money(r.Profit), r.Purchases)
	}
}
