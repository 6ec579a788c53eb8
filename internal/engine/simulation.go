// Package engine ties materials, products, the company and the customer
// population into one simulation session and runs it round by round.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/marketsim/internal/agents"
	"github.com/talgya/marketsim/internal/economy"
	"github.com/talgya/marketsim/internal/entropy"
	"github.com/talgya/marketsim/internal/planner"
)

// Config describes the market a Simulation is built from.
type Config struct {
	Seed             int64
	CompanyName      string
	Materials        []string
	Products         []string
	Customers        int
	Capital          float64
	BudgetMean       float64
	BudgetMeanSpread float64
	Supply           economy.SupplyParams
}

// DefaultConfig returns the stock market: five materials, five products,
// a thousand customers and one company.
func DefaultConfig() Config {
	return Config{
		CompanyName:      "company",
		Materials:        []string{"nqh345", "nqa344", "trm222", "crystals", "nanites"},
		Products:         []string{"F302", "X304", "Viper", "Starfury", "Jumper"},
		Customers:        1000,
		Capital:          100000,
		BudgetMean:       25,
		BudgetMeanSpread: 5,
		Supply:           economy.DefaultSupplyParams(),
	}
}

// Simulation is one session: it owns the market entities, the random streams
// and the round counter. Materials and products are shared by reference with
// the company and every customer.
type Simulation struct {
	Materials []*economy.Material
	Products  []*economy.Product
	Company   *economy.Company
	Customers []*agents.Customer

	Spawner *agents.Spawner
	Streams *entropy.Streams

	Round uint64 // last settled round, 0 before the first

	capital float64
	supply  economy.SupplyParams
}

// New builds a randomized market from cfg.
func New(cfg Config) (*Simulation, error) {
	streams := entropy.NewStreams(cfg.Seed)

	materials, err := economy.NewMaterials(cfg.Materials)
	if err != nil {
		return nil, fmt.Errorf("materials: %w", err)
	}
	products, err := economy.NewProducts(cfg.Products, materials)
	if err != nil {
		return nil, fmt.Errorf("products: %w", err)
	}
	company, err := economy.NewCompany(cfg.CompanyName, cfg.Capital, products, materials)
	if err != nil {
		return nil, fmt.Errorf("company: %w", err)
	}

	for _, m := range materials {
		m.Randomize(streams.Supply, cfg.Supply)
	}
	for _, p := range products {
		p.RandomizeRequirements(streams.Product)
	}

	spawner, err := agents.NewSpawner(streams.Demand, agents.SpawnConfig{
		Count:      cfg.Customers,
		BudgetMean: cfg.BudgetMean,
		MeanSpread: cfg.BudgetMeanSpread,
	})
	if err != nil {
		return nil, fmt.Errorf("spawner: %w", err)
	}
	spawner.RandomizeBudgetMean()
	customers, err := spawner.SpawnPopulation(products)
	if err != nil {
		return nil, fmt.Errorf("customers: %w", err)
	}

	sim := &Simulation{
		Materials: materials,
		Products:  products,
		Company:   company,
		Customers: customers,
		Spawner:   spawner,
		Streams:   streams,
		capital:   cfg.Capital,
		supply:    cfg.Supply,
	}
	slog.Info("market created",
		"seed", streams.Seed,
		"materials", len(materials),
		"products", len(products),
		"customers", len(customers),
		"capital", cfg.Capital,
		"budget_mean", spawner.BudgetMean(),
	)
	return sim, nil
}

// ProductNames returns product names in setup order.
func (s *Simulation) ProductNames() []string {
	names := make([]string, len(s.Products))
	for i, p := range s.Products {
		names[i] = p.Name()
	}
	return names
}

// Capital is the company's capital at the start of every round.
func (s *Simulation) Capital() float64 { return s.capital }

// SoftReset clears all per-round state and keeps market parameters.
func (s *Simulation) SoftReset() error {
	if err := s.Company.SoftReset(s.capital); err != nil {
		return err
	}
	for _, c := range s.Customers {
		c.SoftReset()
	}
	return nil
}

// Randomize soft-resets, then re-draws supply curves, material requirements,
// the population budget mean and every customer's budget and preferences.
func (s *Simulation) Randomize() error {
	if err := s.SoftReset(); err != nil {
		return err
	}
	for _, m := range s.Materials {
		m.Randomize(s.Streams.Supply, s.supply)
	}
	for _, p := range s.Products {
		p.RandomizeRequirements(s.Streams.Product)
	}
	if err := s.Spawner.Rerandomize(s.Customers); err != nil {
		return err
	}
	slog.Info("market re-randomized", "budget_mean", s.Spawner.BudgetMean())
	return nil
}

// Plan stages p and runs production: units from capital, demand pushed to
// materials, prices settled.
func (s *Simulation) Plan(p planner.Plan) error {
	if err := s.Company.SetInvestments(p.Investments); err != nil {
		return err
	}
	if err := s.Company.SetMarginPercents(p.Margins); err != nil {
		return err
	}
	return s.Company.PlanProduction()
}

// Sell opens sales, lets every customer (reset to full budget) buy in
// population order, and tallies the company's sales and profit. Earlier
// customers get first claim on scarce stock.
func (s *Simulation) Sell() error {
	if err := s.Company.OpenSales(); err != nil {
		return err
	}
	for _, c := range s.Customers {
		c.SoftReset()
		if _, err := c.Purchase(s.Streams.Demand); err != nil {
			return err
		}
	}
	return s.Company.RecordSalesAndProfit()
}

// RunRound soft-resets, plans with p, sells, and returns the settled report.
func (s *Simulation) RunRound(p planner.Plan) (RoundReport, error) {
	round := s.Round + 1
	if err := s.SoftReset(); err != nil {
		return RoundReport{}, fmt.Errorf("round %d reset: %w", round, err)
	}
	if err := s.Plan(p); err != nil {
		return RoundReport{}, fmt.Errorf("round %d plan: %w", round, err)
	}
	if err := s.Sell(); err != nil {
		return RoundReport{}, fmt.Errorf("round %d sell: %w", round, err)
	}
	s.Round = round

	rep := s.Report()
	slog.Info("round settled",
		"round", round,
		"produced", rep.Products[len(rep.Products)-1].Produced,
		"sold", rep.Products[len(rep.Products)-1].Sold,
		"revenue", fmt.Sprintf("%.2f", rep.Company.Revenue),
		"profit", fmt.Sprintf("%.2f", rep.Company.Profit),
		"exhausted_customers", rep.Population.Exhausted,
	)
	return rep, nil
}
