// Package persistence provides a SQLite ledger of settled rounds. It records
// reports only; a simulation is never restored from it.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/marketsim/internal/economy"
	"github.com/talgya/marketsim/internal/engine"
)

// DB wraps a SQLite connection for the round ledger.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		strategy TEXT NOT NULL,
		company TEXT NOT NULL,
		capital REAL NOT NULL,
		customers INTEGER NOT NULL,
		started_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS rounds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		round INTEGER NOT NULL,
		total_capital REAL NOT NULL,
		remaining_capital REAL NOT NULL,
		revenue REAL NOT NULL,
		profit REAL NOT NULL,
		purchases INTEGER NOT NULL,
		exhausted INTEGER NOT NULL,
		mean_budget REAL NOT NULL,
		materials_json TEXT NOT NULL,
		UNIQUE (run_id, round)
	);

	CREATE TABLE IF NOT EXISTS product_rounds (
		run_id TEXT NOT NULL REFERENCES runs(id),
		round INTEGER NOT NULL,
		product TEXT NOT NULL,
		investment REAL NOT NULL,
		produced INTEGER NOT NULL,
		unit_cost REAL NOT NULL,
		unit_price REAL NOT NULL,
		unit_profit REAL NOT NULL,
		total_cost REAL NOT NULL,
		potential_total_price REAL NOT NULL,
		potential_total_profit REAL NOT NULL,
		sold INTEGER NOT NULL,
		remaining INTEGER NOT NULL,
		actual_profit REAL NOT NULL,
		PRIMARY KEY (run_id, round, product)
	);

	CREATE TABLE IF NOT EXISTS ledger_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rounds_run ON rounds(run_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Run is one simulation session in the ledger.
type Run struct {
	ID        string  `db:"id"`
	Seed      int64   `db:"seed"`
	Strategy  string  `db:"strategy"`
	Company   string  `db:"company"`
	Capital   float64 `db:"capital"`
	Customers int     `db:"customers"`
	StartedAt string  `db:"started_at"`
}

// StartRun records a new session for sim and returns its id.
func (db *DB) StartRun(sim *engine.Simulation, strategy string) (string, error) {
	run := Run{
		ID:        uuid.NewString(),
		Seed:      sim.Streams.Seed,
		Strategy:  strategy,
		Company:   sim.Company.Name(),
		Capital:   sim.Capital(),
		Customers: len(sim.Customers),
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	}
	_, err := db.conn.NamedExec(`INSERT INTO runs
		(id, seed, strategy, company, capital, customers, started_at)
		VALUES (:id, :seed, :strategy, :company, :capital, :customers, :started_at)`, run)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	if err := db.SaveMeta("last_run", run.ID); err != nil {
		return "", fmt.Errorf("save meta: %w", err)
	}
	slog.Info("ledger run started", "run", run.ID, "seed", run.Seed, "strategy", strategy)
	return run.ID, nil
}

// SaveRound writes a settled round and its per-product rows. The totals row
// is derived data and is not stored.
func (db *DB) SaveRound(runID string, rep engine.RoundReport) error {
	matsJSON, err := json.Marshal(rep.Materials)
	if err != nil {
		return fmt.Errorf("marshal materials: %w", err)
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO rounds
		(run_id, round, total_capital, remaining_capital, revenue, profit,
		 purchases, exhausted, mean_budget, materials_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, rep.Round, rep.Company.TotalCapital, rep.Company.RemainingCapital,
		rep.Company.Revenue, rep.Company.Profit,
		rep.Population.Purchases, rep.Population.Exhausted, rep.Population.MeanBudget,
		string(matsJSON),
	)
	if err != nil {
		return fmt.Errorf("insert round %d: %w", rep.Round, err)
	}

	stmt, err := tx.Preparex(`INSERT INTO product_rounds
		(run_id, round, product, investment, produced, unit_cost, unit_price, unit_profit,
		 total_cost, potential_total_price, potential_total_profit, sold, remaining, actual_profit)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range rep.Products {
		if p.Product == economy.TotalsRow {
			continue
		}
		_, err := stmt.Exec(
			runID, rep.Round, p.Product, p.Investment, p.Produced,
			p.UnitCost, p.UnitPrice, p.UnitProfit, p.TotalCost,
			p.PotentialTotalPrice, p.PotentialTotalProfit,
			p.Sold, p.Remaining, p.ActualProfit,
		)
		if err != nil {
			return fmt.Errorf("insert product %s round %d: %w", p.Product, rep.Round, err)
		}
	}

	return tx.Commit()
}

// RoundRow is one settled round as stored in the ledger.
type RoundRow struct {
	RunID            string  `db:"run_id"`
	Strategy         string  `db:"strategy"`
	Seed             int64   `db:"seed"`
	Round            uint64  `db:"round"`
	TotalCapital     float64 `db:"total_capital"`
	RemainingCapital float64 `db:"remaining_capital"`
	Revenue          float64 `db:"revenue"`
	Profit           float64 `db:"profit"`
	Purchases        int     `db:"purchases"`
	Exhausted        int     `db:"exhausted"`
	MeanBudget       float64 `db:"mean_budget"`
	MaterialsJSON    string  `db:"materials_json"`
}

// Materials decodes the stored material readouts.
func (r RoundRow) Materials() ([]engine.MaterialReport, error) {
	var mats []engine.MaterialReport
	err := json.Unmarshal([]byte(r.MaterialsJSON), &mats)
	return mats, err
}

// RecentRounds returns the most recent N rounds across all runs, newest first.
func (db *DB) RecentRounds(limit int) ([]RoundRow, error) {
	var rows []RoundRow
	err := db.conn.Select(&rows, `
		SELECT r.run_id, runs.strategy, runs.seed, r.round, r.total_capital,
		       r.remaining_capital, r.revenue, r.profit, r.purchases, r.exhausted,
		       r.mean_budget, r.materials_json
		FROM rounds r JOIN runs ON runs.id = r.run_id
		ORDER BY r.id DESC LIMIT ?`,
		limit,
	)
	return rows, err
}

// ProductRounds returns the stored product rows of one round in name order.
func (db *DB) ProductRounds(runID string, round uint64) ([]economy.ProductReport, error) {
	var rows []economy.ProductReport
	err := db.conn.Select(&rows, `
		SELECT product, investment, produced, unit_cost, unit_price, unit_profit,
		       total_cost, potential_total_price, potential_total_profit,
		       sold, remaining, actual_profit
		FROM product_rounds WHERE run_id = ? AND round = ?
		ORDER BY product`,
		runID, round,
	)
	return rows, err
}

// SaveMeta stores a key-value pair in ledger metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO ledger_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM ledger_meta WHERE key = ?", key)
	return value, err
}
