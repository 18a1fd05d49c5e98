// Package store persists solved runs and their solution tables in SQLite or
// PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"battery-dispatch/internal/dispatch"
	"battery-dispatch/internal/solution"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var ErrNotFound = errors.New("run not found")

// Run is the summary row of one solved model.
type Run struct {
	ID            string          `json:"id"`
	CreatedAt     time.Time       `json:"created_at"`
	Label         string          `json:"label,omitempty"`
	Config        json.RawMessage `json:"config,omitempty"`
	Objective     float64         `json:"objective"`
	PredictedCost float64         `json:"predicted_cost"`
	ActualCost    float64         `json:"actual_cost"`
	VaR           float64         `json:"var"`
	CVaR          float64         `json:"cvar"`
	Alpha         float64         `json:"alpha"`
	Beta          float64         `json:"beta"`
	Scenarios     int             `json:"scenarios"`
	Nodes         int             `json:"nodes"`
}

// NewRun builds a run record with a fresh id from a solved result.
func NewRun(label string, cfg any, res *dispatch.Result) (*Run, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return &Run{
		ID:            uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
		Label:         label,
		Config:        raw,
		Objective:     res.Objective,
		PredictedCost: res.PredictedCost,
		ActualCost:    res.ActualCost,
		VaR:           res.VaR,
		CVaR:          res.CVaR,
		Alpha:         res.Alpha,
		Beta:          res.Beta,
		Scenarios:     len(res.ScenarioCosts),
		Nodes:         res.Nodes,
	}, nil
}

// Store handles persistent storage of runs.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to driver ("sqlite" or "postgres") and creates the schema.
func Open(driver, dsn string) (*Store, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if driver == DriverSQLite {
		// a single connection keeps :memory: databases shared
		db.SetMaxOpenConns(1)
	}
	s := &Store{db: db, driver: driver}
	if err := s.initialize(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initialize(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			label TEXT NOT NULL DEFAULT '',
			config TEXT NOT NULL,
			objective DOUBLE PRECISION NOT NULL,
			predicted_cost DOUBLE PRECISION NOT NULL,
			actual_cost DOUBLE PRECISION NOT NULL,
			value_at_risk DOUBLE PRECISION NOT NULL,
			cvar DOUBLE PRECISION NOT NULL,
			alpha DOUBLE PRECISION NOT NULL,
			beta DOUBLE PRECISION NOT NULL,
			scenarios INTEGER NOT NULL,
			nodes INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS solution_rows (
			run_id TEXT NOT NULL REFERENCES runs(id),
			seq INTEGER NOT NULL,
			variable TEXT NOT NULL,
			index_1 INTEGER,
			index_2 INTEGER,
			value DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (run_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SaveRun stores the run and its solution table in one transaction.
func (s *Store) SaveRun(ctx context.Context, run *Run, rows []solution.Row) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO runs
		(id, created_at, label, config, objective, predicted_cost, actual_cost, value_at_risk, cvar, alpha, beta, scenarios, nodes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		run.ID, run.CreatedAt.UTC().Format(time.RFC3339Nano), run.Label, string(run.Config),
		run.Objective, run.PredictedCost, run.ActualCost, run.VaR, run.CVaR,
		run.Alpha, run.Beta, run.Scenarios, run.Nodes)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.rebind(`INSERT INTO solution_rows
		(run_id, seq, variable, index_1, index_2, value) VALUES (?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return err
	}
	defer stmt.Close()
	for seq, r := range rows {
		var idx [solution.MaxIndex]sql.NullInt64
		for k := 0; k < len(r.Index) && k < solution.MaxIndex; k++ {
			idx[k] = sql.NullInt64{Int64: int64(r.Index[k]), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, run.ID, seq, r.Variable, idx[0], idx[1], r.Value); err != nil {
			return fmt.Errorf("insert solution row %d: %w", seq, err)
		}
	}
	return tx.Commit()
}

const runColumns = `id, created_at, label, config, objective, predicted_cost, actual_cost, value_at_risk, cvar, alpha, beta, scenarios, nodes`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var r Run
	var created, cfg string
	err := sc.Scan(&r.ID, &created, &r.Label, &cfg, &r.Objective, &r.PredictedCost, &r.ActualCost,
		&r.VaR, &r.CVaR, &r.Alpha, &r.Beta, &r.Scenarios, &r.Nodes)
	if err != nil {
		return nil, err
	}
	r.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, fmt.Errorf("run %s: bad created_at: %w", r.ID, err)
	}
	r.Config = json.RawMessage(cfg)
	return &r, nil
}

func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+runColumns+` FROM runs WHERE id = ?`), id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

// ListRuns returns the most recent runs first. limit <= 0 means no limit.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, id`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// SolutionRows returns the stored solution table of a run in insertion order.
func (s *Store) SolutionRows(ctx context.Context, id string) ([]solution.Row, error) {
	if _, err := s.GetRun(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT variable, index_1, index_2, value FROM solution_rows WHERE run_id = ? ORDER BY seq`), id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []solution.Row
	for rows.Next() {
		var r solution.Row
		var idx [solution.MaxIndex]sql.NullInt64
		if err := rows.Scan(&r.Variable, &idx[0], &idx[1], &r.Value); err != nil {
			return nil, err
		}
		for _, v := range idx {
			if v.Valid {
				r.Index = append(r.Index, int(v.Int64))
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
