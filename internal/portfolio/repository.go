// Package portfolio persists portfolio snapshots and recomputes derived
// state (market values, weights, breakdowns) from fresh prices.
package portfolio

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/quiverlabs/radar/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS portfolio_snapshots (
	as_of      TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	created_at TEXT NOT NULL DEFAULT (datetime('now'))
);
`

// Repository stores portfolio snapshots, one per calendar day.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates the snapshot table if needed and returns a repository.
func NewRepository(db *sql.DB, log zerolog.Logger) (*Repository, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create portfolio schema: %w", err)
	}
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "portfolio").Logger(),
	}, nil
}

// Save upserts the snapshot for its as-of date.
func (r *Repository) Save(state *domain.PortfolioState) error {
	if state == nil {
		return fmt.Errorf("cannot save nil portfolio state")
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal portfolio state: %w", err)
	}

	asOf := state.AsOf.Format("2006-01-02")

	_, err = r.db.Exec(`
		INSERT INTO portfolio_snapshots (as_of, data) VALUES (?, ?)
		ON CONFLICT(as_of) DO UPDATE SET data = excluded.data
	`, asOf, string(data))
	if err != nil {
		return fmt.Errorf("failed to save portfolio snapshot: %w", err)
	}

	r.log.Debug().
		Str("as_of", asOf).
		Float64("total_value", state.TotalValue).
		Int("positions", len(state.Positions)).
		Msg("Saved portfolio snapshot")

	return nil
}

// Latest returns the most recent snapshot, or nil when none exists.
func (r *Repository) Latest() (*domain.PortfolioState, error) {
	var data string
	err := r.db.QueryRow(
		"SELECT data FROM portfolio_snapshots ORDER BY as_of DESC LIMIT 1",
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest portfolio snapshot: %w", err)
	}

	return unmarshalState(data)
}

// GetByDate returns the snapshot for a date (YYYY-MM-DD), or nil when absent.
func (r *Repository) GetByDate(date string) (*domain.PortfolioState, error) {
	var data string
	err := r.db.QueryRow(
		"SELECT data FROM portfolio_snapshots WHERE as_of = ?", date,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolio snapshot for %s: %w", date, err)
	}

	return unmarshalState(data)
}

// Dates returns the snapshot dates in descending order, newest first.
func (r *Repository) Dates(limit int) ([]string, error) {
	rows, err := r.db.Query(
		"SELECT as_of FROM portfolio_snapshots ORDER BY as_of DESC LIMIT ?", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshot dates: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot date: %w", err)
		}
		dates = append(dates, date)
	}

	return dates, rows.Err()
}

// DailyValues returns total portfolio values in chronological order for the
// most recent limit days. Used for risk metric computation.
func (r *Repository) DailyValues(limit int) ([]float64, error) {
	dates, err := r.Dates(limit)
	if err != nil {
		return nil, err
	}

	// Dates come back newest first; walk backwards for chronological order.
	values := make([]float64, 0, len(dates))
	for i := len(dates) - 1; i >= 0; i-- {
		state, err := r.GetByDate(dates[i])
		if err != nil {
			return nil, err
		}
		if state != nil {
			values = append(values, state.TotalValue)
		}
	}

	return values, nil
}

func unmarshalState(data string) (*domain.PortfolioState, error) {
	var state domain.PortfolioState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal portfolio state: %w", err)
	}
	return &state, nil
}
