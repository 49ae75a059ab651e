package analysis

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/quiverlabs/radar/internal/domain"
)

const runSchema = `
CREATE TABLE IF NOT EXISTS analysis_runs (
	date       TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL,
	data       TEXT NOT NULL,
	created_at TEXT NOT NULL DEFAULT (datetime('now'))
);
`

// Repository stores daily analysis documents, one per calendar day.
// A rerun on the same day replaces the earlier document.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates the analysis table if needed and returns a repository.
func NewRepository(db *sql.DB, log zerolog.Logger) (*Repository, error) {
	if _, err := db.Exec(runSchema); err != nil {
		return nil, fmt.Errorf("failed to create analysis schema: %w", err)
	}
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "analysis").Logger(),
	}, nil
}

// Save upserts the analysis document for its date.
func (r *Repository) Save(doc *DailyAnalysis) error {
	if doc == nil {
		return fmt.Errorf("cannot save nil analysis")
	}
	if doc.Date == "" {
		return fmt.Errorf("analysis has no date")
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO analysis_runs (date, run_id, data) VALUES (?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET run_id = excluded.run_id, data = excluded.data
	`, doc.Date, doc.RunID, string(data))
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}

	r.log.Info().
		Str("date", doc.Date).
		Str("run_id", doc.RunID).
		Int("focus_list", len(doc.FocusList)).
		Int("recommendations", len(doc.Recommendations)).
		Msg("Saved daily analysis")

	return nil
}

// GetByDate returns the analysis for a date (YYYY-MM-DD), or nil when absent.
func (r *Repository) GetByDate(date string) (*DailyAnalysis, error) {
	var data string
	err := r.db.QueryRow(
		"SELECT data FROM analysis_runs WHERE date = ?", date,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis for %s: %w", date, err)
	}

	return unmarshalAnalysis(data)
}

// Latest returns the most recent analysis, or nil when none exists.
func (r *Repository) Latest() (*DailyAnalysis, error) {
	var data string
	err := r.db.QueryRow(
		"SELECT data FROM analysis_runs ORDER BY date DESC LIMIT 1",
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest analysis: %w", err)
	}

	return unmarshalAnalysis(data)
}

// Dates returns available analysis dates in descending order, newest first.
func (r *Repository) Dates(limit int) ([]string, error) {
	rows, err := r.db.Query(
		"SELECT date FROM analysis_runs ORDER BY date DESC LIMIT ?", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis dates: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, fmt.Errorf("failed to scan analysis date: %w", err)
		}
		dates = append(dates, date)
	}

	return dates, rows.Err()
}

// GetRange returns analyses between two dates inclusive, oldest first.
func (r *Repository) GetRange(from, to string) ([]*DailyAnalysis, error) {
	rows, err := r.db.Query(
		"SELECT data FROM analysis_runs WHERE date >= ? AND date <= ? ORDER BY date ASC",
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis range: %w", err)
	}
	defer rows.Close()

	var docs []*DailyAnalysis
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		doc, err := unmarshalAnalysis(data)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

func unmarshalAnalysis(data string) (*DailyAnalysis, error) {
	var doc DailyAnalysis
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis: %w", err)
	}
	return &doc, nil
}

// Quality grades a run from its error and warning counts.
func Quality(errors, warnings []string) string {
	switch {
	case len(errors) > 0:
		return "low"
	case len(warnings) > 0:
		return "medium"
	default:
		return "high"
	}
}

// NewExecutionSummary builds the summary block for a completed run.
func NewExecutionSummary(focus []domain.FocusEntry, recs []domain.Recommendation, warnings, errors []string) ExecutionSummary {
	return ExecutionSummary{
		Quality:              Quality(errors, warnings),
		FocusListCount:       len(focus),
		RecommendationsCount: len(recs),
		Warnings:             warnings,
		Errors:               errors,
	}
}
