package universe

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/quiverlabs/radar/internal/database"
	"github.com/quiverlabs/radar/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS etfs (
	ticker TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	category TEXT NOT NULL,
	sector TEXT NOT NULL,
	geography TEXT NOT NULL,
	asset_class TEXT NOT NULL,
	expense_ratio REAL NOT NULL,
	description TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_etfs_category ON etfs(category);
CREATE INDEX IF NOT EXISTS idx_etfs_sector ON etfs(sector);
`

// Repository persists the ETF universe in universe.db. The table mirrors
// the static catalog so other databases can join against it and so the API
// can serve the universe without recompiling.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates the universe repository and ensures the schema
// exists.
func NewRepository(db *sql.DB, log zerolog.Logger) (*Repository, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create universe schema: %w", err)
	}
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "universe").Logger(),
	}, nil
}

// Seed upserts the static catalog into the database. Safe to call on every
// startup.
func (r *Repository) Seed() error {
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO etfs (ticker, name, category, sector, geography, asset_class, expense_ratio, description)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(ticker) DO UPDATE SET
				name = excluded.name,
				category = excluded.category,
				sector = excluded.sector,
				geography = excluded.geography,
				asset_class = excluded.asset_class,
				expense_ratio = excluded.expense_ratio,
				description = excluded.description`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, e := range catalog {
			if _, err := stmt.Exec(e.Ticker, e.Name, string(e.Category), e.Sector, e.Geography, string(e.AssetClass), e.ExpenseRatio, e.Description); err != nil {
				return fmt.Errorf("failed to upsert %s: %w", e.Ticker, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.log.Debug().Int("count", len(catalog)).Msg("Universe seeded")
	return nil
}

const etfColumns = `ticker, name, category, sector, geography, asset_class, expense_ratio, description`

// GetAll returns every ETF ordered by category then ticker.
func (r *Repository) GetAll() ([]ETF, error) {
	rows, err := r.db.Query("SELECT " + etfColumns + " FROM etfs ORDER BY ticker")
	if err != nil {
		return nil, fmt.Errorf("failed to query universe: %w", err)
	}
	defer rows.Close()

	var etfs []ETF
	for rows.Next() {
		e, err := scanETF(rows)
		if err != nil {
			return nil, err
		}
		etfs = append(etfs, e)
	}
	return etfs, rows.Err()
}

// GetByTicker returns one ETF, or nil when the ticker is not in the
// universe.
func (r *Repository) GetByTicker(ticker string) (*ETF, error) {
	rows, err := r.db.Query("SELECT "+etfColumns+" FROM etfs WHERE ticker = ?", ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to query ETF %s: %w", ticker, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, nil
	}
	e, err := scanETF(rows)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetByCategory returns all ETFs in a category ordered by ticker.
func (r *Repository) GetByCategory(category domain.Category) ([]ETF, error) {
	rows, err := r.db.Query("SELECT "+etfColumns+" FROM etfs WHERE category = ? ORDER BY ticker", string(category))
	if err != nil {
		return nil, fmt.Errorf("failed to query category %s: %w", category, err)
	}
	defer rows.Close()

	var etfs []ETF
	for rows.Next() {
		e, err := scanETF(rows)
		if err != nil {
			return nil, err
		}
		etfs = append(etfs, e)
	}
	return etfs, rows.Err()
}

func scanETF(rows *sql.Rows) (ETF, error) {
	var e ETF
	var category, assetClass string
	if err := rows.Scan(&e.Ticker, &e.Name, &category, &e.Sector, &e.Geography, &assetClass, &e.ExpenseRatio, &e.Description); err != nil {
		return ETF{}, fmt.Errorf("failed to scan ETF: %w", err)
	}
	e.Category = domain.Category(category)
	e.AssetClass = domain.AssetClass(assetClass)
	return e, nil
}
