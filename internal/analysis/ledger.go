package analysis

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/quiverlabs/radar/internal/database"
	"github.com/quiverlabs/radar/internal/domain"
)

const ledgerSchema = `
CREATE TABLE IF NOT EXISTS transactions (
	id            TEXT PRIMARY KEY,
	date          TEXT NOT NULL,
	ticker        TEXT NOT NULL,
	action        TEXT NOT NULL,
	shares        INTEGER NOT NULL,
	price         REAL NOT NULL,
	commission    REAL NOT NULL,
	total_cost    REAL NOT NULL,
	justification TEXT NOT NULL DEFAULT '',
	analysis_ref  TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_transactions_ticker ON transactions(ticker);
CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date);
`

const transactionColumns = "id, date, ticker, action, shares, price, commission, total_cost, justification, analysis_ref"

// Ledger is the append-only transaction history.
type Ledger struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewLedger creates the ledger table if needed and returns it.
func NewLedger(db *sql.DB, log zerolog.Logger) (*Ledger, error) {
	if _, err := db.Exec(ledgerSchema); err != nil {
		return nil, fmt.Errorf("failed to create ledger schema: %w", err)
	}
	return &Ledger{
		db:  db,
		log: log.With().Str("repo", "ledger").Logger(),
	}, nil
}

// Append records one transaction.
func (l *Ledger) Append(txn Transaction) error {
	if txn.ID == "" {
		return fmt.Errorf("transaction has no id")
	}

	_, err := l.db.Exec(`
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, txn.ID, txn.Date, txn.Ticker, string(txn.Action), txn.Shares,
		txn.Price, txn.Commission, txn.TotalCost, txn.Justification, txn.AnalysisRef)
	if err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}

	l.log.Info().
		Str("id", txn.ID).
		Str("ticker", txn.Ticker).
		Str("action", string(txn.Action)).
		Int64("shares", txn.Shares).
		Msg("Recorded transaction")

	return nil
}

// AppendAll records multiple transactions atomically.
func (l *Ledger) AppendAll(txns []Transaction) error {
	return database.WithTransaction(l.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO transactions (` + transactionColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, txn := range txns {
			if txn.ID == "" {
				return fmt.Errorf("transaction has no id")
			}
			if _, err := stmt.Exec(
				txn.ID, txn.Date, txn.Ticker, string(txn.Action), txn.Shares,
				txn.Price, txn.Commission, txn.TotalCost, txn.Justification, txn.AnalysisRef,
			); err != nil {
				return fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
			}
		}
		return nil
	})
}

// GetAll returns every transaction, oldest first.
func (l *Ledger) GetAll() ([]Transaction, error) {
	return l.query(
		"SELECT "+transactionColumns+" FROM transactions ORDER BY date ASC, id ASC",
	)
}

// GetByTicker returns a ticker's transactions, oldest first.
func (l *Ledger) GetByTicker(ticker string) ([]Transaction, error) {
	return l.query(
		"SELECT "+transactionColumns+" FROM transactions WHERE ticker = ? ORDER BY date ASC, id ASC",
		ticker,
	)
}

// GetByDateRange returns transactions between two dates inclusive, oldest
// first.
func (l *Ledger) GetByDateRange(from, to string) ([]Transaction, error) {
	return l.query(
		"SELECT "+transactionColumns+" FROM transactions WHERE date >= ? AND date <= ? ORDER BY date ASC, id ASC",
		from, to,
	)
}

// Summary aggregates the full history.
func (l *Ledger) Summary() (LedgerSummary, error) {
	txns, err := l.GetAll()
	if err != nil {
		return LedgerSummary{}, err
	}

	summary := LedgerSummary{TotalTransactions: len(txns)}
	for _, txn := range txns {
		summary.TotalCommissionsPaid += txn.Commission
		switch txn.Action {
		case domain.ActionEntry, domain.ActionAdd:
			summary.TotalBought += txn.TotalCost
		case domain.ActionTrim, domain.ActionExit:
			summary.TotalSold += txn.TotalCost
		}
	}

	return summary, nil
}

func (l *Ledger) query(query string, args ...interface{}) ([]Transaction, error) {
	rows, err := l.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txns []Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}

	return txns, rows.Err()
}

func scanTransaction(rows *sql.Rows) (Transaction, error) {
	var txn Transaction
	var action string
	err := rows.Scan(
		&txn.ID, &txn.Date, &txn.Ticker, &action, &txn.Shares,
		&txn.Price, &txn.Commission, &txn.TotalCost, &txn.Justification, &txn.AnalysisRef,
	)
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to scan transaction: %w", err)
	}
	txn.Action = domain.Action(action)
	return txn, nil
}
