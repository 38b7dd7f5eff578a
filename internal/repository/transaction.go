package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/armorbank/ledger-api/internal/domain"
)

const transactionColumns = `id, account_id, transaction_type, amount, created_at`

// TransactionRepository is the append-only transaction log. Rows are never
// updated or deleted.
type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Append writes a transaction inside the caller's tx so the log entry and
// the balance it explains commit atomically.
func (r *TransactionRepository) Append(ctx context.Context, tx *sql.Tx, accountID int64, txType domain.TransactionType, amount int64, createdAt time.Time) (*domain.Transaction, error) {
	row := tx.QueryRowContext(ctx,
		`INSERT INTO transactions (account_id, transaction_type, amount, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING `+transactionColumns,
		accountID, txType, amount, createdAt,
	)

	var t domain.Transaction
	if err := row.Scan(&t.ID, &t.AccountID, &t.Type, &t.Amount, &t.CreatedAt); err != nil {
		return nil, fmt.Errorf("Append: %w", err)
	}
	return &t, nil
}

const (
	MinListLimit = 1
	MaxListLimit = 1000
)

// ListRecent returns up to limit transactions for the account, newest first
// by (created_at, id), plus the account's total transaction count as
// observed at call time.
func (r *TransactionRepository) ListRecent(ctx context.Context, accountID int64, limit int) ([]domain.Transaction, int, error) {
	if limit < MinListLimit || limit > MaxListLimit {
		return nil, 0, fmt.Errorf("ListRecent: %w", &domain.InvalidArgumentError{Field: "limit", Reason: "must be between 1 and 1000"})
	}

	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE account_id = $1`, accountID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("ListRecent: count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE account_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
		accountID, limit,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("ListRecent: %w", err)
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Type, &t.Amount, &t.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("ListRecent: scan: %w", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ListRecent: rows: %w", err)
	}
	return transactions, total, nil
}
