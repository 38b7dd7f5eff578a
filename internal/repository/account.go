package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/armorbank/ledger-api/internal/domain"
)

const accountColumns = `id, name, balance, version, created_at`

type scanner interface {
	Scan(dest ...any) error
}

// AccountRepository is the only path to account rows. Balance is written
// exclusively through ReplaceBalance, which the ledger service calls while
// holding the row lock taken by GetForUpdate.
type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, name string, initialBalance int64) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO accounts (name, balance, version)
		VALUES ($1, $2, 1)
		RETURNING `+accountColumns,
		name, initialBalance,
	)
	a, err := scanAccount(row)
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", &domain.NotFoundError{AccountID: id})
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return a, nil
}

// GetForUpdate locks the account row for the duration of tx, serializing
// concurrent mutations of the same account against each other while leaving
// other accounts untouched.
func (r *AccountRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.Account, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", &domain.NotFoundError{AccountID: id})
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return a, nil
}

// ReplaceBalance overwrites the balance of an existing account. The version
// guard cannot trip while callers hold the FOR UPDATE lock; it exists to
// catch writes that escaped it.
func (r *AccountRepository) ReplaceBalance(ctx context.Context, tx *sql.Tx, id int64, newBalance int64, newVersion int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance = $1, version = $2 WHERE id = $3 AND version = $4`,
		newBalance, newVersion, id, newVersion-1,
	)
	if err != nil {
		return fmt.Errorf("ReplaceBalance: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ReplaceBalance: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("ReplaceBalance: %w", domain.ErrVersionConflict)
	}
	return nil
}

func scanAccount(s scanner) (*domain.Account, error) {
	var a domain.Account
	err := s.Scan(&a.ID, &a.Name, &a.Balance, &a.Version, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
