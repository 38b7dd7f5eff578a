package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/armorbank/ledger-api/internal/domain"
)

func SeedAccount(t *testing.T, db *sql.DB, name string, balance int64) *domain.Account {
	t.Helper()

	a := &domain.Account{
		Name:      name,
		Balance:   balance,
		Version:   1,
		CreatedAt: time.Now().UTC(),
	}

	err := db.QueryRow(
		`INSERT INTO accounts (name, balance, version, created_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		a.Name, a.Balance, a.Version, a.CreatedAt,
	).Scan(&a.ID)
	if err != nil {
		t.Fatalf("seed account %q: %v", name, err)
	}
	return a
}

func GetBalance(t *testing.T, db *sql.DB, accountID int64) int64 {
	t.Helper()

	var balance int64
	err := db.QueryRow(`SELECT balance FROM accounts WHERE id = $1`, accountID).Scan(&balance)
	if err != nil {
		t.Fatalf("get balance for account %d: %v", accountID, err)
	}
	return balance
}

func CountTransactions(t *testing.T, db *sql.DB, accountID int64) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE account_id = $1`, accountID).Scan(&count)
	if err != nil {
		t.Fatalf("count transactions for account %d: %v", accountID, err)
	}
	return count
}
