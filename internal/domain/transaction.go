package domain

import "time"

type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
)

func (t TransactionType) IsValid() bool {
	return t == TransactionTypeDeposit || t == TransactionTypeWithdrawal
}

// Transaction is an immutable record of a single deposit or withdrawal.
// IDs are ledger-wide monotonic; per-account order is (CreatedAt, ID)
// ascending, with CreatedAt assigned at append time.
type Transaction struct {
	ID        int64
	AccountID int64
	Type      TransactionType
	Amount    int64
	CreatedAt time.Time
}
