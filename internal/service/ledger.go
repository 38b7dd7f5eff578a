package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/armorbank/ledger-api/internal/domain"
	"github.com/armorbank/ledger-api/internal/logging"
)

type accountStore interface {
	Create(ctx context.Context, name string, initialBalance int64) (*domain.Account, error)
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.Account, error)
	ReplaceBalance(ctx context.Context, tx *sql.Tx, id int64, newBalance int64, newVersion int64) error
}

type transactionLog interface {
	Append(ctx context.Context, tx *sql.Tx, accountID int64, txType domain.TransactionType, amount int64, createdAt time.Time) (*domain.Transaction, error)
	ListRecent(ctx context.Context, accountID int64, limit int) ([]domain.Transaction, int, error)
}

// LedgerService keeps each account's balance consistent with its
// transaction log. A balance write and its log append always commit in the
// same database transaction; the FOR UPDATE row lock taken before the
// balance check serializes concurrent mutations per account, so two
// withdrawals can never both pass the check against a stale balance.
type LedgerService struct {
	db           *sql.DB
	accounts     accountStore
	transactions transactionLog
}

func NewLedgerService(db *sql.DB, accounts accountStore, transactions transactionLog) *LedgerService {
	return &LedgerService{db: db, accounts: accounts, transactions: transactions}
}

// CreateAccount opens a new account. The initial balance is a creation
// parameter, not a deposit: no transaction is logged for it.
func (s *LedgerService) CreateAccount(ctx context.Context, name string, initialBalance int64) (*domain.Account, error) {
	if name == "" {
		return nil, fmt.Errorf("CreateAccount: %w", &domain.InvalidArgumentError{Field: "name", Reason: "required"})
	}
	if initialBalance < 0 {
		return nil, fmt.Errorf("CreateAccount: %w", &domain.InvalidArgumentError{Field: "initial_balance", Reason: "must not be negative"})
	}

	account, err := s.accounts.Create(ctx, name, initialBalance)
	if err != nil {
		return nil, fmt.Errorf("CreateAccount: %w", err)
	}

	logging.FromContext(ctx).Info("account created",
		"account_id", account.ID,
		"initial_balance", account.Balance,
	)

	return account, nil
}

// ApplyTransaction deposits into or withdraws from an account as a single
// unit of work and returns the updated account. On any error the balance
// and the log are exactly as they were before the call.
func (s *LedgerService) ApplyTransaction(ctx context.Context, accountID int64, txType domain.TransactionType, amount int64) (*domain.Account, error) {
	if !txType.IsValid() {
		return nil, fmt.Errorf("ApplyTransaction: %w", &domain.InvalidArgumentError{Field: "type", Reason: "must be deposit or withdrawal"})
	}
	if amount <= 0 {
		return nil, fmt.Errorf("ApplyTransaction: %w", &domain.InvalidArgumentError{Field: "amount", Reason: "must be greater than zero"})
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ApplyTransaction: begin tx: %w", err)
	}
	defer tx.Rollback()

	account, err := s.accounts.GetForUpdate(ctx, tx, accountID)
	if err != nil {
		return nil, fmt.Errorf("ApplyTransaction: %w", err)
	}

	newBalance := account.Balance + amount
	if txType == domain.TransactionTypeWithdrawal {
		if amount > account.Balance {
			return nil, fmt.Errorf("ApplyTransaction: %w", &domain.InsufficientBalanceError{
				AccountID:       accountID,
				CurrentBalance:  account.Balance,
				RequestedAmount: amount,
			})
		}
		newBalance = account.Balance - amount
	}

	if err := s.accounts.ReplaceBalance(ctx, tx, accountID, newBalance, account.Version+1); err != nil {
		return nil, fmt.Errorf("ApplyTransaction: %w", err)
	}

	transaction, err := s.transactions.Append(ctx, tx, accountID, txType, amount, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("ApplyTransaction: append: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("ApplyTransaction: commit: %w", err)
	}

	logging.FromContext(ctx).Info("transaction applied",
		"transaction_id", transaction.ID,
		"account_id", accountID,
		"type", txType,
		"amount", amount,
		"balance", newBalance,
	)

	updated := *account
	updated.Balance = newBalance
	updated.Version = account.Version + 1
	return &updated, nil
}

func (s *LedgerService) GetAccount(ctx context.Context, accountID int64) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("GetAccount: %w", err)
	}
	return account, nil
}

// ListTransactions returns up to limit transactions, newest first, plus the
// account's total count as observed at call time. The page is not a stable
// snapshot across concurrent mutations, but it never contains a
// half-applied transaction.
func (s *LedgerService) ListTransactions(ctx context.Context, accountID int64, limit int) ([]domain.Transaction, int, error) {
	if _, err := s.accounts.GetByID(ctx, accountID); err != nil {
		return nil, 0, fmt.Errorf("ListTransactions: %w", err)
	}

	transactions, total, err := s.transactions.ListRecent(ctx, accountID, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("ListTransactions: %w", err)
	}
	return transactions, total, nil
}
