package service_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armorbank/ledger-api/internal/domain"
	"github.com/armorbank/ledger-api/internal/repository"
	"github.com/armorbank/ledger-api/internal/service"
	"github.com/armorbank/ledger-api/internal/testutil"
)

func setupLedgerService(t *testing.T, db *sql.DB) *service.LedgerService {
	t.Helper()
	return service.NewLedgerService(
		db,
		repository.NewAccountRepository(db),
		repository.NewTransactionRepository(db),
	)
}

func TestCreateAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	account, err := svc.CreateAccount(ctx, "John Doe", 100000)
	require.NoError(t, err)
	assert.Equal(t, int64(1), account.ID)
	assert.Equal(t, "John Doe", account.Name)
	assert.Equal(t, int64(100000), account.Balance)

	// Opening balance is a creation parameter, not a deposit.
	assert.Equal(t, 0, testutil.CountTransactions(t, db, account.ID))

	second, err := svc.CreateAccount(ctx, "Jane Doe", 0)
	require.NoError(t, err)
	assert.Greater(t, second.ID, account.ID, "ids must be monotonically increasing")
}

func TestCreateAccount_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	_, err := svc.CreateAccount(ctx, "", 1000)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = svc.CreateAccount(ctx, "John Doe", -1)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestApplyTransaction_DepositAndWithdraw(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	account := testutil.SeedAccount(t, db, "John Doe", 100000)

	updated, err := svc.ApplyTransaction(ctx, account.ID, domain.TransactionTypeDeposit, 50000)
	require.NoError(t, err)
	assert.Equal(t, int64(150000), updated.Balance)
	assert.Equal(t, 1, testutil.CountTransactions(t, db, account.ID))

	updated, err = svc.ApplyTransaction(ctx, account.ID, domain.TransactionTypeWithdrawal, 20000)
	require.NoError(t, err)
	assert.Equal(t, int64(130000), updated.Balance)
	assert.Equal(t, 2, testutil.CountTransactions(t, db, account.ID))
}

func TestApplyTransaction_InsufficientBalance(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	account := testutil.SeedAccount(t, db, "John Doe", 130000)

	_, err := svc.ApplyTransaction(ctx, account.ID, domain.TransactionTypeWithdrawal, 500000)
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	var ib *domain.InsufficientBalanceError
	require.ErrorAs(t, err, &ib)
	assert.Equal(t, account.ID, ib.AccountID)
	assert.Equal(t, int64(130000), ib.CurrentBalance)
	assert.Equal(t, int64(500000), ib.RequestedAmount)

	// No partial effect: balance and log untouched.
	assert.Equal(t, int64(130000), testutil.GetBalance(t, db, account.ID))
	assert.Equal(t, 0, testutil.CountTransactions(t, db, account.ID))
}

func TestApplyTransaction_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	account := testutil.SeedAccount(t, db, "John Doe", 1000)

	tests := []struct {
		name   string
		txType domain.TransactionType
		amount int64
	}{
		{"zero amount", domain.TransactionTypeDeposit, 0},
		{"negative amount", domain.TransactionTypeDeposit, -100},
		{"unknown type", domain.TransactionType("transfer"), 100},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ApplyTransaction(ctx, account.ID, tc.txType, tc.amount)
			assert.ErrorIs(t, err, domain.ErrInvalidArgument)
		})
	}

	assert.Equal(t, int64(1000), testutil.GetBalance(t, db, account.ID))
	assert.Equal(t, 0, testutil.CountTransactions(t, db, account.ID))
}

func TestApplyTransaction_AccountNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	_, err := svc.ApplyTransaction(ctx, 999, domain.TransactionTypeDeposit, 100)
	require.ErrorIs(t, err, domain.ErrNotFound)

	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, int64(999), nf.AccountID)
}

func TestGetAccount_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)

	_, err := svc.GetAccount(context.Background(), 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListTransactions_NewestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	account := testutil.SeedAccount(t, db, "John Doe", 100000)

	_, err := svc.ApplyTransaction(ctx, account.ID, domain.TransactionTypeDeposit, 50000)
	require.NoError(t, err)
	_, err = svc.ApplyTransaction(ctx, account.ID, domain.TransactionTypeWithdrawal, 20000)
	require.NoError(t, err)

	transactions, total, err := svc.ListTransactions(ctx, account.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, transactions, 2)

	assert.Equal(t, domain.TransactionTypeWithdrawal, transactions[0].Type)
	assert.Equal(t, int64(20000), transactions[0].Amount)
	assert.Equal(t, domain.TransactionTypeDeposit, transactions[1].Type)
	assert.Equal(t, int64(50000), transactions[1].Amount)
	assert.False(t, transactions[0].CreatedAt.Before(transactions[1].CreatedAt))
}

func TestListTransactions_LimitTruncates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	account := testutil.SeedAccount(t, db, "John Doe", 0)

	for i := int64(1); i <= 5; i++ {
		_, err := svc.ApplyTransaction(ctx, account.ID, domain.TransactionTypeDeposit, i*100)
		require.NoError(t, err)
	}

	transactions, total, err := svc.ListTransactions(ctx, account.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total, "total reflects all transactions, not the page")
	require.Len(t, transactions, 2)
	assert.Equal(t, int64(500), transactions[0].Amount)
	assert.Equal(t, int64(400), transactions[1].Amount)
}

func TestListTransactions_LimitBounds(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	account := testutil.SeedAccount(t, db, "John Doe", 0)

	for _, limit := range []int{0, -1, 1001} {
		_, _, err := svc.ListTransactions(ctx, account.ID, limit)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument, "limit %d", limit)
	}

	transactions, total, err := svc.ListTransactions(ctx, account.ID, 1000)
	require.NoError(t, err)
	assert.Empty(t, transactions)
	assert.Equal(t, 0, total)
}

func TestListTransactions_AccountNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)

	_, _, err := svc.ListTransactions(context.Background(), 999, 10)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReadsAreIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	account := testutil.SeedAccount(t, db, "John Doe", 100000)
	_, err := svc.ApplyTransaction(ctx, account.ID, domain.TransactionTypeDeposit, 500)
	require.NoError(t, err)

	first, err := svc.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	second, err := svc.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	list1, total1, err := svc.ListTransactions(ctx, account.ID, 10)
	require.NoError(t, err)
	list2, total2, err := svc.ListTransactions(ctx, account.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, list1, list2)
	assert.Equal(t, total1, total2)
}

func TestConcurrentTransactions_NoLostUpdates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	const (
		deposits       = 20
		withdrawals    = 10
		depositAmount  = 1000
		withdrawAmount = 300
	)

	// Enough opening balance that every withdrawal can succeed regardless
	// of interleaving.
	account := testutil.SeedAccount(t, db, "John Doe", withdrawals*withdrawAmount)

	var wg sync.WaitGroup
	errs := make(chan error, deposits+withdrawals)

	for range deposits {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ApplyTransaction(ctx, account.ID, domain.TransactionTypeDeposit, depositAmount)
			errs <- err
		}()
	}
	for range withdrawals {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ApplyTransaction(ctx, account.ID, domain.TransactionTypeWithdrawal, withdrawAmount)
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	want := int64(withdrawals*withdrawAmount + deposits*depositAmount - withdrawals*withdrawAmount)
	assert.Equal(t, want, testutil.GetBalance(t, db, account.ID))
	assert.Equal(t, deposits+withdrawals, testutil.CountTransactions(t, db, account.ID))
}

func TestConcurrentWithdrawals_NoJointOverdraft(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	// Two withdrawals of 7000 against a 10000 balance: only one can pass
	// the balance check, no matter how the goroutines interleave.
	account := testutil.SeedAccount(t, db, "John Doe", 10000)

	var wg sync.WaitGroup
	results := make(chan error, 2)

	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ApplyTransaction(ctx, account.ID, domain.TransactionTypeWithdrawal, 7000)
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	var successes, failures int
	for err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
			failures++
		}
	}

	assert.Equal(t, 1, successes, "exactly one withdrawal should succeed")
	assert.Equal(t, 1, failures, "exactly one withdrawal should fail")

	assert.Equal(t, int64(3000), testutil.GetBalance(t, db, account.ID))
	assert.Equal(t, 1, testutil.CountTransactions(t, db, account.ID))
}

func TestIndependentAccountsDoNotInterfere(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	a := testutil.SeedAccount(t, db, "Account A", 0)
	b := testutil.SeedAccount(t, db, "Account B", 0)

	var wg sync.WaitGroup
	for _, id := range []int64{a.ID, b.ID} {
		wg.Add(1)
		go func(accountID int64) {
			defer wg.Done()
			for range 10 {
				_, err := svc.ApplyTransaction(ctx, accountID, domain.TransactionTypeDeposit, 100)
				assert.NoError(t, err)
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, int64(1000), testutil.GetBalance(t, db, a.ID))
	assert.Equal(t, int64(1000), testutil.GetBalance(t, db, b.ID))
	assert.Equal(t, 10, testutil.CountTransactions(t, db, a.ID))
	assert.Equal(t, 10, testutil.CountTransactions(t, db, b.ID))
}
