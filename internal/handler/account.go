package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/armorbank/ledger-api/internal/domain"
	"github.com/armorbank/ledger-api/internal/logging"
)

const defaultHistoryLimit = 50

type ledgerService interface {
	CreateAccount(ctx context.Context, name string, initialBalance int64) (*domain.Account, error)
	ApplyTransaction(ctx context.Context, accountID int64, txType domain.TransactionType, amount int64) (*domain.Account, error)
	GetAccount(ctx context.Context, accountID int64) (*domain.Account, error)
	ListTransactions(ctx context.Context, accountID int64, limit int) ([]domain.Transaction, int, error)
}

type AccountHandler struct {
	ledger ledgerService
}

func NewAccountHandler(ledger ledgerService) *AccountHandler {
	return &AccountHandler{ledger: ledger}
}

type createAccountRequest struct {
	Name           string           `json:"name"`
	InitialBalance *decimal.Decimal `json:"initial_balance"`
}

func (r createAccountRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	} else if len(r.Name) > 100 {
		errs = append(errs, FieldError{Field: "name", Message: "must be at most 100 characters"})
	}
	if r.InitialBalance == nil {
		errs = append(errs, FieldError{Field: "initial_balance", Message: "required"})
	} else if r.InitialBalance.IsNegative() {
		errs = append(errs, FieldError{Field: "initial_balance", Message: "must not be negative"})
	}
	return errs
}

type transactionRequest struct {
	AccountID int64           `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
}

func (r transactionRequest) Validate() []FieldError {
	var errs []FieldError
	if r.AccountID <= 0 {
		errs = append(errs, FieldError{Field: "account_id", Message: "must be greater than 0"})
	}
	if !r.Amount.IsPositive() {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	return errs
}

type accountDTO struct {
	AccountID int64           `json:"account_id"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
}

func toAccountDTO(a *domain.Account) accountDTO {
	return accountDTO{
		AccountID: a.ID,
		Name:      a.Name,
		Balance:   domain.FromMinorUnits(a.Balance),
	}
}

type transactionDTO struct {
	TransactionID   int64           `json:"transaction_id"`
	AccountID       int64           `json:"account_id"`
	TransactionType string          `json:"transaction_type"`
	Amount          decimal.Decimal `json:"amount"`
	Timestamp       time.Time       `json:"timestamp"`
}

type transactionHistoryDTO struct {
	AccountID         int64            `json:"account_id"`
	Transactions      []transactionDTO `json:"transactions"`
	TotalTransactions int              `json:"total_transactions"`
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	initialBalance, err := domain.ToMinorUnits(*req.InitialBalance)
	if err != nil {
		RespondValidationError(w, []FieldError{amountFieldError("initial_balance", err)})
		return
	}

	account, err := h.ledger.CreateAccount(r.Context(), req.Name, initialBalance)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to create account", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toAccountDTO(account))
}

func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.applyTransaction(w, r, domain.TransactionTypeDeposit)
}

func (h *AccountHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.applyTransaction(w, r, domain.TransactionTypeWithdrawal)
}

func (h *AccountHandler) applyTransaction(w http.ResponseWriter, r *http.Request, txType domain.TransactionType) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	amount, err := domain.ToMinorUnits(req.Amount)
	if err != nil {
		RespondValidationError(w, []FieldError{amountFieldError("amount", err)})
		return
	}

	account, err := h.ledger.ApplyTransaction(r.Context(), req.AccountID, txType, amount)
	if err != nil {
		logging.FromContext(r.Context()).Warn("transaction rejected",
			"error", err,
			"account_id", req.AccountID,
			"type", txType,
		)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toAccountDTO(account))
}

type balanceDTO struct {
	AccountID int64           `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
	Name      string          `json:"name"`
}

func (h *AccountHandler) Balance(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFromPath(w, r)
	if !ok {
		return
	}

	account, err := h.ledger.GetAccount(r.Context(), accountID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("balance lookup failed", "error", err, "account_id", accountID)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, balanceDTO{
		AccountID: account.ID,
		Balance:   domain.FromMinorUnits(account.Balance),
		Name:      account.Name,
	})
}

func (h *AccountHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFromPath(w, r)
	if !ok {
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			RespondValidationError(w, []FieldError{{Field: "limit", Message: "must be an integer"}})
			return
		}
		limit = parsed
	}

	transactions, total, err := h.ledger.ListTransactions(r.Context(), accountID, limit)
	if err != nil {
		logging.FromContext(r.Context()).Warn("transaction history lookup failed", "error", err, "account_id", accountID)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]transactionDTO, len(transactions))
	for i, t := range transactions {
		dtos[i] = transactionDTO{
			TransactionID:   t.ID,
			AccountID:       t.AccountID,
			TransactionType: string(t.Type),
			Amount:          domain.FromMinorUnits(t.Amount),
			Timestamp:       t.CreatedAt,
		}
	}

	RespondSuccess(w, http.StatusOK, transactionHistoryDTO{
		AccountID:         accountID,
		Transactions:      dtos,
		TotalTransactions: total,
	})
}

func accountIDFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondValidationError(w, []FieldError{{Field: "account_id", Message: "must be a positive integer"}})
		return 0, false
	}
	return id, true
}

func amountFieldError(field string, err error) FieldError {
	if errors.Is(err, domain.ErrAmountPrecision) {
		return FieldError{Field: field, Message: "must have at most 2 decimal places"}
	}
	return FieldError{Field: field, Message: "out of range"}
}
