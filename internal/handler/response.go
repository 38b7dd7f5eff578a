package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/armorbank/ledger-api/internal/domain"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error details stay structured: named fields only, never a field value
// folded into message text. Consumers may be machines.
type notFoundDetails struct {
	AccountID int64 `json:"account_id"`
}

type insufficientBalanceDetails struct {
	AccountID       int64           `json:"account_id"`
	CurrentBalance  decimal.Decimal `json:"current_balance"`
	RequestedAmount decimal.Decimal `json:"requested_amount"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Error:   nil,
	})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, details any) {
	RespondJSON(w, appErr.Status, APIResponse{
		Success: false,
		Data:    nil,
		Error: &APIError{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

func RespondValidationError(w http.ResponseWriter, fields []FieldError) {
	RespondAppError(w, ErrValidationFailed, fields)
}

func RespondDomainError(w http.ResponseWriter, err error) {
	var (
		notFound     *domain.NotFoundError
		insufficient *domain.InsufficientBalanceError
		invalidArg   *domain.InvalidArgumentError
	)

	switch {
	case errors.As(err, &notFound):
		RespondAppError(w, ErrAccountNotFound, notFoundDetails{AccountID: notFound.AccountID})
	case errors.As(err, &insufficient):
		RespondAppError(w, ErrInsufficientBalance, insufficientBalanceDetails{
			AccountID:       insufficient.AccountID,
			CurrentBalance:  domain.FromMinorUnits(insufficient.CurrentBalance),
			RequestedAmount: domain.FromMinorUnits(insufficient.RequestedAmount),
		})
	case errors.As(err, &invalidArg):
		RespondValidationError(w, []FieldError{{Field: invalidArg.Field, Message: invalidArg.Reason}})
	default:
		slog.Error("unhandled domain error", "error", err)
		RespondAppError(w, ErrInternalError, nil)
	}
}
