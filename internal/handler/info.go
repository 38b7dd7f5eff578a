package handler

import "net/http"

// Info describes the API surface at the root path, mirroring what clients
// get before they have read any docs.
func Info(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]any{
		"message": "Banking Ledger API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"create_account": "POST /accounts",
			"deposit":        "POST /accounts/deposit",
			"withdraw":       "POST /accounts/withdraw",
			"balance":        "GET /accounts/{id}/balance",
			"transactions":   "GET /accounts/{id}/transactions",
		},
	})
}
