package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/armorbank/ledger-api/internal/handler"
)

const apiKeyHeader = "X-API-Key"

// APIKey gates every request behind a shared static key. The key is
// injected from config at startup; nothing below this middleware reads the
// environment or re-checks authorization.
func APIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get(apiKeyHeader)
			if provided == "" {
				handler.RespondAppError(w, handler.ErrMissingAPIKey, nil)
				return
			}

			if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
				handler.RespondAppError(w, handler.ErrInvalidAPIKey, nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
