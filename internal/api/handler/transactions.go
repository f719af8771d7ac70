package handler

import (
	"net/http"
	"strconv"

	"github.com/vfg2006/ozon-analytics-api/internal/usecases/analyzing"
	"github.com/vfg2006/ozon-analytics-api/pkg/apiErrors"
	"github.com/vfg2006/ozon-analytics-api/pkg/log"
	"github.com/vfg2006/ozon-analytics-api/pkg/middleware"
)

const defaultTransactionsLimit = 10

// ListTransactions returns the caller's most recent ledger records, ordered
// by accrual date descending.
func ListTransactions(service analyzing.Analyzer) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		claims, ok := middleware.SellerFromContext(r.Context())
		if !ok {
			apiErrors.WriteError(w, apiErrors.ErrMissingToken, "Seller identity missing", nil)
			return
		}

		limit := defaultTransactionsLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Invalid 'limit' parameter", nil)
				return
			}
			limit = parsed
		}

		records, err := service.ListTransactions(r.Context(), claims.SellerID, limit)
		if err != nil {
			logger.WithError(err).Error("transactions: failed to list records")
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, err.Error(), nil)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			logger.WithError(err).Error("transactions: failed to encode response")
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}
