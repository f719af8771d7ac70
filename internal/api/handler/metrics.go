package handler

import (
	"net/http"
	"time"

	"github.com/vfg2006/ozon-analytics-api/internal/usecases/analyzing"
	"github.com/vfg2006/ozon-analytics-api/pkg/apiErrors"
	"github.com/vfg2006/ozon-analytics-api/pkg/log"
	"github.com/vfg2006/ozon-analytics-api/pkg/middleware"
)

// GetMetrics recomputes the caller's financial metrics from the full stored
// ledger. An empty ledger is not an error: the response carries a null
// metrics object and a message.
func GetMetrics(service analyzing.Analyzer) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		claims, ok := middleware.SellerFromContext(r.Context())
		if !ok {
			apiErrors.WriteError(w, apiErrors.ErrMissingToken, "Seller identity missing", nil)
			return
		}

		metrics, err := service.GetMetrics(r.Context(), claims.SellerID)
		if err != nil {
			logger.WithError(err).Error("metrics: failed to compute metrics")
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, err.Error(), nil)
			return
		}

		response := map[string]interface{}{
			"metrics": metrics,
		}
		if metrics == nil {
			response["message"] = "no data"
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			logger.WithError(err).Error("metrics: failed to encode response")
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}

// GetMetricsSnapshots returns the persisted daily snapshots in a date range,
// defaulting to the last 30 days.
func GetMetricsSnapshots(service analyzing.Analyzer) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		claims, ok := middleware.SellerFromContext(r.Context())
		if !ok {
			apiErrors.WriteError(w, apiErrors.ErrMissingToken, "Seller identity missing", nil)
			return
		}

		endDate := time.Now()
		startDate := endDate.AddDate(0, 0, -30)

		if from := r.URL.Query().Get("from"); from != "" {
			parsed, err := time.Parse(time.DateOnly, from)
			if err != nil {
				apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "Invalid 'from' date, expected YYYY-MM-DD", nil)
				return
			}
			startDate = parsed
		}
		if to := r.URL.Query().Get("to"); to != "" {
			parsed, err := time.Parse(time.DateOnly, to)
			if err != nil {
				apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "Invalid 'to' date, expected YYYY-MM-DD", nil)
				return
			}
			endDate = parsed
		}

		snapshots, err := service.GetSnapshots(r.Context(), claims.SellerID, startDate, endDate)
		if err != nil {
			logger.WithError(err).Error("metrics-snapshots: failed to load snapshots")
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, err.Error(), nil)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snapshots); err != nil {
			logger.WithError(err).Error("metrics-snapshots: failed to encode response")
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}
