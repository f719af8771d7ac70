package handler

import (
	"io"
	"mime"
	"net/http"

	"github.com/vfg2006/ozon-analytics-api/internal/usecases/ingesting"
	"github.com/vfg2006/ozon-analytics-api/pkg/apiErrors"
	"github.com/vfg2006/ozon-analytics-api/pkg/log"
	"github.com/vfg2006/ozon-analytics-api/pkg/middleware"
)

// 20 MB is far above any monthly ledger export seen in practice.
const maxUploadBytes = 20 << 20

// UploadLedger ingests a CSV ledger export for the authenticated seller.
// Accepts either a multipart "file" field or the raw text as the body.
func UploadLedger(service ingesting.Ingester) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		claims, ok := middleware.SellerFromContext(r.Context())
		if !ok {
			apiErrors.WriteError(w, apiErrors.ErrMissingToken, "Seller identity missing", nil)
			return
		}

		payload, err := readUploadPayload(r)
		if err != nil {
			logger.WithError(err).Warn("ledger-upload: could not read upload body")
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "Could not read the uploaded file", nil)
			return
		}
		if len(payload) == 0 {
			apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "Empty upload", nil)
			return
		}

		result, err := service.UploadLedger(r.Context(), claims.SellerID, payload)
		if err != nil {
			logger.WithError(err).Error("ledger-upload: upload failed")
			apiErrors.WriteError(w, apiErrors.ErrInternalServer, err.Error(), nil)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			logger.WithError(err).Error("ledger-upload: failed to encode response")
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}

func readUploadPayload(r *http.Request) ([]byte, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err == nil && mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return nil, err
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return io.ReadAll(io.LimitReader(file, maxUploadBytes))
	}

	defer r.Body.Close()
	return io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
}
