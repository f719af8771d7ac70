package handler

import (
	"context"
	"net/http"

	"github.com/vfg2006/ozon-analytics-api/internal/scheduler"
	"github.com/vfg2006/ozon-analytics-api/pkg/log"
)

// RunMetricsSnapshotSync triggers a snapshot sync outside the schedule. The
// run happens in the background; the scheduler's mutex ignores a trigger
// while a run is already in flight.
func RunMetricsSnapshotSync(service *scheduler.MetricsSnapshotSyncService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())
		logger.Info("cron: manual metrics snapshot sync triggered")

		go func() {
			if err := service.RunSnapshotSync(context.Background()); err != nil {
				log.L.WithError(err).Error("cron: manual metrics snapshot sync failed")
			}
		}()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "started"})
	})
}

func GetCronStatus(service *scheduler.MetricsSnapshotSyncService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(service.Status()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}
