package handler

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/vfg2006/ozon-analytics-api/internal/api/handler/router"
	"github.com/vfg2006/ozon-analytics-api/internal/scheduler"
	"github.com/vfg2006/ozon-analytics-api/internal/usecases/analyzing"
	"github.com/vfg2006/ozon-analytics-api/internal/usecases/ingesting"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func Healthcheck() []router.Route {
	return []router.Route{
		{
			Path:    "/healthcheck",
			Method:  http.MethodGet,
			Handler: HealthcheckHandler(),
		},
	}
}

func Ledger(service ingesting.Ingester) []router.Route {
	return []router.Route{
		{
			Path:    "/v1/ledger/upload",
			Method:  http.MethodPost,
			Handler: UploadLedger(service),
		},
	}
}

func Analytics(service analyzing.Analyzer) []router.Route {
	return []router.Route{
		{
			Path:    "/v1/metrics",
			Method:  http.MethodGet,
			Handler: GetMetrics(service),
		},
		{
			Path:    "/v1/metrics/snapshots",
			Method:  http.MethodGet,
			Handler: GetMetricsSnapshots(service),
		},
		{
			Path:    "/v1/transactions",
			Method:  http.MethodGet,
			Handler: ListTransactions(service),
		},
	}
}

func CronJobs(service *scheduler.MetricsSnapshotSyncService) []router.Route {
	return []router.Route{
		{
			Path:    "/v1/cron/metrics-snapshot/run",
			Method:  http.MethodPost,
			Handler: RunMetricsSnapshotSync(service),
		},
		{
			Path:    "/v1/cron/status",
			Method:  http.MethodGet,
			Handler: GetCronStatus(service),
		},
	}
}
