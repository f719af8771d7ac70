// Package scheduler contains the background jobs that keep derived data
// fresh without blocking the request path.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ozon-analytics-api/infrastructure/repository"
	"github.com/vfg2006/ozon-analytics-api/internal/config"
	"github.com/vfg2006/ozon-analytics-api/internal/domain"
	"github.com/vfg2006/ozon-analytics-api/internal/usecases/analyzing"
)

type MetricsSnapshotSyncConfig struct {
	CronSchedule  string
	Enabled       bool
	RetentionDays int
}

// SyncStatus reports the scheduler state for the cron status endpoint.
type SyncStatus struct {
	Enabled         bool      `json:"enabled"`
	CronSchedule    string    `json:"cron_schedule"`
	Running         bool      `json:"running"`
	LastStartedAt   time.Time `json:"last_started_at"`
	LastCompletedAt time.Time `json:"last_completed_at"`
}

// MetricsSnapshotSyncService periodically recomputes each seller's financial
// metrics and stores a dated snapshot, so KPI history survives ledger
// rebuilds. Reads stay recompute-on-demand; snapshots are a convenience
// copy, never the source of truth.
type MetricsSnapshotSyncService struct {
	scheduler           *gocron.Scheduler
	recordRepo          repository.SalesRecordRepository
	snapshotRepo        repository.MetricsSnapshotRepository
	analyzer            analyzing.Analyzer
	config              MetricsSnapshotSyncConfig
	syncRunning         bool
	syncMutex           sync.Mutex
	lastSyncStartedAt   time.Time
	lastSyncCompletedAt time.Time
}

func NewMetricsSnapshotSyncService(
	recordRepo repository.SalesRecordRepository,
	snapshotRepo repository.MetricsSnapshotRepository,
	analyzer analyzing.Analyzer,
	cfg *config.Config,
) *MetricsSnapshotSyncService {
	syncConfig := MetricsSnapshotSyncConfig{
		CronSchedule:  cfg.MetricsSnapshotSync.CronSchedule,
		Enabled:       cfg.MetricsSnapshotSync.Enabled,
		RetentionDays: cfg.MetricsSnapshotSync.RetentionDays,
	}

	scheduler := gocron.NewScheduler(time.Local)

	logrus.WithFields(logrus.Fields{
		"cron_schedule": syncConfig.CronSchedule,
	}).Info("Metrics snapshot scheduler configuration loaded")

	return &MetricsSnapshotSyncService{
		scheduler:    scheduler,
		recordRepo:   recordRepo,
		snapshotRepo: snapshotRepo,
		analyzer:     analyzer,
		config:       syncConfig,
	}
}

func (s *MetricsSnapshotSyncService) Start(ctx context.Context) error {
	if !s.config.Enabled {
		logrus.Info("Metrics snapshot sync disabled by configuration")
		return nil
	}

	logrus.WithField("cron", s.config.CronSchedule).Info("Starting metrics snapshot sync")

	_, err := s.scheduler.Cron(s.config.CronSchedule).Do(func() {
		if err := s.RunSnapshotSync(context.Background()); err != nil {
			logrus.WithError(err).Error("Metrics snapshot sync failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule metrics snapshot sync: %w", err)
	}

	s.scheduler.StartAsync()

	go func() {
		<-ctx.Done()
		logrus.Info("Stopping metrics snapshot scheduler")
		s.scheduler.Stop()
	}()

	return nil
}

// RunSnapshotSync recomputes and upserts today's snapshot for every seller
// with ledger data. Only one run is allowed at a time.
func (s *MetricsSnapshotSyncService) RunSnapshotSync(ctx context.Context) error {
	s.syncMutex.Lock()
	if s.syncRunning {
		s.syncMutex.Unlock()
		logrus.Warn("Metrics snapshot sync already running")
		return nil
	}
	s.syncRunning = true
	s.lastSyncStartedAt = time.Now()
	s.syncMutex.Unlock()

	defer func() {
		s.syncMutex.Lock()
		s.syncRunning = false
		s.lastSyncCompletedAt = time.Now()
		s.syncMutex.Unlock()
	}()

	logrus.Info("Starting metrics snapshot sync")

	sellerIDs, err := s.recordRepo.ListSellerIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sellers for snapshot sync: %w", err)
	}

	today := time.Now().Truncate(24 * time.Hour)
	synced := 0

	for _, sellerID := range sellerIDs {
		metrics, err := s.analyzer.GetMetrics(ctx, sellerID)
		if err != nil {
			logrus.WithError(err).WithField("seller_id", sellerID).
				Error("Failed to compute metrics for snapshot")
			continue
		}
		if metrics == nil {
			continue
		}

		entry := &domain.MetricsSnapshotEntry{
			SellerID: sellerID,
			Date:     today,
			Metrics:  metrics,
		}

		if err := s.snapshotRepo.SaveOrUpdate(ctx, entry); err != nil {
			logrus.WithError(err).WithField("seller_id", sellerID).
				Error("Failed to save metrics snapshot")
			continue
		}

		synced++
	}

	if s.config.RetentionDays > 0 {
		deleted, err := s.snapshotRepo.DeleteOlderThan(ctx, s.config.RetentionDays)
		if err != nil {
			logrus.WithError(err).Error("Failed to prune old metrics snapshots")
		} else if deleted > 0 {
			logrus.WithField("snapshots_deleted", deleted).Info("Pruned old metrics snapshots")
		}
	}

	logrus.WithFields(logrus.Fields{
		"sellers_total":  len(sellerIDs),
		"sellers_synced": synced,
	}).Info("Metrics snapshot sync finished")

	return nil
}

func (s *MetricsSnapshotSyncService) Status() SyncStatus {
	s.syncMutex.Lock()
	defer s.syncMutex.Unlock()

	return SyncStatus{
		Enabled:         s.config.Enabled,
		CronSchedule:    s.config.CronSchedule,
		Running:         s.syncRunning,
		LastStartedAt:   s.lastSyncStartedAt,
		LastCompletedAt: s.lastSyncCompletedAt,
	}
}
