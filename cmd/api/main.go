package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ozon-analytics-api/infrastructure/database/postgres"
	"github.com/vfg2006/ozon-analytics-api/infrastructure/repository"
	"github.com/vfg2006/ozon-analytics-api/internal/api"
	"github.com/vfg2006/ozon-analytics-api/internal/config"
	"github.com/vfg2006/ozon-analytics-api/internal/scheduler"
	"github.com/vfg2006/ozon-analytics-api/internal/usecases/analyzing"
	"github.com/vfg2006/ozon-analytics-api/internal/usecases/authenticating"
	"github.com/vfg2006/ozon-analytics-api/internal/usecases/ingesting"
)

func main() {
	configureLogger()

	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatal(err)
	}

	logLevel, err := logrus.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		logrus.Warnf("Invalid log level: %s, falling back to 'info'", cfg.App.LogLevel)
		logLevel = logrus.InfoLevel
	}
	logrus.SetLevel(logLevel)
	logrus.Infof("Log level set to: %s", logLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgConn := pgconn(ctx, cfg.Database)
	defer pgConn.Close()

	salesRecordRepo := repository.NewSalesRecordRepository(pgConn)
	metricsSnapshotRepo := repository.NewMetricsSnapshotRepository(pgConn)

	authenticator := authenticating.NewService(cfg)

	ingestService := ingesting.NewService(cfg, salesRecordRepo)
	analyticsService := analyzing.NewService(cfg, salesRecordRepo, metricsSnapshotRepo)

	snapshotSyncService := scheduler.NewMetricsSnapshotSyncService(
		salesRecordRepo,
		metricsSnapshotRepo,
		analyticsService,
		cfg,
	)

	if err := snapshotSyncService.Start(ctx); err != nil {
		logrus.WithError(err).Error("Failed to start the metrics snapshot scheduler")
	} else {
		logrus.Info("Metrics snapshot scheduler started")
	}

	server, err := api.New(
		cfg,
		ingestService,
		analyticsService,
		authenticator,
		snapshotSyncService,
	)
	if err != nil {
		logrus.Fatal(err)
	}

	if err := server.Run(ctx); err != nil {
		logrus.Error(err)
	}
}

func configureLogger() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
}

func pgconn(ctx context.Context, dbConfig config.Database) *postgres.Connection {
	conn, err := postgres.NewConnection(ctx, dbConfig)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to PostgreSQL")
	}

	err = conn.Ping(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("PostgreSQL connection test failed")
	}

	logrus.Info("PostgreSQL connection established")
	return conn
}
