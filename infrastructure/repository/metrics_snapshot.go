package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/vfg2006/ozon-analytics-api/infrastructure/database/postgres"
	"github.com/vfg2006/ozon-analytics-api/internal/domain"
)

const (
	metricsSnapshotsTable = "metrics_snapshots ms"
)

type MetricsSnapshotRepository interface {
	GetByDateRange(ctx context.Context, sellerID string, startDate, endDate time.Time) ([]*domain.MetricsSnapshotEntry, error)
	SaveOrUpdate(ctx context.Context, entry *domain.MetricsSnapshotEntry) error
	DeleteOlderThan(ctx context.Context, days int) (int64, error)
}

type metricsSnapshotRepository struct {
	conn postgres.Queryer
}

func NewMetricsSnapshotRepository(conn postgres.Queryer) MetricsSnapshotRepository {
	return &metricsSnapshotRepository{
		conn: conn,
	}
}

func (r *metricsSnapshotRepository) GetByDateRange(ctx context.Context, sellerID string, startDate, endDate time.Time) ([]*domain.MetricsSnapshotEntry, error) {
	query, args, err := squirrel.
		Select("ms.id, ms.seller_id, ms.date, ms.metrics, ms.created_at, ms.updated_at").
		From(metricsSnapshotsTable).
		Where(squirrel.Eq{"ms.seller_id": sellerID}).
		Where(squirrel.GtOrEq{"ms.date": startDate.Format(time.DateOnly)}).
		Where(squirrel.LtOrEq{"ms.date": endDate.Format(time.DateOnly)}).
		OrderBy("ms.date ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	entries := make([]*domain.MetricsSnapshotEntry, 0)
	for rows.Next() {
		entry, err := r.scanSnapshotRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan metrics snapshots: %w", err)
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed during row iteration: %w", err)
	}

	return entries, nil
}

func (r *metricsSnapshotRepository) SaveOrUpdate(ctx context.Context, entry *domain.MetricsSnapshotEntry) error {
	var metricsJSON []byte
	var err error

	if entry.Metrics != nil {
		metricsJSON, err = json.Marshal(entry.Metrics)
		if err != nil {
			return fmt.Errorf("failed to serialize metrics to JSON: %w", err)
		}
	}

	query := squirrel.StatementBuilder.
		Insert("metrics_snapshots").
		Columns("seller_id", "date", "metrics").
		Values(
			entry.SellerID,
			entry.Date.Format(time.DateOnly),
			metricsJSON,
		).
		Suffix(`
			ON CONFLICT (seller_id, date) DO UPDATE SET
				metrics = EXCLUDED.metrics,
				updated_at = NOW()
		`).
		PlaceholderFormat(squirrel.Dollar)

	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	_, err = r.conn.ExecContext(ctx, sqlQuery, args...)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return fmt.Errorf("database error: %w (code: %s)", pqErr, pqErr.Code)
		}
		return fmt.Errorf("failed to execute query: %w", err)
	}

	return nil
}

func (r *metricsSnapshotRepository) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	cutoffDate := time.Now().AddDate(0, 0, -days).Format(time.DateOnly)

	query, args, err := squirrel.
		Delete("metrics_snapshots").
		Where(squirrel.Lt{"date": cutoffDate}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}

	result, err := r.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to execute query: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return rowsAffected, nil
}

func (r *metricsSnapshotRepository) scanSnapshotRows(rows *sql.Rows) (*domain.MetricsSnapshotEntry, error) {
	entry := &domain.MetricsSnapshotEntry{}
	var metricsJSON []byte

	err := rows.Scan(
		&entry.ID,
		&entry.SellerID,
		&entry.Date,
		&metricsJSON,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if metricsJSON != nil {
		metrics := &domain.FinancialMetrics{}
		if err := json.Unmarshal(metricsJSON, metrics); err != nil {
			return nil, fmt.Errorf("failed to deserialize metrics JSON: %w", err)
		}
		entry.Metrics = metrics
	}

	return entry, nil
}
