package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/vfg2006/ozon-analytics-api/infrastructure/database/postgres"
	"github.com/vfg2006/ozon-analytics-api/internal/domain"
)

const (
	salesRecordsTable = "sales_records sr"

	// pq error code for unique_violation
	uniqueViolationCode = "23505"
)

// ErrDuplicateRecord signals that a record with the same natural key already
// exists for the seller. It is the only insert failure the ingestion gate
// treats as a duplicate; everything else is a store write failure.
var ErrDuplicateRecord = errors.New("sales record already exists")

var salesRecordColumns = []string{
	"sr.id", "sr.seller_id", "sr.accrual_id", "sr.accrual_date",
	"sr.service_group", "sr.accrual_type", "sr.sku", "sr.article",
	"sr.product_name", "sr.quantity", "sr.seller_price", "sr.total_amount",
	"sr.commission_percent", "sr.localization_index_percent",
	"sr.avg_delivery_hours", "sr.fulfillment_scheme", "sr.created_at",
}

type SalesRecordRepository interface {
	FindByNaturalKey(ctx context.Context, key domain.NaturalKey) (*domain.SalesRecord, error)
	Insert(ctx context.Context, record *domain.SalesRecord) error
	ListBySeller(ctx context.Context, sellerID string, limit int) ([]*domain.SalesRecord, error)
	ListSellerIDs(ctx context.Context) ([]string, error)
}

type salesRecordRepository struct {
	conn postgres.Queryer
}

func NewSalesRecordRepository(conn postgres.Queryer) SalesRecordRepository {
	return &salesRecordRepository{
		conn: conn,
	}
}

func (r *salesRecordRepository) FindByNaturalKey(ctx context.Context, key domain.NaturalKey) (*domain.SalesRecord, error) {
	query, args, err := squirrel.
		Select(salesRecordColumns...).
		From(salesRecordsTable).
		Where(squirrel.Eq{
			"sr.seller_id":    key.SellerID,
			"sr.accrual_id":   key.AccrualID,
			"sr.accrual_type": key.AccrualType,
		}).
		Limit(1).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	row := r.conn.QueryRowContext(ctx, query, args...)
	record, err := r.scanRecord(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan sales record: %w", err)
	}

	return record, nil
}

// Insert stores a new ledger record. The insert is conditional on the
// natural key: a conflicting row leaves the store untouched and yields
// ErrDuplicateRecord, which closes the check-then-insert race between
// concurrent uploads.
func (r *salesRecordRepository) Insert(ctx context.Context, record *domain.SalesRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}

	query, args, err := squirrel.StatementBuilder.
		Insert("sales_records").
		Columns(
			"id", "seller_id", "accrual_id", "accrual_date", "service_group",
			"accrual_type", "sku", "article", "product_name", "quantity",
			"seller_price", "total_amount", "commission_percent",
			"localization_index_percent", "avg_delivery_hours",
			"fulfillment_scheme",
		).
		Values(
			record.ID,
			record.SellerID,
			record.AccrualID,
			record.AccrualDate,
			record.ServiceGroup,
			record.AccrualType,
			record.SKU,
			record.Article,
			record.ProductName,
			record.Quantity,
			record.SellerPrice,
			record.TotalAmount,
			record.CommissionPercent,
			record.LocalizationIndexPercent,
			record.AvgDeliveryHours,
			record.FulfillmentScheme,
		).
		Suffix("ON CONFLICT (seller_id, accrual_id, accrual_type) DO NOTHING").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	result, err := r.conn.ExecContext(ctx, query, args...)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == uniqueViolationCode {
				return ErrDuplicateRecord
			}
			return fmt.Errorf("database error: %w (code: %s)", pqErr, pqErr.Code)
		}
		return fmt.Errorf("failed to execute query: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return ErrDuplicateRecord
	}

	return nil
}

// ListBySeller returns the seller's ledger ordered by accrual date
// descending. A non-positive limit returns the full corpus.
func (r *salesRecordRepository) ListBySeller(ctx context.Context, sellerID string, limit int) ([]*domain.SalesRecord, error) {
	builder := squirrel.
		Select(salesRecordColumns...).
		From(salesRecordsTable).
		Where(squirrel.Eq{"sr.seller_id": sellerID}).
		OrderBy("sr.accrual_date DESC").
		PlaceholderFormat(squirrel.Dollar)

	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	records := make([]*domain.SalesRecord, 0)
	for rows.Next() {
		record, err := r.scanRecordRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sales record: %w", err)
		}
		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed during row iteration: %w", err)
	}

	return records, nil
}

func (r *salesRecordRepository) ListSellerIDs(ctx context.Context) ([]string, error) {
	query, args, err := squirrel.
		Select("DISTINCT sr.seller_id").
		From(salesRecordsTable).
		OrderBy("sr.seller_id ASC").
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

	sellerIDs := make([]string, 0)
	for rows.Next() {
		var sellerID string
		if err := rows.Scan(&sellerID); err != nil {
			return nil, fmt.Errorf("failed to scan seller id: %w", err)
		}
		sellerIDs = append(sellerIDs, sellerID)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed during row iteration: %w", err)
	}

	return sellerIDs, nil
}

func (r *salesRecordRepository) scanRecord(row *sql.Row) (*domain.SalesRecord, error) {
	record := &domain.SalesRecord{}

	err := row.Scan(
		&record.ID,
		&record.SellerID,
		&record.AccrualID,
		&record.AccrualDate,
		&record.ServiceGroup,
		&record.AccrualType,
		&record.SKU,
		&record.Article,
		&record.ProductName,
		&record.Quantity,
		&record.SellerPrice,
		&record.TotalAmount,
		&record.CommissionPercent,
		&record.LocalizationIndexPercent,
		&record.AvgDeliveryHours,
		&record.FulfillmentScheme,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return record, nil
}

func (r *salesRecordRepository) scanRecordRows(rows *sql.Rows) (*domain.SalesRecord, error) {
	record := &domain.SalesRecord{}

	err := rows.Scan(
		&record.ID,
		&record.SellerID,
		&record.AccrualID,
		&record.AccrualDate,
		&record.ServiceGroup,
		&record.AccrualType,
		&record.SKU,
		&record.Article,
		&record.ProductName,
		&record.Quantity,
		&record.SellerPrice,
		&record.TotalAmount,
		&record.CommissionPercent,
		&record.LocalizationIndexPercent,
		&record.AvgDeliveryHours,
		&record.FulfillmentScheme,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return record, nil
}
