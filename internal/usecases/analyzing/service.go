// Package analyzing derives the financial KPIs shown in the seller dashboard
// from the stored ledger. Metrics are recomputed from the full corpus on
// every read; nothing in here mutates the ledger.
package analyzing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vfg2006/ozon-analytics-api/infrastructure/repository"
	"github.com/vfg2006/ozon-analytics-api/internal/config"
	"github.com/vfg2006/ozon-analytics-api/internal/domain"
	"github.com/vfg2006/ozon-analytics-api/pkg/utils"
)

type Analyzer interface {
	GetMetrics(ctx context.Context, sellerID string) (*domain.FinancialMetrics, error)
	ComputeMetrics(records []*domain.SalesRecord) *domain.FinancialMetrics
	ListTransactions(ctx context.Context, sellerID string, limit int) ([]*domain.SalesRecord, error)
	GetSnapshots(ctx context.Context, sellerID string, startDate, endDate time.Time) ([]*domain.MetricsSnapshotEntry, error)
}

type Service struct {
	cfg          config.Analytics
	recordRepo   repository.SalesRecordRepository
	snapshotRepo repository.MetricsSnapshotRepository
}

func NewService(
	cfg *config.Config,
	recordRepo repository.SalesRecordRepository,
	snapshotRepo repository.MetricsSnapshotRepository,
) Analyzer {
	return &Service{
		cfg:          cfg.Analytics,
		recordRepo:   recordRepo,
		snapshotRepo: snapshotRepo,
	}
}

// GetMetrics recomputes the seller's metrics from the full stored corpus.
// A nil result with a nil error means the seller has no data yet.
func (s *Service) GetMetrics(ctx context.Context, sellerID string) (*domain.FinancialMetrics, error) {
	records, err := s.recordRepo.ListBySeller(ctx, sellerID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger records: %w", err)
	}

	return s.ComputeMetrics(records), nil
}

func (s *Service) ListTransactions(ctx context.Context, sellerID string, limit int) ([]*domain.SalesRecord, error) {
	return s.recordRepo.ListBySeller(ctx, sellerID, limit)
}

func (s *Service) GetSnapshots(ctx context.Context, sellerID string, startDate, endDate time.Time) ([]*domain.MetricsSnapshotEntry, error) {
	return s.snapshotRepo.GetByDateRange(ctx, sellerID, startDate, endDate)
}

// ComputeMetrics aggregates the corpus into the dashboard KPIs. The three
// views (sales, returns, costs) are not exclusive: a return line also counts
// in its service group for the category breakdown.
func (s *Service) ComputeMetrics(records []*domain.SalesRecord) *domain.FinancialMetrics {
	if len(records) == 0 {
		return nil
	}

	sales := make([]*domain.SalesRecord, 0, len(records))
	returns := make([]*domain.SalesRecord, 0)
	costs := make([]*domain.SalesRecord, 0)

	costGroups := make(map[string]bool, len(s.cfg.CostServiceGroups))
	for _, group := range s.cfg.CostServiceGroups {
		costGroups[group] = true
	}

	for _, record := range records {
		switch record.AccrualType {
		case s.cfg.SaleAccrualType:
			sales = append(sales, record)
		case s.cfg.ReturnAccrualType:
			returns = append(returns, record)
		}
		if costGroups[record.ServiceGroup] {
			costs = append(costs, record)
		}
	}

	totalRevenue := sumAmounts(sales)
	totalReturns := sumAmounts(returns).Abs()
	totalCosts := sumAmounts(costs).Abs()

	totalOrders := len(sales)
	totalProducts := 0
	totalCommission := decimal.Zero
	totalDeliveryHours := decimal.Zero
	for _, sale := range sales {
		totalProducts += sale.Quantity
		totalCommission = totalCommission.Add(
			sale.SellerPrice.
				Mul(decimal.NewFromInt(int64(sale.Quantity))).
				Mul(sale.CommissionPercent).
				Div(decimal.NewFromInt(100)),
		)
		totalDeliveryHours = totalDeliveryHours.Add(sale.AvgDeliveryHours)
	}

	averageOrderValue := decimal.Zero
	returnRate := 0.0
	averageDeliveryHours := 0.0
	if totalOrders > 0 {
		averageOrderValue = totalRevenue.Div(decimal.NewFromInt(int64(totalOrders)))
		returnRate = float64(len(returns)) / float64(totalOrders) * 100
		averageDeliveryHours = totalDeliveryHours.InexactFloat64() / float64(totalOrders)
	}

	netProfit := totalRevenue.Sub(totalCommission).Sub(totalCosts).Sub(totalReturns)

	return &domain.FinancialMetrics{
		TotalRevenue:         totalRevenue,
		TotalReturns:         totalReturns,
		TotalCosts:           totalCosts,
		TotalOrders:          totalOrders,
		TotalProducts:        totalProducts,
		AverageOrderValue:    averageOrderValue,
		TotalCommission:      totalCommission,
		NetProfit:            netProfit,
		ReturnRatePercent:    utils.RoundWithTwoDecimalPlace(returnRate),
		AverageDeliveryHours: utils.RoundWithTwoDecimalPlace(averageDeliveryHours),
		TopProducts:          s.topProducts(sales),
		RevenueByCategory:    s.revenueByCategory(records),
		DailyRevenue:         s.dailyRevenue(sales),
		SchemePerformance:    s.schemePerformance(sales),
	}
}

func sumAmounts(records []*domain.SalesRecord) decimal.Decimal {
	sum := decimal.Zero
	for _, record := range records {
		sum = sum.Add(record.TotalAmount)
	}
	return sum
}

// topProducts ranks sales by product revenue, descending, ties keeping the
// order products first appeared in the ledger.
func (s *Service) topProducts(sales []*domain.SalesRecord) []domain.ProductRevenue {
	index := make(map[string]int, len(sales))
	products := make([]domain.ProductRevenue, 0)

	for _, sale := range sales {
		i, ok := index[sale.ProductName]
		if !ok {
			i = len(products)
			index[sale.ProductName] = i
			products = append(products, domain.ProductRevenue{
				Name:    sale.ProductName,
				Revenue: decimal.Zero,
			})
		}
		products[i].Revenue = products[i].Revenue.Add(sale.TotalAmount)
		products[i].Quantity += sale.Quantity
	}

	sort.SliceStable(products, func(a, b int) bool {
		return products[a].Revenue.GreaterThan(products[b].Revenue)
	})

	limit := s.cfg.TopProductsLimit
	if limit <= 0 {
		limit = 5
	}
	if len(products) > limit {
		products = products[:limit]
	}

	return products
}

// revenueByCategory groups the entire corpus by service group. Revenue is
// the absolute group sum, and each percentage is that sum's share of the
// total of all absolute group sums.
func (s *Service) revenueByCategory(records []*domain.SalesRecord) []domain.CategoryRevenue {
	index := make(map[string]int, len(records))
	groupSums := make([]domain.CategoryRevenue, 0)

	for _, record := range records {
		i, ok := index[record.ServiceGroup]
		if !ok {
			i = len(groupSums)
			index[record.ServiceGroup] = i
			groupSums = append(groupSums, domain.CategoryRevenue{
				Category: record.ServiceGroup,
				Revenue:  decimal.Zero,
			})
		}
		groupSums[i].Revenue = groupSums[i].Revenue.Add(record.TotalAmount)
	}

	total := decimal.Zero
	for i := range groupSums {
		groupSums[i].Revenue = groupSums[i].Revenue.Abs()
		total = total.Add(groupSums[i].Revenue)
	}

	for i := range groupSums {
		if total.IsPositive() {
			share, _ := groupSums[i].Revenue.Div(total).Mul(decimal.NewFromInt(100)).Float64()
			groupSums[i].Percentage = utils.RoundWithTwoDecimalPlace(share)
		}
	}

	sort.SliceStable(groupSums, func(a, b int) bool {
		return groupSums[a].Revenue.GreaterThan(groupSums[b].Revenue)
	})

	return groupSums
}

// dailyRevenue groups sales by the verbatim accrual date and sorts the trend
// ascending by parsed date. Unparsable dates sort by their raw string so the
// trend stays deterministic.
func (s *Service) dailyRevenue(sales []*domain.SalesRecord) []domain.DailyRevenue {
	index := make(map[string]int, len(sales))
	days := make([]domain.DailyRevenue, 0)

	for _, sale := range sales {
		i, ok := index[sale.AccrualDate]
		if !ok {
			i = len(days)
			index[sale.AccrualDate] = i
			days = append(days, domain.DailyRevenue{
				Date:    sale.AccrualDate,
				Revenue: decimal.Zero,
			})
		}
		days[i].Revenue = days[i].Revenue.Add(sale.TotalAmount)
		days[i].Orders++
	}

	sort.SliceStable(days, func(a, b int) bool {
		dateA, okA := utils.ParseLedgerDate(days[a].Date)
		dateB, okB := utils.ParseLedgerDate(days[b].Date)
		if okA && okB {
			return dateA.Before(dateB)
		}
		return days[a].Date < days[b].Date
	})

	return days
}

func (s *Service) schemePerformance(sales []*domain.SalesRecord) []domain.SchemePerformance {
	type schemeTotals struct {
		revenue       decimal.Decimal
		orders        int
		deliveryHours decimal.Decimal
	}

	index := make(map[string]int, len(sales))
	order := make([]string, 0)
	totals := make([]schemeTotals, 0)

	for _, sale := range sales {
		i, ok := index[sale.FulfillmentScheme]
		if !ok {
			i = len(totals)
			index[sale.FulfillmentScheme] = i
			order = append(order, sale.FulfillmentScheme)
			totals = append(totals, schemeTotals{revenue: decimal.Zero, deliveryHours: decimal.Zero})
		}
		totals[i].revenue = totals[i].revenue.Add(sale.TotalAmount)
		totals[i].orders++
		totals[i].deliveryHours = totals[i].deliveryHours.Add(sale.AvgDeliveryHours)
	}

	schemes := make([]domain.SchemePerformance, 0, len(totals))
	for i, scheme := range order {
		avgDelivery := 0.0
		if totals[i].orders > 0 {
			avgDelivery = totals[i].deliveryHours.InexactFloat64() / float64(totals[i].orders)
		}
		schemes = append(schemes, domain.SchemePerformance{
			Scheme:           scheme,
			Revenue:          totals[i].revenue,
			Orders:           totals[i].orders,
			AvgDeliveryHours: utils.RoundWithTwoDecimalPlace(avgDelivery),
		})
	}

	sort.SliceStable(schemes, func(a, b int) bool {
		return schemes[a].Revenue.GreaterThan(schemes[b].Revenue)
	})

	return schemes
}
