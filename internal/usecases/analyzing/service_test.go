package analyzing

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/ozon-analytics-api/infrastructure/repository/mocks"
	"github.com/vfg2006/ozon-analytics-api/internal/config"
	"github.com/vfg2006/ozon-analytics-api/internal/domain"
	"go.uber.org/mock/gomock"
)

func testAnalyticsConfig() config.Analytics {
	return config.Analytics{
		SaleAccrualType:   "Продажа",
		ReturnAccrualType: "Возврат",
		CostServiceGroups: []string{"Маркетинг", "Логистика"},
		TopProductsLimit:  5,
	}
}

func dec(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

func sale(accrualID, date, product, scheme string, qty int, price, total, commissionPct, deliveryHours string) *domain.SalesRecord {
	return &domain.SalesRecord{
		AccrualID:         accrualID,
		AccrualDate:       date,
		ServiceGroup:      "Продажи",
		AccrualType:       "Продажа",
		ProductName:       product,
		Quantity:          qty,
		SellerPrice:       dec(price),
		TotalAmount:       dec(total),
		CommissionPercent: dec(commissionPct),
		AvgDeliveryHours:  dec(deliveryHours),
		FulfillmentScheme: scheme,
	}
}

func TestService_ComputeMetrics_EmptyCorpus(t *testing.T) {
	service := &Service{cfg: testAnalyticsConfig()}

	assert.Nil(t, service.ComputeMetrics(nil))
	assert.Nil(t, service.ComputeMetrics([]*domain.SalesRecord{}))
}

func TestService_ComputeMetrics_CoreAggregates(t *testing.T) {
	service := &Service{cfg: testAnalyticsConfig()}

	records := []*domain.SalesRecord{
		sale("OP-1", "2025-07-02", "Футболка", "FBO", 1, "100", "100", "10", "40"),
		sale("OP-2", "2025-07-01", "Худи", "FBS", 2, "100", "200", "10", "20"),
		{
			AccrualID:    "OP-3",
			AccrualDate:  "2025-07-03",
			ServiceGroup: "Возвраты",
			AccrualType:  "Возврат",
			ProductName:  "Футболка",
			TotalAmount:  dec("-100"),
		},
		{
			AccrualID:    "SVC-1",
			AccrualDate:  "2025-07-03",
			ServiceGroup: "Логистика",
			AccrualType:  "Услуги доставки",
			TotalAmount:  dec("-50"),
		},
	}

	metrics := service.ComputeMetrics(records)
	require.NotNil(t, metrics)

	assert.True(t, metrics.TotalRevenue.Equal(dec("300")), "revenue: %s", metrics.TotalRevenue)
	assert.True(t, metrics.TotalReturns.Equal(dec("100")), "returns: %s", metrics.TotalReturns)
	assert.True(t, metrics.TotalCosts.Equal(dec("50")), "costs: %s", metrics.TotalCosts)
	assert.Equal(t, 2, metrics.TotalOrders)
	assert.Equal(t, 3, metrics.TotalProducts)
	assert.True(t, metrics.AverageOrderValue.Equal(dec("150")), "aov: %s", metrics.AverageOrderValue)

	// 100*1*10% + 100*2*10% = 10 + 20
	assert.True(t, metrics.TotalCommission.Equal(dec("30")), "commission: %s", metrics.TotalCommission)

	// 300 - 30 - 50 - 100
	assert.True(t, metrics.NetProfit.Equal(dec("120")), "net profit: %s", metrics.NetProfit)

	// 1 return over 2 orders
	assert.Equal(t, 50.0, metrics.ReturnRatePercent)

	// (40 + 20) / 2
	assert.Equal(t, 30.0, metrics.AverageDeliveryHours)
}

func TestService_ComputeMetrics_EveryOrderReturned(t *testing.T) {
	service := &Service{cfg: testAnalyticsConfig()}

	records := []*domain.SalesRecord{
		sale("OP-1", "2025-07-01", "Футболка", "FBO", 1, "100", "100", "10", "40"),
		{
			AccrualID:    "OP-2",
			ServiceGroup: "Возвраты",
			AccrualType:  "Возврат",
			TotalAmount:  dec("-100"),
		},
	}

	metrics := service.ComputeMetrics(records)
	require.NotNil(t, metrics)

	assert.Equal(t, 100.0, metrics.ReturnRatePercent)
}

func TestService_ComputeMetrics_NoSales(t *testing.T) {
	service := &Service{cfg: testAnalyticsConfig()}

	records := []*domain.SalesRecord{
		{
			AccrualID:    "SVC-1",
			ServiceGroup: "Маркетинг",
			AccrualType:  "Продвижение товаров",
			TotalAmount:  dec("-850"),
		},
	}

	metrics := service.ComputeMetrics(records)
	require.NotNil(t, metrics)

	assert.Equal(t, 0, metrics.TotalOrders)
	assert.True(t, metrics.AverageOrderValue.IsZero())
	assert.Equal(t, 0.0, metrics.ReturnRatePercent)
	assert.True(t, metrics.TotalCosts.Equal(dec("850")), "costs: %s", metrics.TotalCosts)
	assert.True(t, metrics.NetProfit.Equal(dec("-850")), "net profit: %s", metrics.NetProfit)
}

func TestService_ComputeMetrics_TopProducts(t *testing.T) {
	service := &Service{cfg: testAnalyticsConfig()}

	records := make([]*domain.SalesRecord, 0, 7)
	for i := 1; i <= 6; i++ {
		records = append(records, sale(
			fmt.Sprintf("OP-%d", i), "2025-07-01",
			fmt.Sprintf("Товар %d", i), "FBO",
			1, "100", fmt.Sprintf("%d", i*100), "10", "24",
		))
	}
	// A second sale of product 3 lifts it above product 6.
	records = append(records, sale("OP-7", "2025-07-02", "Товар 3", "FBO", 2, "100", "400", "10", "24"))

	metrics := service.ComputeMetrics(records)
	require.NotNil(t, metrics)
	require.Len(t, metrics.TopProducts, 5)

	assert.Equal(t, "Товар 3", metrics.TopProducts[0].Name)
	assert.True(t, metrics.TopProducts[0].Revenue.Equal(dec("700")), "revenue: %s", metrics.TopProducts[0].Revenue)
	assert.Equal(t, 3, metrics.TopProducts[0].Quantity)

	for i := 1; i < len(metrics.TopProducts); i++ {
		assert.True(
			t,
			metrics.TopProducts[i-1].Revenue.GreaterThanOrEqual(metrics.TopProducts[i].Revenue),
			"ranking not descending at %d", i,
		)
	}
}

func TestService_ComputeMetrics_RevenueByCategory(t *testing.T) {
	service := &Service{cfg: testAnalyticsConfig()}

	records := []*domain.SalesRecord{
		sale("OP-1", "2025-07-01", "Футболка", "FBO", 1, "300", "300", "10", "24"),
		{
			AccrualID:    "OP-2",
			ServiceGroup: "Возвраты",
			AccrualType:  "Возврат",
			TotalAmount:  dec("-100"),
		},
		{
			AccrualID:    "SVC-1",
			ServiceGroup: "Логистика",
			AccrualType:  "Услуги доставки",
			TotalAmount:  dec("-50"),
		},
	}

	metrics := service.ComputeMetrics(records)
	require.NotNil(t, metrics)
	require.Len(t, metrics.RevenueByCategory, 3)

	assert.Equal(t, "Продажи", metrics.RevenueByCategory[0].Category)
	assert.True(t, metrics.RevenueByCategory[0].Revenue.Equal(dec("300")))
	assert.Equal(t, "Возвраты", metrics.RevenueByCategory[1].Category)
	assert.True(t, metrics.RevenueByCategory[1].Revenue.Equal(dec("100")))
	assert.Equal(t, "Логистика", metrics.RevenueByCategory[2].Category)
	assert.True(t, metrics.RevenueByCategory[2].Revenue.Equal(dec("50")))

	// Shares of 300, 100 and 50 out of 450.
	assert.Equal(t, 66.67, metrics.RevenueByCategory[0].Percentage)
	assert.Equal(t, 22.22, metrics.RevenueByCategory[1].Percentage)
	assert.Equal(t, 11.11, metrics.RevenueByCategory[2].Percentage)

	totalShare := 0.0
	for _, category := range metrics.RevenueByCategory {
		totalShare += category.Percentage
	}
	assert.InDelta(t, 100.0, totalShare, 0.05)
}

func TestService_ComputeMetrics_DailyRevenueAscending(t *testing.T) {
	service := &Service{cfg: testAnalyticsConfig()}

	records := []*domain.SalesRecord{
		sale("OP-1", "2025-07-03", "Футболка", "FBO", 1, "100", "100", "10", "24"),
		sale("OP-2", "2025-07-01", "Худи", "FBO", 1, "100", "100", "10", "24"),
		sale("OP-3", "2025-07-03", "Кепка", "FBO", 1, "100", "150", "10", "24"),
		sale("OP-4", "2025-07-02", "Футболка", "FBO", 1, "100", "100", "10", "24"),
	}

	metrics := service.ComputeMetrics(records)
	require.NotNil(t, metrics)
	require.Len(t, metrics.DailyRevenue, 3)

	assert.Equal(t, "2025-07-01", metrics.DailyRevenue[0].Date)
	assert.Equal(t, "2025-07-02", metrics.DailyRevenue[1].Date)
	assert.Equal(t, "2025-07-03", metrics.DailyRevenue[2].Date)

	assert.Equal(t, 2, metrics.DailyRevenue[2].Orders)
	assert.True(t, metrics.DailyRevenue[2].Revenue.Equal(dec("250")), "revenue: %s", metrics.DailyRevenue[2].Revenue)
}

func TestService_ComputeMetrics_DailyRevenueMixedDateFormats(t *testing.T) {
	service := &Service{cfg: testAnalyticsConfig()}

	// ru-RU day-first dates still sort chronologically.
	records := []*domain.SalesRecord{
		sale("OP-1", "15.07.2025", "Футболка", "FBO", 1, "100", "100", "10", "24"),
		sale("OP-2", "02.07.2025", "Худи", "FBO", 1, "100", "100", "10", "24"),
	}

	metrics := service.ComputeMetrics(records)
	require.NotNil(t, metrics)
	require.Len(t, metrics.DailyRevenue, 2)

	assert.Equal(t, "02.07.2025", metrics.DailyRevenue[0].Date)
	assert.Equal(t, "15.07.2025", metrics.DailyRevenue[1].Date)
}

func TestService_ComputeMetrics_SchemePerformance(t *testing.T) {
	service := &Service{cfg: testAnalyticsConfig()}

	records := []*domain.SalesRecord{
		sale("OP-1", "2025-07-01", "Футболка", "FBO", 1, "100", "100", "10", "40"),
		sale("OP-2", "2025-07-01", "Худи", "FBS", 1, "100", "300", "10", "20"),
		sale("OP-3", "2025-07-02", "Кепка", "FBO", 1, "100", "100", "10", "30"),
	}

	metrics := service.ComputeMetrics(records)
	require.NotNil(t, metrics)
	require.Len(t, metrics.SchemePerformance, 2)

	assert.Equal(t, "FBS", metrics.SchemePerformance[0].Scheme)
	assert.True(t, metrics.SchemePerformance[0].Revenue.Equal(dec("300")))
	assert.Equal(t, 1, metrics.SchemePerformance[0].Orders)
	assert.Equal(t, 20.0, metrics.SchemePerformance[0].AvgDeliveryHours)

	assert.Equal(t, "FBO", metrics.SchemePerformance[1].Scheme)
	assert.True(t, metrics.SchemePerformance[1].Revenue.Equal(dec("200")))
	assert.Equal(t, 2, metrics.SchemePerformance[1].Orders)
	assert.Equal(t, 35.0, metrics.SchemePerformance[1].AvgDeliveryHours)
}

func TestService_GetMetrics(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRecordRepo := mocks.NewMockSalesRecordRepository(ctrl)
	mockRecordRepo.EXPECT().
		ListBySeller(gomock.Any(), "seller-1", 0).
		Return([]*domain.SalesRecord{
			sale("OP-1", "2025-07-01", "Футболка", "FBO", 1, "100", "100", "10", "24"),
		}, nil)

	service := &Service{cfg: testAnalyticsConfig(), recordRepo: mockRecordRepo}

	metrics, err := service.GetMetrics(context.Background(), "seller-1")
	require.NoError(t, err)
	require.NotNil(t, metrics)
	assert.True(t, metrics.TotalRevenue.Equal(dec("100")))
}

func TestService_GetMetrics_EmptyLedger(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRecordRepo := mocks.NewMockSalesRecordRepository(ctrl)
	mockRecordRepo.EXPECT().
		ListBySeller(gomock.Any(), "seller-1", 0).
		Return(nil, nil)

	service := &Service{cfg: testAnalyticsConfig(), recordRepo: mockRecordRepo}

	metrics, err := service.GetMetrics(context.Background(), "seller-1")
	require.NoError(t, err)
	assert.Nil(t, metrics)
}

func TestService_GetMetrics_RepositoryError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRecordRepo := mocks.NewMockSalesRecordRepository(ctrl)
	mockRecordRepo.EXPECT().
		ListBySeller(gomock.Any(), "seller-1", 0).
		Return(nil, errors.New("connection reset"))

	service := &Service{cfg: testAnalyticsConfig(), recordRepo: mockRecordRepo}

	metrics, err := service.GetMetrics(context.Background(), "seller-1")
	assert.Error(t, err)
	assert.Nil(t, metrics)
}
