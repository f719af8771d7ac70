package ingesting

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/ozon-analytics-api/internal/config"
)

func testLedgerConfig() config.Ledger {
	return config.Ledger{
		Delimiter:          ";",
		Quote:              `"`,
		IntegerHeaderTerms: []string{"Количество"},
		DecimalHeaderTerms: []string{"Цена", "Сумма", "%", "часы"},
	}
}

func TestParser_Parse(t *testing.T) {
	parser := NewParser(testLedgerConfig())

	raw := "ID начисления;Дата начисления;Тип начисления;Название товара;Количество;Цена продавца;Сумма итого, руб;Вознаграждение Ozon, %;Схема работы\n" +
		"OP-1;2025-07-01;Продажа;\"Футболка хлопковая\";2;1290;2580;12;FBO\n" +
		"OP-2;2025-07-02;Продажа;Кепка;1;790;790;10;FBS\n"

	records, err := parser.Parse("seller-1", raw)
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "seller-1", first.SellerID)
	assert.Equal(t, "OP-1", first.AccrualID)
	assert.Equal(t, "2025-07-01", first.AccrualDate)
	assert.Equal(t, "Продажа", first.AccrualType)
	assert.Equal(t, "Футболка хлопковая", first.ProductName)
	assert.Equal(t, 2, first.Quantity)
	assert.True(t, first.SellerPrice.Equal(decimal.NewFromInt(1290)), "seller price: %s", first.SellerPrice)
	assert.True(t, first.TotalAmount.Equal(decimal.NewFromInt(2580)), "total amount: %s", first.TotalAmount)
	assert.True(t, first.CommissionPercent.Equal(decimal.NewFromInt(12)), "commission: %s", first.CommissionPercent)
	assert.Equal(t, "FBO", first.FulfillmentScheme)

	second := records[1]
	assert.Equal(t, "OP-2", second.AccrualID)
	assert.Equal(t, "Кепка", second.ProductName)
}

func TestParser_Parse_MalformedRowsAreDropped(t *testing.T) {
	parser := NewParser(testLedgerConfig())

	raw := "ID начисления;Тип начисления;Количество\n" +
		"OP-1;Продажа;2\n" +
		"broken;row\n" +
		"OP-2;Продажа;1;extra-field\n" +
		"OP-3;Возврат;1\n"

	records, err := parser.Parse("seller-1", raw)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "OP-1", records[0].AccrualID)
	assert.Equal(t, "OP-3", records[1].AccrualID)
}

func TestParser_Parse_UnparsableNumbersBecomeZero(t *testing.T) {
	parser := NewParser(testLedgerConfig())

	raw := "ID начисления;Количество;Сумма итого, руб\n" +
		"OP-1;не число;опечатка\n"

	records, err := parser.Parse("seller-1", raw)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, 0, records[0].Quantity)
	assert.True(t, records[0].TotalAmount.IsZero(), "total amount: %s", records[0].TotalAmount)
}

func TestParser_Parse_QuotesAndWhitespaceStripped(t *testing.T) {
	parser := NewParser(testLedgerConfig())

	raw := "ID начисления;Название товара\n" +
		`  "OP-1"  ;  "Худи "оверсайз""` + "\n"

	records, err := parser.Parse("seller-1", raw)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "OP-1", records[0].AccrualID)
	assert.Equal(t, "Худи оверсайз", records[0].ProductName)
}

func TestParser_Parse_UnmappedColumnsIgnored(t *testing.T) {
	parser := NewParser(testLedgerConfig())

	raw := "ID начисления;Неизвестная колонка\n" +
		"OP-1;мусор\n"

	records, err := parser.Parse("seller-1", raw)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "OP-1", records[0].AccrualID)
}

func TestParser_ParseRows_EmptyInput(t *testing.T) {
	parser := NewParser(testLedgerConfig())

	assert.Nil(t, parser.ParseRows(""))
	assert.Nil(t, parser.ParseRows("\n\n  \n"))
}

func TestParser_ParseRows_HeaderOnly(t *testing.T) {
	parser := NewParser(testLedgerConfig())

	rows := parser.ParseRows("ID начисления;Количество\n")
	assert.Empty(t, rows)
}

func TestParser_ParseRows_OrderPreserved(t *testing.T) {
	parser := NewParser(testLedgerConfig())

	raw := "ID начисления\nOP-3\nOP-1\nOP-2\n"
	rows := parser.ParseRows(raw)

	require.Len(t, rows, 3)
	assert.Equal(t, "OP-3", rows[0]["ID начисления"])
	assert.Equal(t, "OP-1", rows[1]["ID начисления"])
	assert.Equal(t, "OP-2", rows[2]["ID начисления"])
}

func TestParser_WithMapping(t *testing.T) {
	parser := NewParser(config.Ledger{
		Delimiter:          ",",
		Quote:              `"`,
		IntegerHeaderTerms: []string{"qty"},
		DecimalHeaderTerms: []string{"amount"},
	}).WithMapping(map[string]string{
		"operation_id": "accrual_id",
		"qty":          "quantity",
		"amount":       "total_amount",
	})

	raw := "operation_id,qty,amount\nOP-1,3,1500.50\n"

	records, err := parser.Parse("seller-1", raw)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "OP-1", records[0].AccrualID)
	assert.Equal(t, 3, records[0].Quantity)
	expected, _ := decimal.NewFromString("1500.50")
	assert.True(t, records[0].TotalAmount.Equal(expected), "total amount: %s", records[0].TotalAmount)
}
