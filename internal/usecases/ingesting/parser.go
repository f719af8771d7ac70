package ingesting

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
	"github.com/vfg2006/ozon-analytics-api/internal/config"
	"github.com/vfg2006/ozon-analytics-api/internal/domain"
)

// Row is one well-formed data line of the upload, keyed by the original
// header with values already coerced to their classified kind.
type Row map[string]interface{}

// Parser turns the raw delimited text of a ledger upload into typed rows and
// sales records. It is deliberately tolerant: rows whose field count does not
// match the header are dropped, and unparsable numeric values become zero.
type Parser struct {
	delimiter  string
	quote      string
	classifier *Classifier
	mapping    map[string]string
}

func NewParser(cfg config.Ledger) *Parser {
	return &Parser{
		delimiter:  cfg.Delimiter,
		quote:      cfg.Quote,
		classifier: NewClassifierFromTerms(cfg.IntegerHeaderTerms, cfg.DecimalHeaderTerms),
		mapping:    DefaultHeaderMapping(),
	}
}

// WithMapping replaces the header-to-field mapping, e.g. for another
// marketplace's export vocabulary.
func (p *Parser) WithMapping(mapping map[string]string) *Parser {
	p.mapping = mapping
	return p
}

// DefaultHeaderMapping maps the Ozon back-office export headers to the
// canonical record fields.
func DefaultHeaderMapping() map[string]string {
	return map[string]string{
		"ID начисления":                 domain.FieldAccrualID,
		"Дата начисления":               domain.FieldAccrualDate,
		"Группа услуг":                  domain.FieldServiceGroup,
		"Тип начисления":                domain.FieldAccrualType,
		"SKU":                           domain.FieldSKU,
		"Артикул":                       domain.FieldArticle,
		"Название товара":               domain.FieldProductName,
		"Количество":                    domain.FieldQuantity,
		"Цена продавца":                 domain.FieldSellerPrice,
		"Сумма итого, руб":              domain.FieldTotalAmount,
		"Вознаграждение Ozon, %":        domain.FieldCommissionPercent,
		"Индекс локализации, %":         domain.FieldLocalizationIndexPercent,
		"Среднее время доставки, часы":  domain.FieldAvgDeliveryHours,
		"Схема работы":                  domain.FieldFulfillmentScheme,
	}
}

// ParseRows splits the upload into the header and typed data rows. The first
// non-empty line is the header; every later line with a mismatched field
// count is silently dropped.
func (p *Parser) ParseRows(raw string) []Row {
	lines := make([]string, 0)
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil
	}

	headers := p.splitFields(lines[0])

	rows := make([]Row, 0, len(lines)-1)
	for _, line := range lines[1:] {
		values := p.splitFields(line)
		if len(values) != len(headers) {
			continue
		}

		row := make(Row, len(headers))
		for i, header := range headers {
			row[header] = p.coerce(header, values[i])
		}
		rows = append(rows, row)
	}

	return rows
}

// Parse runs the full pipeline: split, classify, coerce and decode each row
// into a SalesRecord tagged with its owner, preserving file order.
func (p *Parser) Parse(sellerID, raw string) ([]*domain.SalesRecord, error) {
	rows := p.ParseRows(raw)

	records := make([]*domain.SalesRecord, 0, len(rows))
	for _, row := range rows {
		record, err := p.decode(row)
		if err != nil {
			return nil, fmt.Errorf("failed to decode ledger row: %w", err)
		}
		record.SellerID = sellerID
		records = append(records, record)
	}

	return records, nil
}

func (p *Parser) splitFields(line string) []string {
	parts := strings.Split(line, p.delimiter)
	fields := make([]string, len(parts))
	for i, part := range parts {
		field := strings.TrimSpace(part)
		if p.quote != "" {
			field = strings.ReplaceAll(field, p.quote, "")
		}
		fields[i] = field
	}
	return fields
}

// coerce applies the classified kind to a raw value. Numeric coercion never
// fails: unparsable values become zero so a single bad cell cannot sink the
// whole upload.
func (p *Parser) coerce(header, value string) interface{} {
	switch p.classifier.Classify(header) {
	case KindInteger:
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0
		}
		return n
	case KindDecimal:
		d, err := decimal.NewFromString(value)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return value
	}
}

// decode translates a header-keyed row to canonical field keys and maps it
// onto a SalesRecord. Columns with no mapping are carried in the row but do
// not land on the record.
func (p *Parser) decode(row Row) (*domain.SalesRecord, error) {
	canonical := make(map[string]interface{}, len(row))
	for header, value := range row {
		if field, ok := p.mapping[header]; ok {
			canonical[field] = value
		}
	}

	record := &domain.SalesRecord{}
	if err := mapstructure.Decode(canonical, record); err != nil {
		return nil, err
	}

	return record, nil
}
