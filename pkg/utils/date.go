package utils

import "time"

// Accrual dates arrive verbatim from the marketplace export, which mixes ISO
// dates with the ru-RU day-first format.
var ledgerDateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"02.01.2006",
	"02.01.2006 15:04:05",
}

// ParseLedgerDate parses an accrual date string. The second return value is
// false when no known layout matches.
func ParseLedgerDate(dateStr string) (time.Time, bool) {
	for _, layout := range ledgerDateLayouts {
		if date, err := time.Parse(layout, dateStr); err == nil {
			return date, true
		}
	}

	return time.Time{}, false
}
