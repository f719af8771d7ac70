package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseLedgerDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
		ok       bool
	}{
		{
			name:     "iso date",
			input:    "2025-07-15",
			expected: time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC),
			ok:       true,
		},
		{
			name:     "iso datetime",
			input:    "2025-07-15T10:30:00Z",
			expected: time.Date(2025, 7, 15, 10, 30, 0, 0, time.UTC),
			ok:       true,
		},
		{
			name:     "ru day-first date",
			input:    "15.07.2025",
			expected: time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC),
			ok:       true,
		},
		{
			name:     "ru day-first datetime",
			input:    "15.07.2025 10:30:00",
			expected: time.Date(2025, 7, 15, 10, 30, 0, 0, time.UTC),
			ok:       true,
		},
		{
			name:  "unknown format",
			input: "July 15th",
			ok:    false,
		},
		{
			name:  "empty string",
			input: "",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, ok := ParseLedgerDate(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, parsed.Equal(tt.expected), "parsed: %s", parsed)
			}
		})
	}
}
