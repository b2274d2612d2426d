package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPreviousMonth(t *testing.T) {
	cases := []struct {
		now   time.Time
		key   string
		start time.Time
		end   time.Time
	}{
		{
			now:   time.Date(2026, 10, 5, 9, 0, 0, 0, time.UTC),
			key:   "2026-09",
			start: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2026, 9, 30, 23, 59, 59, 999999999, time.UTC),
		},
		{
			now:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			key:   "2025-12",
			start: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2025, 12, 31, 23, 59, 59, 999999999, time.UTC),
		},
		{
			now:   time.Date(2028, 3, 31, 23, 0, 0, 0, time.UTC),
			key:   "2028-02",
			start: time.Date(2028, 2, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2028, 2, 29, 23, 59, 59, 999999999, time.UTC),
		},
	}

	for _, tc := range cases {
		p := PreviousMonth(tc.now)
		assert.Equal(t, tc.key, p.Key())
		assert.Equal(t, tc.start, p.Start)
		assert.Equal(t, tc.end, p.End)
	}
}

func TestInvoiceStatus(t *testing.T) {
	assert.True(t, InvoiceStatusPending.Valid())
	assert.False(t, InvoiceStatus("VOID").Valid())
	assert.False(t, InvoiceStatusPending.Terminal())
	assert.True(t, InvoiceStatusPaid.Terminal())
	assert.True(t, InvoiceStatusFailed.Terminal())
}
