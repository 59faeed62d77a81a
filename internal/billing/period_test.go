package billing

import (
	"testing"
	"time"

	"github.com/emailcraft/billing-backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 30, 0, 0, time.UTC)
}

func TestAddPeriodMonthly(t *testing.T) {
	cases := []struct {
		name   string
		start  time.Time
		expect time.Time
	}{
		{"plain month", date(2025, time.March, 15), date(2025, time.April, 15)},
		{"jan 31 clamps to feb 28", date(2025, time.January, 31), date(2025, time.February, 28)},
		{"jan 31 leap year clamps to feb 29", date(2024, time.January, 31), date(2024, time.February, 29)},
		{"mar 31 clamps to apr 30", date(2025, time.March, 31), date(2025, time.April, 30)},
		{"dec rolls into next year", date(2025, time.December, 15), date(2026, time.January, 15)},
		{"dec 31 to jan 31", date(2025, time.December, 31), date(2026, time.January, 31)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, AddPeriod(tc.start, models.BillingMonthly))
		})
	}
}

func TestAddPeriodYearly(t *testing.T) {
	assert.Equal(t, date(2026, time.June, 15), AddPeriod(date(2025, time.June, 15), models.BillingYearly))
	// Feb 29 start lands on Feb 28 in the non-leap target year.
	assert.Equal(t, date(2025, time.February, 28), AddPeriod(date(2024, time.February, 29), models.BillingYearly))
}

func TestAddPeriodPreservesClock(t *testing.T) {
	start := time.Date(2025, time.May, 7, 23, 59, 58, 123, time.UTC)
	end := AddPeriod(start, models.BillingMonthly)
	assert.Equal(t, start.Hour(), end.Hour())
	assert.Equal(t, start.Minute(), end.Minute())
	assert.Equal(t, start.Second(), end.Second())
	assert.Equal(t, start.Nanosecond(), end.Nanosecond())
}
