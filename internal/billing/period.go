package billing

import (
	"time"

	"github.com/emailcraft/billing-backend/internal/models"
)

// AddPeriod returns start plus one billing period: one calendar month for
// monthly, one calendar year for yearly. Unlike time.AddDate, the day of
// month is clamped instead of rolled over, so Jan 31 + 1 month is Feb 28
// (or Feb 29 in a leap year), never Mar 2/3.
func AddPeriod(start time.Time, cycle models.BillingCycle) time.Time {
	year, month, day := start.Date()
	if cycle == models.BillingYearly {
		year++
	} else {
		month++
		if month > time.December {
			month = time.January
			year++
		}
	}
	if max := daysIn(year, month); day > max {
		day = max
	}
	return time.Date(year, month, day,
		start.Hour(), start.Minute(), start.Second(), start.Nanosecond(), start.Location())
}

func daysIn(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
