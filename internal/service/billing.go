package service

import (
	"time"

	"github.com/wenwu/saas-platform/panel-service/internal/models"
)

// Quote is the price and paid-until timestamp for one billing period.
type Quote struct {
	Cost      int64
	ExpiresAt time.Time
}

// QuoteForCycle prices one billing period of a package starting at now.
// Pure function; now is supplied by the caller.
func QuoteForCycle(pkg *models.Package, cycle string, now time.Time) (Quote, error) {
	switch cycle {
	case models.BillingCycleHourly:
		return Quote{Cost: pkg.PricePerHour, ExpiresAt: now.Add(time.Hour)}, nil
	case models.BillingCycleDaily:
		return Quote{Cost: pkg.PricePerDay, ExpiresAt: now.AddDate(0, 0, 1)}, nil
	case models.BillingCycleMonthly:
		return Quote{Cost: pkg.PricePerMonth, ExpiresAt: addCalendarMonth(now)}, nil
	default:
		return Quote{}, ErrInvalidBillingCycle
	}
}

// addCalendarMonth adds one calendar month, clamping to the last day of
// the target month. time.AddDate would normalize Jan 31 into Mar 2/3;
// a monthly plan bought on Jan 31 must expire on Feb 28 (29 in a leap
// year), so the day of month is clamped instead.
func addCalendarMonth(t time.Time) time.Time {
	year, month, day := t.Date()
	if last := lastDayOfMonth(year, month+1); day > last {
		day = last
	}
	return time.Date(year, month+1, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func lastDayOfMonth(year int, month time.Month) int {
	// Day 0 of the following month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
