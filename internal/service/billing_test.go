package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wenwu/saas-platform/panel-service/internal/models"
)

func testPackage() *models.Package {
	return &models.Package{
		ID:            "pkg-1",
		Name:          "Starter",
		Ram:           1024,
		Disk:          10240,
		Cpu:           100,
		PricePerHour:  1,
		PricePerDay:   20,
		PricePerMonth: 100,
		IsActive:      true,
	}
}

func TestQuoteForCycle(t *testing.T) {
	pkg := testPackage()
	now := time.Date(2025, time.June, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		cycle     string
		wantCost  int64
		wantUntil time.Time
	}{
		{
			name:      "hourly",
			cycle:     models.BillingCycleHourly,
			wantCost:  1,
			wantUntil: now.Add(time.Hour),
		},
		{
			name:      "daily",
			cycle:     models.BillingCycleDaily,
			wantCost:  20,
			wantUntil: time.Date(2025, time.June, 16, 10, 30, 0, 0, time.UTC),
		},
		{
			name:      "monthly",
			cycle:     models.BillingCycleMonthly,
			wantCost:  100,
			wantUntil: time.Date(2025, time.July, 15, 10, 30, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote, err := QuoteForCycle(pkg, tt.cycle, now)
			require.NoError(t, err)
			require.Equal(t, tt.wantCost, quote.Cost)
			require.True(t, quote.ExpiresAt.Equal(tt.wantUntil),
				"expires_at = %v, want %v", quote.ExpiresAt, tt.wantUntil)
		})
	}
}

func TestQuoteForCycleUnknownCycle(t *testing.T) {
	_, err := QuoteForCycle(testPackage(), "weekly", time.Now())
	require.ErrorIs(t, err, ErrInvalidBillingCycle)
}

// A monthly plan bought on a day the next month does not have must land
// on the last day of that month, not roll over into the month after.
func TestAddCalendarMonthClamps(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		want time.Time
	}{
		{
			name: "jan 31 to feb 28",
			from: time.Date(2025, time.January, 31, 12, 0, 0, 0, time.UTC),
			want: time.Date(2025, time.February, 28, 12, 0, 0, 0, time.UTC),
		},
		{
			name: "jan 31 to feb 29 in leap year",
			from: time.Date(2024, time.January, 31, 12, 0, 0, 0, time.UTC),
			want: time.Date(2024, time.February, 29, 12, 0, 0, 0, time.UTC),
		},
		{
			name: "mar 31 to apr 30",
			from: time.Date(2025, time.March, 31, 8, 15, 0, 0, time.UTC),
			want: time.Date(2025, time.April, 30, 8, 15, 0, 0, time.UTC),
		},
		{
			name: "dec 15 rolls into next year",
			from: time.Date(2025, time.December, 15, 0, 0, 0, 0, time.UTC),
			want: time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "mid month unchanged",
			from: time.Date(2025, time.April, 10, 23, 59, 59, 0, time.UTC),
			want: time.Date(2025, time.May, 10, 23, 59, 59, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := addCalendarMonth(tt.from)
			require.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}
