package recurring

import (
	"testing"
	"time"

	"github.com/rezkam/compass/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 30, 0, 0, time.UTC)
}

func TestGetCalculator(t *testing.T) {
	start := date(2025, 1, 1)

	tests := []struct {
		freq domain.Frequency
		want time.Time
	}{
		{domain.FrequencyDaily, date(2025, 1, 2)},
		{domain.FrequencyWeekly, date(2025, 1, 8)},
		{domain.FrequencyMonthly, date(2025, 2, 1)},
		{domain.FrequencyQuarterly, date(2025, 4, 1)},
		{domain.FrequencyYearly, date(2026, 1, 1)},
	}

	for _, tt := range tests {
		t.Run(string(tt.freq), func(t *testing.T) {
			calc, err := GetCalculator(tt.freq)
			require.NoError(t, err)
			assert.Equal(t, tt.want, calc.NextOccurrence(start))
		})
	}
}

func TestGetCalculator_Invalid(t *testing.T) {
	_, err := GetCalculator("")
	assert.ErrorIs(t, err, domain.ErrFrequencyRequired)

	_, err = GetCalculator("hourly")
	assert.ErrorIs(t, err, domain.ErrFrequencyRequired)
	assert.ErrorIs(t, err, domain.ErrInvalidEnum)
}

func TestMonthCalculator_ClampsToMonthEnd(t *testing.T) {
	tests := []struct {
		name   string
		months int
		from   time.Time
		want   time.Time
	}{
		{"jan 31 to leap feb", 1, date(2024, 1, 31), date(2024, 2, 29)},
		{"jan 31 to feb", 1, date(2025, 1, 31), date(2025, 2, 28)},
		{"mar 31 to apr", 1, date(2025, 3, 31), date(2025, 4, 30)},
		{"nov 30 quarter", 3, date(2024, 11, 30), date(2025, 2, 28)},
		{"leap day yearly", 12, date(2024, 2, 29), date(2025, 2, 28)},
		{"dec to jan", 1, date(2024, 12, 15), date(2025, 1, 15)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MonthCalculator{Months: tt.months}.NextOccurrence(tt.from)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDayCalculator_PreservesWallClockAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("tzdata not available")
	}
	before := time.Date(2025, 3, 29, 8, 0, 0, 0, loc)

	got := DayCalculator{Days: 1}.NextOccurrence(before)

	assert.Equal(t, 8, got.Hour())
	assert.Equal(t, 30, got.Day())
}
