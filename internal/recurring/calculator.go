package recurring

import (
	"fmt"
	"time"

	"github.com/rezkam/compass/internal/domain"
)

// PatternCalculator calculates the next occurrence for a recurrence frequency.
type PatternCalculator interface {
	// NextOccurrence returns the occurrence one period after the given time.
	NextOccurrence(after time.Time) time.Time
}

// GetCalculator returns the calculator for the given frequency.
func GetCalculator(freq domain.Frequency) (PatternCalculator, error) {
	switch freq {
	case domain.FrequencyDaily:
		return DayCalculator{Days: 1}, nil
	case domain.FrequencyWeekly:
		return DayCalculator{Days: 7}, nil
	case domain.FrequencyMonthly:
		return MonthCalculator{Months: 1}, nil
	case domain.FrequencyQuarterly:
		return MonthCalculator{Months: 3}, nil
	case domain.FrequencyYearly:
		return MonthCalculator{Months: 12}, nil
	case "":
		return nil, domain.ErrFrequencyRequired
	default:
		return nil, fmt.Errorf("%w: %w: frequency %q", domain.ErrFrequencyRequired, domain.ErrInvalidEnum, freq)
	}
}
