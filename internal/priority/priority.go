// Package priority classifies tasks on the Eisenhower matrix and orders them by score.
//
// The classifier is total: a Level outside the known set is treated as low so that
// sorting never fails. Callers accepting user input parse strictly with domain.ParseLevel.
package priority

import (
	"cmp"
	"slices"

	"github.com/rezkam/compass/internal/domain"
)

// Quadrant is one of the four Eisenhower action quadrants.
type Quadrant string

const (
	Q1 Quadrant = "Q1"
	Q2 Quadrant = "Q2"
	Q3 Quadrant = "Q3"
	Q4 Quadrant = "Q4"
)

// Label returns the action name of the quadrant.
func (q Quadrant) Label() string {
	switch q {
	case Q1:
		return "Do First"
	case Q2:
		return "Schedule"
	case Q3:
		return "Delegate"
	default:
		return "Eliminate"
	}
}

// Score bounds.
const (
	MinScore = 5
	MaxScore = 21
)

// Classification is the result of classifying an urgency/importance pair.
type Classification struct {
	Quadrant Quadrant
	Label    string
	Score    int
}

// threshold is the ordinal at or above which a level counts as urgent or important.
const threshold = 2

func ordinal(l domain.Level) int {
	n, ok := l.Ordinal()
	if !ok {
		return 0
	}
	return n
}

// QuadrantOf returns the Eisenhower quadrant for the given levels.
func QuadrantOf(urgency, importance domain.Level) Quadrant {
	urgent := ordinal(urgency) >= threshold
	important := ordinal(importance) >= threshold

	switch {
	case urgent && important:
		return Q1
	case important:
		return Q2
	case urgent:
		return Q3
	default:
		return Q4
	}
}

// Score returns the sort score, (importance+1)*3 + (urgency+1)*2.
// Importance weighs more than urgency; the result is in [MinScore, MaxScore].
func Score(urgency, importance domain.Level) int {
	return (ordinal(importance)+1)*3 + (ordinal(urgency)+1)*2
}

// Classify returns quadrant, label and score in one call.
func Classify(urgency, importance domain.Level) Classification {
	q := QuadrantOf(urgency, importance)
	return Classification{
		Quadrant: q,
		Label:    q.Label(),
		Score:    Score(urgency, importance),
	}
}

// Compare orders tasks for listings: higher score first, then earlier deadline
// (tasks without a deadline last), then older tasks, then ID.
func Compare(a, b *domain.Task) int {
	if c := cmp.Compare(Score(b.Urgency, b.Importance), Score(a.Urgency, a.Importance)); c != 0 {
		return c
	}

	switch {
	case a.Deadline != nil && b.Deadline == nil:
		return -1
	case a.Deadline == nil && b.Deadline != nil:
		return 1
	case a.Deadline != nil && b.Deadline != nil:
		if c := a.Deadline.Compare(*b.Deadline); c != 0 {
			return c
		}
	}

	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// Sort orders tasks in place using Compare.
func Sort(tasks []domain.Task) {
	slices.SortStableFunc(tasks, func(a, b domain.Task) int {
		return Compare(&a, &b)
	})
}
