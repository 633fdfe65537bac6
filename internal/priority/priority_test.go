package priority

import (
	"testing"
	"time"

	"github.com/rezkam/compass/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var levels = []domain.Level{domain.LevelLow, domain.LevelMedium, domain.LevelHigh, domain.LevelCritical}

func TestQuadrantOf_PartitionsAllPairs(t *testing.T) {
	counts := map[Quadrant]int{}

	for _, u := range levels {
		for _, i := range levels {
			q := QuadrantOf(u, i)
			require.Contains(t, []Quadrant{Q1, Q2, Q3, Q4}, q)
			counts[q]++
		}
	}

	// Each quadrant covers a 2x2 block of the 16 combinations.
	assert.Equal(t, map[Quadrant]int{Q1: 4, Q2: 4, Q3: 4, Q4: 4}, counts)
}

func TestQuadrantOf_Boundaries(t *testing.T) {
	tests := []struct {
		urgency, importance domain.Level
		want                Quadrant
		label               string
	}{
		{domain.LevelHigh, domain.LevelHigh, Q1, "Do First"},
		{domain.LevelCritical, domain.LevelCritical, Q1, "Do First"},
		{domain.LevelMedium, domain.LevelHigh, Q2, "Schedule"},
		{domain.LevelLow, domain.LevelCritical, Q2, "Schedule"},
		{domain.LevelHigh, domain.LevelMedium, Q3, "Delegate"},
		{domain.LevelCritical, domain.LevelLow, Q3, "Delegate"},
		{domain.LevelMedium, domain.LevelMedium, Q4, "Eliminate"},
		{domain.LevelLow, domain.LevelLow, Q4, "Eliminate"},
	}

	for _, tt := range tests {
		c := Classify(tt.urgency, tt.importance)
		assert.Equal(t, tt.want, c.Quadrant, "urgency=%s importance=%s", tt.urgency, tt.importance)
		assert.Equal(t, tt.label, c.Label)
	}
}

func TestScore_RangeAndMonotonic(t *testing.T) {
	assert.Equal(t, MinScore, Score(domain.LevelLow, domain.LevelLow))
	assert.Equal(t, MaxScore, Score(domain.LevelCritical, domain.LevelCritical))

	for ui, u := range levels {
		for ii, i := range levels {
			s := Score(u, i)
			assert.GreaterOrEqual(t, s, MinScore)
			assert.LessOrEqual(t, s, MaxScore)

			if ui+1 < len(levels) {
				assert.GreaterOrEqual(t, Score(levels[ui+1], i), s, "not monotonic in urgency")
			}
			if ii+1 < len(levels) {
				assert.GreaterOrEqual(t, Score(u, levels[ii+1]), s, "not monotonic in importance")
			}
		}
	}
}

func TestClassify_UnknownLevelTreatedAsLow(t *testing.T) {
	got := Classify("bogus", domain.LevelCritical)
	want := Classify(domain.LevelLow, domain.LevelCritical)

	assert.Equal(t, want, got)
	assert.Equal(t, Q2, got.Quadrant)
	assert.Equal(t, MinScore, Score("", "nope"))
}

func TestSort(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	soon := base.Add(24 * time.Hour)
	later := base.Add(72 * time.Hour)

	tasks := []domain.Task{
		{ID: "low", Urgency: domain.LevelLow, Importance: domain.LevelLow, CreatedAt: base},
		{ID: "crit-nodeadline", Urgency: domain.LevelCritical, Importance: domain.LevelCritical, CreatedAt: base},
		{ID: "crit-later", Urgency: domain.LevelCritical, Importance: domain.LevelCritical, Deadline: &later, CreatedAt: base},
		{ID: "crit-soon", Urgency: domain.LevelCritical, Importance: domain.LevelCritical, Deadline: &soon, CreatedAt: base},
		{ID: "b-tie", Urgency: domain.LevelMedium, Importance: domain.LevelMedium, CreatedAt: base},
		{ID: "a-tie", Urgency: domain.LevelMedium, Importance: domain.LevelMedium, CreatedAt: base},
		{ID: "older", Urgency: domain.LevelMedium, Importance: domain.LevelMedium, CreatedAt: base.Add(-time.Hour)},
	}

	Sort(tasks)

	ids := make([]string, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID
	}
	assert.Equal(t, []string{"crit-soon", "crit-later", "crit-nodeadline", "older", "a-tie", "b-tie", "low"}, ids)
}
