package recurring

import (
	"testing"
	"time"

	"github.com/rezkam/compass/internal/domain"
	"github.com/rezkam/compass/internal/ptr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completedMonthly(deadline *time.Time) *domain.Task {
	return &domain.Task{
		ID:            "task-1",
		OwnerID:       "owner-1",
		Title:         "Pay rent",
		Description:   "transfer",
		Category:      "finance",
		Tags:          []string{"home"},
		Urgency:       domain.LevelHigh,
		Importance:    domain.LevelCritical,
		Status:        domain.TaskStatusCompleted,
		Deadline:      deadline,
		EstimatedTime: 15,
		ActualTime:    20,
		Subtasks:      []domain.Subtask{{Title: "log in", Completed: true}, {Title: "confirm", Completed: true}},
		Dependencies:  []domain.Dependency{{TaskID: "other", Type: domain.DependencyBlocks}},
		Recurring:     domain.Recurrence{IsRecurring: true, Frequency: domain.FrequencyMonthly},
		Link:          domain.GoalLink{GoalID: "goal-1", Milestone: ptr.To(1)},
		CompletedAt:   ptr.To(time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)),
		Version:       4,
	}
}

func TestNextInstance_ComputedFromOriginalDeadline(t *testing.T) {
	deadline := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC) // five days late

	next, err := NextInstance(completedMonthly(&deadline), now)

	require.NoError(t, err)
	require.NotNil(t, next.Deadline)
	assert.Equal(t, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), *next.Deadline)
	assert.Equal(t, *next.Deadline, *next.Recurring.NextDue)
}

func TestNextInstance_CarriesAndResetsFields(t *testing.T) {
	deadline := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)
	src := completedMonthly(&deadline)

	next, err := NextInstance(src, now)
	require.NoError(t, err)

	assert.NotEmpty(t, next.ID)
	assert.NotEqual(t, src.ID, next.ID)
	assert.Equal(t, src.OwnerID, next.OwnerID)
	assert.Equal(t, src.Title, next.Title)
	assert.Equal(t, src.Category, next.Category)
	assert.Equal(t, src.EstimatedTime, next.EstimatedTime)
	assert.Equal(t, src.Link, next.Link)
	assert.Equal(t, src.Tags, next.Tags)
	assert.Equal(t, domain.TaskStatusNotStarted, next.Status)
	assert.Zero(t, next.ActualTime)
	assert.Nil(t, next.CompletedAt)
	assert.Empty(t, next.Dependencies)
	assert.Equal(t, []domain.Subtask{{Title: "log in"}, {Title: "confirm"}}, next.Subtasks)
	assert.True(t, next.Recurring.IsRecurring)
	assert.Equal(t, domain.FrequencyMonthly, next.Recurring.Frequency)
	require.NotNil(t, next.RecurrenceParentID)
	assert.Equal(t, src.ID, *next.RecurrenceParentID)
	assert.Equal(t, now, next.CreatedAt)
	assert.Equal(t, 1, next.Version)
}

func TestNextInstance_DoesNotMutateSource(t *testing.T) {
	deadline := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	src := completedMonthly(&deadline)

	next, err := NextInstance(src, deadline)
	require.NoError(t, err)

	next.Tags[0] = "changed"
	*next.Link.(domain.GoalLink).Milestone = 9

	assert.Equal(t, "home", src.Tags[0])
	assert.Equal(t, 1, *src.Link.(domain.GoalLink).Milestone)
	assert.Equal(t, domain.TaskStatusCompleted, src.Status)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), *src.Deadline)
}

func TestNextInstance_BaseFallbacks(t *testing.T) {
	now := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)

	t.Run("next due when no deadline", func(t *testing.T) {
		src := completedMonthly(nil)
		src.Recurring.Frequency = domain.FrequencyWeekly
		src.Recurring.NextDue = ptr.To(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))

		next, err := NextInstance(src, now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 5, 8, 8, 0, 0, 0, time.UTC), *next.Deadline)
	})

	t.Run("now when nothing scheduled", func(t *testing.T) {
		src := completedMonthly(nil)
		src.Recurring.Frequency = domain.FrequencyDaily

		next, err := NextInstance(src, now)
		require.NoError(t, err)
		assert.Equal(t, now.AddDate(0, 0, 1), *next.Deadline)
	})
}

func TestNextInstance_Errors(t *testing.T) {
	src := completedMonthly(nil)
	src.Recurring.IsRecurring = false

	_, err := NextInstance(src, time.Now())
	assert.ErrorIs(t, err, domain.ErrNotRecurring)

	src = completedMonthly(nil)
	src.Recurring.Frequency = ""
	_, err = NextInstance(src, time.Now())
	assert.ErrorIs(t, err, domain.ErrFrequencyRequired)
}

func TestNextInstance_NotDeduplicated(t *testing.T) {
	deadline := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	src := completedMonthly(&deadline)

	a, err := NextInstance(src, deadline)
	require.NoError(t, err)
	b, err := NextInstance(src, deadline)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, *a.Deadline, *b.Deadline)
}
