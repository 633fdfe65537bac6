package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validTask() Task {
	return Task{
		Title:      "Ship it",
		Urgency:    LevelHigh,
		Importance: LevelMedium,
		Status:     TaskStatusNotStarted,
	}
}

func TestTask_Validate(t *testing.T) {
	task := validTask()
	assert.NoError(t, task.Validate())

	task.Recurring = Recurrence{IsRecurring: true}
	assert.ErrorIs(t, task.Validate(), ErrFrequencyRequired)

	task.Recurring.Frequency = "fortnightly"
	assert.ErrorIs(t, task.Validate(), ErrInvalidEnum)

	task.Recurring.Frequency = FrequencyWeekly
	assert.NoError(t, task.Validate())
}

func TestTask_Validate_Fields(t *testing.T) {
	task := validTask()
	task.Title = ""
	assert.ErrorIs(t, task.Validate(), ErrTitleRequired)

	task = validTask()
	task.Urgency = "asap"
	assert.ErrorIs(t, task.Validate(), ErrInvalidEnum)

	task = validTask()
	task.EstimatedTime = -5
	assert.ErrorIs(t, task.Validate(), ErrInvalidDuration)

	task = validTask()
	task.Status = "done"
	assert.ErrorIs(t, task.Validate(), ErrInvalidEnum)
}

func TestTask_Validate_NormalizesEnums(t *testing.T) {
	task := validTask()
	task.Status = " Completed "
	task.Urgency = "HIGH"
	task.Importance = "Low"
	task.Recurring = Recurrence{IsRecurring: true, Frequency: "Monthly"}

	assert.NoError(t, task.Validate())
	assert.Equal(t, TaskStatusCompleted, task.Status)
	assert.Equal(t, LevelHigh, task.Urgency)
	assert.Equal(t, LevelLow, task.Importance)
	assert.Equal(t, FrequencyMonthly, task.Recurring.Frequency)

	task.Importance = ""
	assert.ErrorIs(t, task.Validate(), ErrInvalidEnum)
}

func TestEtag(t *testing.T) {
	task := Task{Version: 3}
	goal := Goal{Version: 1}
	project := Project{Version: 12}

	assert.Equal(t, "3", task.Etag())
	assert.Equal(t, "1", goal.Etag())
	assert.Equal(t, "12", project.Etag())
}
