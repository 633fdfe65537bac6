// Package recurring generates the next instance of a completed recurring task.
//
// The engine is pure: it never reads the wall clock and never deduplicates.
// Calling NextInstance twice for one completion yields two instances; callers
// that can see retried completions must guard against that themselves.
package recurring

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rezkam/compass/internal/domain"
	"github.com/rezkam/compass/internal/ptr"
)

// NextDue returns the schedule of the instance following task.
//
// The period is added to the task's original deadline, falling back to its
// NextDue and finally to now, so late completions do not drift the schedule.
func NextDue(task *domain.Task, now time.Time) (time.Time, error) {
	if !task.Recurring.IsRecurring {
		return time.Time{}, domain.ErrNotRecurring
	}

	calc, err := GetCalculator(task.Recurring.Frequency)
	if err != nil {
		return time.Time{}, err
	}

	base := now
	switch {
	case task.Deadline != nil:
		base = *task.Deadline
	case task.Recurring.NextDue != nil:
		base = *task.Recurring.NextDue
	}

	return calc.NextOccurrence(base), nil
}

// NextInstance builds the task that follows a completed recurring task.
// The completed task is not modified.
func NextInstance(task *domain.Task, now time.Time) (*domain.Task, error) {
	next, err := NextDue(task, now)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate task ID: %w", err)
	}

	subtasks := make([]domain.Subtask, len(task.Subtasks))
	for i, st := range task.Subtasks {
		subtasks[i] = domain.Subtask{Title: st.Title}
	}

	parentID := task.ID
	instance := &domain.Task{
		ID:            id.String(),
		OwnerID:       task.OwnerID,
		Title:         task.Title,
		Description:   task.Description,
		Category:      task.Category,
		Tags:          slices.Clone(task.Tags),
		Urgency:       task.Urgency,
		Importance:    task.Importance,
		Status:        domain.TaskStatusNotStarted,
		Deadline:      &next,
		EstimatedTime: task.EstimatedTime,
		Subtasks:      subtasks,
		Recurring: domain.Recurrence{
			IsRecurring: true,
			Frequency:   task.Recurring.Frequency,
			NextDue:     ptr.To(next),
		},
		Link:               cloneLink(task.Link),
		RecurrenceParentID: &parentID,
		CreatedAt:          now,
		UpdatedAt:          now,
		Version:            1,
	}

	return instance, nil
}

func cloneLink(l domain.Link) domain.Link {
	switch v := l.(type) {
	case domain.ProjectLink:
		v.Milestone = ptr.Clone(v.Milestone)
		return v
	case domain.GoalLink:
		v.Milestone = ptr.Clone(v.Milestone)
		return v
	default:
		return l
	}
}
