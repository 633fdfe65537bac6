package domain

import (
	"fmt"
	"slices"
	"strconv"
	"time"
)

// TaskFilter contains parameters for listing tasks with filtering, sorting, and pagination.
//
// Common use cases:
//   - "What should I do next": OrderBy="priority", Status=not_started
//   - "Everything for goal X": GoalID=X
//   - Paginated search: Limit=50, Offset=100 for page 3
type TaskFilter struct {
	// Optional filters (nil = no filter applied)
	Status    *TaskStatus
	GoalID    *string
	ProjectID *string
	Category  *string
	Tag       *string // Task must carry this tag

	IncludeArchived bool

	// Sorting (empty uses created_at desc)
	OrderBy string // Supported: "priority", "deadline", "created_at"

	Limit  int
	Offset int
}

// Sort orders supported by TaskFilter.OrderBy.
const (
	OrderByPriority  = "priority"
	OrderByDeadline  = "deadline"
	OrderByCreatedAt = "created_at"
)

// PagedTasks contains tasks matching a TaskFilter.
type PagedTasks struct {
	Items      []Task
	TotalCount int  // Total matching tasks across all pages
	HasMore    bool // Whether there are more pages
}

// UpdateTaskParams contains parameters for updating a task with field mask support.
// Status changes go through the dedicated status workflow, not through this mask.
type UpdateTaskParams struct {
	TaskID string

	// Etag for optimistic concurrency control. Nil skips the check.
	Etag *string

	// UpdateMask specifies which fields to update.
	UpdateMask []string

	Title         *string
	Description   *string
	Category      *string
	Tags          *[]string
	Urgency       *Level
	Importance    *Level
	Deadline      *time.Time // nil with "deadline" in mask clears it
	EstimatedTime *int
	ActualTime    *int
	Subtasks      *[]Subtask
	Recurring     *Recurrence
	Link          Link // nil with "link" in mask unlinks the task
}

var updateTaskValidFields = map[string]struct{}{
	"title":          {},
	"description":    {},
	"category":       {},
	"tags":           {},
	"urgency":        {},
	"importance":     {},
	"deadline":       {},
	"estimated_time": {},
	"actual_time":    {},
	"subtasks":       {},
	"recurring":      {},
	"link":           {},
}

// Validate checks that UpdateMask contains only known fields and that
// required fields have non-nil values when included in the mask.
func (p UpdateTaskParams) Validate() error {
	mask, err := maskSet(p.UpdateMask, updateTaskValidFields)
	if err != nil {
		return err
	}

	if mask["title"] && p.Title == nil {
		return ErrTitleRequired
	}
	if mask["urgency"] && p.Urgency == nil {
		return fmt.Errorf("%w: urgency is required", ErrInvalidEnum)
	}
	if mask["importance"] && p.Importance == nil {
		return fmt.Errorf("%w: importance is required", ErrInvalidEnum)
	}
	if mask["recurring"] && p.Recurring == nil {
		return ErrFrequencyRequired
	}

	return nil
}

// Has reports whether field is part of the update mask.
func (p UpdateTaskParams) Has(field string) bool {
	return hasField(p.UpdateMask, field)
}

// UpdateGoalParams contains parameters for updating a goal with field mask support.
// Status is derived and never accepted from a client.
type UpdateGoalParams struct {
	GoalID     string
	Etag       *string
	UpdateMask []string

	Title        *string
	Description  *string
	Category     *string
	Priority     *Level
	TargetDate   *time.Time
	CurrentValue *float64
	TargetValue  *float64
	Unit         *string
	Milestones   *[]GoalMilestone
}

var updateGoalValidFields = map[string]struct{}{
	"title":         {},
	"description":   {},
	"category":      {},
	"priority":      {},
	"target_date":   {},
	"current_value": {},
	"target_value":  {},
	"unit":          {},
	"milestones":    {},
}

// Validate checks that UpdateMask contains only known fields and that
// required fields have non-nil values when included in the mask.
func (p UpdateGoalParams) Validate() error {
	mask, err := maskSet(p.UpdateMask, updateGoalValidFields)
	if err != nil {
		return err
	}

	if mask["title"] && p.Title == nil {
		return ErrTitleRequired
	}
	if mask["priority"] && p.Priority == nil {
		return fmt.Errorf("%w: priority is required", ErrInvalidEnum)
	}

	return nil
}

// Has reports whether field is part of the update mask.
func (p UpdateGoalParams) Has(field string) bool {
	return hasField(p.UpdateMask, field)
}

// UpdateProjectParams contains parameters for updating a project with field mask support.
type UpdateProjectParams struct {
	ProjectID  string
	Etag       *string
	UpdateMask []string

	Title                *string
	Description          *string
	Status               *ProjectStatus
	CompletionPercentage *float64
	Milestones           *[]ProjectMilestone
	GoalID               *string // nil with "goal_id" in mask detaches the project
}

var updateProjectValidFields = map[string]struct{}{
	"title":                 {},
	"description":           {},
	"status":                {},
	"completion_percentage": {},
	"milestones":            {},
	"goal_id":               {},
}

// Validate checks that UpdateMask contains only known fields and that
// required fields have non-nil values when included in the mask.
func (p UpdateProjectParams) Validate() error {
	mask, err := maskSet(p.UpdateMask, updateProjectValidFields)
	if err != nil {
		return err
	}

	if mask["title"] && p.Title == nil {
		return ErrTitleRequired
	}
	if mask["status"] && p.Status == nil {
		return fmt.Errorf("%w: status is required", ErrInvalidEnum)
	}
	if mask["completion_percentage"] {
		if p.CompletionPercentage == nil {
			return ErrInvalidCompletion
		}
		if err := ValidateCompletion(*p.CompletionPercentage); err != nil {
			return err
		}
	}

	return nil
}

// Has reports whether field is part of the update mask.
func (p UpdateProjectParams) Has(field string) bool {
	return hasField(p.UpdateMask, field)
}

func maskSet(updateMask []string, valid map[string]struct{}) (map[string]bool, error) {
	if len(updateMask) == 0 {
		return nil, ErrEmptyUpdateMask
	}

	set := make(map[string]bool, len(updateMask))
	for _, field := range updateMask {
		if _, ok := valid[field]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
		set[field] = true
	}
	return set, nil
}

func hasField(updateMask []string, field string) bool {
	return slices.Contains(updateMask, field)
}

// ParseEtag converts an etag into the version it encodes.
// Etag format: numeric string like "1", "2", "42".
func ParseEtag(etag string) (int, error) {
	version, err := strconv.Atoi(etag)
	if err != nil || version < 1 {
		return 0, ErrInvalidEtagFormat
	}
	return version, nil
}
