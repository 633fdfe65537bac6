package domain

import (
	"fmt"
	"strings"
	"time"
)

// Task is an aggregate root representing a unit of work owned by a single user.
//
// Tasks reference goals, projects and businesses through Link (a weak reference),
// never by embedding, so deleting the target only detaches the link.
type Task struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	Category    string
	Tags        []string

	// Eisenhower inputs
	Urgency    Level
	Importance Level

	Status   TaskStatus
	Deadline *time.Time // Optional

	// Time tracking in minutes
	EstimatedTime int
	ActualTime    int

	Subtasks     []Subtask
	Dependencies []Dependency
	Recurring    Recurrence
	Link         Link // nil = unlinked

	// RecurrenceParentID points at the completed task this instance was generated from.
	RecurrenceParentID *string

	CompletedAt *time.Time
	ArchivedAt  *time.Time // Soft delete marker
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Optimistic locking version for concurrent update protection
	Version int
}

// Subtask is an ordered checklist entry of a task.
type Subtask struct {
	Title     string
	Completed bool
}

// Dependency is a typed reference from a task to another task.
type Dependency struct {
	TaskID string
	Type   DependencyType
}

// Recurrence holds the recurring configuration of a task.
type Recurrence struct {
	IsRecurring bool
	Frequency   Frequency
	NextDue     *time.Time
}

// Etag returns the entity tag for this task.
func (t *Task) Etag() string {
	return fmt.Sprintf("%d", t.Version)
}

// IsCompleted reports whether the task is completed.
func (t *Task) IsCompleted() bool {
	return t.Status == TaskStatusCompleted
}

// IsArchived reports whether the task has been soft-deleted.
func (t *Task) IsArchived() bool {
	return t.ArchivedAt != nil
}

// Validate checks the invariants every persisted task must hold. Enum fields are
// rewritten to their canonical lowercase form so stored values match the constants.
func (t *Task) Validate() error {
	if _, err := NewTitle(t.Title); err != nil {
		return err
	}

	status, err := ParseTaskStatus(string(t.Status))
	if err != nil {
		return err
	}
	urgency, err := requiredLevel("urgency", t.Urgency)
	if err != nil {
		return err
	}
	importance, err := requiredLevel("importance", t.Importance)
	if err != nil {
		return err
	}
	t.Status, t.Urgency, t.Importance = status, urgency, importance

	if err := ValidateMinutes(t.EstimatedTime); err != nil {
		return err
	}
	if err := ValidateMinutes(t.ActualTime); err != nil {
		return err
	}
	if t.Recurring.IsRecurring {
		if strings.TrimSpace(string(t.Recurring.Frequency)) == "" {
			return ErrFrequencyRequired
		}
		freq, err := ParseFrequency(string(t.Recurring.Frequency))
		if err != nil {
			return err
		}
		t.Recurring.Frequency = freq
	}
	return nil
}

// requiredLevel parses a level that must be present; unlike ParseLevel an empty
// value is an error rather than medium.
func requiredLevel(field string, l Level) (Level, error) {
	if strings.TrimSpace(string(l)) == "" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidEnum, field)
	}
	v, err := ParseLevel(string(l))
	if err != nil {
		return "", fmt.Errorf("%s: %w", field, err)
	}
	return v, nil
}

// Goal is an aggregate root representing an outcome tasks and projects contribute to.
//
// Status and AchievedAt are a best-effort cache of the derived status. Readers must
// recompute the status from the current linked tasks and projects instead of trusting them.
type Goal struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	Category    string
	Priority    Level
	TargetDate  *time.Time

	Status     GoalStatus
	AchievedAt *time.Time

	CurrentValue *float64
	TargetValue  *float64
	Unit         string

	Milestones      []GoalMilestone
	ProgressEntries []ProgressEntry // Append-only, informational

	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int
}

// GoalMilestone is an ordered checkpoint of a goal.
type GoalMilestone struct {
	Title       string
	TargetDate  *time.Time
	IsCompleted bool
}

// ProgressEntry is a manually recorded progress snapshot.
type ProgressEntry struct {
	Value      float64
	Note       string
	RecordedAt time.Time
}

// Etag returns the entity tag for this goal.
func (g *Goal) Etag() string {
	return fmt.Sprintf("%d", g.Version)
}

// Project is an aggregate root grouping milestones; it can contribute to one goal.
type Project struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	Status      ProjectStatus

	// CompletionPercentage (0-100) is used as partial credit while the project is active.
	CompletionPercentage float64

	Milestones []ProjectMilestone
	GoalID     *string // Optional weak link to a goal

	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int
}

// ProjectMilestone is an ordered roadmap step of a project.
type ProjectMilestone struct {
	Title       string
	DueDate     *time.Time
	Completed   bool
	CompletedAt *time.Time
}

// Etag returns the entity tag for this project.
func (p *Project) Etag() string {
	return fmt.Sprintf("%d", p.Version)
}

// LinkedProject is a business's reference to a project, annotated for the roadmap.
type LinkedProject struct {
	ID                   string
	OwnerID              string
	BusinessID           string
	ProjectID            string
	Role                 ProjectRole
	Priority             Level
	Phase                BusinessPhase
	TargetCompletionDate *time.Time
	Dependencies         []ProjectDependency
	CreatedAt            time.Time
}

// ProjectDependency is a typed reference from a linked project to another project.
type ProjectDependency struct {
	ProjectID string
	Type      DependencyType
}

// CompletionEvent records that a task completion was processed under an idempotency key.
// A replayed key resolves to the recorded next instance instead of generating another one.
type CompletionEvent struct {
	TaskID         string
	Key            string
	NextInstanceID *string
	CreatedAt      time.Time
}

// BusinessRef identifies a business that has at least one linked project.
// Businesses themselves are managed elsewhere; only their IDs are known here.
type BusinessRef struct {
	OwnerID    string
	BusinessID string
}
