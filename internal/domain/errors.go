package domain

import "errors"

// Domain errors returned by the engine, the application service and repository implementations.

var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrTaskNotFound indicates the specified task does not exist or is owned by someone else.
	ErrTaskNotFound = errors.New("task not found")

	// ErrGoalNotFound indicates the specified goal does not exist or is owned by someone else.
	ErrGoalNotFound = errors.New("goal not found")

	// ErrProjectNotFound indicates the specified project does not exist or is owned by someone else.
	ErrProjectNotFound = errors.New("project not found")

	// ErrInvalidID indicates the provided ID format is invalid.
	ErrInvalidID = errors.New("invalid ID format")

	// ErrUnauthorized indicates a missing or invalid caller identity.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrVersionConflict indicates the entity was modified since the caller read it.
	ErrVersionConflict = errors.New("version conflict")
)

// Validation errors.
var (
	ErrTitleRequired         = errors.New("title is required")
	ErrTitleTooLong          = errors.New("title must be 255 characters or less")
	ErrInvalidEnum           = errors.New("invalid enum value")
	ErrFrequencyRequired     = errors.New("recurring task requires a frequency")
	ErrInvalidLink           = errors.New("invalid link target")
	ErrInvalidDependency     = errors.New("invalid dependency")
	ErrInvalidCompletion     = errors.New("completion percentage must be between 0 and 100")
	ErrInvalidMilestoneIndex = errors.New("milestone index out of range")
	ErrInvalidSubtaskIndex   = errors.New("subtask index out of range")
	ErrInvalidDuration       = errors.New("time in minutes must not be negative")
	ErrEmptyUpdateMask       = errors.New("update mask must not be empty")
	ErrUnknownField          = errors.New("unknown field in update mask")
	ErrInvalidEtagFormat     = errors.New("etag must be a positive integer")
)

// Engine and workflow errors.
var (
	// ErrNotRecurring is returned when a next instance is requested for a non-recurring task.
	ErrNotRecurring = errors.New("task is not recurring")

	// ErrTaskBlocked is returned when a task with incomplete blocking dependencies is started.
	ErrTaskBlocked = errors.New("task is blocked by incomplete dependencies")

	// ErrTaskHasDependents is returned when a permanent delete targets a task other tasks depend on.
	ErrTaskHasDependents = errors.New("other tasks depend on this task")
)
