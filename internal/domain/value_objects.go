package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Title is a validated title value object (1-255 characters).
type Title struct {
	value string
}

// NewTitle creates a new Title, validating the input.
func NewTitle(s string) (Title, error) {
	s = strings.TrimSpace(s)

	if s == "" {
		return Title{}, ErrTitleRequired
	}

	if len(s) > 255 {
		return Title{}, ErrTitleTooLong
	}

	return Title{value: s}, nil
}

// String returns the title value.
func (t Title) String() string {
	return t.value
}

func parseEnum[T ~string](field, s string, valid ...T) (T, error) {
	v := T(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(valid, v) {
		return v, nil
	}
	return "", fmt.Errorf("%w: %s %q", ErrInvalidEnum, field, s)
}

// ParseLevel validates an urgency, importance or priority level.
// An empty string yields LevelMedium.
func ParseLevel(s string) (Level, error) {
	if strings.TrimSpace(s) == "" {
		return LevelMedium, nil
	}
	return parseEnum("level", s, LevelLow, LevelMedium, LevelHigh, LevelCritical)
}

// ParseTaskStatus validates a task status.
func ParseTaskStatus(s string) (TaskStatus, error) {
	return parseEnum("task status", s, TaskStatusNotStarted, TaskStatusInProgress, TaskStatusCompleted)
}

// ParseDependencyType validates a dependency type.
func ParseDependencyType(s string) (DependencyType, error) {
	return parseEnum("dependency type", s, DependencyBlocks, DependencyEnables, DependencySupports)
}

// ParseFrequency validates a recurrence frequency.
func ParseFrequency(s string) (Frequency, error) {
	return parseEnum("frequency", s,
		FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly)
}

// ParseProjectStatus validates a project status.
func ParseProjectStatus(s string) (ProjectStatus, error) {
	return parseEnum("project status", s, ProjectStatusNotStarted, ProjectStatusActive, ProjectStatusCompleted)
}

// ParseProjectRole validates a linked project role.
func ParseProjectRole(s string) (ProjectRole, error) {
	return parseEnum("project role", s,
		ProjectRolePrimary, ProjectRoleSupporting, ProjectRoleRelated, ProjectRoleDependency)
}

// ParseBusinessPhase validates a business phase.
func ParseBusinessPhase(s string) (BusinessPhase, error) {
	return parseEnum("business phase", s, AllPhases()...)
}

// ValidateMinutes rejects negative time tracking values.
func ValidateMinutes(m int) error {
	if m < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDuration, m)
	}
	return nil
}

// ValidateCompletion checks a project completion percentage.
func ValidateCompletion(pct float64) error {
	if pct < 0 || pct > 100 {
		return fmt.Errorf("%w: %v", ErrInvalidCompletion, pct)
	}
	return nil
}
