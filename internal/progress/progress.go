// Package progress derives goal progress and lifecycle status from linked tasks and projects.
//
// Progress is always recomputed from the current linked items. Manually recorded
// progress entries are informational and never feed the calculation.
package progress

import (
	"math"
	"time"

	"github.com/rezkam/compass/internal/domain"
)

const (
	// AtRiskWindow is how close to its target date an unfinished goal becomes at risk.
	AtRiskWindow = 7 * 24 * time.Hour

	// AtRiskThreshold is the progress below which a goal inside AtRiskWindow is at risk.
	AtRiskThreshold = 80
)

// Snapshot is the derived state of a goal at a point in time.
type Snapshot struct {
	Progress int
	Status   domain.GoalStatus

	TotalTasks        int
	CompletedTasks    int
	TotalProjects     int
	CompletedProjects int
	ActiveProjects    int

	CompletedUnits float64
	TotalUnits     int
}

// Progress returns the goal completion percentage (0-100) contributed by tasks and projects.
//
// Completed tasks and projects count as one unit each; active projects count as their
// completion percentage. Archived tasks are ignored. Nothing linked yields 0.
func Progress(tasks []domain.Task, projects []domain.Project) int {
	return tally(tasks, projects).Progress
}

func tally(tasks []domain.Task, projects []domain.Project) Snapshot {
	var s Snapshot

	for i := range tasks {
		if tasks[i].IsArchived() {
			continue
		}
		s.TotalTasks++
		if tasks[i].IsCompleted() {
			s.CompletedTasks++
		}
	}

	var partial float64
	for _, p := range projects {
		s.TotalProjects++
		switch p.Status {
		case domain.ProjectStatusCompleted:
			s.CompletedProjects++
		case domain.ProjectStatusActive:
			s.ActiveProjects++
			partial += clamp(p.CompletionPercentage, 0, 100) / 100
		}
	}

	s.TotalUnits = s.TotalTasks + s.TotalProjects
	s.CompletedUnits = float64(s.CompletedTasks+s.CompletedProjects) + partial
	if s.TotalUnits == 0 {
		return s
	}

	// math.Round rounds half away from zero: 62.5 -> 63.
	pct := math.Round(100 * s.CompletedUnits / float64(s.TotalUnits))
	s.Progress = int(clamp(pct, 0, 100))
	return s
}

// Status derives the goal status. The rule order is fixed: a goal reaching 100%
// after its target date is achieved, not overdue.
func Status(goal *domain.Goal, progress int, now time.Time) domain.GoalStatus {
	switch {
	case progress >= 100:
		return domain.GoalStatusAchieved
	case goal.TargetDate != nil && goal.TargetDate.Before(now):
		return domain.GoalStatusOverdue
	case goal.TargetDate != nil && goal.TargetDate.Sub(now) <= AtRiskWindow && progress < AtRiskThreshold:
		return domain.GoalStatusAtRisk
	case progress > 0:
		return domain.GoalStatusInProgress
	default:
		return domain.GoalStatusNotStarted
	}
}

// Evaluate computes progress, status and unit counts for a goal.
func Evaluate(goal *domain.Goal, tasks []domain.Task, projects []domain.Project, now time.Time) Snapshot {
	s := tally(tasks, projects)
	s.Status = Status(goal, s.Progress, now)
	return s
}

// ApplyCache writes the derived status into the goal's cached fields.
// AchievedAt is set on the first achievement and cleared once the goal is no longer achieved.
// It reports whether the goal changed and needs saving.
func ApplyCache(goal *domain.Goal, s Snapshot, now time.Time) bool {
	changed := false

	if goal.Status != s.Status {
		goal.Status = s.Status
		changed = true
	}

	achieved := s.Status == domain.GoalStatusAchieved
	switch {
	case achieved && goal.AchievedAt == nil:
		at := now
		goal.AchievedAt = &at
		changed = true
	case !achieved && goal.AchievedAt != nil:
		goal.AchievedAt = nil
		changed = true
	}

	return changed
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
