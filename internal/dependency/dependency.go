// Package dependency decides whether tasks can start given their typed dependencies.
//
// The check is local: only "blocks" dependencies matter, and cycles are not detected.
// Tasks in a blocking cycle stay non-startable until the cycle is broken.
package dependency

import (
	"fmt"

	"github.com/rezkam/compass/internal/domain"
)

// Blocking reports whether a dependency of this type prevents the task from starting.
func Blocking(t domain.DependencyType) bool {
	return t == domain.DependencyBlocks
}

// CanStart reports whether task has no incomplete blocking dependency.
//
// A blocking target missing from dependencyTasks counts as incomplete.
func CanStart(task *domain.Task, dependencyTasks []domain.Task) bool {
	return len(BlockedBy(task, dependencyTasks)) == 0
}

// BlockedBy returns the blocking dependencies of task whose target is not completed,
// in declaration order.
func BlockedBy(task *domain.Task, allTasks []domain.Task) []domain.Dependency {
	status := make(map[string]domain.TaskStatus, len(allTasks))
	for _, t := range allTasks {
		status[t.ID] = t.Status
	}

	var blocked []domain.Dependency
	for _, dep := range task.Dependencies {
		if !Blocking(dep.Type) {
			continue
		}
		if s, ok := status[dep.TaskID]; ok && s == domain.TaskStatusCompleted {
			continue
		}
		blocked = append(blocked, dep)
	}
	return blocked
}

// Dependents returns the tasks that list taskID as a dependency of any type.
func Dependents(taskID string, tasks []domain.Task) []domain.Task {
	var out []domain.Task
	for _, t := range tasks {
		for _, dep := range t.Dependencies {
			if dep.TaskID == taskID {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// TargetIDs returns the distinct dependency targets of task in declaration order.
func TargetIDs(task *domain.Task) []string {
	seen := make(map[string]struct{}, len(task.Dependencies))
	ids := make([]string, 0, len(task.Dependencies))
	for _, dep := range task.Dependencies {
		if _, ok := seen[dep.TaskID]; ok {
			continue
		}
		seen[dep.TaskID] = struct{}{}
		ids = append(ids, dep.TaskID)
	}
	return ids
}

// Validate rejects self-dependencies, duplicate targets and unknown types.
func Validate(task *domain.Task) error {
	seen := make(map[string]struct{}, len(task.Dependencies))
	for i, dep := range task.Dependencies {
		if dep.TaskID == "" {
			return fmt.Errorf("%w: empty target", domain.ErrInvalidDependency)
		}
		if dep.TaskID == task.ID {
			return fmt.Errorf("%w: task cannot depend on itself", domain.ErrInvalidDependency)
		}
		typ, err := domain.ParseDependencyType(string(dep.Type))
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrInvalidDependency, err)
		}
		task.Dependencies[i].Type = typ
		if _, ok := seen[dep.TaskID]; ok {
			return fmt.Errorf("%w: duplicate target %s", domain.ErrInvalidDependency, dep.TaskID)
		}
		seen[dep.TaskID] = struct{}{}
	}
	return nil
}
