package planner

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/rezkam/compass/internal/dependency"
	"github.com/rezkam/compass/internal/domain"
	"github.com/rezkam/compass/internal/ptr"
	"github.com/rezkam/compass/internal/recurring"
)

// StatusChange is the outcome of a task status transition.
type StatusChange struct {
	Task *domain.Task

	// NextInstance is the generated follow-up of a completed recurring task.
	NextInstance *domain.Task

	// Replayed is true when the request was a repeat of an already processed completion.
	Replayed bool
}

// BlockingReport describes what keeps a task from starting and what waits on it.
type BlockingReport struct {
	CanStart   bool
	BlockedBy  []domain.Dependency
	Dependents []domain.Task
}

// SubtaskPatch updates one subtask; nil fields are left unchanged.
type SubtaskPatch struct {
	Title     *string
	Completed *bool
}

// CreateTask validates and persists a new task for ownerID.
func (s *Service) CreateTask(ctx context.Context, ownerID string, task *domain.Task) (*domain.Task, error) {
	title, err := domain.NewTitle(task.Title)
	if err != nil {
		return nil, err
	}
	task.Title = title.String()

	if task.Status == "" {
		task.Status = domain.TaskStatusNotStarted
	}
	if task.Urgency == "" {
		task.Urgency = domain.LevelMedium
	}
	if task.Importance == "" {
		task.Importance = domain.LevelMedium
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}
	task.ID = id
	task.OwnerID = ownerID
	task.Version = 0
	task.ArchivedAt = nil
	task.RecurrenceParentID = nil

	now := s.now()
	task.CreatedAt = now
	task.UpdatedAt = now
	task.CompletedAt = nil

	normalizeTaskTimes(task)
	if task.Recurring.IsRecurring && task.Recurring.NextDue == nil {
		task.Recurring.NextDue = ptr.Clone(task.Deadline)
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}
	if err := dependency.Validate(task); err != nil {
		return nil, err
	}
	if task.Status == domain.TaskStatusCompleted {
		task.CompletedAt = ptr.To(now)
	}

	var created *domain.Task
	err = s.repo.Atomic(ctx, func(repo Repository) error {
		if err := validateLink(ctx, repo, ownerID, task.Link); err != nil {
			return err
		}
		deps, err := loadDependencyTargets(ctx, repo, ownerID, task)
		if err != nil {
			return err
		}
		if task.Status == domain.TaskStatusInProgress && !dependency.CanStart(task, deps) {
			return domain.ErrTaskBlocked
		}

		created, err = repo.CreateTask(ctx, task)
		if err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}

		_, err = s.refreshGoalCache(ctx, repo, linkedGoalOf(created.Link))
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetTask returns one of ownerID's tasks.
func (s *Service) GetTask(ctx context.Context, ownerID, id string) (*domain.Task, error) {
	return ownedTask(ctx, s.repo, ownerID, id)
}

// ListTasks searches ownerID's tasks, applying pagination limits.
func (s *Service) ListTasks(ctx context.Context, ownerID string, filter domain.TaskFilter) (*domain.PagedTasks, error) {
	switch filter.OrderBy {
	case "", domain.OrderByPriority, domain.OrderByDeadline, domain.OrderByCreatedAt:
	default:
		return nil, fmt.Errorf("%w: order_by %q", domain.ErrInvalidEnum, filter.OrderBy)
	}

	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.Limit <= 0 {
		filter.Limit = s.config.DefaultPageSize
	}
	filter.Limit = min(filter.Limit, s.config.MaxPageSize)

	result, err := s.repo.FindTasks(ctx, ownerID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return result, nil
}

// UpdateTask applies a field-mask update to one of ownerID's tasks.
func (s *Service) UpdateTask(ctx context.Context, ownerID string, params domain.UpdateTaskParams) (*domain.Task, error) {
	if params.Etag != nil {
		if _, err := domain.ParseEtag(*params.Etag); err != nil {
			return nil, err
		}
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	var updated *domain.Task
	err := s.repo.Atomic(ctx, func(repo Repository) error {
		task, err := ownedTask(ctx, repo, ownerID, params.TaskID)
		if err != nil {
			return err
		}
		if err := checkEtag(params.Etag, task.Version); err != nil {
			return err
		}

		previousGoal := linkedGoalOf(task.Link)
		if err := applyTaskMask(task, params); err != nil {
			return err
		}
		normalizeTaskTimes(task)
		if err := task.Validate(); err != nil {
			return err
		}
		if params.Has("link") {
			if err := validateLink(ctx, repo, ownerID, task.Link); err != nil {
				return err
			}
		}
		task.UpdatedAt = s.now()

		updated, err = repo.UpdateTask(ctx, task)
		if err != nil {
			return err
		}

		return s.refreshGoals(ctx, repo, previousGoal, linkedGoalOf(updated.Link))
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func applyTaskMask(task *domain.Task, p domain.UpdateTaskParams) error {
	for _, field := range p.UpdateMask {
		switch field {
		case "title":
			title, err := domain.NewTitle(*p.Title)
			if err != nil {
				return err
			}
			task.Title = title.String()
		case "description":
			task.Description = ptr.Deref(p.Description, "")
		case "category":
			task.Category = ptr.Deref(p.Category, "")
		case "tags":
			task.Tags = slices.Clone(ptr.Deref(p.Tags, nil))
		case "urgency":
			task.Urgency = *p.Urgency
		case "importance":
			task.Importance = *p.Importance
		case "deadline":
			task.Deadline = ptr.Clone(p.Deadline)
		case "estimated_time":
			task.EstimatedTime = ptr.Deref(p.EstimatedTime, 0)
		case "actual_time":
			task.ActualTime = ptr.Deref(p.ActualTime, 0)
		case "subtasks":
			task.Subtasks = slices.Clone(ptr.Deref(p.Subtasks, nil))
		case "recurring":
			task.Recurring = *p.Recurring
			if task.Recurring.IsRecurring && task.Recurring.NextDue == nil {
				task.Recurring.NextDue = ptr.Clone(task.Deadline)
			}
		case "link":
			task.Link = p.Link
		}
	}
	return nil
}

// SetTaskStatus moves a task to a new status.
//
// Starting a task requires every blocking dependency to be completed. Completing a
// recurring task generates its next instance exactly once: completing an already
// completed task is a no-op, and a completion replayed with the same idempotency key
// returns the instance recorded for it. An empty key defaults to the task's current version.
// Archived tasks are reported as not found.
func (s *Service) SetTaskStatus(ctx context.Context, ownerID, taskID, status, idempotencyKey string) (*StatusChange, error) {
	target, err := domain.ParseTaskStatus(status)
	if err != nil {
		return nil, err
	}

	var result *StatusChange
	err = s.repo.Atomic(ctx, func(repo Repository) error {
		task, err := ownedTask(ctx, repo, ownerID, taskID)
		if err != nil {
			return err
		}
		if task.IsArchived() {
			return domain.ErrTaskNotFound
		}

		if target == domain.TaskStatusCompleted {
			result, err = s.completeTask(ctx, repo, task, idempotencyKey)
			return err
		}

		if task.Status == target {
			result = &StatusChange{Task: task}
			return nil
		}

		if target == domain.TaskStatusInProgress {
			deps, err := repo.FindTasksByIDs(ctx, dependency.TargetIDs(task))
			if err != nil {
				return err
			}
			if !dependency.CanStart(task, deps) {
				return domain.ErrTaskBlocked
			}
		}

		wasCompleted := task.IsCompleted()
		task.Status = target
		task.CompletedAt = nil
		task.UpdatedAt = s.now()

		updated, err := repo.UpdateTask(ctx, task)
		if err != nil {
			return err
		}
		result = &StatusChange{Task: updated}

		if wasCompleted {
			_, err = s.refreshGoalCache(ctx, repo, linkedGoalOf(updated.Link))
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) completeTask(ctx context.Context, repo Repository, task *domain.Task, key string) (*StatusChange, error) {
	if key == "" {
		key = "v" + strconv.Itoa(task.Version)
	}

	event, err := repo.FindCompletionEvent(ctx, task.ID, key)
	switch {
	case err == nil:
		change := &StatusChange{Task: task, Replayed: true}
		if event.NextInstanceID != nil {
			next, err := repo.FindTaskByID(ctx, *event.NextInstanceID)
			if err != nil && !errors.Is(err, domain.ErrTaskNotFound) {
				return nil, err
			}
			change.NextInstance = next
		}
		return change, nil
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	if task.IsCompleted() {
		return &StatusChange{Task: task, Replayed: true}, nil
	}

	now := s.now()
	task.Status = domain.TaskStatusCompleted
	task.CompletedAt = ptr.To(now)
	task.UpdatedAt = now

	updated, err := repo.UpdateTask(ctx, task)
	if err != nil {
		return nil, err
	}
	change := &StatusChange{Task: updated}

	if updated.Recurring.IsRecurring {
		next, err := recurring.NextInstance(updated, now)
		if err != nil {
			return nil, err
		}
		created, err := repo.CreateTask(ctx, next)
		if err != nil {
			return nil, fmt.Errorf("failed to create next instance: %w", err)
		}
		change.NextInstance = created
	}

	event = &domain.CompletionEvent{TaskID: updated.ID, Key: key, CreatedAt: now}
	if change.NextInstance != nil {
		event.NextInstanceID = ptr.To(change.NextInstance.ID)
	}
	if err := repo.CreateCompletionEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to record completion: %w", err)
	}

	if _, err := s.refreshGoalCache(ctx, repo, linkedGoalOf(updated.Link)); err != nil {
		return nil, err
	}
	return change, nil
}

// Blocking reports whether a task can start, what blocks it and which tasks depend on it.
func (s *Service) Blocking(ctx context.Context, ownerID, taskID string) (*BlockingReport, error) {
	task, err := ownedTask(ctx, s.repo, ownerID, taskID)
	if err != nil {
		return nil, err
	}

	deps, err := s.repo.FindTasksByIDs(ctx, dependency.TargetIDs(task))
	if err != nil {
		return nil, fmt.Errorf("failed to load dependencies: %w", err)
	}
	dependents, err := s.repo.FindTasksWhereDependsOn(ctx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load dependents: %w", err)
	}

	blockedBy := dependency.BlockedBy(task, deps)
	return &BlockingReport{
		CanStart:   len(blockedBy) == 0,
		BlockedBy:  blockedBy,
		Dependents: ownedBy(dependents, ownerID),
	}, nil
}

// AddDependency makes taskID depend on another of ownerID's tasks.
func (s *Service) AddDependency(ctx context.Context, ownerID, taskID string, dep domain.Dependency) (*domain.Task, error) {
	var updated *domain.Task
	err := s.repo.Atomic(ctx, func(repo Repository) error {
		task, err := ownedTask(ctx, repo, ownerID, taskID)
		if err != nil {
			return err
		}

		task.Dependencies = append(task.Dependencies, dep)
		if err := dependency.Validate(task); err != nil {
			return err
		}
		if _, err := loadDependencyTargets(ctx, repo, ownerID, task); err != nil {
			return err
		}
		task.UpdatedAt = s.now()

		updated, err = repo.UpdateTask(ctx, task)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RemoveDependency drops every dependency of taskID on targetID.
// Returns domain.ErrNotFound if taskID does not depend on targetID.
func (s *Service) RemoveDependency(ctx context.Context, ownerID, taskID, targetID string) (*domain.Task, error) {
	var updated *domain.Task
	err := s.repo.Atomic(ctx, func(repo Repository) error {
		task, err := ownedTask(ctx, repo, ownerID, taskID)
		if err != nil {
			return err
		}

		before := len(task.Dependencies)
		task.Dependencies = slices.DeleteFunc(task.Dependencies, func(d domain.Dependency) bool {
			return d.TaskID == targetID
		})
		if len(task.Dependencies) == before {
			return fmt.Errorf("%w: task does not depend on %s", domain.ErrNotFound, targetID)
		}
		task.UpdatedAt = s.now()

		updated, err = repo.UpdateTask(ctx, task)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateSubtask edits the subtask at index.
func (s *Service) UpdateSubtask(ctx context.Context, ownerID, taskID string, index int, patch SubtaskPatch) (*domain.Task, error) {
	var updated *domain.Task
	err := s.repo.Atomic(ctx, func(repo Repository) error {
		task, err := ownedTask(ctx, repo, ownerID, taskID)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(task.Subtasks) {
			return fmt.Errorf("%w: %d", domain.ErrInvalidSubtaskIndex, index)
		}

		if patch.Title != nil {
			title, err := domain.NewTitle(*patch.Title)
			if err != nil {
				return err
			}
			task.Subtasks[index].Title = title.String()
		}
		if patch.Completed != nil {
			task.Subtasks[index].Completed = *patch.Completed
		}
		task.UpdatedAt = s.now()

		updated, err = repo.UpdateTask(ctx, task)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTask archives a task, or removes it when permanent is set.
// A permanent delete is refused while other active tasks depend on the task.
func (s *Service) DeleteTask(ctx context.Context, ownerID, taskID string, permanent bool) error {
	return s.repo.Atomic(ctx, func(repo Repository) error {
		task, err := ownedTask(ctx, repo, ownerID, taskID)
		if err != nil {
			return err
		}
		goalID := linkedGoalOf(task.Link)

		if !permanent {
			if task.IsArchived() {
				return nil
			}
			now := s.now()
			task.ArchivedAt = ptr.To(now)
			task.UpdatedAt = now
			if _, err := repo.UpdateTask(ctx, task); err != nil {
				return err
			}
			_, err = s.refreshGoalCache(ctx, repo, goalID)
			return err
		}

		dependents, err := repo.FindTasksWhereDependsOn(ctx, task.ID)
		if err != nil {
			return err
		}
		for _, d := range dependents {
			if d.ID != task.ID && !d.IsArchived() {
				return fmt.Errorf("%w: %s", domain.ErrTaskHasDependents, d.ID)
			}
		}

		if err := repo.DeleteTask(ctx, task.ID); err != nil {
			return err
		}
		_, err = s.refreshGoalCache(ctx, repo, goalID)
		return err
	})
}

func (s *Service) refreshGoals(ctx context.Context, repo Repository, goalIDs ...string) error {
	seen := make(map[string]struct{}, len(goalIDs))
	for _, id := range goalIDs {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		if _, err := s.refreshGoalCache(ctx, repo, id); err != nil {
			return err
		}
	}
	return nil
}

// validateLink checks that a goal or project link points at one of ownerID's entities
// and that a milestone index is in range. Business links are not checked.
func validateLink(ctx context.Context, repo Repository, ownerID string, link domain.Link) error {
	switch l := link.(type) {
	case domain.GoalLink:
		goal, err := ownedGoal(ctx, repo, ownerID, l.GoalID)
		if err != nil {
			return err
		}
		if l.Milestone != nil && *l.Milestone >= len(goal.Milestones) {
			return fmt.Errorf("%w: goal milestone %d", domain.ErrInvalidMilestoneIndex, *l.Milestone)
		}
	case domain.ProjectLink:
		project, err := ownedProject(ctx, repo, ownerID, l.ProjectID)
		if err != nil {
			return err
		}
		if l.Milestone != nil && *l.Milestone >= len(project.Milestones) {
			return fmt.Errorf("%w: project milestone %d", domain.ErrInvalidMilestoneIndex, *l.Milestone)
		}
	}
	return nil
}

// loadDependencyTargets returns the dependency targets of task and fails with
// domain.ErrInvalidDependency if any of them is missing or owned by someone else.
func loadDependencyTargets(ctx context.Context, repo Repository, ownerID string, task *domain.Task) ([]domain.Task, error) {
	ids := dependency.TargetIDs(task)
	if len(ids) == 0 {
		return nil, nil
	}

	targets, err := repo.FindTasksByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	targets = ownedBy(targets, ownerID)

	found := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		found[t.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return nil, fmt.Errorf("%w: unknown task %s", domain.ErrInvalidDependency, id)
		}
	}
	return targets, nil
}

func ownedBy(tasks []domain.Task, ownerID string) []domain.Task {
	return slices.DeleteFunc(tasks, func(t domain.Task) bool {
		return t.OwnerID != ownerID
	})
}

func normalizeTaskTimes(task *domain.Task) {
	if task.Deadline != nil {
		task.Deadline = ptr.To(task.Deadline.UTC())
	}
	if task.Recurring.NextDue != nil {
		task.Recurring.NextDue = ptr.To(task.Recurring.NextDue.UTC())
	}
}
