package planner

import (
	"context"

	"github.com/rezkam/compass/internal/domain"
)

// Repository defines storage operations for tasks, goals, projects and roadmaps.
// All create/update operations return the entity as persisted, including version.
//
// Lookups by ID are not owner-scoped; the service enforces ownership and reports
// foreign entities as not found.
type Repository interface {
	// === Task Operations ===

	// CreateTask persists a new task with version 1.
	CreateTask(ctx context.Context, task *domain.Task) (*domain.Task, error)

	// FindTaskByID returns domain.ErrTaskNotFound if the task doesn't exist.
	FindTaskByID(ctx context.Context, id string) (*domain.Task, error)

	// FindTasksByIDs returns the tasks that exist among ids, in no particular order.
	FindTasksByIDs(ctx context.Context, ids []string) ([]domain.Task, error)

	// FindTasks searches an owner's tasks with filtering, sorting, and pagination.
	FindTasks(ctx context.Context, ownerID string, filter domain.TaskFilter) (*domain.PagedTasks, error)

	// FindTasksByGoal returns every task linked to the goal, archived ones included.
	FindTasksByGoal(ctx context.Context, goalID string) ([]domain.Task, error)

	// FindTasksByProject returns every task linked to the project, archived ones included.
	FindTasksByProject(ctx context.Context, projectID string) ([]domain.Task, error)

	// FindTasksWhereDependsOn returns tasks listing taskID among their dependencies.
	FindTasksWhereDependsOn(ctx context.Context, taskID string) ([]domain.Task, error)

	// UpdateTask saves the task if its stored version still equals task.Version.
	// Returns the task with the incremented version.
	// Returns domain.ErrTaskNotFound if the task doesn't exist.
	// Returns domain.ErrVersionConflict if the stored version differs.
	UpdateTask(ctx context.Context, task *domain.Task) (*domain.Task, error)

	// DeleteTask permanently removes a task.
	// Returns domain.ErrTaskNotFound if the task doesn't exist.
	DeleteTask(ctx context.Context, id string) error

	// DetachTasksFromGoal unlinks every task linked to the goal and returns how many changed.
	DetachTasksFromGoal(ctx context.Context, goalID string) (int, error)

	// === Goal Operations ===

	CreateGoal(ctx context.Context, goal *domain.Goal) (*domain.Goal, error)

	// FindGoalByID returns domain.ErrGoalNotFound if the goal doesn't exist.
	FindGoalByID(ctx context.Context, id string) (*domain.Goal, error)

	// FindGoals returns an owner's goals, newest first.
	FindGoals(ctx context.Context, ownerID string) ([]domain.Goal, error)

	// FindGoalIDsPage returns up to limit goal IDs greater than afterID in ID order,
	// across all owners. Used for keyset pagination by background jobs.
	FindGoalIDsPage(ctx context.Context, afterID string, limit int) ([]string, error)

	// UpdateGoal saves the goal with the same optimistic locking rules as UpdateTask.
	UpdateGoal(ctx context.Context, goal *domain.Goal) (*domain.Goal, error)

	// DeleteGoal returns domain.ErrGoalNotFound if the goal doesn't exist.
	DeleteGoal(ctx context.Context, id string) error

	// === Project Operations ===

	CreateProject(ctx context.Context, project *domain.Project) (*domain.Project, error)

	// FindProjectByID returns domain.ErrProjectNotFound if the project doesn't exist.
	FindProjectByID(ctx context.Context, id string) (*domain.Project, error)

	// FindProjectsByIDs returns the projects that exist among ids.
	FindProjectsByIDs(ctx context.Context, ids []string) ([]domain.Project, error)

	// FindProjectsByGoal returns every project linked to the goal.
	FindProjectsByGoal(ctx context.Context, goalID string) ([]domain.Project, error)

	// UpdateProject saves the project with the same optimistic locking rules as UpdateTask.
	UpdateProject(ctx context.Context, project *domain.Project) (*domain.Project, error)

	// DetachProjectsFromGoal clears the goal link of every project linked to the goal.
	DetachProjectsFromGoal(ctx context.Context, goalID string) (int, error)

	// === Roadmap Operations ===

	CreateLinkedProject(ctx context.Context, lp *domain.LinkedProject) (*domain.LinkedProject, error)

	// FindLinkedProjects returns the linked-project records of one business in creation order.
	FindLinkedProjects(ctx context.Context, ownerID, businessID string) ([]domain.LinkedProject, error)

	// FindBusinessIDs returns every business that has linked projects, across all owners.
	FindBusinessIDs(ctx context.Context) ([]domain.BusinessRef, error)

	// === Completion Events ===

	// FindCompletionEvent returns domain.ErrNotFound if no event was recorded for (taskID, key).
	FindCompletionEvent(ctx context.Context, taskID, key string) (*domain.CompletionEvent, error)

	// CreateCompletionEvent returns domain.ErrVersionConflict if (TaskID, Key) was already recorded.
	CreateCompletionEvent(ctx context.Context, event *domain.CompletionEvent) error

	// === Transactions ===

	// Atomic executes fn within a transaction. All repository calls made through
	// the callback's Repository commit or roll back together.
	Atomic(ctx context.Context, fn func(repo Repository) error) error
}
