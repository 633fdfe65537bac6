package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rezkam/compass/internal/domain"
	"github.com/rezkam/compass/internal/infrastructure/persistence/codec"
)

const taskSelect = `id, owner_id, title, description, category, tags::text, urgency, importance,
	priority_score, quadrant, status, deadline, estimated_time, actual_time, subtasks::text,
	dependencies::text, is_recurring, frequency, next_due, link_kind, link_id, link_milestone,
	recurrence_parent_id, completed_at, archived_at, created_at, updated_at, version`

func scanTask(row pgx.Row) (*domain.Task, error) {
	var r codec.TaskRow
	err := row.Scan(
		&r.ID, &r.OwnerID, &r.Title, &r.Description, &r.Category, &r.Tags, &r.Urgency, &r.Importance,
		&r.PriorityScore, &r.Quadrant, &r.Status, &r.Deadline, &r.EstimatedTime, &r.ActualTime, &r.Subtasks,
		&r.Dependencies, &r.IsRecurring, &r.Frequency, &r.NextDue, &r.LinkKind, &r.LinkID, &r.LinkMilestone,
		&r.RecurrenceParentID, &r.CompletedAt, &r.ArchivedAt, &r.CreatedAt, &r.UpdatedAt, &r.Version,
	)
	if err != nil {
		return nil, err
	}
	return r.Task()
}

func collectTasks(rows pgx.Rows) ([]domain.Task, error) {
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}
	return tasks, nil
}

func (s *Store) queryTasks(ctx context.Context, query string, args ...any) ([]domain.Task, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows)
}

// CreateTask inserts a task with version 1.
func (s *Store) CreateTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	r, err := codec.TaskToRow(task)
	if err != nil {
		return nil, fmt.Errorf("failed to convert task: %w", err)
	}

	created, err := scanTask(s.db.QueryRow(ctx, `
		INSERT INTO tasks (
			id, owner_id, title, description, category, tags, urgency, importance,
			priority_score, quadrant, status, deadline, estimated_time, actual_time, subtasks,
			dependencies, is_recurring, frequency, next_due, link_kind, link_id, link_milestone,
			recurrence_parent_id, completed_at, archived_at, created_at, updated_at, version
		) VALUES (
			$1, $2, $3, $4, $5, $6::jsonb, $7, $8,
			$9, $10, $11, $12, $13, $14, $15::jsonb,
			$16::jsonb, $17, $18, $19, $20, $21, $22,
			$23, $24, $25, $26, $27, 1
		)
		RETURNING `+taskSelect,
		r.ID, r.OwnerID, r.Title, r.Description, r.Category, r.Tags, r.Urgency, r.Importance,
		r.PriorityScore, r.Quadrant, r.Status, r.Deadline, r.EstimatedTime, r.ActualTime, r.Subtasks,
		r.Dependencies, r.IsRecurring, r.Frequency, r.NextDue, r.LinkKind, r.LinkID, r.LinkMilestone,
		r.RecurrenceParentID, r.CompletedAt, r.ArchivedAt, r.CreatedAt, r.UpdatedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return created, nil
}

// FindTaskByID retrieves a task regardless of owner.
func (s *Store) FindTaskByID(ctx context.Context, id string) (*domain.Task, error) {
	task, err := scanTask(s.db.QueryRow(ctx, `SELECT `+taskSelect+` FROM tasks WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// FindTasksByIDs retrieves the tasks that exist among ids.
func (s *Store) FindTasksByIDs(ctx context.Context, ids []string) ([]domain.Task, error) {
	if len(ids) == 0 {
		return []domain.Task{}, nil
	}
	tasks, err := s.queryTasks(ctx, `SELECT `+taskSelect+` FROM tasks WHERE id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to find tasks by ids: %w", err)
	}
	return tasks, nil
}

// taskOrderClauses mirror priority.Compare for the priority order.
var taskOrderClauses = map[string]string{
	domain.OrderByPriority:  "priority_score DESC, deadline ASC NULLS LAST, created_at ASC, id ASC",
	domain.OrderByDeadline:  "deadline ASC NULLS LAST, priority_score DESC, id ASC",
	domain.OrderByCreatedAt: "created_at DESC, id DESC",
	"":                      "created_at DESC, id DESC",
}

// FindTasks searches an owner's tasks with filtering, sorting, and pagination.
func (s *Store) FindTasks(ctx context.Context, ownerID string, filter domain.TaskFilter) (*domain.PagedTasks, error) {
	order, ok := taskOrderClauses[filter.OrderBy]
	if !ok {
		return nil, fmt.Errorf("%w: order_by %q", domain.ErrInvalidEnum, filter.OrderBy)
	}

	where := []string{"owner_id = $1"}
	args := []any{ownerID}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if !filter.IncludeArchived {
		where = append(where, "archived_at IS NULL")
	}
	if filter.Status != nil {
		add("status = $%d", string(*filter.Status))
	}
	if filter.GoalID != nil {
		add("link_kind = 'goal' AND link_id = $%d", *filter.GoalID)
	}
	if filter.ProjectID != nil {
		add("link_kind = 'project' AND link_id = $%d", *filter.ProjectID)
	}
	if filter.Category != nil {
		add("category = $%d", *filter.Category)
	}
	if filter.Tag != nil {
		add("tags ? $%d", *filter.Tag)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM tasks WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	query := `SELECT ` + taskSelect + ` FROM tasks WHERE ` + cond + ` ORDER BY ` + order
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	tasks, err := s.queryTasks(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find tasks: %w", err)
	}

	return &domain.PagedTasks{
		Items:      tasks,
		TotalCount: total,
		HasMore:    filter.Offset+len(tasks) < total,
	}, nil
}

// FindTasksByGoal returns every task linked to the goal.
func (s *Store) FindTasksByGoal(ctx context.Context, goalID string) ([]domain.Task, error) {
	tasks, err := s.queryTasks(ctx, `SELECT `+taskSelect+` FROM tasks
		WHERE link_kind = 'goal' AND link_id = $1
		ORDER BY created_at, id`, goalID)
	if err != nil {
		return nil, fmt.Errorf("failed to find tasks by goal: %w", err)
	}
	return tasks, nil
}

// FindTasksByProject returns every task linked to the project.
func (s *Store) FindTasksByProject(ctx context.Context, projectID string) ([]domain.Task, error) {
	tasks, err := s.queryTasks(ctx, `SELECT `+taskSelect+` FROM tasks
		WHERE link_kind = 'project' AND link_id = $1
		ORDER BY created_at, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to find tasks by project: %w", err)
	}
	return tasks, nil
}

// FindTasksWhereDependsOn returns the tasks listing taskID among their dependencies.
func (s *Store) FindTasksWhereDependsOn(ctx context.Context, taskID string) ([]domain.Task, error) {
	tasks, err := s.queryTasks(ctx, `SELECT `+taskSelect+` FROM tasks
		WHERE dependencies @> jsonb_build_array(jsonb_build_object('task_id', $1::text))
		ORDER BY created_at, id`, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to find dependent tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTask saves every mutable column if the stored version still matches.
func (s *Store) UpdateTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	r, err := codec.TaskToRow(task)
	if err != nil {
		return nil, fmt.Errorf("failed to convert task: %w", err)
	}

	updated, err := scanTask(s.db.QueryRow(ctx, `
		UPDATE tasks SET
			title = $3, description = $4, category = $5, tags = $6::jsonb,
			urgency = $7, importance = $8, priority_score = $9, quadrant = $10, status = $11,
			deadline = $12, estimated_time = $13, actual_time = $14, subtasks = $15::jsonb,
			dependencies = $16::jsonb, is_recurring = $17, frequency = $18, next_due = $19,
			link_kind = $20, link_id = $21, link_milestone = $22, recurrence_parent_id = $23,
			completed_at = $24, archived_at = $25, updated_at = $26,
			version = version + 1
		WHERE id = $1 AND version = $2
		RETURNING `+taskSelect,
		r.ID, r.Version, r.Title, r.Description, r.Category, r.Tags,
		r.Urgency, r.Importance, r.PriorityScore, r.Quadrant, r.Status,
		r.Deadline, r.EstimatedTime, r.ActualTime, r.Subtasks,
		r.Dependencies, r.IsRecurring, r.Frequency, r.NextDue,
		r.LinkKind, r.LinkID, r.LinkMilestone, r.RecurrenceParentID,
		r.CompletedAt, r.ArchivedAt, r.UpdatedAt,
	))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return nil, s.versionMiss(ctx, "tasks", task.ID, task.Version, domain.ErrTaskNotFound)
}

// DeleteTask permanently removes a task.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return checkRowsAffected(tag.RowsAffected(), domain.ErrTaskNotFound, id)
}

// DetachTasksFromGoal unlinks every task linked to the goal.
func (s *Store) DetachTasksFromGoal(ctx context.Context, goalID string) (int, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE tasks SET link_kind = '', link_id = '', link_milestone = NULL,
			updated_at = now(), version = version + 1
		WHERE link_kind = 'goal' AND link_id = $1`, goalID)
	if err != nil {
		return 0, fmt.Errorf("failed to detach tasks: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// versionMiss explains why a versioned update matched no row.
// table is always a constant supplied by the caller.
func (s *Store) versionMiss(ctx context.Context, table, id string, version int, notFound error) error {
	var stored int
	err := s.db.QueryRow(ctx, `SELECT version FROM `+table+` WHERE id = $1`, id).Scan(&stored)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("%w: %s", notFound, id)
	case err != nil:
		return fmt.Errorf("failed to read version: %w", err)
	default:
		return fmt.Errorf("%w: %s is at version %d, not %d", domain.ErrVersionConflict, id, stored, version)
	}
}

// checkRowsAffected reports notFound when an UPDATE/DELETE touched no row.
func checkRowsAffected(rowsAffected int64, notFound error, id string) error {
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", notFound, id)
	}
	return nil
}
