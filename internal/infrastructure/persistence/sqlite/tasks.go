package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rezkam/compass/internal/domain"
	"github.com/rezkam/compass/internal/infrastructure/persistence/codec"
)

const taskColumns = `id, owner_id, title, description, category, tags, urgency, importance,
	priority_score, quadrant, status, deadline, estimated_time, actual_time, subtasks,
	dependencies, is_recurring, frequency, next_due, link_kind, link_id, link_milestone,
	recurrence_parent_id, completed_at, archived_at, created_at, updated_at, version`

func scanTask(s scanner) (*domain.Task, error) {
	var (
		r                                          codec.TaskRow
		deadline, nextDue, completedAt, archivedAt sql.NullString
		createdAt, updatedAt                       string
	)
	err := s.Scan(
		&r.ID, &r.OwnerID, &r.Title, &r.Description, &r.Category, &r.Tags, &r.Urgency, &r.Importance,
		&r.PriorityScore, &r.Quadrant, &r.Status, &deadline, &r.EstimatedTime, &r.ActualTime, &r.Subtasks,
		&r.Dependencies, &r.IsRecurring, &r.Frequency, &nextDue, &r.LinkKind, &r.LinkID, &r.LinkMilestone,
		&r.RecurrenceParentID, &completedAt, &archivedAt, &createdAt, &updatedAt, &r.Version,
	)
	if err != nil {
		return nil, err
	}

	if r.Deadline, err = parseNullTS(deadline); err != nil {
		return nil, err
	}
	if r.NextDue, err = parseNullTS(nextDue); err != nil {
		return nil, err
	}
	if r.CompletedAt, err = parseNullTS(completedAt); err != nil {
		return nil, err
	}
	if r.ArchivedAt, err = parseNullTS(archivedAt); err != nil {
		return nil, err
	}
	if r.CreatedAt, err = parseTS(createdAt); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTS(updatedAt); err != nil {
		return nil, err
	}
	return r.Task()
}

func (s *Store) queryTasks(ctx context.Context, query string, args ...any) ([]domain.Task, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// CreateTask inserts a task with version 1.
func (s *Store) CreateTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	r, err := codec.TaskToRow(task)
	if err != nil {
		return nil, fmt.Errorf("convert task: %w", err)
	}

	created, err := scanTask(s.q.QueryRowContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
		RETURNING `+taskColumns,
		r.ID, r.OwnerID, r.Title, r.Description, r.Category, r.Tags, r.Urgency, r.Importance,
		r.PriorityScore, r.Quadrant, r.Status, nullableTS(r.Deadline), r.EstimatedTime, r.ActualTime, r.Subtasks,
		r.Dependencies, r.IsRecurring, r.Frequency, nullableTS(r.NextDue), r.LinkKind, r.LinkID, r.LinkMilestone,
		r.RecurrenceParentID, nullableTS(r.CompletedAt), nullableTS(r.ArchivedAt), ts(r.CreatedAt), ts(r.UpdatedAt),
	))
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return created, nil
}

// FindTaskByID retrieves a task regardless of owner.
func (s *Store) FindTaskByID(ctx context.Context, id string) (*domain.Task, error) {
	task, err := scanTask(s.q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// FindTasksByIDs retrieves the tasks that exist among ids.
func (s *Store) FindTasksByIDs(ctx context.Context, ids []string) ([]domain.Task, error) {
	if len(ids) == 0 {
		return []domain.Task{}, nil
	}
	in, args := inClause(ids)
	tasks, err := s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id IN `+in+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("find tasks by ids: %w", err)
	}
	return tasks, nil
}

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

	where := []string{"owner_id = ?"}
	args := []any{ownerID}
	if !filter.IncludeArchived {
		where = append(where, "archived_at IS NULL")
	}
	if filter.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.GoalID != nil {
		where = append(where, "link_kind = 'goal' AND link_id = ?")
		args = append(args, *filter.GoalID)
	}
	if filter.ProjectID != nil {
		where = append(where, "link_kind = 'project' AND link_id = ?")
		args = append(args, *filter.ProjectID)
	}
	if filter.Category != nil {
		where = append(where, "category = ?")
		args = append(args, *filter.Category)
	}
	if filter.Tag != nil {
		where = append(where, "EXISTS (SELECT 1 FROM json_each(tasks.tags) WHERE json_each.value = ?)")
		args = append(args, *filter.Tag)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + cond + ` ORDER BY ` + order
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	tasks, err := s.queryTasks(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find tasks: %w", err)
	}

	return &domain.PagedTasks{
		Items:      tasks,
		TotalCount: total,
		HasMore:    filter.Offset+len(tasks) < total,
	}, nil
}

// FindTasksByGoal returns every task linked to the goal.
func (s *Store) FindTasksByGoal(ctx context.Context, goalID string) ([]domain.Task, error) {
	tasks, err := s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks
		WHERE link_kind = 'goal' AND link_id = ?
		ORDER BY created_at, id`, goalID)
	if err != nil {
		return nil, fmt.Errorf("find tasks by goal: %w", err)
	}
	return tasks, nil
}

// FindTasksByProject returns every task linked to the project.
func (s *Store) FindTasksByProject(ctx context.Context, projectID string) ([]domain.Task, error) {
	tasks, err := s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks
		WHERE link_kind = 'project' AND link_id = ?
		ORDER BY created_at, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("find tasks by project: %w", err)
	}
	return tasks, nil
}

// FindTasksWhereDependsOn returns the tasks listing taskID among their dependencies.
func (s *Store) FindTasksWhereDependsOn(ctx context.Context, taskID string) ([]domain.Task, error) {
	tasks, err := s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks
		WHERE EXISTS (
			SELECT 1 FROM json_each(tasks.dependencies)
			WHERE json_extract(json_each.value, '$.task_id') = ?
		)
		ORDER BY created_at, id`, taskID)
	if err != nil {
		return nil, fmt.Errorf("find dependent tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTask saves every mutable column if the stored version still matches.
func (s *Store) UpdateTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	r, err := codec.TaskToRow(task)
	if err != nil {
		return nil, fmt.Errorf("convert task: %w", err)
	}

	updated, err := scanTask(s.q.QueryRowContext(ctx, `
		UPDATE tasks SET
			title = ?, description = ?, category = ?, tags = ?,
			urgency = ?, importance = ?, priority_score = ?, quadrant = ?, status = ?,
			deadline = ?, estimated_time = ?, actual_time = ?, subtasks = ?,
			dependencies = ?, is_recurring = ?, frequency = ?, next_due = ?,
			link_kind = ?, link_id = ?, link_milestone = ?, recurrence_parent_id = ?,
			completed_at = ?, archived_at = ?, updated_at = ?,
			version = version + 1
		WHERE id = ? AND version = ?
		RETURNING `+taskColumns,
		r.Title, r.Description, r.Category, r.Tags,
		r.Urgency, r.Importance, r.PriorityScore, r.Quadrant, r.Status,
		nullableTS(r.Deadline), r.EstimatedTime, r.ActualTime, r.Subtasks,
		r.Dependencies, r.IsRecurring, r.Frequency, nullableTS(r.NextDue),
		r.LinkKind, r.LinkID, r.LinkMilestone, r.RecurrenceParentID,
		nullableTS(r.CompletedAt), nullableTS(r.ArchivedAt), ts(r.UpdatedAt),
		r.ID, r.Version,
	))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return nil, s.versionMiss(ctx, "tasks", task.ID, task.Version, domain.ErrTaskNotFound)
}

// DeleteTask permanently removes a task.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return translateNoRows(res, domain.ErrTaskNotFound, id)
}

// DetachTasksFromGoal unlinks every task linked to the goal.
func (s *Store) DetachTasksFromGoal(ctx context.Context, goalID string) (int, error) {
	res, err := s.q.ExecContext(ctx, `
		UPDATE tasks SET link_kind = '', link_id = '', link_milestone = NULL,
			updated_at = ?, version = version + 1
		WHERE link_kind = 'goal' AND link_id = ?`, ts(s.clock()), goalID)
	if err != nil {
		return 0, fmt.Errorf("detach tasks: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}
