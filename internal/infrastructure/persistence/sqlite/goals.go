package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rezkam/compass/internal/domain"
	"github.com/rezkam/compass/internal/infrastructure/persistence/codec"
)

const goalColumns = `id, owner_id, title, description, category, priority, target_date, status,
	achieved_at, current_value, target_value, unit, milestones, progress_entries,
	created_at, updated_at, version`

func scanGoal(s scanner) (*domain.Goal, error) {
	var (
		r                      codec.GoalRow
		targetDate, achievedAt sql.NullString
		createdAt, updatedAt   string
	)
	err := s.Scan(
		&r.ID, &r.OwnerID, &r.Title, &r.Description, &r.Category, &r.Priority, &targetDate, &r.Status,
		&achievedAt, &r.CurrentValue, &r.TargetValue, &r.Unit, &r.Milestones, &r.ProgressEntries,
		&createdAt, &updatedAt, &r.Version,
	)
	if err != nil {
		return nil, err
	}

	if r.TargetDate, err = parseNullTS(targetDate); err != nil {
		return nil, err
	}
	if r.AchievedAt, err = parseNullTS(achievedAt); err != nil {
		return nil, err
	}
	if r.CreatedAt, err = parseTS(createdAt); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTS(updatedAt); err != nil {
		return nil, err
	}
	return r.Goal()
}

// CreateGoal inserts a goal with version 1.
func (s *Store) CreateGoal(ctx context.Context, goal *domain.Goal) (*domain.Goal, error) {
	r, err := codec.GoalToRow(goal)
	if err != nil {
		return nil, fmt.Errorf("convert goal: %w", err)
	}

	created, err := scanGoal(s.q.QueryRowContext(ctx, `
		INSERT INTO goals (`+goalColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
		RETURNING `+goalColumns,
		r.ID, r.OwnerID, r.Title, r.Description, r.Category, r.Priority, nullableTS(r.TargetDate), r.Status,
		nullableTS(r.AchievedAt), r.CurrentValue, r.TargetValue, r.Unit, r.Milestones, r.ProgressEntries,
		ts(r.CreatedAt), ts(r.UpdatedAt),
	))
	if err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}
	return created, nil
}

// FindGoalByID retrieves a goal regardless of owner.
func (s *Store) FindGoalByID(ctx context.Context, id string) (*domain.Goal, error) {
	goal, err := scanGoal(s.q.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrGoalNotFound, id)
		}
		return nil, fmt.Errorf("get goal: %w", err)
	}
	return goal, nil
}

// FindGoals returns an owner's goals, newest first.
func (s *Store) FindGoals(ctx context.Context, ownerID string) ([]domain.Goal, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+goalColumns+` FROM goals
		WHERE owner_id = ?
		ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("find goals: %w", err)
	}
	defer rows.Close()

	goals := []domain.Goal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

// FindGoalIDsPage returns the next page of goal IDs after afterID.
func (s *Store) FindGoalIDsPage(ctx context.Context, afterID string, limit int) ([]string, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT id FROM goals WHERE id > ? ORDER BY id LIMIT ?`, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("page goal ids: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan goal id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateGoal saves every mutable column if the stored version still matches.
func (s *Store) UpdateGoal(ctx context.Context, goal *domain.Goal) (*domain.Goal, error) {
	r, err := codec.GoalToRow(goal)
	if err != nil {
		return nil, fmt.Errorf("convert goal: %w", err)
	}

	updated, err := scanGoal(s.q.QueryRowContext(ctx, `
		UPDATE goals SET
			title = ?, description = ?, category = ?, priority = ?, target_date = ?,
			status = ?, achieved_at = ?, current_value = ?, target_value = ?, unit = ?,
			milestones = ?, progress_entries = ?, updated_at = ?,
			version = version + 1
		WHERE id = ? AND version = ?
		RETURNING `+goalColumns,
		r.Title, r.Description, r.Category, r.Priority, nullableTS(r.TargetDate),
		r.Status, nullableTS(r.AchievedAt), r.CurrentValue, r.TargetValue, r.Unit,
		r.Milestones, r.ProgressEntries, ts(r.UpdatedAt),
		r.ID, r.Version,
	))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update goal: %w", err)
	}
	return nil, s.versionMiss(ctx, "goals", goal.ID, goal.Version, domain.ErrGoalNotFound)
}

// DeleteGoal removes a goal.
func (s *Store) DeleteGoal(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return translateNoRows(res, domain.ErrGoalNotFound, id)
}
