package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rezkam/compass/internal/domain"
	"github.com/rezkam/compass/internal/infrastructure/persistence/codec"
)

const goalSelect = `id, owner_id, title, description, category, priority, target_date, status,
	achieved_at, current_value, target_value, unit, milestones::text, progress_entries::text,
	created_at, updated_at, version`

func scanGoal(row pgx.Row) (*domain.Goal, error) {
	var r codec.GoalRow
	err := row.Scan(
		&r.ID, &r.OwnerID, &r.Title, &r.Description, &r.Category, &r.Priority, &r.TargetDate, &r.Status,
		&r.AchievedAt, &r.CurrentValue, &r.TargetValue, &r.Unit, &r.Milestones, &r.ProgressEntries,
		&r.CreatedAt, &r.UpdatedAt, &r.Version,
	)
	if err != nil {
		return nil, err
	}
	return r.Goal()
}

// CreateGoal inserts a goal with version 1.
func (s *Store) CreateGoal(ctx context.Context, goal *domain.Goal) (*domain.Goal, error) {
	r, err := codec.GoalToRow(goal)
	if err != nil {
		return nil, fmt.Errorf("failed to convert goal: %w", err)
	}

	created, err := scanGoal(s.db.QueryRow(ctx, `
		INSERT INTO goals (
			id, owner_id, title, description, category, priority, target_date, status,
			achieved_at, current_value, target_value, unit, milestones, progress_entries,
			created_at, updated_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13::jsonb, $14::jsonb, $15, $16, 1)
		RETURNING `+goalSelect,
		r.ID, r.OwnerID, r.Title, r.Description, r.Category, r.Priority, r.TargetDate, r.Status,
		r.AchievedAt, r.CurrentValue, r.TargetValue, r.Unit, r.Milestones, r.ProgressEntries,
		r.CreatedAt, r.UpdatedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}
	return created, nil
}

// FindGoalByID retrieves a goal regardless of owner.
func (s *Store) FindGoalByID(ctx context.Context, id string) (*domain.Goal, error) {
	goal, err := scanGoal(s.db.QueryRow(ctx, `SELECT `+goalSelect+` FROM goals WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrGoalNotFound, id)
		}
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}
	return goal, nil
}

// FindGoals returns an owner's goals, newest first.
func (s *Store) FindGoals(ctx context.Context, ownerID string) ([]domain.Goal, error) {
	rows, err := s.db.Query(ctx, `SELECT `+goalSelect+` FROM goals
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to find goals: %w", err)
	}
	defer rows.Close()

	goals := []domain.Goal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate goals: %w", err)
	}
	return goals, nil
}

// FindGoalIDsPage returns the next page of goal IDs after afterID.
func (s *Store) FindGoalIDsPage(ctx context.Context, afterID string, limit int) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM goals WHERE id > $1 ORDER BY id LIMIT $2`, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to page goal ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to collect goal ids: %w", err)
	}
	return ids, nil
}

// UpdateGoal saves every mutable column if the stored version still matches.
func (s *Store) UpdateGoal(ctx context.Context, goal *domain.Goal) (*domain.Goal, error) {
	r, err := codec.GoalToRow(goal)
	if err != nil {
		return nil, fmt.Errorf("failed to convert goal: %w", err)
	}

	updated, err := scanGoal(s.db.QueryRow(ctx, `
		UPDATE goals SET
			title = $3, description = $4, category = $5, priority = $6, target_date = $7,
			status = $8, achieved_at = $9, current_value = $10, target_value = $11, unit = $12,
			milestones = $13::jsonb, progress_entries = $14::jsonb, updated_at = $15,
			version = version + 1
		WHERE id = $1 AND version = $2
		RETURNING `+goalSelect,
		r.ID, r.Version, r.Title, r.Description, r.Category, r.Priority, r.TargetDate,
		r.Status, r.AchievedAt, r.CurrentValue, r.TargetValue, r.Unit,
		r.Milestones, r.ProgressEntries, r.UpdatedAt,
	))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to update goal: %w", err)
	}
	return nil, s.versionMiss(ctx, "goals", goal.ID, goal.Version, domain.ErrGoalNotFound)
}

// DeleteGoal removes a goal. Linked projects lose their goal through ON DELETE SET NULL.
func (s *Store) DeleteGoal(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM goals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	return checkRowsAffected(tag.RowsAffected(), domain.ErrGoalNotFound, id)
}
