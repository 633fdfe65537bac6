package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rezkam/compass/internal/domain"
	"github.com/rezkam/compass/internal/infrastructure/persistence/codec"
)

const projectColumns = `id, owner_id, title, description, status, completion_percentage,
	milestones, goal_id, created_at, updated_at, version`

func scanProject(s scanner) (*domain.Project, error) {
	var (
		r                    codec.ProjectRow
		createdAt, updatedAt string
	)
	err := s.Scan(
		&r.ID, &r.OwnerID, &r.Title, &r.Description, &r.Status, &r.CompletionPercentage,
		&r.Milestones, &r.GoalID, &createdAt, &updatedAt, &r.Version,
	)
	if err != nil {
		return nil, err
	}
	if r.CreatedAt, err = parseTS(createdAt); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTS(updatedAt); err != nil {
		return nil, err
	}
	return r.Project()
}

func (s *Store) queryProjects(ctx context.Context, query string, args ...any) ([]domain.Project, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []domain.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// CreateProject inserts a project with version 1.
func (s *Store) CreateProject(ctx context.Context, project *domain.Project) (*domain.Project, error) {
	r, err := codec.ProjectToRow(project)
	if err != nil {
		return nil, fmt.Errorf("convert project: %w", err)
	}

	created, err := scanProject(s.q.QueryRowContext(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
		RETURNING `+projectColumns,
		r.ID, r.OwnerID, r.Title, r.Description, r.Status, r.CompletionPercentage,
		r.Milestones, r.GoalID, ts(r.CreatedAt), ts(r.UpdatedAt),
	))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrGoalNotFound, *r.GoalID)
		}
		return nil, fmt.Errorf("create project: %w", err)
	}
	return created, nil
}

// FindProjectByID retrieves a project regardless of owner.
func (s *Store) FindProjectByID(ctx context.Context, id string) (*domain.Project, error) {
	project, err := scanProject(s.q.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrProjectNotFound, id)
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	return project, nil
}

// FindProjectsByIDs retrieves the projects that exist among ids.
func (s *Store) FindProjectsByIDs(ctx context.Context, ids []string) ([]domain.Project, error) {
	if len(ids) == 0 {
		return []domain.Project{}, nil
	}
	in, args := inClause(ids)
	projects, err := s.queryProjects(ctx, `SELECT `+projectColumns+` FROM projects WHERE id IN `+in+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("find projects by ids: %w", err)
	}
	return projects, nil
}

// FindProjectsByGoal returns every project linked to the goal.
func (s *Store) FindProjectsByGoal(ctx context.Context, goalID string) ([]domain.Project, error) {
	projects, err := s.queryProjects(ctx, `SELECT `+projectColumns+` FROM projects
		WHERE goal_id = ?
		ORDER BY created_at, id`, goalID)
	if err != nil {
		return nil, fmt.Errorf("find projects by goal: %w", err)
	}
	return projects, nil
}

// UpdateProject saves every mutable column if the stored version still matches.
func (s *Store) UpdateProject(ctx context.Context, project *domain.Project) (*domain.Project, error) {
	r, err := codec.ProjectToRow(project)
	if err != nil {
		return nil, fmt.Errorf("convert project: %w", err)
	}

	updated, err := scanProject(s.q.QueryRowContext(ctx, `
		UPDATE projects SET
			title = ?, description = ?, status = ?, completion_percentage = ?,
			milestones = ?, goal_id = ?, updated_at = ?,
			version = version + 1
		WHERE id = ? AND version = ?
		RETURNING `+projectColumns,
		r.Title, r.Description, r.Status, r.CompletionPercentage,
		r.Milestones, r.GoalID, ts(r.UpdatedAt),
		r.ID, r.Version,
	))
	if err == nil {
		return updated, nil
	}
	if isForeignKeyViolation(err) {
		return nil, fmt.Errorf("%w: %s", domain.ErrGoalNotFound, *r.GoalID)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update project: %w", err)
	}
	return nil, s.versionMiss(ctx, "projects", project.ID, project.Version, domain.ErrProjectNotFound)
}

// DetachProjectsFromGoal clears the goal of every project linked to it.
func (s *Store) DetachProjectsFromGoal(ctx context.Context, goalID string) (int, error) {
	res, err := s.q.ExecContext(ctx, `
		UPDATE projects SET goal_id = NULL, updated_at = ?, version = version + 1
		WHERE goal_id = ?`, ts(s.clock()), goalID)
	if err != nil {
		return 0, fmt.Errorf("detach projects: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}
