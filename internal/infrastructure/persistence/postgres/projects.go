package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rezkam/compass/internal/domain"
	"github.com/rezkam/compass/internal/infrastructure/persistence/codec"
)

const projectSelect = `id, owner_id, title, description, status, completion_percentage,
	milestones::text, goal_id, created_at, updated_at, version`

func scanProject(row pgx.Row) (*domain.Project, error) {
	var r codec.ProjectRow
	err := row.Scan(
		&r.ID, &r.OwnerID, &r.Title, &r.Description, &r.Status, &r.CompletionPercentage,
		&r.Milestones, &r.GoalID, &r.CreatedAt, &r.UpdatedAt, &r.Version,
	)
	if err != nil {
		return nil, err
	}
	return r.Project()
}

func (s *Store) queryProjects(ctx context.Context, query string, args ...any) ([]domain.Project, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []domain.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}
	return projects, nil
}

// CreateProject inserts a project with version 1.
func (s *Store) CreateProject(ctx context.Context, project *domain.Project) (*domain.Project, error) {
	r, err := codec.ProjectToRow(project)
	if err != nil {
		return nil, fmt.Errorf("failed to convert project: %w", err)
	}

	created, err := scanProject(s.db.QueryRow(ctx, `
		INSERT INTO projects (
			id, owner_id, title, description, status, completion_percentage,
			milestones, goal_id, created_at, updated_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, $9, $10, 1)
		RETURNING `+projectSelect,
		r.ID, r.OwnerID, r.Title, r.Description, r.Status, r.CompletionPercentage,
		r.Milestones, r.GoalID, r.CreatedAt, r.UpdatedAt,
	))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrGoalNotFound, *r.GoalID)
		}
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return created, nil
}

// FindProjectByID retrieves a project regardless of owner.
func (s *Store) FindProjectByID(ctx context.Context, id string) (*domain.Project, error) {
	project, err := scanProject(s.db.QueryRow(ctx, `SELECT `+projectSelect+` FROM projects WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrProjectNotFound, id)
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return project, nil
}

// FindProjectsByIDs retrieves the projects that exist among ids.
func (s *Store) FindProjectsByIDs(ctx context.Context, ids []string) ([]domain.Project, error) {
	if len(ids) == 0 {
		return []domain.Project{}, nil
	}
	projects, err := s.queryProjects(ctx, `SELECT `+projectSelect+` FROM projects WHERE id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to find projects by ids: %w", err)
	}
	return projects, nil
}

// FindProjectsByGoal returns every project linked to the goal.
func (s *Store) FindProjectsByGoal(ctx context.Context, goalID string) ([]domain.Project, error) {
	projects, err := s.queryProjects(ctx, `SELECT `+projectSelect+` FROM projects
		WHERE goal_id = $1
		ORDER BY created_at, id`, goalID)
	if err != nil {
		return nil, fmt.Errorf("failed to find projects by goal: %w", err)
	}
	return projects, nil
}

// UpdateProject saves every mutable column if the stored version still matches.
func (s *Store) UpdateProject(ctx context.Context, project *domain.Project) (*domain.Project, error) {
	r, err := codec.ProjectToRow(project)
	if err != nil {
		return nil, fmt.Errorf("failed to convert project: %w", err)
	}

	updated, err := scanProject(s.db.QueryRow(ctx, `
		UPDATE projects SET
			title = $3, description = $4, status = $5, completion_percentage = $6,
			milestones = $7::jsonb, goal_id = $8, updated_at = $9,
			version = version + 1
		WHERE id = $1 AND version = $2
		RETURNING `+projectSelect,
		r.ID, r.Version, r.Title, r.Description, r.Status, r.CompletionPercentage,
		r.Milestones, r.GoalID, r.UpdatedAt,
	))
	if err == nil {
		return updated, nil
	}
	if isForeignKeyViolation(err) {
		return nil, fmt.Errorf("%w: %s", domain.ErrGoalNotFound, *r.GoalID)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return nil, s.versionMiss(ctx, "projects", project.ID, project.Version, domain.ErrProjectNotFound)
}

// DetachProjectsFromGoal clears the goal of every project linked to it.
func (s *Store) DetachProjectsFromGoal(ctx context.Context, goalID string) (int, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE projects SET goal_id = NULL, updated_at = now(), version = version + 1
		WHERE goal_id = $1`, goalID)
	if err != nil {
		return 0, fmt.Errorf("failed to detach projects: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
