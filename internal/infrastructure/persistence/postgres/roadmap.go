package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rezkam/compass/internal/domain"
	"github.com/rezkam/compass/internal/infrastructure/persistence/codec"
)

const linkedProjectSelect = `id, owner_id, business_id, project_id, role, priority, phase,
	target_completion_date, dependencies::text, created_at`

func scanLinkedProject(row pgx.Row) (*domain.LinkedProject, error) {
	var r codec.LinkedProjectRow
	err := row.Scan(
		&r.ID, &r.OwnerID, &r.BusinessID, &r.ProjectID, &r.Role, &r.Priority, &r.Phase,
		&r.TargetCompletionDate, &r.Dependencies, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return r.LinkedProject()
}

// CreateLinkedProject inserts a linked-project record.
func (s *Store) CreateLinkedProject(ctx context.Context, lp *domain.LinkedProject) (*domain.LinkedProject, error) {
	r, err := codec.LinkedProjectToRow(lp)
	if err != nil {
		return nil, fmt.Errorf("failed to convert linked project: %w", err)
	}

	created, err := scanLinkedProject(s.db.QueryRow(ctx, `
		INSERT INTO linked_projects (
			id, owner_id, business_id, project_id, role, priority, phase,
			target_completion_date, dependencies, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10)
		RETURNING `+linkedProjectSelect,
		r.ID, r.OwnerID, r.BusinessID, r.ProjectID, r.Role, r.Priority, r.Phase,
		r.TargetCompletionDate, r.Dependencies, r.CreatedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create linked project: %w", err)
	}
	return created, nil
}

// FindLinkedProjects returns one business's records in creation order.
func (s *Store) FindLinkedProjects(ctx context.Context, ownerID, businessID string) ([]domain.LinkedProject, error) {
	rows, err := s.db.Query(ctx, `SELECT `+linkedProjectSelect+` FROM linked_projects
		WHERE owner_id = $1 AND business_id = $2
		ORDER BY created_at, id`, ownerID, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to find linked projects: %w", err)
	}
	defer rows.Close()

	records := []domain.LinkedProject{}
	for rows.Next() {
		lp, err := scanLinkedProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan linked project: %w", err)
		}
		records = append(records, *lp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate linked projects: %w", err)
	}
	return records, nil
}

// FindBusinessIDs lists every business with linked projects.
func (s *Store) FindBusinessIDs(ctx context.Context) ([]domain.BusinessRef, error) {
	rows, err := s.db.Query(ctx, `SELECT DISTINCT owner_id, business_id FROM linked_projects
		ORDER BY owner_id, business_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to find businesses: %w", err)
	}
	refs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.BusinessRef, error) {
		var ref domain.BusinessRef
		err := row.Scan(&ref.OwnerID, &ref.BusinessID)
		return ref, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to collect businesses: %w", err)
	}
	return refs, nil
}

// FindCompletionEvent looks up the completion recorded under (taskID, key).
func (s *Store) FindCompletionEvent(ctx context.Context, taskID, key string) (*domain.CompletionEvent, error) {
	var e domain.CompletionEvent
	err := s.db.QueryRow(ctx, `
		SELECT task_id, idempotency_key, next_instance_id, created_at
		FROM completion_events
		WHERE task_id = $1 AND idempotency_key = $2`, taskID, key).
		Scan(&e.TaskID, &e.Key, &e.NextInstanceID, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: completion event %s/%s", domain.ErrNotFound, taskID, key)
		}
		return nil, fmt.Errorf("failed to get completion event: %w", err)
	}
	e.CreatedAt = e.CreatedAt.UTC()
	return &e, nil
}

// CreateCompletionEvent records a processed completion.
func (s *Store) CreateCompletionEvent(ctx context.Context, event *domain.CompletionEvent) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO completion_events (task_id, idempotency_key, next_instance_id, created_at)
		VALUES ($1, $2, $3, $4)`,
		event.TaskID, event.Key, event.NextInstanceID, event.CreatedAt.UTC())
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return fmt.Errorf("%w: completion %s/%s already recorded", domain.ErrVersionConflict, event.TaskID, event.Key)
	case isForeignKeyViolation(err):
		return fmt.Errorf("%w: %s", domain.ErrTaskNotFound, event.TaskID)
	default:
		return fmt.Errorf("failed to record completion event: %w", err)
	}
}
