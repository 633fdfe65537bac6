package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rezkam/compass/internal/domain"
	"github.com/rezkam/compass/internal/infrastructure/persistence/codec"
)

const linkedProjectColumns = `id, owner_id, business_id, project_id, role, priority, phase,
	target_completion_date, dependencies, created_at`

func scanLinkedProject(s scanner) (*domain.LinkedProject, error) {
	var (
		r          codec.LinkedProjectRow
		targetDate sql.NullString
		createdAt  string
	)
	err := s.Scan(
		&r.ID, &r.OwnerID, &r.BusinessID, &r.ProjectID, &r.Role, &r.Priority, &r.Phase,
		&targetDate, &r.Dependencies, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	if r.TargetCompletionDate, err = parseNullTS(targetDate); err != nil {
		return nil, err
	}
	if r.CreatedAt, err = parseTS(createdAt); err != nil {
		return nil, err
	}
	return r.LinkedProject()
}

// CreateLinkedProject inserts a linked-project record.
func (s *Store) CreateLinkedProject(ctx context.Context, lp *domain.LinkedProject) (*domain.LinkedProject, error) {
	r, err := codec.LinkedProjectToRow(lp)
	if err != nil {
		return nil, fmt.Errorf("convert linked project: %w", err)
	}

	created, err := scanLinkedProject(s.q.QueryRowContext(ctx, `
		INSERT INTO linked_projects (`+linkedProjectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+linkedProjectColumns,
		r.ID, r.OwnerID, r.BusinessID, r.ProjectID, r.Role, r.Priority, r.Phase,
		nullableTS(r.TargetCompletionDate), r.Dependencies, ts(r.CreatedAt),
	))
	if err != nil {
		return nil, fmt.Errorf("create linked project: %w", err)
	}
	return created, nil
}

// FindLinkedProjects returns one business's records in creation order.
func (s *Store) FindLinkedProjects(ctx context.Context, ownerID, businessID string) ([]domain.LinkedProject, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+linkedProjectColumns+` FROM linked_projects
		WHERE owner_id = ? AND business_id = ?
		ORDER BY created_at, id`, ownerID, businessID)
	if err != nil {
		return nil, fmt.Errorf("find linked projects: %w", err)
	}
	defer rows.Close()

	records := []domain.LinkedProject{}
	for rows.Next() {
		lp, err := scanLinkedProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan linked project: %w", err)
		}
		records = append(records, *lp)
	}
	return records, rows.Err()
}

// FindBusinessIDs lists every business with linked projects.
func (s *Store) FindBusinessIDs(ctx context.Context) ([]domain.BusinessRef, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT DISTINCT owner_id, business_id FROM linked_projects
		ORDER BY owner_id, business_id`)
	if err != nil {
		return nil, fmt.Errorf("find businesses: %w", err)
	}
	defer rows.Close()

	refs := []domain.BusinessRef{}
	for rows.Next() {
		var ref domain.BusinessRef
		if err := rows.Scan(&ref.OwnerID, &ref.BusinessID); err != nil {
			return nil, fmt.Errorf("scan business: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// FindCompletionEvent looks up the completion recorded under (taskID, key).
func (s *Store) FindCompletionEvent(ctx context.Context, taskID, key string) (*domain.CompletionEvent, error) {
	var (
		e         domain.CompletionEvent
		createdAt string
	)
	err := s.q.QueryRowContext(ctx, `
		SELECT task_id, idempotency_key, next_instance_id, created_at
		FROM completion_events
		WHERE task_id = ? AND idempotency_key = ?`, taskID, key).
		Scan(&e.TaskID, &e.Key, &e.NextInstanceID, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: completion event %s/%s", domain.ErrNotFound, taskID, key)
		}
		return nil, fmt.Errorf("get completion event: %w", err)
	}
	if e.CreatedAt, err = parseTS(createdAt); err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateCompletionEvent records a processed completion.
func (s *Store) CreateCompletionEvent(ctx context.Context, event *domain.CompletionEvent) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO completion_events (task_id, idempotency_key, next_instance_id, created_at)
		VALUES (?, ?, ?, ?)`,
		event.TaskID, event.Key, event.NextInstanceID, ts(event.CreatedAt))
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return fmt.Errorf("%w: completion %s/%s already recorded", domain.ErrVersionConflict, event.TaskID, event.Key)
	case isForeignKeyViolation(err):
		return fmt.Errorf("%w: %s", domain.ErrTaskNotFound, event.TaskID)
	default:
		return fmt.Errorf("record completion event: %w", err)
	}
}
