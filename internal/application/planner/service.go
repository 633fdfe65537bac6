// Package planner orchestrates the prioritization and progress engines over a Repository.
//
// Every operation takes the caller's owner ID explicitly. Entities owned by someone
// else are reported as not found.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rezkam/compass/internal/domain"
	"github.com/rezkam/compass/internal/priority"
	"github.com/rezkam/compass/internal/progress"
)

// Default configuration values.
const (
	DefaultPageSize = 25
	MaxPageSize     = 100
)

// Config holds configuration for the Service.
type Config struct {
	DefaultPageSize int
	MaxPageSize     int
}

// Service provides the planning use cases.
type Service struct {
	repo   Repository
	clock  domain.Clock
	config Config
}

// NewService creates a new planner service.
// Applies defaults for zero or invalid config values and a nil clock.
func NewService(repo Repository, clock domain.Clock, config Config) *Service {
	if config.DefaultPageSize <= 0 {
		config.DefaultPageSize = DefaultPageSize
	}
	if config.MaxPageSize <= 0 {
		config.MaxPageSize = MaxPageSize
	}
	if clock == nil {
		clock = domain.SystemClock
	}

	return &Service{
		repo:   repo,
		clock:  clock,
		config: config,
	}
}

func (s *Service) now() time.Time {
	return s.clock().UTC()
}

// Classify parses urgency and importance strictly and classifies the pair.
// Empty values default to medium; unknown values return domain.ErrInvalidEnum.
func (s *Service) Classify(urgency, importance string) (priority.Classification, error) {
	u, err := domain.ParseLevel(urgency)
	if err != nil {
		return priority.Classification{}, fmt.Errorf("urgency: %w", err)
	}
	i, err := domain.ParseLevel(importance)
	if err != nil {
		return priority.Classification{}, fmt.Errorf("importance: %w", err)
	}
	return priority.Classify(u, i), nil
}

func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate id: %w", err)
	}
	return id.String(), nil
}

// checkEtag validates the etag format and compares it against the current version.
func checkEtag(etag *string, version int) error {
	if etag == nil {
		return nil
	}
	want, err := domain.ParseEtag(*etag)
	if err != nil {
		return err
	}
	if want != version {
		return domain.ErrVersionConflict
	}
	return nil
}

func ownedTask(ctx context.Context, repo Repository, ownerID, id string) (*domain.Task, error) {
	if id == "" {
		return nil, domain.ErrTaskNotFound
	}
	task, err := repo.FindTaskByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.OwnerID != ownerID {
		return nil, domain.ErrTaskNotFound
	}
	return task, nil
}

func ownedGoal(ctx context.Context, repo Repository, ownerID, id string) (*domain.Goal, error) {
	if id == "" {
		return nil, domain.ErrGoalNotFound
	}
	goal, err := repo.FindGoalByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if goal.OwnerID != ownerID {
		return nil, domain.ErrGoalNotFound
	}
	return goal, nil
}

func ownedProject(ctx context.Context, repo Repository, ownerID, id string) (*domain.Project, error) {
	if id == "" {
		return nil, domain.ErrProjectNotFound
	}
	project, err := repo.FindProjectByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != ownerID {
		return nil, domain.ErrProjectNotFound
	}
	return project, nil
}

// evaluateGoal recomputes the derived state of a goal from its current linked items.
func (s *Service) evaluateGoal(ctx context.Context, repo Repository, goal *domain.Goal) (progress.Snapshot, error) {
	tasks, err := repo.FindTasksByGoal(ctx, goal.ID)
	if err != nil {
		return progress.Snapshot{}, fmt.Errorf("failed to load goal tasks: %w", err)
	}
	projects, err := repo.FindProjectsByGoal(ctx, goal.ID)
	if err != nil {
		return progress.Snapshot{}, fmt.Errorf("failed to load goal projects: %w", err)
	}
	return progress.Evaluate(goal, tasks, projects, s.now()), nil
}

// refreshGoalCache re-evaluates a goal and persists its cached status when it changed.
// It reports whether the cached status moved. The cache is best-effort: a concurrent
// goal edit wins and is logged, not returned.
func (s *Service) refreshGoalCache(ctx context.Context, repo Repository, goalID string) (bool, error) {
	if goalID == "" {
		return false, nil
	}

	goal, err := repo.FindGoalByID(ctx, goalID)
	if errors.Is(err, domain.ErrGoalNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	snap, err := s.evaluateGoal(ctx, repo, goal)
	if err != nil {
		return false, err
	}

	before := goal.Status
	now := s.now()
	if !progress.ApplyCache(goal, snap, now) {
		return false, nil
	}
	goal.UpdatedAt = now

	if _, err := repo.UpdateGoal(ctx, goal); err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			slog.WarnContext(ctx, "Skipped goal status cache update after concurrent edit",
				slog.String("goal_id", goalID))
			return false, nil
		}
		return false, fmt.Errorf("failed to update goal status cache: %w", err)
	}
	return before != goal.Status, nil
}

// RefreshGoal re-evaluates one goal regardless of owner and reports whether its
// cached status changed. Used by background reconciliation.
func (s *Service) RefreshGoal(ctx context.Context, goalID string) (bool, error) {
	var changed bool
	err := s.repo.Atomic(ctx, func(repo Repository) error {
		var err error
		changed, err = s.refreshGoalCache(ctx, repo, goalID)
		return err
	})
	return changed, err
}

// GoalIDsPage exposes keyset pagination over all goals for background jobs.
func (s *Service) GoalIDsPage(ctx context.Context, afterID string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = s.config.MaxPageSize
	}
	return s.repo.FindGoalIDsPage(ctx, afterID, limit)
}

func linkedGoalOf(l domain.Link) string {
	id, _ := domain.LinkedGoalID(l)
	return id
}
