package planner

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/rezkam/compass/internal/domain"
	"github.com/rezkam/compass/internal/progress"
	"github.com/rezkam/compass/internal/ptr"
)

// GoalView is a goal with its derived state computed at read time.
// Snapshot.Status is the calculated status; Goal.Status is only the stored cache.
type GoalView struct {
	Goal     *domain.Goal
	Snapshot progress.Snapshot
}

// CreateGoal validates and persists a new goal for ownerID.
// The status cache always starts as not_started regardless of the input.
func (s *Service) CreateGoal(ctx context.Context, ownerID string, goal *domain.Goal) (*domain.Goal, error) {
	title, err := domain.NewTitle(goal.Title)
	if err != nil {
		return nil, err
	}
	goal.Title = title.String()

	prio, err := domain.ParseLevel(string(goal.Priority))
	if err != nil {
		return nil, fmt.Errorf("priority: %w", err)
	}
	goal.Priority = prio

	id, err := newID()
	if err != nil {
		return nil, err
	}

	now := s.now()
	goal.ID = id
	goal.OwnerID = ownerID
	goal.Status = domain.GoalStatusNotStarted
	goal.AchievedAt = nil
	goal.CreatedAt = now
	goal.UpdatedAt = now
	goal.Version = 0
	if goal.TargetDate != nil {
		goal.TargetDate = ptr.To(goal.TargetDate.UTC())
	}
	for i := range goal.Milestones {
		if _, err := domain.NewTitle(goal.Milestones[i].Title); err != nil {
			return nil, fmt.Errorf("milestone %d: %w", i, err)
		}
	}

	created, err := s.repo.CreateGoal(ctx, goal)
	if err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}
	return created, nil
}

// GetGoal returns a goal with its progress and status recomputed from current linked items.
func (s *Service) GetGoal(ctx context.Context, ownerID, id string) (*GoalView, error) {
	goal, err := ownedGoal(ctx, s.repo, ownerID, id)
	if err != nil {
		return nil, err
	}

	snap, err := s.evaluateGoal(ctx, s.repo, goal)
	if err != nil {
		return nil, err
	}
	return &GoalView{Goal: goal, Snapshot: snap}, nil
}

// ListGoals returns ownerID's goals, each with recomputed progress and status.
func (s *Service) ListGoals(ctx context.Context, ownerID string) ([]GoalView, error) {
	goals, err := s.repo.FindGoals(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}

	views := make([]GoalView, 0, len(goals))
	for i := range goals {
		snap, err := s.evaluateGoal(ctx, s.repo, &goals[i])
		if err != nil {
			return nil, err
		}
		views = append(views, GoalView{Goal: &goals[i], Snapshot: snap})
	}
	return views, nil
}

// UpdateGoal applies a field-mask update to one of ownerID's goals.
func (s *Service) UpdateGoal(ctx context.Context, ownerID string, params domain.UpdateGoalParams) (*GoalView, error) {
	if params.Etag != nil {
		if _, err := domain.ParseEtag(*params.Etag); err != nil {
			return nil, err
		}
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	var view *GoalView
	err := s.repo.Atomic(ctx, func(repo Repository) error {
		goal, err := ownedGoal(ctx, repo, ownerID, params.GoalID)
		if err != nil {
			return err
		}
		if err := checkEtag(params.Etag, goal.Version); err != nil {
			return err
		}
		if err := applyGoalMask(goal, params); err != nil {
			return err
		}

		// A new target date can move the derived status.
		snap, err := s.evaluateGoal(ctx, repo, goal)
		if err != nil {
			return err
		}
		now := s.now()
		progress.ApplyCache(goal, snap, now)
		goal.UpdatedAt = now

		updated, err := repo.UpdateGoal(ctx, goal)
		if err != nil {
			return err
		}
		view = &GoalView{Goal: updated, Snapshot: snap}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func applyGoalMask(goal *domain.Goal, p domain.UpdateGoalParams) error {
	for _, field := range p.UpdateMask {
		switch field {
		case "title":
			title, err := domain.NewTitle(*p.Title)
			if err != nil {
				return err
			}
			goal.Title = title.String()
		case "description":
			goal.Description = ptr.Deref(p.Description, "")
		case "category":
			goal.Category = ptr.Deref(p.Category, "")
		case "priority":
			prio, err := domain.ParseLevel(string(*p.Priority))
			if err != nil || strings.TrimSpace(string(*p.Priority)) == "" {
				return fmt.Errorf("%w: priority %q", domain.ErrInvalidEnum, *p.Priority)
			}
			goal.Priority = prio
		case "target_date":
			goal.TargetDate = nil
			if p.TargetDate != nil {
				goal.TargetDate = ptr.To(p.TargetDate.UTC())
			}
		case "current_value":
			goal.CurrentValue = ptr.Clone(p.CurrentValue)
		case "target_value":
			goal.TargetValue = ptr.Clone(p.TargetValue)
		case "unit":
			goal.Unit = ptr.Deref(p.Unit, "")
		case "milestones":
			milestones := slices.Clone(ptr.Deref(p.Milestones, nil))
			for i := range milestones {
				if _, err := domain.NewTitle(milestones[i].Title); err != nil {
					return fmt.Errorf("milestone %d: %w", i, err)
				}
			}
			goal.Milestones = milestones
		}
	}
	return nil
}

// DeleteGoal removes a goal after detaching every task and project linked to it.
func (s *Service) DeleteGoal(ctx context.Context, ownerID, id string) error {
	return s.repo.Atomic(ctx, func(repo Repository) error {
		goal, err := ownedGoal(ctx, repo, ownerID, id)
		if err != nil {
			return err
		}
		if _, err := repo.DetachTasksFromGoal(ctx, goal.ID); err != nil {
			return fmt.Errorf("failed to detach tasks: %w", err)
		}
		if _, err := repo.DetachProjectsFromGoal(ctx, goal.ID); err != nil {
			return fmt.Errorf("failed to detach projects: %w", err)
		}
		return repo.DeleteGoal(ctx, goal.ID)
	})
}

// RecordGoalProgress appends a manual progress entry and updates the current value.
// Entries are informational; they never change the derived progress.
func (s *Service) RecordGoalProgress(ctx context.Context, ownerID, id string, value float64, note string) (*GoalView, error) {
	var view *GoalView
	err := s.repo.Atomic(ctx, func(repo Repository) error {
		goal, err := ownedGoal(ctx, repo, ownerID, id)
		if err != nil {
			return err
		}

		now := s.now()
		goal.ProgressEntries = append(goal.ProgressEntries, domain.ProgressEntry{
			Value:      value,
			Note:       note,
			RecordedAt: now,
		})
		goal.CurrentValue = ptr.To(value)
		goal.UpdatedAt = now

		updated, err := repo.UpdateGoal(ctx, goal)
		if err != nil {
			return err
		}
		snap, err := s.evaluateGoal(ctx, repo, updated)
		if err != nil {
			return err
		}
		view = &GoalView{Goal: updated, Snapshot: snap}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}
