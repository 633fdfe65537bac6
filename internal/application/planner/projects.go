package planner

import (
	"context"
	"fmt"
	"slices"

	"github.com/rezkam/compass/internal/domain"
	"github.com/rezkam/compass/internal/priority"
	"github.com/rezkam/compass/internal/ptr"
	"github.com/rezkam/compass/internal/roadmap"
)

// CreateProject validates and persists a new project for ownerID.
func (s *Service) CreateProject(ctx context.Context, ownerID string, project *domain.Project) (*domain.Project, error) {
	title, err := domain.NewTitle(project.Title)
	if err != nil {
		return nil, err
	}
	project.Title = title.String()

	if project.Status == "" {
		project.Status = domain.ProjectStatusNotStarted
	}
	if err := validateProject(project); err != nil {
		return nil, err
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}

	now := s.now()
	project.ID = id
	project.OwnerID = ownerID
	project.CreatedAt = now
	project.UpdatedAt = now
	project.Version = 0

	var created *domain.Project
	err = s.repo.Atomic(ctx, func(repo Repository) error {
		if project.GoalID != nil {
			if _, err := ownedGoal(ctx, repo, ownerID, *project.GoalID); err != nil {
				return err
			}
		}

		created, err = repo.CreateProject(ctx, project)
		if err != nil {
			return fmt.Errorf("failed to create project: %w", err)
		}
		_, err = s.refreshGoalCache(ctx, repo, ptr.Deref(created.GoalID, ""))
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetProject returns one of ownerID's projects.
func (s *Service) GetProject(ctx context.Context, ownerID, id string) (*domain.Project, error) {
	return ownedProject(ctx, s.repo, ownerID, id)
}

// ProjectTasks returns the live tasks linked to one of ownerID's projects,
// most pressing first.
func (s *Service) ProjectTasks(ctx context.Context, ownerID, id string) ([]domain.Task, error) {
	project, err := ownedProject(ctx, s.repo, ownerID, id)
	if err != nil {
		return nil, err
	}
	tasks, err := s.repo.FindTasksByProject(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	tasks = slices.DeleteFunc(tasks, func(t domain.Task) bool {
		return t.OwnerID != ownerID || t.IsArchived()
	})
	priority.Sort(tasks)
	return tasks, nil
}

// UpdateProject applies a field-mask update to one of ownerID's projects and refreshes
// the status cache of the goals it left or joined.
func (s *Service) UpdateProject(ctx context.Context, ownerID string, params domain.UpdateProjectParams) (*domain.Project, error) {
	if params.Etag != nil {
		if _, err := domain.ParseEtag(*params.Etag); err != nil {
			return nil, err
		}
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	var updated *domain.Project
	err := s.repo.Atomic(ctx, func(repo Repository) error {
		project, err := ownedProject(ctx, repo, ownerID, params.ProjectID)
		if err != nil {
			return err
		}
		if err := checkEtag(params.Etag, project.Version); err != nil {
			return err
		}

		previousGoal := ptr.Deref(project.GoalID, "")
		if err := applyProjectMask(project, params); err != nil {
			return err
		}
		if err := validateProject(project); err != nil {
			return err
		}
		if params.Has("goal_id") && project.GoalID != nil {
			if _, err := ownedGoal(ctx, repo, ownerID, *project.GoalID); err != nil {
				return err
			}
		}
		project.UpdatedAt = s.now()

		updated, err = repo.UpdateProject(ctx, project)
		if err != nil {
			return err
		}
		return s.refreshGoals(ctx, repo, previousGoal, ptr.Deref(updated.GoalID, ""))
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func applyProjectMask(project *domain.Project, p domain.UpdateProjectParams) error {
	for _, field := range p.UpdateMask {
		switch field {
		case "title":
			title, err := domain.NewTitle(*p.Title)
			if err != nil {
				return err
			}
			project.Title = title.String()
		case "description":
			project.Description = ptr.Deref(p.Description, "")
		case "status":
			status, err := domain.ParseProjectStatus(string(*p.Status))
			if err != nil {
				return err
			}
			project.Status = status
		case "completion_percentage":
			project.CompletionPercentage = *p.CompletionPercentage
		case "milestones":
			project.Milestones = slices.Clone(ptr.Deref(p.Milestones, nil))
		case "goal_id":
			project.GoalID = nil
			if p.GoalID != nil && *p.GoalID != "" {
				project.GoalID = ptr.To(*p.GoalID)
			}
		}
	}
	return nil
}

// CompleteProjectMilestone marks a project milestone as done. The project's completion
// percentage follows its milestones, the project becomes active on its first completed
// milestone and completed on its last, and the linked goal's status cache is refreshed.
func (s *Service) CompleteProjectMilestone(ctx context.Context, ownerID, projectID string, index int) (*domain.Project, error) {
	var updated *domain.Project
	err := s.repo.Atomic(ctx, func(repo Repository) error {
		project, err := ownedProject(ctx, repo, ownerID, projectID)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(project.Milestones) {
			return fmt.Errorf("%w: %d", domain.ErrInvalidMilestoneIndex, index)
		}

		m := &project.Milestones[index]
		if m.Completed {
			updated = project
			return nil
		}

		now := s.now()
		m.Completed = true
		m.CompletedAt = ptr.To(now)

		pct := roadmap.MilestoneProgress(project.Milestones)
		project.CompletionPercentage = float64(pct)
		switch {
		case pct >= 100:
			project.Status = domain.ProjectStatusCompleted
		case project.Status == domain.ProjectStatusNotStarted:
			project.Status = domain.ProjectStatusActive
		}
		project.UpdatedAt = now

		updated, err = repo.UpdateProject(ctx, project)
		if err != nil {
			return err
		}
		_, err = s.refreshGoalCache(ctx, repo, ptr.Deref(updated.GoalID, ""))
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func validateProject(p *domain.Project) error {
	status, err := domain.ParseProjectStatus(string(p.Status))
	if err != nil {
		return err
	}
	p.Status = status
	if err := domain.ValidateCompletion(p.CompletionPercentage); err != nil {
		return err
	}
	for i, m := range p.Milestones {
		if _, err := domain.NewTitle(m.Title); err != nil {
			return fmt.Errorf("milestone %d: %w", i, err)
		}
	}
	return nil
}
