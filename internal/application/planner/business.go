package planner

import (
	"context"
	"fmt"

	"github.com/rezkam/compass/internal/domain"
	"github.com/rezkam/compass/internal/ptr"
	"github.com/rezkam/compass/internal/roadmap"
)

// LinkProjectToBusiness records that a business uses one of ownerID's projects.
// The business ID names a snapshot directory, so "." and ".." are rejected.
func (s *Service) LinkProjectToBusiness(ctx context.Context, ownerID, businessID string, lp *domain.LinkedProject) (*domain.LinkedProject, error) {
	switch businessID {
	case "":
		return nil, fmt.Errorf("%w: business id is required", domain.ErrInvalidID)
	case ".", "..":
		return nil, fmt.Errorf("%w: business id %q", domain.ErrInvalidID, businessID)
	}

	role, err := domain.ParseProjectRole(string(lp.Role))
	if err != nil {
		return nil, err
	}
	prio, err := domain.ParseLevel(string(lp.Priority))
	if err != nil {
		return nil, err
	}
	phase, err := domain.ParseBusinessPhase(string(lp.Phase))
	if err != nil {
		return nil, err
	}
	for i, dep := range lp.Dependencies {
		if dep.ProjectID == "" || dep.ProjectID == lp.ProjectID {
			return nil, fmt.Errorf("%w: project %q", domain.ErrInvalidDependency, dep.ProjectID)
		}
		typ, err := domain.ParseDependencyType(string(dep.Type))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidDependency, err)
		}
		lp.Dependencies[i].Type = typ
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}
	lp.ID = id
	lp.OwnerID = ownerID
	lp.BusinessID = businessID
	lp.Role = role
	lp.Priority = prio
	lp.Phase = phase
	lp.CreatedAt = s.now()
	if lp.TargetCompletionDate != nil {
		lp.TargetCompletionDate = ptr.To(lp.TargetCompletionDate.UTC())
	}

	var created *domain.LinkedProject
	err = s.repo.Atomic(ctx, func(repo Repository) error {
		if _, err := ownedProject(ctx, repo, ownerID, lp.ProjectID); err != nil {
			return err
		}
		created, err = repo.CreateLinkedProject(ctx, lp)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ListBusinessProjects returns the linked-project records of a business.
func (s *Service) ListBusinessProjects(ctx context.Context, ownerID, businessID string) ([]domain.LinkedProject, error) {
	return s.repo.FindLinkedProjects(ctx, ownerID, businessID)
}

// BusinessRoadmap builds the roadmap of a business for the requested phases.
// Phase names are parsed strictly; none means every phase.
func (s *Service) BusinessRoadmap(ctx context.Context, ownerID, businessID string, phases []string) (*roadmap.Roadmap, error) {
	parsed := make([]domain.BusinessPhase, 0, len(phases))
	for _, p := range phases {
		phase, err := domain.ParseBusinessPhase(p)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, phase)
	}

	return s.buildRoadmap(ctx, domain.BusinessRef{OwnerID: ownerID, BusinessID: businessID}, parsed)
}

// Businesses lists every business with linked projects, across owners.
func (s *Service) Businesses(ctx context.Context) ([]domain.BusinessRef, error) {
	return s.repo.FindBusinessIDs(ctx)
}

// SnapshotRoadmap builds the full roadmap of a business for export.
func (s *Service) SnapshotRoadmap(ctx context.Context, ref domain.BusinessRef) (*roadmap.Roadmap, error) {
	return s.buildRoadmap(ctx, ref, nil)
}

func (s *Service) buildRoadmap(ctx context.Context, ref domain.BusinessRef, phases []domain.BusinessPhase) (*roadmap.Roadmap, error) {
	records, err := s.repo.FindLinkedProjects(ctx, ref.OwnerID, ref.BusinessID)
	if err != nil {
		return nil, fmt.Errorf("failed to load linked projects: %w", err)
	}

	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ProjectID)
	}
	projects, err := s.repo.FindProjectsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load projects: %w", err)
	}

	byID := make(map[string]*domain.Project, len(projects))
	for i := range projects {
		if projects[i].OwnerID == ref.OwnerID {
			byID[projects[i].ID] = &projects[i]
		}
	}

	entries := make([]roadmap.Entry, 0, len(records))
	for _, r := range records {
		entries = append(entries, roadmap.Entry{Record: r, Project: byID[r.ProjectID]})
	}

	rm := roadmap.Build(entries, phases, s.now())
	rm.BusinessID = ref.BusinessID
	return &rm, nil
}
