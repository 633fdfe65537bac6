// Package roadmap assembles a business's linked projects into phase lanes with
// milestone progress, overdue detection and cross-project dependency status.
package roadmap

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/rezkam/compass/internal/domain"
)

// MilestoneStatus classifies a project milestone on the roadmap.
type MilestoneStatus string

const (
	MilestoneCompleted MilestoneStatus = "completed"
	MilestoneOverdue   MilestoneStatus = "overdue"
	MilestonePending   MilestoneStatus = "pending"
)

// DependencyStatus is the satisfaction state of a cross-project dependency.
type DependencyStatus string

const (
	DependencySatisfied DependencyStatus = "satisfied"
	DependencyPending   DependencyStatus = "pending"
)

// Entry pairs a linked-project record with the project it references.
// Project is nil when the referenced project no longer exists.
type Entry struct {
	Record  domain.LinkedProject
	Project *domain.Project
}

// Roadmap is the read model returned to clients and written to snapshots.
type Roadmap struct {
	BusinessID   string           `json:"business_id,omitempty"`
	GeneratedAt  time.Time        `json:"generated_at"`
	Lanes        []Lane           `json:"lanes"`
	Dependencies []DependencyView `json:"dependencies"`
	Statistics   Statistics       `json:"statistics"`
}

// Lane groups the projects of one business phase.
type Lane struct {
	Phase    domain.BusinessPhase `json:"phase"`
	Projects []ProjectView        `json:"projects"`
}

// ProjectView is one linked project on the roadmap.
type ProjectView struct {
	LinkedProjectID      string               `json:"linked_project_id"`
	ProjectID            string               `json:"project_id"`
	Title                string               `json:"title"`
	Missing              bool                 `json:"missing,omitempty"`
	Role                 domain.ProjectRole   `json:"role"`
	Priority             domain.Level         `json:"priority"`
	Phase                domain.BusinessPhase `json:"phase"`
	TargetCompletionDate *time.Time           `json:"target_completion_date,omitempty"`
	Progress             int                  `json:"progress"`
	Overdue              bool                 `json:"overdue"`
	Milestones           []MilestoneView      `json:"milestones"`
}

// MilestoneView is one project milestone on the roadmap.
type MilestoneView struct {
	Index   int             `json:"index"`
	Title   string          `json:"title"`
	DueDate *time.Time      `json:"due_date,omitempty"`
	Status  MilestoneStatus `json:"status"`
}

// DependencyView is one (project, dependency) pair.
type DependencyView struct {
	ProjectID string                `json:"project_id"`
	DependsOn string                `json:"depends_on"`
	Type      domain.DependencyType `json:"type"`
	Status    DependencyStatus      `json:"status"`
}

// Statistics aggregates the projects in the requested lanes.
type Statistics struct {
	TotalProjects       int `json:"total_projects"`
	OverdueProjects     int `json:"overdue_projects"`
	TotalMilestones     int `json:"total_milestones"`
	CompletedMilestones int `json:"completed_milestones"`
	OverdueMilestones   int `json:"overdue_milestones"`
	AverageProgress     int `json:"average_progress"`
}

// MilestoneProgress returns completed milestones as a rounded percentage, 0 without milestones.
func MilestoneProgress(milestones []domain.ProjectMilestone) int {
	if len(milestones) == 0 {
		return 0
	}
	done := 0
	for _, m := range milestones {
		if m.Completed {
			done++
		}
	}
	return int(math.Round(100 * float64(done) / float64(len(milestones))))
}

// ClassifyMilestone returns the roadmap status of a milestone.
func ClassifyMilestone(m domain.ProjectMilestone, now time.Time) MilestoneStatus {
	switch {
	case m.Completed:
		return MilestoneCompleted
	case m.DueDate != nil && m.DueDate.Before(now):
		return MilestoneOverdue
	default:
		return MilestonePending
	}
}

// Build produces the roadmap for the requested phases. Empty phases means every
// phase in canonical order. A lane is emitted for each requested phase even when
// it has no projects; entries outside the requested phases are left out of lanes
// and statistics.
func Build(entries []Entry, phases []domain.BusinessPhase, now time.Time) Roadmap {
	if len(phases) == 0 {
		phases = domain.AllPhases()
	}

	// Dependency targets resolve against every linked project, not only requested lanes.
	progressByProject := make(map[string]int, len(entries))
	for _, e := range entries {
		if e.Project != nil {
			progressByProject[e.Record.ProjectID] = MilestoneProgress(e.Project.Milestones)
		}
	}

	lanes := make([]Lane, 0, len(phases))
	laneIndex := make(map[domain.BusinessPhase]int, len(phases))
	for _, phase := range phases {
		if _, dup := laneIndex[phase]; dup {
			continue
		}
		laneIndex[phase] = len(lanes)
		lanes = append(lanes, Lane{Phase: phase, Projects: []ProjectView{}})
	}

	rm := Roadmap{GeneratedAt: now, Dependencies: []DependencyView{}}
	progressSum := 0

	for _, e := range entries {
		idx, ok := laneIndex[e.Record.Phase]
		if !ok {
			continue
		}

		view := projectView(e, now)
		lanes[idx].Projects = append(lanes[idx].Projects, view)

		rm.Statistics.TotalProjects++
		progressSum += view.Progress
		if view.Overdue {
			rm.Statistics.OverdueProjects++
		}
		for _, m := range view.Milestones {
			rm.Statistics.TotalMilestones++
			switch m.Status {
			case MilestoneCompleted:
				rm.Statistics.CompletedMilestones++
			case MilestoneOverdue:
				rm.Statistics.OverdueMilestones++
			}
		}

		for _, dep := range e.Record.Dependencies {
			status := DependencyPending
			if p, linked := progressByProject[dep.ProjectID]; linked && p >= 100 {
				status = DependencySatisfied
			}
			rm.Dependencies = append(rm.Dependencies, DependencyView{
				ProjectID: e.Record.ProjectID,
				DependsOn: dep.ProjectID,
				Type:      dep.Type,
				Status:    status,
			})
		}
	}

	if rm.Statistics.TotalProjects > 0 {
		avg := float64(progressSum) / float64(rm.Statistics.TotalProjects)
		rm.Statistics.AverageProgress = int(math.Round(avg))
	}

	for i := range lanes {
		slices.SortStableFunc(lanes[i].Projects, compareViews)
	}
	rm.Lanes = lanes

	return rm
}

func projectView(e Entry, now time.Time) ProjectView {
	view := ProjectView{
		LinkedProjectID:      e.Record.ID,
		ProjectID:            e.Record.ProjectID,
		Role:                 e.Record.Role,
		Priority:             e.Record.Priority,
		Phase:                e.Record.Phase,
		TargetCompletionDate: e.Record.TargetCompletionDate,
		Milestones:           []MilestoneView{},
	}

	if e.Project == nil {
		view.Missing = true
	} else {
		view.Title = e.Project.Title
		view.Progress = MilestoneProgress(e.Project.Milestones)
		for i, m := range e.Project.Milestones {
			view.Milestones = append(view.Milestones, MilestoneView{
				Index:   i,
				Title:   m.Title,
				DueDate: m.DueDate,
				Status:  ClassifyMilestone(m, now),
			})
		}
	}

	target := e.Record.TargetCompletionDate
	view.Overdue = target != nil && target.Before(now) && view.Progress < 100
	return view
}

// compareViews orders a lane: higher priority first, then earlier target date
// (none last), then title.
func compareViews(a, b ProjectView) int {
	pa, _ := a.Priority.Ordinal()
	pb, _ := b.Priority.Ordinal()
	if c := cmp.Compare(pb, pa); c != 0 {
		return c
	}

	switch {
	case a.TargetCompletionDate != nil && b.TargetCompletionDate == nil:
		return -1
	case a.TargetCompletionDate == nil && b.TargetCompletionDate != nil:
		return 1
	case a.TargetCompletionDate != nil && b.TargetCompletionDate != nil:
		if c := a.TargetCompletionDate.Compare(*b.TargetCompletionDate); c != 0 {
			return c
		}
	}

	return cmp.Compare(a.Title, b.Title)
}
