package roadmap

import (
	"testing"
	"time"

	"github.com/rezkam/compass/internal/domain"
	"github.com/rezkam/compass/internal/ptr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func milestones(done ...bool) []domain.ProjectMilestone {
	out := make([]domain.ProjectMilestone, len(done))
	for i, d := range done {
		out[i] = domain.ProjectMilestone{Title: "m", Completed: d}
	}
	return out
}

func entry(projectID string, phase domain.BusinessPhase, ms []domain.ProjectMilestone, deps ...domain.ProjectDependency) Entry {
	return Entry{
		Record: domain.LinkedProject{
			ID:           "lp-" + projectID,
			BusinessID:   "biz",
			ProjectID:    projectID,
			Role:         domain.ProjectRolePrimary,
			Priority:     domain.LevelMedium,
			Phase:        phase,
			Dependencies: deps,
		},
		Project: &domain.Project{ID: projectID, Title: projectID, Milestones: ms},
	}
}

func TestBuild_NoProjects(t *testing.T) {
	rm := Build(nil, nil, now)

	assert.Equal(t, 0, rm.Statistics.AverageProgress)
	assert.Equal(t, 0, rm.Statistics.TotalProjects)
	require.Len(t, rm.Lanes, 5)
	for i, phase := range domain.AllPhases() {
		assert.Equal(t, phase, rm.Lanes[i].Phase)
		assert.Empty(t, rm.Lanes[i].Projects)
	}
	assert.Empty(t, rm.Dependencies)
}

func TestBuild_DependencySatisfied(t *testing.T) {
	entries := []Entry{
		entry("done", domain.PhaseResearch, milestones(true, true)),
		entry("next", domain.PhaseDevelopment, milestones(false),
			domain.ProjectDependency{ProjectID: "done", Type: domain.DependencyBlocks}),
	}

	rm := Build(entries, nil, now)

	require.Len(t, rm.Dependencies, 1)
	assert.Equal(t, DependencyView{
		ProjectID: "next",
		DependsOn: "done",
		Type:      domain.DependencyBlocks,
		Status:    DependencySatisfied,
	}, rm.Dependencies[0])
}

func TestBuild_DependencyPending(t *testing.T) {
	entries := []Entry{
		entry("half", domain.PhaseResearch, milestones(true, false)),
		entry("next", domain.PhaseLaunch, nil,
			domain.ProjectDependency{ProjectID: "half", Type: domain.DependencyBlocks},
			domain.ProjectDependency{ProjectID: "unlinked", Type: domain.DependencySupports}),
	}

	rm := Build(entries, nil, now)

	require.Len(t, rm.Dependencies, 2)
	assert.Equal(t, DependencyPending, rm.Dependencies[0].Status)
	assert.Equal(t, DependencyPending, rm.Dependencies[1].Status)
}

func TestBuild_ProjectProgressAndOverdue(t *testing.T) {
	past := now.AddDate(0, 0, -1)
	e := entry("p", domain.PhaseGrowth, []domain.ProjectMilestone{
		{Title: "a", Completed: true},
		{Title: "b", DueDate: &past},
		{Title: "c", DueDate: ptr.To(now.AddDate(0, 0, 5))},
	})
	e.Record.TargetCompletionDate = &past

	finished := entry("f", domain.PhaseGrowth, milestones(true))
	finished.Record.TargetCompletionDate = &past

	rm := Build([]Entry{e, finished}, []domain.BusinessPhase{domain.PhaseGrowth}, now)

	require.Len(t, rm.Lanes, 1)
	require.Len(t, rm.Lanes[0].Projects, 2)

	byID := map[string]ProjectView{}
	for _, v := range rm.Lanes[0].Projects {
		byID[v.ProjectID] = v
	}

	p := byID["p"]
	assert.Equal(t, 33, p.Progress)
	assert.True(t, p.Overdue)
	assert.Equal(t, []MilestoneStatus{MilestoneCompleted, MilestoneOverdue, MilestonePending},
		[]MilestoneStatus{p.Milestones[0].Status, p.Milestones[1].Status, p.Milestones[2].Status})
	assert.False(t, byID["f"].Overdue, "complete projects are never overdue")

	assert.Equal(t, Statistics{
		TotalProjects:       2,
		OverdueProjects:     1,
		TotalMilestones:     4,
		CompletedMilestones: 2,
		OverdueMilestones:   1,
		AverageProgress:     67, // (33 + 100) / 2 = 66.5
	}, rm.Statistics)
}

func TestBuild_PhaseFilter(t *testing.T) {
	entries := []Entry{
		entry("r", domain.PhaseResearch, milestones(true)),
		entry("m", domain.PhaseMaintenance, milestones(false)),
	}

	rm := Build(entries, []domain.BusinessPhase{domain.PhaseMaintenance, domain.PhaseLaunch}, now)

	require.Len(t, rm.Lanes, 2)
	assert.Equal(t, domain.PhaseMaintenance, rm.Lanes[0].Phase)
	assert.Len(t, rm.Lanes[0].Projects, 1)
	assert.Equal(t, domain.PhaseLaunch, rm.Lanes[1].Phase)
	assert.Empty(t, rm.Lanes[1].Projects)
	assert.Equal(t, 1, rm.Statistics.TotalProjects)
	assert.Equal(t, 0, rm.Statistics.AverageProgress)
}

func TestBuild_LaneOrder(t *testing.T) {
	soon := now.AddDate(0, 0, 3)
	later := now.AddDate(0, 1, 0)

	mk := func(id string, prio domain.Level, target *time.Time) Entry {
		e := entry(id, domain.PhaseLaunch, nil)
		e.Record.Priority = prio
		e.Record.TargetCompletionDate = target
		return e
	}

	entries := []Entry{
		mk("zeta", domain.LevelHigh, nil),
		mk("low", domain.LevelLow, &soon),
		mk("later", domain.LevelHigh, &later),
		mk("alpha", domain.LevelHigh, nil),
		mk("crit", domain.LevelCritical, nil),
		mk("soon", domain.LevelHigh, &soon),
	}

	rm := Build(entries, []domain.BusinessPhase{domain.PhaseLaunch}, now)

	var got []string
	for _, v := range rm.Lanes[0].Projects {
		got = append(got, v.ProjectID)
	}
	assert.Equal(t, []string{"crit", "soon", "later", "alpha", "zeta", "low"}, got)
}

func TestBuild_MissingProject(t *testing.T) {
	e := entry("gone", domain.PhaseResearch, nil)
	e.Project = nil

	rm := Build([]Entry{e}, nil, now)

	require.Len(t, rm.Lanes[0].Projects, 1)
	assert.True(t, rm.Lanes[0].Projects[0].Missing)
	assert.Equal(t, 0, rm.Lanes[0].Projects[0].Progress)
}

func TestMilestoneProgress(t *testing.T) {
	assert.Equal(t, 0, MilestoneProgress(nil))
	assert.Equal(t, 50, MilestoneProgress(milestones(true, false)))
	assert.Equal(t, 67, MilestoneProgress(milestones(true, true, false)))
	assert.Equal(t, 100, MilestoneProgress(milestones(true)))
}
