// Package compliance holds the behavioural test suite every planner.Repository
// implementation must pass.
package compliance

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rezkam/compass/internal/application/planner"
	"github.com/rezkam/compass/internal/domain"
	"github.com/rezkam/compass/internal/ptr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// base has no sub-microsecond part so every backend round-trips it exactly.
var base = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

// RunRepositoryComplianceTest runs the standard repository checks.
// setup returns a ready repository; it may be shared between subtests, so every
// subtest works under its own owner ID.
func RunRepositoryComplianceTest(t *testing.T, setup func(t *testing.T) planner.Repository) {
	t.Run("TaskLifecycle", func(t *testing.T) {
		repo := setup(t)
		ctx := context.Background()
		owner := uuid.NewString()

		created, err := repo.CreateTask(ctx, newTask(owner, "Write report", 0))
		require.NoError(t, err)
		assert.Equal(t, 1, created.Version)

		fetched, err := repo.FindTaskByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Write report", fetched.Title)
		assert.Equal(t, owner, fetched.OwnerID)

		fetched.Title = "Write final report"
		fetched.UpdatedAt = base.Add(time.Hour)
		updated, err := repo.UpdateTask(ctx, fetched)
		require.NoError(t, err)
		assert.Equal(t, 2, updated.Version)
		assert.Equal(t, "Write final report", updated.Title)
		assert.True(t, base.Add(time.Hour).Equal(updated.UpdatedAt))

		// fetched still carries version 1.
		_, err = repo.UpdateTask(ctx, fetched)
		assert.ErrorIs(t, err, domain.ErrVersionConflict)

		missing := newTask(owner, "ghost", 0)
		missing.ID = uuid.NewString()
		missing.Version = 1
		_, err = repo.UpdateTask(ctx, missing)
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)

		require.NoError(t, repo.DeleteTask(ctx, created.ID))
		_, err = repo.FindTaskByID(ctx, created.ID)
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)
		assert.ErrorIs(t, repo.DeleteTask(ctx, created.ID), domain.ErrTaskNotFound)
	})

	t.Run("TaskFieldsRoundTrip", func(t *testing.T) {
		repo := setup(t)
		ctx := context.Background()
		owner := uuid.NewString()

		goal, err := repo.CreateGoal(ctx, newGoal(owner, "Ship it", 0))
		require.NoError(t, err)

		task := newTask(owner, "Plan sprint", 0)
		task.Description = "two weeks"
		task.Category = "work"
		task.Tags = []string{"planning", "team"}
		task.Urgency = domain.LevelCritical
		task.Importance = domain.LevelHigh
		task.Deadline = ptr.To(base.Add(48 * time.Hour))
		task.EstimatedTime = 90
		task.Subtasks = []domain.Subtask{{Title: "agenda", Completed: true}, {Title: "invite"}}
		task.Dependencies = []domain.Dependency{{TaskID: "t-1", Type: domain.DependencyBlocks}}
		task.Recurring = domain.Recurrence{IsRecurring: true, Frequency: domain.FrequencyWeekly, NextDue: ptr.To(base.Add(7 * 24 * time.Hour))}
		task.Link = domain.GoalLink{GoalID: goal.ID, Milestone: ptr.To(0)}
		task.RecurrenceParentID = ptr.To("parent")

		created, err := repo.CreateTask(ctx, task)
		require.NoError(t, err)

		got, err := repo.FindTaskByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, task.Tags, got.Tags)
		assert.Equal(t, task.Subtasks, got.Subtasks)
		assert.Equal(t, task.Dependencies, got.Dependencies)
		assert.Equal(t, domain.LevelCritical, got.Urgency)
		assert.Equal(t, domain.LevelHigh, got.Importance)
		assert.Equal(t, 90, got.EstimatedTime)
		require.NotNil(t, got.Deadline)
		assert.True(t, task.Deadline.Equal(*got.Deadline))
		assert.True(t, got.Recurring.IsRecurring)
		assert.Equal(t, domain.FrequencyWeekly, got.Recurring.Frequency)
		require.NotNil(t, got.Recurring.NextDue)
		assert.True(t, task.Recurring.NextDue.Equal(*got.Recurring.NextDue))
		assert.Equal(t, task.Link, got.Link)
		assert.Equal(t, "parent", ptr.Deref(got.RecurrenceParentID, ""))
		assert.Nil(t, got.CompletedAt)
		assert.True(t, base.Equal(got.CreatedAt))
	})

	t.Run("FindTasksFiltersAndOrders", func(t *testing.T) {
		repo := setup(t)
		ctx := context.Background()
		owner := uuid.NewString()

		low := newTask(owner, "low", 0)
		low.Urgency, low.Importance = domain.LevelLow, domain.LevelLow
		low.Tags = []string{"home"}

		urgent := newTask(owner, "urgent", 1)
		urgent.Urgency, urgent.Importance = domain.LevelCritical, domain.LevelCritical
		urgent.Category = "work"

		dated := newTask(owner, "dated", 2)
		dated.Deadline = ptr.To(base.Add(24 * time.Hour))
		dated.Tags = []string{"home", "errand"}

		archived := newTask(owner, "archived", 3)
		archived.ArchivedAt = ptr.To(base)

		for _, task := range []*domain.Task{low, urgent, dated, archived} {
			_, err := repo.CreateTask(ctx, task)
			require.NoError(t, err)
		}
		_, err := repo.CreateTask(ctx, newTask(uuid.NewString(), "someone else", 0))
		require.NoError(t, err)

		page, err := repo.FindTasks(ctx, owner, domain.TaskFilter{OrderBy: domain.OrderByPriority})
		require.NoError(t, err)
		assert.Equal(t, []string{"urgent", "dated", "low"}, titles(page.Items))
		assert.Equal(t, 3, page.TotalCount)
		assert.False(t, page.HasMore)

		page, err = repo.FindTasks(ctx, owner, domain.TaskFilter{})
		require.NoError(t, err)
		assert.Equal(t, []string{"dated", "urgent", "low"}, titles(page.Items), "newest first by default")

		page, err = repo.FindTasks(ctx, owner, domain.TaskFilter{OrderBy: domain.OrderByDeadline, IncludeArchived: true})
		require.NoError(t, err)
		assert.Equal(t, "dated", page.Items[0].Title, "deadlines sort before tasks without one")
		assert.Equal(t, 4, page.TotalCount)

		page, err = repo.FindTasks(ctx, owner, domain.TaskFilter{Tag: ptr.To("home")})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"low", "dated"}, titles(page.Items))

		page, err = repo.FindTasks(ctx, owner, domain.TaskFilter{Category: ptr.To("work")})
		require.NoError(t, err)
		assert.Equal(t, []string{"urgent"}, titles(page.Items))

		page, err = repo.FindTasks(ctx, owner, domain.TaskFilter{OrderBy: domain.OrderByPriority, Limit: 2})
		require.NoError(t, err)
		assert.Len(t, page.Items, 2)
		assert.Equal(t, 3, page.TotalCount)
		assert.True(t, page.HasMore)

		page, err = repo.FindTasks(ctx, owner, domain.TaskFilter{OrderBy: domain.OrderByPriority, Limit: 2, Offset: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{"low"}, titles(page.Items))
		assert.False(t, page.HasMore)
	})

	t.Run("FindTasksByLinksAndIDs", func(t *testing.T) {
		repo := setup(t)
		ctx := context.Background()
		owner := uuid.NewString()

		goal, err := repo.CreateGoal(ctx, newGoal(owner, "goal", 0))
		require.NoError(t, err)
		project, err := repo.CreateProject(ctx, newProject(owner, "project", 0))
		require.NoError(t, err)

		forGoal := newTask(owner, "for goal", 0)
		forGoal.Link = domain.GoalLink{GoalID: goal.ID}
		forProject := newTask(owner, "for project", 1)
		forProject.Link = domain.ProjectLink{ProjectID: project.ID}

		a, err := repo.CreateTask(ctx, forGoal)
		require.NoError(t, err)
		b, err := repo.CreateTask(ctx, forProject)
		require.NoError(t, err)

		byGoal, err := repo.FindTasksByGoal(ctx, goal.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"for goal"}, titles(byGoal))

		byProject, err := repo.FindTasksByProject(ctx, project.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"for project"}, titles(byProject))

		page, err := repo.FindTasks(ctx, owner, domain.TaskFilter{GoalID: ptr.To(goal.ID)})
		require.NoError(t, err)
		assert.Equal(t, []string{"for goal"}, titles(page.Items))

		found, err := repo.FindTasksByIDs(ctx, []string{a.ID, b.ID, uuid.NewString()})
		require.NoError(t, err)
		assert.Len(t, found, 2)

		none, err := repo.FindTasksByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("FindTasksWhereDependsOn", func(t *testing.T) {
		repo := setup(t)
		ctx := context.Background()
		owner := uuid.NewString()

		target, err := repo.CreateTask(ctx, newTask(owner, "target", 0))
		require.NoError(t, err)

		blocked := newTask(owner, "blocked", 1)
		blocked.Dependencies = []domain.Dependency{{TaskID: target.ID, Type: domain.DependencyBlocks}}
		supported := newTask(owner, "supported", 2)
		supported.Dependencies = []domain.Dependency{
			{TaskID: uuid.NewString(), Type: domain.DependencyEnables},
			{TaskID: target.ID, Type: domain.DependencySupports},
		}
		for _, task := range []*domain.Task{blocked, supported, newTask(owner, "unrelated", 3)} {
			_, err := repo.CreateTask(ctx, task)
			require.NoError(t, err)
		}

		dependents, err := repo.FindTasksWhereDependsOn(ctx, target.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"blocked", "supported"}, titles(dependents))
	})

	t.Run("GoalLifecycle", func(t *testing.T) {
		repo := setup(t)
		ctx := context.Background()
		owner := uuid.NewString()

		goal := newGoal(owner, "Run a marathon", 0)
		goal.TargetDate = ptr.To(base.Add(90 * 24 * time.Hour))
		goal.TargetValue = ptr.To(42.2)
		goal.Unit = "km"
		goal.Milestones = []domain.GoalMilestone{{Title: "10k"}, {Title: "half", TargetDate: ptr.To(base.Add(30 * 24 * time.Hour))}}

		created, err := repo.CreateGoal(ctx, goal)
		require.NoError(t, err)
		assert.Equal(t, 1, created.Version)
		assert.Equal(t, goal.Milestones[0], created.Milestones[0])
		assert.Equal(t, 42.2, ptr.Deref(created.TargetValue, 0))
		assert.Nil(t, created.CurrentValue)

		created.Status = domain.GoalStatusAchieved
		created.AchievedAt = ptr.To(base.Add(time.Hour))
		created.ProgressEntries = []domain.ProgressEntry{{Value: 5, Note: "first run", RecordedAt: base}}
		created.CurrentValue = ptr.To(5.0)
		updated, err := repo.UpdateGoal(ctx, created)
		require.NoError(t, err)
		assert.Equal(t, 2, updated.Version)
		assert.Equal(t, domain.GoalStatusAchieved, updated.Status)
		require.Len(t, updated.ProgressEntries, 1)
		assert.Equal(t, "first run", updated.ProgressEntries[0].Note)

		_, err = repo.UpdateGoal(ctx, created)
		assert.ErrorIs(t, err, domain.ErrVersionConflict)

		second, err := repo.CreateGoal(ctx, newGoal(owner, "Read more", 1))
		require.NoError(t, err)

		goals, err := repo.FindGoals(ctx, owner)
		require.NoError(t, err)
		require.Len(t, goals, 2)
		assert.Equal(t, second.ID, goals[0].ID, "newest first")

		require.NoError(t, repo.DeleteGoal(ctx, created.ID))
		_, err = repo.FindGoalByID(ctx, created.ID)
		assert.ErrorIs(t, err, domain.ErrGoalNotFound)
		assert.ErrorIs(t, repo.DeleteGoal(ctx, created.ID), domain.ErrGoalNotFound)
	})

	t.Run("FindGoalIDsPage", func(t *testing.T) {
		repo := setup(t)
		ctx := context.Background()
		owner := uuid.NewString()

		var ids []string
		for i := range 3 {
			g, err := repo.CreateGoal(ctx, newGoal(owner, "goal", i))
			require.NoError(t, err)
			ids = append(ids, g.ID)
		}

		var seen []string
		after := ""
		for {
			page, err := repo.FindGoalIDsPage(ctx, after, 2)
			require.NoError(t, err)
			if len(page) == 0 {
				break
			}
			assert.LessOrEqual(t, len(page), 2)
			assert.True(t, slices.IsSorted(page))
			seen = append(seen, page...)
			after = page[len(page)-1]
		}
		for _, id := range ids {
			assert.Contains(t, seen, id)
		}
	})

	t.Run("DetachFromGoal", func(t *testing.T) {
		repo := setup(t)
		ctx := context.Background()
		owner := uuid.NewString()

		goal, err := repo.CreateGoal(ctx, newGoal(owner, "goal", 0))
		require.NoError(t, err)

		task := newTask(owner, "linked", 0)
		task.Link = domain.GoalLink{GoalID: goal.ID}
		linkedTask, err := repo.CreateTask(ctx, task)
		require.NoError(t, err)

		project := newProject(owner, "linked", 0)
		project.GoalID = ptr.To(goal.ID)
		linkedProject, err := repo.CreateProject(ctx, project)
		require.NoError(t, err)

		byGoal, err := repo.FindProjectsByGoal(ctx, goal.ID)
		require.NoError(t, err)
		assert.Len(t, byGoal, 1)

		n, err := repo.DetachTasksFromGoal(ctx, goal.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		n, err = repo.DetachProjectsFromGoal(ctx, goal.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		gotTask, err := repo.FindTaskByID(ctx, linkedTask.ID)
		require.NoError(t, err)
		assert.Nil(t, gotTask.Link)
		assert.Equal(t, 2, gotTask.Version)

		gotProject, err := repo.FindProjectByID(ctx, linkedProject.ID)
		require.NoError(t, err)
		assert.Nil(t, gotProject.GoalID)
		assert.Equal(t, 2, gotProject.Version)
	})

	t.Run("ProjectLifecycle", func(t *testing.T) {
		repo := setup(t)
		ctx := context.Background()
		owner := uuid.NewString()

		project := newProject(owner, "Website", 0)
		project.Milestones = []domain.ProjectMilestone{
			{Title: "design", DueDate: ptr.To(base.Add(24 * time.Hour))},
			{Title: "build"},
		}
		created, err := repo.CreateProject(ctx, project)
		require.NoError(t, err)
		assert.Equal(t, 1, created.Version)
		assert.Equal(t, project.Milestones, created.Milestones)

		created.Milestones[0].Completed = true
		created.Milestones[0].CompletedAt = ptr.To(base)
		created.CompletionPercentage = 50
		created.Status = domain.ProjectStatusActive
		updated, err := repo.UpdateProject(ctx, created)
		require.NoError(t, err)
		assert.Equal(t, 2, updated.Version)
		assert.Equal(t, 50.0, updated.CompletionPercentage)
		assert.True(t, updated.Milestones[0].Completed)

		_, err = repo.UpdateProject(ctx, created)
		assert.ErrorIs(t, err, domain.ErrVersionConflict)

		_, err = repo.FindProjectByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, domain.ErrProjectNotFound)

		found, err := repo.FindProjectsByIDs(ctx, []string{created.ID, uuid.NewString()})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, created.ID, found[0].ID)
	})

	t.Run("LinkedProjects", func(t *testing.T) {
		repo := setup(t)
		ctx := context.Background()
		owner := uuid.NewString()
		business := uuid.NewString()

		first := &domain.LinkedProject{
			ID:                   uuid.NewString(),
			OwnerID:              owner,
			BusinessID:           business,
			ProjectID:            uuid.NewString(),
			Role:                 domain.ProjectRolePrimary,
			Priority:             domain.LevelHigh,
			Phase:                domain.PhaseDevelopment,
			TargetCompletionDate: ptr.To(base.Add(30 * 24 * time.Hour)),
			CreatedAt:            base,
		}
		second := &domain.LinkedProject{
			ID:           uuid.NewString(),
			OwnerID:      owner,
			BusinessID:   business,
			ProjectID:    uuid.NewString(),
			Role:         domain.ProjectRoleDependency,
			Priority:     domain.LevelLow,
			Phase:        domain.PhaseLaunch,
			Dependencies: []domain.ProjectDependency{{ProjectID: first.ProjectID, Type: domain.DependencyBlocks}},
			CreatedAt:    base.Add(time.Minute),
		}
		for _, lp := range []*domain.LinkedProject{first, second} {
			_, err := repo.CreateLinkedProject(ctx, lp)
			require.NoError(t, err)
		}

		records, err := repo.FindLinkedProjects(ctx, owner, business)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, first.ID, records[0].ID)
		assert.Equal(t, second.Dependencies, records[1].Dependencies)
		assert.True(t, first.TargetCompletionDate.Equal(*records[0].TargetCompletionDate))

		other, err := repo.FindLinkedProjects(ctx, uuid.NewString(), business)
		require.NoError(t, err)
		assert.Empty(t, other, "records are scoped to their owner")

		refs, err := repo.FindBusinessIDs(ctx)
		require.NoError(t, err)
		assert.Contains(t, refs, domain.BusinessRef{OwnerID: owner, BusinessID: business})
	})

	t.Run("CompletionEvents", func(t *testing.T) {
		repo := setup(t)
		ctx := context.Background()
		owner := uuid.NewString()

		task, err := repo.CreateTask(ctx, newTask(owner, "recurring", 0))
		require.NoError(t, err)

		_, err = repo.FindCompletionEvent(ctx, task.ID, "k1")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		event := &domain.CompletionEvent{TaskID: task.ID, Key: "k1", NextInstanceID: ptr.To("next"), CreatedAt: base}
		require.NoError(t, repo.CreateCompletionEvent(ctx, event))

		got, err := repo.FindCompletionEvent(ctx, task.ID, "k1")
		require.NoError(t, err)
		assert.Equal(t, "next", ptr.Deref(got.NextInstanceID, ""))
		assert.True(t, base.Equal(got.CreatedAt))

		err = repo.CreateCompletionEvent(ctx, event)
		assert.ErrorIs(t, err, domain.ErrVersionConflict)

		require.NoError(t, repo.CreateCompletionEvent(ctx, &domain.CompletionEvent{TaskID: task.ID, Key: "k2", CreatedAt: base}))
		got, err = repo.FindCompletionEvent(ctx, task.ID, "k2")
		require.NoError(t, err)
		assert.Nil(t, got.NextInstanceID)
	})

	t.Run("AtomicRollsBack", func(t *testing.T) {
		repo := setup(t)
		ctx := context.Background()
		owner := uuid.NewString()
		boom := errors.New("boom")

		var createdID string
		err := repo.Atomic(ctx, func(tx planner.Repository) error {
			created, err := tx.CreateTask(ctx, newTask(owner, "doomed", 0))
			if err != nil {
				return err
			}
			createdID = created.ID
			return boom
		})
		require.ErrorIs(t, err, boom)

		_, err = repo.FindTaskByID(ctx, createdID)
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	})

	t.Run("AtomicCommitsAndNests", func(t *testing.T) {
		repo := setup(t)
		ctx := context.Background()
		owner := uuid.NewString()

		var outerID, innerID string
		err := repo.Atomic(ctx, func(tx planner.Repository) error {
			outer, err := tx.CreateTask(ctx, newTask(owner, "outer", 0))
			if err != nil {
				return err
			}
			outerID = outer.ID
			return tx.Atomic(ctx, func(inner planner.Repository) error {
				created, err := inner.CreateTask(ctx, newTask(owner, "inner", 1))
				if err != nil {
					return err
				}
				innerID = created.ID
				return nil
			})
		})
		require.NoError(t, err)

		_, err = repo.FindTaskByID(ctx, outerID)
		assert.NoError(t, err)
		_, err = repo.FindTaskByID(ctx, innerID)
		assert.NoError(t, err)
	})
}

// newTask builds a valid task created offset minutes after base.
func newTask(owner, title string, offset int) *domain.Task {
	at := base.Add(time.Duration(offset) * time.Minute)
	return &domain.Task{
		ID:         uuid.NewString(),
		OwnerID:    owner,
		Title:      title,
		Urgency:    domain.LevelMedium,
		Importance: domain.LevelMedium,
		Status:     domain.TaskStatusNotStarted,
		CreatedAt:  at,
		UpdatedAt:  at,
	}
}

func newGoal(owner, title string, offset int) *domain.Goal {
	at := base.Add(time.Duration(offset) * time.Minute)
	return &domain.Goal{
		ID:        uuid.NewString(),
		OwnerID:   owner,
		Title:     title,
		Priority:  domain.LevelMedium,
		Status:    domain.GoalStatusNotStarted,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func newProject(owner, title string, offset int) *domain.Project {
	at := base.Add(time.Duration(offset) * time.Minute)
	return &domain.Project{
		ID:        uuid.NewString(),
		OwnerID:   owner,
		Title:     title,
		Status:    domain.ProjectStatusNotStarted,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func titles(tasks []domain.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}
