package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/compass/internal/application/auth"
	"github.com/rezkam/compass/internal/application/planner"
	"github.com/rezkam/compass/internal/infrastructure/http/handler"
	"github.com/rezkam/compass/internal/infrastructure/http/response"
	"github.com/rezkam/compass/internal/infrastructure/persistence/sqlite"
	"github.com/rezkam/compass/internal/roadmap"
)

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// api mounts the routes behind a stand-in for the auth middleware that takes
// the owner from X-Owner.
type api struct {
	t      *testing.T
	router http.Handler
}

func newAPI(t *testing.T) *api {
	t.Helper()

	store, err := sqlite.OpenInMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	svc := planner.NewService(store, func() time.Time { return now }, planner.Config{DefaultPageSize: 10, MaxPageSize: 20})

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if owner := r.Header.Get("X-Owner"); owner != "" {
				ctx = auth.WithOwner(ctx, owner)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	r.Mount("/api", handler.New(svc).Routes())

	return &api{t: t, router: r}
}

func (a *api) do(owner, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	a.t.Helper()

	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if owner != "" {
		req.Header.Set("X-Owner", owner)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decodeAs[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) response.ErrorDetail {
	t.Helper()
	return decodeAs[response.ErrorResponse](t, w).Error
}

func (a *api) createTask(owner string, body map[string]any) handler.TaskDTO {
	a.t.Helper()
	w := a.do(owner, http.MethodPost, "/api/tasks", body)
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decodeAs[handler.TaskDTO](a.t, w)
}

func TestClassify(t *testing.T) {
	a := newAPI(t)

	w := a.do("alice", http.MethodGet, "/api/priority/classify?urgency=high&importance=low", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeAs[handler.PriorityDTO](t, w)
	assert.Equal(t, handler.PriorityDTO{Quadrant: "Q3", Label: "Delegate", Score: 9}, got)

	w = a.do("alice", http.MethodGet, "/api/priority/classify?urgency=urgent", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMissingOwner(t *testing.T) {
	a := newAPI(t)

	w := a.do("", http.MethodGet, "/api/tasks", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateTask(t *testing.T) {
	a := newAPI(t)

	task := a.createTask("alice", map[string]any{
		"title":      "Ship release",
		"urgency":    "critical",
		"importance": "high",
		"tags":       []string{"release"},
		"subtasks":   []map[string]any{{"title": "changelog"}},
	})

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "not_started", task.Status)
	assert.Equal(t, "Q1", task.Priority.Quadrant)
	assert.Equal(t, 17, task.Priority.Score)
	assert.Equal(t, []string{"release"}, task.Tags)
	assert.Len(t, task.Subtasks, 1)
	assert.Empty(t, task.Dependencies)
	assert.Equal(t, "1", task.Etag)

	t.Run("validation errors", func(t *testing.T) {
		tests := []struct {
			name      string
			body      any
			wantCode  string
			wantField string
		}{
			{"missing title", map[string]any{"urgency": "low"}, "VALIDATION_ERROR", "title"},
			{"bad urgency", map[string]any{"title": "x", "urgency": "soon"}, "VALIDATION_ERROR", ""},
			{"recurring without frequency", map[string]any{"title": "x", "recurring": map[string]any{"is_recurring": true}}, "VALIDATION_ERROR", "recurring.frequency"},
			{"bad link", map[string]any{"title": "x", "link": map[string]any{"kind": "team", "id": "t"}}, "VALIDATION_ERROR", "link"},
			{"invalid json", `{"title":`, "INVALID_REQUEST", ""},
			{"empty body", "", "INVALID_REQUEST", ""},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				w := a.do("alice", http.MethodPost, "/api/tasks", tt.body)
				require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
				detail := errorOf(t, w)
				assert.Equal(t, tt.wantCode, detail.Code)
				if tt.wantField != "" {
					require.Len(t, detail.Details, 1)
					assert.Equal(t, tt.wantField, detail.Details[0].Field)
				}
			})
		}
	})

	t.Run("other owners cannot read it", func(t *testing.T) {
		w := a.do("bob", http.MethodGet, "/api/tasks/"+task.ID, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = a.do("alice", http.MethodGet, "/api/tasks/"+task.ID, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, task.ID, decodeAs[handler.TaskDTO](t, w).ID)
	})
}

func TestUpdateTask(t *testing.T) {
	a := newAPI(t)
	task := a.createTask("alice", map[string]any{"title": "Draft", "deadline": now.Add(48 * time.Hour)})

	w := a.do("alice", http.MethodPatch, "/api/tasks/"+task.ID, map[string]any{
		"update_mask": []string{"title", "importance", "deadline"},
		"task":        map[string]any{"title": "Final", "importance": "critical"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decodeAs[handler.TaskDTO](t, w)
	assert.Equal(t, "Final", updated.Title)
	assert.Equal(t, "critical", updated.Importance)
	assert.Nil(t, updated.Deadline, "deadline in the mask without a value clears it")
	assert.Equal(t, "2", updated.Etag)

	t.Run("stale etag", func(t *testing.T) {
		stale := updated.Etag
		a.do("alice", http.MethodPatch, "/api/tasks/"+task.ID, map[string]any{
			"etag": stale, "update_mask": []string{"category"}, "task": map[string]any{"category": "work"},
		})
		w := a.do("alice", http.MethodPatch, "/api/tasks/"+task.ID, map[string]any{
			"etag": stale, "update_mask": []string{"category"}, "task": map[string]any{"category": "home"},
		})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "VERSION_CONFLICT", errorOf(t, w).Code)
	})

	t.Run("status is not maskable", func(t *testing.T) {
		w := a.do("alice", http.MethodPatch, "/api/tasks/"+task.ID, map[string]any{
			"update_mask": []string{"status"}, "task": map[string]any{"status": "completed"},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "update_mask", errorOf(t, w).Details[0].Field)
	})
}

func TestRecurringCompletionIsIdempotent(t *testing.T) {
	a := newAPI(t)
	task := a.createTask("alice", map[string]any{
		"title":     "Pay rent",
		"deadline":  time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC),
		"recurring": map[string]any{"is_recurring": true, "frequency": "monthly"},
	})

	path := "/api/tasks/" + task.ID + "/status"
	w := a.do("alice", http.MethodPost, path, map[string]any{"status": "completed"}, "Idempotency-Key", "pay-march")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decodeAs[handler.StatusChangeDTO](t, w)
	require.NotNil(t, first.NextInstance)
	assert.Equal(t, "completed", first.Task.Status)
	assert.False(t, first.Replayed)
	require.NotNil(t, first.NextInstance.Deadline)
	assert.Equal(t, time.Date(2024, 4, 5, 9, 0, 0, 0, time.UTC), first.NextInstance.Deadline.UTC())
	assert.Equal(t, &task.ID, first.NextInstance.RecurrenceParentID)

	w = a.do("alice", http.MethodPost, path, map[string]any{"status": "completed"}, "Idempotency-Key", "pay-march")
	require.Equal(t, http.StatusOK, w.Code)
	replay := decodeAs[handler.StatusChangeDTO](t, w)
	assert.True(t, replay.Replayed)
	require.NotNil(t, replay.NextInstance)
	assert.Equal(t, first.NextInstance.ID, replay.NextInstance.ID)

	w = a.do("alice", http.MethodGet, "/api/tasks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decodeAs[handler.ListTasksResponse](t, w).TotalCount)
}

func TestDependencies(t *testing.T) {
	a := newAPI(t)
	design := a.createTask("alice", map[string]any{"title": "Design"})
	build := a.createTask("alice", map[string]any{
		"title":        "Build",
		"dependencies": []map[string]any{{"task_id": design.ID, "type": "blocks"}},
	})

	w := a.do("alice", http.MethodGet, "/api/tasks/"+build.ID+"/blocking", nil)
	require.Equal(t, http.StatusOK, w.Code)
	report := decodeAs[handler.BlockingDTO](t, w)
	assert.False(t, report.CanStart)
	assert.Equal(t, []handler.DependencyDTO{{TaskID: design.ID, Type: "blocks"}}, report.BlockedBy)

	w = a.do("alice", http.MethodPost, "/api/tasks/"+build.ID+"/status", map[string]any{"status": "in_progress"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "TASK_BLOCKED", errorOf(t, w).Code)

	w = a.do("alice", http.MethodGet, "/api/tasks/"+design.ID+"/blocking", nil)
	require.Equal(t, http.StatusOK, w.Code)
	dependents := decodeAs[handler.BlockingDTO](t, w).Dependents
	require.Len(t, dependents, 1)
	assert.Equal(t, build.ID, dependents[0].ID)

	w = a.do("alice", http.MethodDelete, "/api/tasks/"+design.ID+"?permanent=true", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "HAS_DEPENDENTS", errorOf(t, w).Code)

	w = a.do("alice", http.MethodPost, "/api/tasks/"+design.ID+"/status", map[string]any{"status": "completed"})
	require.Equal(t, http.StatusOK, w.Code)
	w = a.do("alice", http.MethodPost, "/api/tasks/"+build.ID+"/status", map[string]any{"status": "in_progress"})
	require.Equal(t, http.StatusOK, w.Code)

	t.Run("edit dependencies", func(t *testing.T) {
		docs := a.createTask("alice", map[string]any{"title": "Docs"})

		w := a.do("alice", http.MethodPost, "/api/tasks/"+docs.ID+"/dependencies", map[string]any{"task_id": build.ID, "type": "enables"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Len(t, decodeAs[handler.TaskDTO](t, w).Dependencies, 1)

		w = a.do("alice", http.MethodPost, "/api/tasks/"+docs.ID+"/dependencies", map[string]any{"task_id": docs.ID, "type": "blocks"})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = a.do("alice", http.MethodDelete, "/api/tasks/"+docs.ID+"/dependencies/"+build.ID, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decodeAs[handler.TaskDTO](t, w).Dependencies)

		w = a.do("alice", http.MethodDelete, "/api/tasks/"+docs.ID+"/dependencies/"+build.ID, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestUpdateSubtask(t *testing.T) {
	a := newAPI(t)
	task := a.createTask("alice", map[string]any{
		"title":    "Move",
		"subtasks": []map[string]any{{"title": "pack"}, {"title": "drive"}},
	})

	w := a.do("alice", http.MethodPatch, "/api/tasks/"+task.ID+"/subtasks/1", map[string]any{"completed": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decodeAs[handler.TaskDTO](t, w)
	assert.Equal(t, []handler.SubtaskDTO{{Title: "pack"}, {Title: "drive", Completed: true}}, got.Subtasks)

	w = a.do("alice", http.MethodPatch, "/api/tasks/"+task.ID+"/subtasks/first", map[string]any{"completed": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do("alice", http.MethodPatch, "/api/tasks/"+task.ID+"/subtasks/5", map[string]any{"completed": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListAndDeleteTasks(t *testing.T) {
	a := newAPI(t)
	ids := make([]string, 0, 3)
	for _, title := range []string{"one", "two", "three"} {
		ids = append(ids, a.createTask("alice", map[string]any{"title": title}).ID)
	}

	w := a.do("alice", http.MethodGet, "/api/tasks?page_size=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decodeAs[handler.ListTasksResponse](t, w)
	assert.Len(t, page.Tasks, 2)
	assert.Equal(t, 3, page.TotalCount)
	require.NotNil(t, page.NextPageToken)

	w = a.do("alice", http.MethodGet, "/api/tasks?page_size=2&page_token="+*page.NextPageToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	next := decodeAs[handler.ListTasksResponse](t, w)
	assert.Len(t, next.Tasks, 1)
	assert.Nil(t, next.NextPageToken)

	w = a.do("alice", http.MethodGet, "/api/tasks?order_by=random", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = a.do("alice", http.MethodGet, "/api/tasks?status=done", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do("alice", http.MethodDelete, "/api/tasks/"+ids[0], nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = a.do("alice", http.MethodGet, "/api/tasks", nil)
	assert.Equal(t, 2, decodeAs[handler.ListTasksResponse](t, w).TotalCount)
	w = a.do("alice", http.MethodGet, "/api/tasks?include_archived=true", nil)
	assert.Equal(t, 3, decodeAs[handler.ListTasksResponse](t, w).TotalCount)

	w = a.do("alice", http.MethodDelete, "/api/tasks/"+ids[1]+"?permanent=true", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = a.do("alice", http.MethodGet, "/api/tasks/"+ids[1], nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do("alice", http.MethodDelete, "/api/tasks/"+ids[2]+"?permanent=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGoals(t *testing.T) {
	a := newAPI(t)

	w := a.do("alice", http.MethodPost, "/api/goals", map[string]any{
		"title":       "Run a marathon",
		"priority":    "high",
		"target_date": now.Add(90 * 24 * time.Hour),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	goal := decodeAs[handler.GoalDTO](t, w)
	assert.Equal(t, 0, goal.Progress)
	assert.Equal(t, "not_started", goal.Status)

	first := a.createTask("alice", map[string]any{"title": "10k", "link": map[string]any{"kind": "goal", "id": goal.ID}})
	a.createTask("alice", map[string]any{"title": "half", "link": map[string]any{"kind": "goal", "id": goal.ID}})

	w = a.do("alice", http.MethodPost, "/api/tasks/"+first.ID+"/status", map[string]any{"status": "completed"})
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do("alice", http.MethodGet, "/api/goals/"+goal.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeAs[handler.GoalDTO](t, w)
	assert.Equal(t, 50, got.Progress)
	assert.Equal(t, "in_progress", got.Status)
	assert.Equal(t, 2, got.Breakdown.TotalTasks)
	assert.Equal(t, 1, got.Breakdown.CompletedTasks)

	t.Run("record progress", func(t *testing.T) {
		w := a.do("alice", http.MethodPost, "/api/goals/"+goal.ID+"/progress", map[string]any{"value": 21.1, "note": "half"})
		require.Equal(t, http.StatusOK, w.Code)
		got := decodeAs[handler.GoalDTO](t, w)
		require.Len(t, got.ProgressEntries, 1)
		assert.InDelta(t, 21.1, *got.CurrentValue, 1e-9)
		assert.Equal(t, 50, got.Progress, "manual entries do not move derived progress")

		w = a.do("alice", http.MethodPost, "/api/goals/"+goal.ID+"/progress", map[string]any{"note": "no value"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("update", func(t *testing.T) {
		w := a.do("alice", http.MethodPatch, "/api/goals/"+goal.ID, map[string]any{
			"update_mask": []string{"unit", "target_value"},
			"goal":        map[string]any{"unit": "km", "target_value": 42.2},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "km", decodeAs[handler.GoalDTO](t, w).Unit)
	})

	t.Run("list and delete", func(t *testing.T) {
		w := a.do("alice", http.MethodGet, "/api/goals", nil)
		require.Equal(t, http.StatusOK, w.Code)
		list := decodeAs[struct {
			Goals []handler.GoalDTO `json:"goals"`
		}](t, w)
		assert.Len(t, list.Goals, 1)

		w = a.do("alice", http.MethodDelete, "/api/goals/"+goal.ID, nil)
		require.Equal(t, http.StatusNoContent, w.Code)

		w = a.do("alice", http.MethodGet, "/api/tasks/"+first.ID, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, decodeAs[handler.TaskDTO](t, w).Link)

		w = a.do("alice", http.MethodGet, "/api/goals/"+goal.ID, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestProjectsAndRoadmap(t *testing.T) {
	a := newAPI(t)

	w := a.do("alice", http.MethodPost, "/api/projects", map[string]any{
		"title": "Website",
		"milestones": []map[string]any{
			{"title": "design", "due_date": now.Add(-24 * time.Hour)},
			{"title": "launch", "due_date": now.Add(30 * 24 * time.Hour)},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	project := decodeAs[handler.ProjectDTO](t, w)
	assert.Equal(t, "not_started", project.Status)

	w = a.do("alice", http.MethodPost, "/api/projects/"+project.ID+"/milestones/0/complete", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	project = decodeAs[handler.ProjectDTO](t, w)
	assert.Equal(t, "active", project.Status)
	assert.InDelta(t, 50.0, project.CompletionPercentage, 1e-9)

	w = a.do("alice", http.MethodPost, "/api/projects/"+project.ID+"/milestones/7/complete", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	link := map[string]any{"kind": "project", "id": project.ID}
	a.createTask("alice", map[string]any{"title": "tweak fonts", "urgency": "low", "importance": "low", "link": link})
	a.createTask("alice", map[string]any{"title": "fix login", "urgency": "critical", "importance": "high", "link": link})

	w = a.do("alice", http.MethodGet, "/api/projects/"+project.ID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	withTasks := decodeAs[handler.ProjectDTO](t, w)
	require.Len(t, withTasks.Tasks, 2)
	assert.Equal(t, "fix login", withTasks.Tasks[0].Title)
	assert.Equal(t, "tweak fonts", withTasks.Tasks[1].Title)

	w = a.do("alice", http.MethodPatch, "/api/projects/"+project.ID, map[string]any{
		"update_mask": []string{"completion_percentage"},
		"project":     map[string]any{"completion_percentage": 120},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do("alice", http.MethodPost, "/api/businesses/acme/projects", map[string]any{
		"project_id": project.ID,
		"role":       "primary",
		"priority":   "high",
		"phase":      "development",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	linked := decodeAs[handler.LinkedProjectDTO](t, w)
	assert.Equal(t, "acme", linked.BusinessID)

	w = a.do("alice", http.MethodPost, "/api/businesses/acme/projects", map[string]any{
		"project_id": project.ID, "role": "owner", "phase": "development",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do("alice", http.MethodGet, "/api/businesses/acme/projects/roadmap?phase=development,launch", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rm := decodeAs[roadmap.Roadmap](t, w)
	require.Len(t, rm.Lanes, 2)
	require.Len(t, rm.Lanes[0].Projects, 1)
	view := rm.Lanes[0].Projects[0]
	assert.Equal(t, 50, view.Progress)
	assert.Equal(t, roadmap.MilestoneCompleted, view.Milestones[0].Status)
	assert.Equal(t, roadmap.MilestonePending, view.Milestones[1].Status)
	assert.Empty(t, rm.Lanes[1].Projects)
	assert.Equal(t, 1, rm.Statistics.TotalProjects)
	assert.Equal(t, 50, rm.Statistics.AverageProgress)

	w = a.do("alice", http.MethodGet, "/api/businesses/acme/projects/roadmap?phase=scaling", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do("bob", http.MethodGet, "/api/businesses/acme/projects/roadmap", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, decodeAs[roadmap.Roadmap](t, w).Statistics.TotalProjects)

	w = a.do("alice", http.MethodGet, "/api/businesses/acme/projects", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), project.ID)
}
