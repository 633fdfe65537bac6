package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rezkam/compass/internal/application/planner"
	"github.com/rezkam/compass/internal/domain"
	"github.com/rezkam/compass/internal/infrastructure/http/response"
	"github.com/rezkam/compass/internal/ptr"
)

// IdempotencyKeyHeader carries the client key that makes a completion replay-safe.
const IdempotencyKeyHeader = "Idempotency-Key"

// CreateTask handles POST /api/tasks.
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	var req TaskRequest
	if !decode(w, r, &req) {
		return
	}

	link, err := toLink(req.Link)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	task := &domain.Task{
		Title:         ptr.Deref(req.Title, ""),
		Description:   ptr.Deref(req.Description, ""),
		Category:      ptr.Deref(req.Category, ""),
		Tags:          ptr.Deref(req.Tags, nil),
		Urgency:       domain.Level(ptr.Deref(req.Urgency, "")),
		Importance:    domain.Level(ptr.Deref(req.Importance, "")),
		Status:        domain.TaskStatus(ptr.Deref(req.Status, "")),
		Deadline:      req.Deadline,
		EstimatedTime: ptr.Deref(req.EstimatedTime, 0),
		ActualTime:    ptr.Deref(req.ActualTime, 0),
		Subtasks:      toSubtasks(ptr.Deref(req.Subtasks, nil)),
		Dependencies:  toDependencies(ptr.Deref(req.Dependencies, nil)),
		Link:          link,
	}
	if req.Recurring != nil {
		task.Recurring = toRecurrence(*req.Recurring)
	}

	created, err := h.planner.CreateTask(r.Context(), owner, task)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "task created via HTTP",
		"task_id", created.ID,
		"owner", owner)

	response.Created(w, MapTaskToDTO(created))
}

// GetTask handles GET /api/tasks/{id}.
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	task, err := h.planner.GetTask(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, MapTaskToDTO(task))
}

// ListTasks handles GET /api/tasks.
//
// Query parameters: status, goal_id, project_id, category, tag, include_archived,
// order_by (priority|deadline|created_at), page_size, page_token.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := domain.TaskFilter{
		OrderBy: q.Get("order_by"),
		Offset:  parsePageToken(q.Get("page_token")),
	}
	if v := q.Get("status"); v != "" {
		status, err := domain.ParseTaskStatus(v)
		if err != nil {
			response.FromDomainError(w, r, err)
			return
		}
		filter.Status = &status
	}
	if v := q.Get("goal_id"); v != "" {
		filter.GoalID = ptr.To(v)
	}
	if v := q.Get("project_id"); v != "" {
		filter.ProjectID = ptr.To(v)
	}
	if v := q.Get("category"); v != "" {
		filter.Category = ptr.To(v)
	}
	if v := q.Get("tag"); v != "" {
		filter.Tag = ptr.To(v)
	}
	if v := q.Get("include_archived"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			response.ValidationError(w, "include_archived", "must be a boolean")
			return
		}
		filter.IncludeArchived = b
	}
	if v := q.Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			response.ValidationError(w, "page_size", "must be a non-negative integer")
			return
		}
		filter.Limit = n
	}

	page, err := h.planner.ListTasks(r.Context(), owner, filter)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, ListTasksResponse{
		Tasks:         mapTasks(page.Items),
		TotalCount:    page.TotalCount,
		NextPageToken: generatePageToken(filter.Offset+len(page.Items), page.HasMore),
	})
}

// UpdateTask handles PATCH /api/tasks/{id} with a field mask.
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if !decode(w, r, &req) {
		return
	}

	params := domain.UpdateTaskParams{
		TaskID:     chi.URLParam(r, "id"),
		Etag:       req.Etag,
		UpdateMask: req.UpdateMask,
	}

	t := req.Task
	for _, field := range params.UpdateMask {
		switch field {
		case "title":
			params.Title = t.Title
		case "description":
			params.Description = t.Description
		case "category":
			params.Category = t.Category
		case "tags":
			params.Tags = t.Tags
		case "urgency":
			if t.Urgency != nil {
				params.Urgency = ptr.To(domain.Level(*t.Urgency))
			}
		case "importance":
			if t.Importance != nil {
				params.Importance = ptr.To(domain.Level(*t.Importance))
			}
		case "deadline":
			params.Deadline = t.Deadline
		case "estimated_time":
			params.EstimatedTime = t.EstimatedTime
		case "actual_time":
			params.ActualTime = t.ActualTime
		case "subtasks":
			if t.Subtasks != nil {
				params.Subtasks = ptr.To(toSubtasks(*t.Subtasks))
			}
		case "recurring":
			if t.Recurring != nil {
				params.Recurring = ptr.To(toRecurrence(*t.Recurring))
			}
		case "link":
			link, err := toLink(t.Link)
			if err != nil {
				response.FromDomainError(w, r, err)
				return
			}
			params.Link = link
		}
	}

	updated, err := h.planner.UpdateTask(r.Context(), owner, params)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, MapTaskToDTO(updated))
}

// DeleteTask handles DELETE /api/tasks/{id}. The task is archived unless
// permanent=true is given.
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	permanent := false
	if v := r.URL.Query().Get("permanent"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			response.ValidationError(w, "permanent", "must be a boolean")
			return
		}
		permanent = b
	}

	id := chi.URLParam(r, "id")
	if err := h.planner.DeleteTask(r.Context(), owner, id, permanent); err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "task deleted via HTTP",
		"task_id", id,
		"permanent", permanent)

	response.NoContent(w)
}

// SetTaskStatus handles POST /api/tasks/{id}/status.
func (h *Handler) SetTaskStatus(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	var req StatusRequest
	if !decode(w, r, &req) {
		return
	}

	key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	change, err := h.planner.SetTaskStatus(r.Context(), owner, chi.URLParam(r, "id"), req.Status, key)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	out := StatusChangeDTO{
		Task:     MapTaskToDTO(change.Task),
		Replayed: change.Replayed,
	}
	if change.NextInstance != nil {
		out.NextInstance = ptr.To(MapTaskToDTO(change.NextInstance))
		slog.InfoContext(r.Context(), "recurring task instance generated",
			"task_id", change.Task.ID,
			"next_instance_id", change.NextInstance.ID,
			"replayed", change.Replayed)
	}

	response.OK(w, out)
}

// Blocking handles GET /api/tasks/{id}/blocking.
func (h *Handler) Blocking(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	report, err := h.planner.Blocking(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, BlockingDTO{
		CanStart:   report.CanStart,
		BlockedBy:  mapDependencies(report.BlockedBy),
		Dependents: mapTasks(report.Dependents),
	})
}

// AddDependency handles POST /api/tasks/{id}/dependencies.
func (h *Handler) AddDependency(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	var req DependencyDTO
	if !decode(w, r, &req) {
		return
	}

	dep := domain.Dependency{TaskID: req.TaskID, Type: domain.DependencyType(req.Type)}
	updated, err := h.planner.AddDependency(r.Context(), owner, chi.URLParam(r, "id"), dep)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, MapTaskToDTO(updated))
}

// RemoveDependency handles DELETE /api/tasks/{id}/dependencies/{targetID}.
func (h *Handler) RemoveDependency(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	updated, err := h.planner.RemoveDependency(r.Context(), owner, chi.URLParam(r, "id"), chi.URLParam(r, "targetID"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, MapTaskToDTO(updated))
}

// UpdateSubtask handles PATCH /api/tasks/{id}/subtasks/{index}.
func (h *Handler) UpdateSubtask(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}
	index, ok := indexParam(w, r, "index")
	if !ok {
		return
	}

	var req SubtaskPatchRequest
	if !decode(w, r, &req) {
		return
	}

	updated, err := h.planner.UpdateSubtask(r.Context(), owner, chi.URLParam(r, "id"), index, planner.SubtaskPatch{
		Title:     req.Title,
		Completed: req.Completed,
	})
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, MapTaskToDTO(updated))
}
