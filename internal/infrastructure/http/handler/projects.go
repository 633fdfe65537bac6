package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rezkam/compass/internal/domain"
	"github.com/rezkam/compass/internal/infrastructure/http/response"
	"github.com/rezkam/compass/internal/ptr"
)

// CreateProject handles POST /api/projects.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	var req ProjectRequest
	if !decode(w, r, &req) {
		return
	}

	project := &domain.Project{
		Title:                ptr.Deref(req.Title, ""),
		Description:          ptr.Deref(req.Description, ""),
		Status:               domain.ProjectStatus(ptr.Deref(req.Status, "")),
		CompletionPercentage: ptr.Deref(req.CompletionPercentage, 0),
		Milestones:           toProjectMilestones(ptr.Deref(req.Milestones, nil)),
	}
	if req.GoalID != nil && *req.GoalID != "" {
		project.GoalID = req.GoalID
	}

	created, err := h.planner.CreateProject(r.Context(), owner, project)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.Created(w, MapProjectToDTO(created))
}

// GetProject handles GET /api/projects/{id}.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	project, err := h.planner.GetProject(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}
	tasks, err := h.planner.ProjectTasks(r.Context(), owner, project.ID)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	dto := MapProjectToDTO(project)
	dto.Tasks = make([]TaskDTO, 0, len(tasks))
	for i := range tasks {
		dto.Tasks = append(dto.Tasks, MapTaskToDTO(&tasks[i]))
	}
	response.OK(w, dto)
}

// UpdateProject handles PATCH /api/projects/{id} with a field mask.
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	var req UpdateProjectRequest
	if !decode(w, r, &req) {
		return
	}

	params := domain.UpdateProjectParams{
		ProjectID:  chi.URLParam(r, "id"),
		Etag:       req.Etag,
		UpdateMask: req.UpdateMask,
	}

	p := req.Project
	for _, field := range params.UpdateMask {
		switch field {
		case "title":
			params.Title = p.Title
		case "description":
			params.Description = p.Description
		case "status":
			if p.Status != nil {
				params.Status = ptr.To(domain.ProjectStatus(*p.Status))
			}
		case "completion_percentage":
			params.CompletionPercentage = p.CompletionPercentage
		case "milestones":
			if p.Milestones != nil {
				params.Milestones = ptr.To(toProjectMilestones(*p.Milestones))
			}
		case "goal_id":
			params.GoalID = p.GoalID
		}
	}

	updated, err := h.planner.UpdateProject(r.Context(), owner, params)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, MapProjectToDTO(updated))
}

// CompleteProjectMilestone handles POST /api/projects/{id}/milestones/{index}/complete.
func (h *Handler) CompleteProjectMilestone(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}
	index, ok := indexParam(w, r, "index")
	if !ok {
		return
	}

	updated, err := h.planner.CompleteProjectMilestone(r.Context(), owner, chi.URLParam(r, "id"), index)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, MapProjectToDTO(updated))
}
