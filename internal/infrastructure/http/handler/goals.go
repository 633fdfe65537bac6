package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rezkam/compass/internal/domain"
	"github.com/rezkam/compass/internal/infrastructure/http/response"
	"github.com/rezkam/compass/internal/ptr"
)

// CreateGoal handles POST /api/goals.
func (h *Handler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	var req GoalRequest
	if !decode(w, r, &req) {
		return
	}

	goal := &domain.Goal{
		Title:        ptr.Deref(req.Title, ""),
		Description:  ptr.Deref(req.Description, ""),
		Category:     ptr.Deref(req.Category, ""),
		Priority:     domain.Level(ptr.Deref(req.Priority, "")),
		TargetDate:   req.TargetDate,
		CurrentValue: req.CurrentValue,
		TargetValue:  req.TargetValue,
		Unit:         ptr.Deref(req.Unit, ""),
		Milestones:   toGoalMilestones(ptr.Deref(req.Milestones, nil)),
	}

	created, err := h.planner.CreateGoal(r.Context(), owner, goal)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	view, err := h.planner.GetGoal(r.Context(), owner, created.ID)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.Created(w, MapGoalToDTO(view))
}

// GetGoal handles GET /api/goals/{id}.
func (h *Handler) GetGoal(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	view, err := h.planner.GetGoal(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, MapGoalToDTO(view))
}

// ListGoals handles GET /api/goals.
func (h *Handler) ListGoals(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	views, err := h.planner.ListGoals(r.Context(), owner)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	goals := make([]GoalDTO, 0, len(views))
	for i := range views {
		goals = append(goals, MapGoalToDTO(&views[i]))
	}
	response.OK(w, map[string]any{"goals": goals})
}

// UpdateGoal handles PATCH /api/goals/{id} with a field mask.
func (h *Handler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	var req UpdateGoalRequest
	if !decode(w, r, &req) {
		return
	}

	params := domain.UpdateGoalParams{
		GoalID:     chi.URLParam(r, "id"),
		Etag:       req.Etag,
		UpdateMask: req.UpdateMask,
	}

	g := req.Goal
	for _, field := range params.UpdateMask {
		switch field {
		case "title":
			params.Title = g.Title
		case "description":
			params.Description = g.Description
		case "category":
			params.Category = g.Category
		case "priority":
			if g.Priority != nil {
				params.Priority = ptr.To(domain.Level(*g.Priority))
			}
		case "target_date":
			params.TargetDate = g.TargetDate
		case "current_value":
			params.CurrentValue = g.CurrentValue
		case "target_value":
			params.TargetValue = g.TargetValue
		case "unit":
			params.Unit = g.Unit
		case "milestones":
			if g.Milestones != nil {
				params.Milestones = ptr.To(toGoalMilestones(*g.Milestones))
			}
		}
	}

	view, err := h.planner.UpdateGoal(r.Context(), owner, params)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, MapGoalToDTO(view))
}

// DeleteGoal handles DELETE /api/goals/{id}. Linked tasks and projects are detached.
func (h *Handler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	if err := h.planner.DeleteGoal(r.Context(), owner, chi.URLParam(r, "id")); err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.NoContent(w)
}

// RecordGoalProgress handles POST /api/goals/{id}/progress.
func (h *Handler) RecordGoalProgress(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	var req RecordProgressRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Value == nil {
		response.ValidationError(w, "value", "required field missing")
		return
	}

	view, err := h.planner.RecordGoalProgress(r.Context(), owner, chi.URLParam(r, "id"), *req.Value, req.Note)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, MapGoalToDTO(view))
}
