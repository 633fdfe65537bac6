package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rezkam/compass/internal/domain"
	"github.com/rezkam/compass/internal/infrastructure/http/response"
)

// LinkProject handles POST /api/businesses/{id}/projects.
func (h *Handler) LinkProject(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	var req LinkProjectRequest
	if !decode(w, r, &req) {
		return
	}

	lp := &domain.LinkedProject{
		ProjectID:            req.ProjectID,
		Role:                 domain.ProjectRole(req.Role),
		Priority:             domain.Level(req.Priority),
		Phase:                domain.BusinessPhase(req.Phase),
		TargetCompletionDate: req.TargetCompletionDate,
	}
	for _, d := range req.Dependencies {
		lp.Dependencies = append(lp.Dependencies, domain.ProjectDependency{
			ProjectID: d.ProjectID,
			Type:      domain.DependencyType(d.Type),
		})
	}

	created, err := h.planner.LinkProjectToBusiness(r.Context(), owner, chi.URLParam(r, "id"), lp)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.Created(w, MapLinkedProjectToDTO(created))
}

// ListBusinessProjects handles GET /api/businesses/{id}/projects.
func (h *Handler) ListBusinessProjects(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	records, err := h.planner.ListBusinessProjects(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	out := make([]LinkedProjectDTO, 0, len(records))
	for i := range records {
		out = append(out, MapLinkedProjectToDTO(&records[i]))
	}
	response.OK(w, map[string]any{"projects": out})
}

// BusinessRoadmap handles GET /api/businesses/{id}/projects/roadmap.
// The phase parameter may be repeated or comma separated; none means every phase.
func (h *Handler) BusinessRoadmap(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	var phases []string
	for _, v := range r.URL.Query()["phase"] {
		for p := range strings.SplitSeq(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				phases = append(phases, p)
			}
		}
	}

	rm, err := h.planner.BusinessRoadmap(r.Context(), owner, chi.URLParam(r, "id"), phases)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, rm)
}
