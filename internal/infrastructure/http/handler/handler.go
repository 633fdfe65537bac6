package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rezkam/compass/internal/application/auth"
	"github.com/rezkam/compass/internal/application/planner"
	"github.com/rezkam/compass/internal/infrastructure/http/response"
)

// Handler adapts HTTP requests to planner service calls.
type Handler struct {
	planner *planner.Service
}

// New creates a new HTTP API handler.
func New(svc *planner.Service) *Handler {
	return &Handler{planner: svc}
}

// Routes returns the API routes. They expect an authenticated owner in the
// request context and are mounted under /api by the server.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/priority/classify", h.Classify)

	r.Route("/tasks", func(r chi.Router) {
		r.Post("/", h.CreateTask)
		r.Get("/", h.ListTasks)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetTask)
			r.Patch("/", h.UpdateTask)
			r.Delete("/", h.DeleteTask)
			r.Post("/status", h.SetTaskStatus)
			r.Get("/blocking", h.Blocking)
			r.Post("/dependencies", h.AddDependency)
			r.Delete("/dependencies/{targetID}", h.RemoveDependency)
			r.Patch("/subtasks/{index}", h.UpdateSubtask)
		})
	})

	r.Route("/goals", func(r chi.Router) {
		r.Post("/", h.CreateGoal)
		r.Get("/", h.ListGoals)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetGoal)
			r.Patch("/", h.UpdateGoal)
			r.Delete("/", h.DeleteGoal)
			r.Post("/progress", h.RecordGoalProgress)
		})
	})

	r.Route("/projects", func(r chi.Router) {
		r.Post("/", h.CreateProject)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetProject)
			r.Patch("/", h.UpdateProject)
			r.Post("/milestones/{index}/complete", h.CompleteProjectMilestone)
		})
	})

	r.Route("/businesses/{id}/projects", func(r chi.Router) {
		r.Post("/", h.LinkProject)
		r.Get("/", h.ListBusinessProjects)
		r.Get("/roadmap", h.BusinessRoadmap)
	})

	return r
}

// ownerFrom returns the authenticated owner or writes a 401.
func ownerFrom(w http.ResponseWriter, r *http.Request) (string, bool) {
	owner, ok := auth.OwnerFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "missing caller identity")
		return "", false
	}
	return owner, true
}

// decode reads a JSON body into v or writes a 400.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			response.BadRequest(w, "request body is required")
		} else {
			response.BadRequest(w, "invalid JSON")
		}
		return false
	}
	return true
}

// indexParam parses a non-negative integer path parameter or writes a 400.
func indexParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || n < 0 {
		response.ValidationError(w, name, "must be a non-negative integer")
		return 0, false
	}
	return n, true
}
