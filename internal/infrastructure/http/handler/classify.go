package handler

import (
	"net/http"

	"github.com/rezkam/compass/internal/infrastructure/http/response"
)

// Classify handles GET /api/priority/classify?urgency=..&importance=..
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	c, err := h.planner.Classify(q.Get("urgency"), q.Get("importance"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, mapPriority(c))
}
