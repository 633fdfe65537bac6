package response_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/compass/internal/domain"
	"github.com/rezkam/compass/internal/infrastructure/http/response"
)

type unencodable struct{}

func (unencodable) MarshalJSON() ([]byte, error) {
	return nil, errors.New("boom")
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) response.ErrorDetail {
	t.Helper()
	var body response.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestOK_EncodingFailureReturns500(t *testing.T) {
	for name, send := range map[string]func(http.ResponseWriter, any){
		"ok":      response.OK,
		"created": response.Created,
	} {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			send(w, unencodable{})

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			detail := decodeError(t, w)
			assert.Equal(t, "INTERNAL_ERROR", detail.Code)
			assert.Equal(t, "failed to encode response", detail.Message)
		})
	}
}

func TestCreated(t *testing.T) {
	w := httptest.NewRecorder()
	response.Created(w, map[string]string{"id": "t1"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":"t1"}`, w.Body.String())
}

func TestFromDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantField  string
	}{
		{"title", domain.ErrTitleRequired, http.StatusBadRequest, "VALIDATION_ERROR", "title"},
		{"wrapped enum", fmt.Errorf("urgency: %w", domain.ErrInvalidEnum), http.StatusBadRequest, "VALIDATION_ERROR", ""},
		{"frequency", domain.ErrFrequencyRequired, http.StatusBadRequest, "VALIDATION_ERROR", "recurring.frequency"},
		{"link", domain.ErrInvalidLink, http.StatusBadRequest, "VALIDATION_ERROR", "link"},
		{"dependency", domain.ErrInvalidDependency, http.StatusBadRequest, "VALIDATION_ERROR", "dependencies"},
		{"completion", domain.ErrInvalidCompletion, http.StatusBadRequest, "VALIDATION_ERROR", "completion_percentage"},
		{"milestone", domain.ErrInvalidMilestoneIndex, http.StatusBadRequest, "VALIDATION_ERROR", "milestone"},
		{"id", domain.ErrInvalidID, http.StatusBadRequest, "VALIDATION_ERROR", "id"},
		{"not recurring", domain.ErrNotRecurring, http.StatusBadRequest, "VALIDATION_ERROR", "status"},
		{"task", domain.ErrTaskNotFound, http.StatusNotFound, "NOT_FOUND", ""},
		{"goal", fmt.Errorf("%w: g1", domain.ErrGoalNotFound), http.StatusNotFound, "NOT_FOUND", ""},
		{"generic", domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND", ""},
		{"conflict", domain.ErrVersionConflict, http.StatusConflict, "VERSION_CONFLICT", ""},
		{"dependents", domain.ErrTaskHasDependents, http.StatusConflict, "HAS_DEPENDENTS", ""},
		{"blocked", domain.ErrTaskBlocked, http.StatusConflict, "TASK_BLOCKED", ""},
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED", ""},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, "INTERNAL_ERROR", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)

			response.FromDomainError(w, r, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			detail := decodeError(t, w)
			assert.Equal(t, tt.wantCode, detail.Code)
			if tt.wantCode == "VALIDATION_ERROR" {
				require.Len(t, detail.Details, 1)
				assert.Equal(t, tt.wantField, detail.Details[0].Field)
			}
			if tt.wantStatus == http.StatusInternalServerError {
				assert.NotContains(t, w.Body.String(), "disk on fire")
			}
		})
	}
}
