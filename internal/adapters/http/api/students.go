package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/diploma/internal/domain/types"
)

// StudentDependencies looks up a student's stored standing.
type StudentDependencies interface {
	Student(ctx context.Context, studentID string) (types.StudentStanding, error)
}

// StudentHandler serves per-student standings.
type StudentHandler struct {
	deps StudentDependencies
}

// NewStudentHandler creates a new student handler.
func NewStudentHandler(deps StudentDependencies) *StudentHandler {
	return &StudentHandler{deps: deps}
}

// HandleGetStudent handles GET /students/{id}.
func (h *StudentHandler) HandleGetStudent(w http.ResponseWriter, r *http.Request) {
	const op = "api.students"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/students/"))
	if id == "" || strings.Contains(id, "/") {
		writeError(w, NewKind(op, ErrBadRequest))
		return
	}

	standing, err := h.deps.Student(r.Context(), id)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, standing)
}
