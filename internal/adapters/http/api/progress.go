package api

import (
	"context"
	"net/http"

	"github.com/okian/diploma/internal/domain/credits"
)

// ProgressDependencies evaluates XP without touching stored state.
type ProgressDependencies interface {
	CatalogDependencies
	Evaluate(ctx context.Context, verified, pending credits.XPMap, top int) (credits.Report, error)
}

// ProgressHandler serves synchronous evaluations.
type ProgressHandler struct {
	deps       ProgressDependencies
	defaultTop int
}

// NewProgressHandler creates a new progress handler. defaultTop applies when
// the request omits "top".
func NewProgressHandler(deps ProgressDependencies, defaultTop int) *ProgressHandler {
	return &ProgressHandler{deps: deps, defaultTop: defaultTop}
}

// HandlePostProgress handles POST /progress.
func (h *ProgressHandler) HandlePostProgress(w http.ResponseWriter, r *http.Request) {
	const op = "api.progress"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req progressRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	top := h.defaultTop
	if req.Top != nil {
		top = *req.Top
	}
	if top < 0 {
		writeError(w, NewKind(op, ErrBadRequest))
		return
	}

	verified, err := req.Verified.parse(h.deps.Catalog())
	if err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	pending, err := req.Pending.parse(h.deps.Catalog())
	if err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	report, err := h.deps.Evaluate(r.Context(), verified, pending, top)
	if err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}
