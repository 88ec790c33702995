package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/diploma/internal/domain/types"
)

// CohortDependencies lists the top of the cohort.
type CohortDependencies interface {
	TopN(ctx context.Context, n int) ([]types.CohortEntry, error)
}

// CohortHandler serves the cohort ranking.
type CohortHandler struct {
	deps     CohortDependencies
	maxLimit int
}

// NewCohortHandler creates a new cohort handler.
func NewCohortHandler(deps CohortDependencies, maxLimit int) *CohortHandler {
	if maxLimit < 1 {
		maxLimit = defaultMaxCohortLimit
	}
	return &CohortHandler{deps: deps, maxLimit: maxLimit}
}

type cohortResponse struct {
	Students []types.CohortEntry `json:"students"`
}

// HandleGetCohort handles GET /cohort?limit=N. limit defaults to 10.
func (h *CohortHandler) HandleGetCohort(w http.ResponseWriter, r *http.Request) {
	const op = "api.cohort"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	limit := min(10, h.maxLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, WrapKind(op, ErrBadRequest, fmt.Errorf("invalid limit %q", raw)))
			return
		}
		if n > h.maxLimit {
			writeError(w, WrapKind(op, ErrLimitExceeded, fmt.Errorf("limit %d exceeds %d", n, h.maxLimit)))
			return
		}
		limit = n
	}

	entries, err := h.deps.TopN(r.Context(), limit)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, cohortResponse{Students: entries})
}
