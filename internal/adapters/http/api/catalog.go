package api

import (
	"net/http"

	"github.com/okian/diploma/internal/domain/credits"
)

// CatalogDependencies exposes the subject catalog.
type CatalogDependencies interface {
	Catalog() *credits.Catalog
}

// CatalogHandler serves the subject catalog.
type CatalogHandler struct {
	deps CatalogDependencies
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(deps CatalogDependencies) *CatalogHandler {
	return &CatalogHandler{deps: deps}
}

type catalogResponse struct {
	Subjects             []credits.Definition `json:"subjects"`
	TotalCreditsRequired float64              `json:"total_credits_required"`
}

// HandleGetCatalog handles GET /catalog.
func (h *CatalogHandler) HandleGetCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	c := h.deps.Catalog()
	writeJSON(w, http.StatusOK, catalogResponse{
		Subjects:             c.Definitions(),
		TotalCreditsRequired: c.TotalCreditsRequired(),
	})
}
