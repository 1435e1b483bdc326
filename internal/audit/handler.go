package audit

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/schoolfinance/pkg/response"
)

// Handler exposes the audit trail kept in Postgres
type Handler struct {
	repo *Repository
}

// NewHandler creates a new audit handler
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Routes returns the router for audit endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)

	return r
}

// List handles GET /audit
// @Summary      List audit entries
// @Tags         audit
// @Produce      json
// @Param        entity_id query string false "Restrict to one entity"
// @Param        page query int false "Page"
// @Param        per_page query int false "Page size"
// @Success      200 {object} response.APIResponse{data=[]Entry}
// @Router       /audit [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	entries, total, err := h.repo.List(r.Context(), r.URL.Query().Get("entity_id"), perPage, (page-1)*perPage)
	if err != nil {
		response.InternalError(w, "Failed to list audit entries")
		return
	}

	meta := &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: (total + perPage - 1) / perPage,
	}

	response.JSONWithMeta(w, http.StatusOK, entries, meta)
}
