package charge

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/schoolfinance/internal/period"
	"github.com/fkhayef/schoolfinance/pkg/middleware"
	"github.com/fkhayef/schoolfinance/pkg/request"
	"github.com/fkhayef/schoolfinance/pkg/response"
)

// Handler handles HTTP requests for charge operations
type Handler struct {
	service *Service
}

// NewHandler creates a new charge handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for charge endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.GetByID)

	return r
}

// List handles GET /charges
// @Summary      List charges
// @Description  Filter by student, status, kind and due month (YYYY-MM)
// @Tags         charges
// @Produce      json
// @Param        student_id query string false "Student ID"
// @Param        status query string false "pending, under_review, paid or cancelled"
// @Param        kind query string false "Charge kind"
// @Param        due_month query string false "Due month, YYYY-MM"
// @Success      200 {object} response.APIResponse{data=ListResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /charges [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := Filter{
		StudentID: q.Get("student_id"),
		Status:    Status(q.Get("status")),
		Kind:      Kind(q.Get("kind")),
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		response.BadRequest(w, "Invalid status")
		return
	}
	if filter.Kind != "" && !filter.Kind.IsValid() {
		response.BadRequest(w, "Invalid kind")
		return
	}
	if raw := q.Get("due_month"); raw != "" {
		m, err := period.Parse(raw)
		if err != nil {
			response.FromError(w, err)
			return
		}
		filter.DueIn = &m
	}

	charges, err := h.service.ListCharges(r.Context(), filter)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, NewListResponse(charges))
}

// Create handles POST /charges
// @Summary      Create a manual charge
// @Tags         charges
// @Accept       json
// @Produce      json
// @Param        request body CreateChargeRequest true "Charge"
// @Success      201 {object} response.APIResponse{data=Charge}
// @Failure      400 {object} response.APIResponse
// @Router       /charges [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.GetActorID(r.Context())

	var req CreateChargeRequest
	if err := request.DecodeAndValidate(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	c, err := h.service.CreateCharge(r.Context(), &req, actorID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, c)
}

// GetByID handles GET /charges/{id}
// @Summary      Get charge by ID
// @Tags         charges
// @Produce      json
// @Param        id path string true "Charge ID"
// @Success      200 {object} response.APIResponse{data=Charge}
// @Failure      404 {object} response.APIResponse
// @Router       /charges/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetCharge(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, c)
}
