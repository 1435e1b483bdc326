package student

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/schoolfinance/pkg/middleware"
	"github.com/fkhayef/schoolfinance/pkg/request"
	"github.com/fkhayef/schoolfinance/pkg/response"
)

// Handler handles HTTP requests for student operations
type Handler struct {
	service *Service
}

// NewHandler creates a new student handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for student endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.GetByID)
	r.Put("/{id}", h.Update)

	r.Get("/{id}/profile", h.GetProfile)
	r.Put("/{id}/profile", h.SaveProfile)
	r.Post("/{id}/enroll", h.Enroll)
	r.Post("/{id}/tuition", h.GenerateTuition)

	return r
}

// Create handles POST /students
// @Summary      Register a student
// @Tags         students
// @Accept       json
// @Produce      json
// @Param        request body CreateStudentRequest true "Student"
// @Success      201 {object} response.APIResponse{data=Student}
// @Failure      400 {object} response.APIResponse
// @Router       /students [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateStudentRequest
	if err := request.DecodeAndValidate(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	st, err := h.service.Create(r.Context(), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, st)
}

// GetByID handles GET /students/{id}
// @Summary      Get student by ID
// @Tags         students
// @Produce      json
// @Param        id path string true "Student ID"
// @Success      200 {object} response.APIResponse{data=Student}
// @Failure      404 {object} response.APIResponse
// @Router       /students/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, st)
}

// GetProfile handles GET /students/{id}/profile
// @Summary      Get a student's financial profile
// @Tags         students
// @Produce      json
// @Param        id path string true "Student ID"
// @Success      200 {object} response.APIResponse{data=charge.FinancialProfile}
// @Failure      400 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /students/{id}/profile [get]
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.GetProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, profile)
}

// List handles GET /students
// @Summary      List students
// @Tags         students
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]Student}
// @Router       /students [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	students, total, err := h.service.List(r.Context(), page, perPage)
	if err != nil {
		response.FromError(w, err)
		return
	}

	totalPages := (total + perPage - 1) / perPage
	meta := &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}

	response.JSONWithMeta(w, http.StatusOK, students, meta)
}

// Update handles PUT /students/{id}
// @Summary      Update a student
// @Tags         students
// @Accept       json
// @Produce      json
// @Param        id path string true "Student ID"
// @Param        request body UpdateStudentRequest true "Changes"
// @Success      200 {object} response.APIResponse{data=Student}
// @Failure      404 {object} response.APIResponse
// @Router       /students/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateStudentRequest
	if err := request.DecodeAndValidate(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	st, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, st)
}

// SaveProfile handles PUT /students/{id}/profile
// @Summary      Save a student's financial profile
// @Tags         students
// @Accept       json
// @Produce      json
// @Param        id path string true "Student ID"
// @Param        request body ProfileRequest true "Billing terms"
// @Success      200 {object} response.APIResponse{data=Student}
// @Failure      400 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /students/{id}/profile [put]
func (h *Handler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.GetActorID(r.Context())

	var req ProfileRequest
	if err := request.DecodeAndValidate(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	st, err := h.service.SaveProfile(r.Context(), chi.URLParam(r, "id"), req.ToProfile(), actorID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, st)
}

// Enroll handles POST /students/{id}/enroll
// @Summary      Enroll a student
// @Description  Generates the enrollment fee, materials fee and monthly tuition of the competency window
// @Tags         students
// @Produce      json
// @Param        id path string true "Student ID"
// @Success      201 {object} response.APIResponse{data=EnrollResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /students/{id}/enroll [post]
func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.GetActorID(r.Context())

	result, err := h.service.Enroll(r.Context(), chi.URLParam(r, "id"), actorID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, result)
}

// GenerateTuition handles POST /students/{id}/tuition
// @Summary      Generate recurring tuition
// @Description  Months that already hold a tuition charge are skipped unless overwrite_existing is set
// @Tags         students
// @Accept       json
// @Produce      json
// @Param        id path string true "Student ID"
// @Param        request body GenerateTuitionRequest true "Months to generate"
// @Success      200 {object} response.APIResponse{data=charge.BatchResult}
// @Failure      400 {object} response.APIResponse
// @Router       /students/{id}/tuition [post]
func (h *Handler) GenerateTuition(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.GetActorID(r.Context())

	var req GenerateTuitionRequest
	if err := request.DecodeAndValidate(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	result, err := h.service.GenerateTuition(r.Context(), chi.URLParam(r, "id"), &req, actorID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, result)
}
