package payable

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/schoolfinance/internal/period"
	"github.com/fkhayef/schoolfinance/pkg/middleware"
	"github.com/fkhayef/schoolfinance/pkg/request"
	"github.com/fkhayef/schoolfinance/pkg/response"
)

// Handler handles HTTP requests for accounts payable
type Handler struct {
	service *Service
}

// NewHandler creates a new payable handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for payable endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/balance", h.Balance)
	r.Get("/paid", h.ListPaid)
	r.Get("/{id}", h.GetByID)
	r.Post("/{id}/pay", h.Pay)

	return r
}

// monthParam reads ?month=YYYY-MM, defaulting to the current month
func monthParam(r *http.Request) (period.Month, error) {
	raw := r.URL.Query().Get("month")
	if raw == "" {
		return period.Of(time.Now()), nil
	}
	return period.Parse(raw)
}

// List handles GET /payables
// @Summary      List payables
// @Tags         payables
// @Produce      json
// @Param        status query string false "pending or paid"
// @Param        due_month query string false "Due month, YYYY-MM"
// @Success      200 {object} response.APIResponse{data=ListResponse}
// @Router       /payables [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := Filter{Status: Status(q.Get("status"))}
	if filter.Status != "" && filter.Status != StatusPending && filter.Status != StatusPaid {
		response.BadRequest(w, "Invalid status")
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

	payables, err := h.service.ListPayables(r.Context(), filter)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, NewListResponse(payables))
}

// Create handles POST /payables
// @Summary      Register a payable
// @Description  Recurring payables materialize up to 12 future occurrences
// @Tags         payables
// @Accept       json
// @Produce      json
// @Param        request body CreatePayableRequest true "Payable"
// @Success      201 {object} response.APIResponse{data=CreatePayableResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /payables [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.GetActorID(r.Context())

	var req CreatePayableRequest
	if err := request.DecodeAndValidate(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	result, err := h.service.CreatePayable(r.Context(), &req, actorID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, result)
}

// GetByID handles GET /payables/{id}
// @Summary      Get payable by ID
// @Tags         payables
// @Produce      json
// @Param        id path string true "Payable ID"
// @Success      200 {object} response.APIResponse{data=Payable}
// @Failure      404 {object} response.APIResponse
// @Router       /payables/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetPayable(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, p)
}

// Pay handles POST /payables/{id}/pay
// @Summary      Pay a payable
// @Description  Fails with 422 when the month's school balance does not cover it, unless allow_negative_balance is set
// @Tags         payables
// @Accept       json
// @Produce      json
// @Param        id path string true "Payable ID"
// @Param        request body PayRequest true "Payment"
// @Success      200 {object} response.APIResponse{data=Payable}
// @Failure      409 {object} response.APIResponse
// @Failure      422 {object} response.APIResponse
// @Router       /payables/{id}/pay [post]
func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.GetActorID(r.Context())

	var req PayRequest
	if err := request.DecodeAndValidate(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	p, err := h.service.PayPayable(r.Context(), chi.URLParam(r, "id"), &req, actorID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, p)
}

// Balance handles GET /payables/balance
// @Summary      School balance of a month
// @Tags         payables
// @Produce      json
// @Param        month query string false "Month, YYYY-MM (default current)"
// @Success      200 {object} response.APIResponse{data=SchoolBalance}
// @Router       /payables/balance [get]
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		response.FromError(w, err)
		return
	}

	balance, err := h.service.GetSchoolBalance(r.Context(), month)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, balance)
}

// ListPaid handles GET /payables/paid
// @Summary      Payments recorded in a month
// @Tags         payables
// @Produce      json
// @Param        month query string false "Month, YYYY-MM (default current)"
// @Success      200 {object} response.APIResponse{data=ListResponse}
// @Router       /payables/paid [get]
func (h *Handler) ListPaid(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		response.FromError(w, err)
		return
	}

	paid, err := h.service.ListPaid(r.Context(), month)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, NewListResponse(paid))
}
