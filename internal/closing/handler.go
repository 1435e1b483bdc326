package closing

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/schoolfinance/internal/period"
	"github.com/fkhayef/schoolfinance/pkg/middleware"
	"github.com/fkhayef/schoolfinance/pkg/response"
)

// Handler handles HTTP requests for monthly closing
type Handler struct {
	service *Service
}

// NewHandler creates a new closing handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for closing endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/{period}", h.Get)
	r.Get("/{period}/status", h.Status)
	r.Post("/{period}", h.Close)

	return r
}

// StatusResponse tells whether a period is closed
type StatusResponse struct {
	Period period.Month `json:"period"`
	Closed bool         `json:"closed"`
}

// List handles GET /closings
// @Summary      List closed periods
// @Tags         closings
// @Produce      json
// @Success      200 {object} response.APIResponse{data=[]Closure}
// @Router       /closings [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	closures, err := h.service.ListClosures(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, closures)
}

// Get handles GET /closings/{period}
// @Summary      Get the closure record of a period
// @Tags         closings
// @Produce      json
// @Param        period path string true "Period, YYYY-MM"
// @Success      200 {object} response.APIResponse{data=Closure}
// @Failure      404 {object} response.APIResponse
// @Router       /closings/{period} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	month, err := period.Parse(chi.URLParam(r, "period"))
	if err != nil {
		response.FromError(w, err)
		return
	}

	c, err := h.service.GetClosure(r.Context(), month)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, c)
}

// Status handles GET /closings/{period}/status
// @Summary      Check whether a period is closed
// @Tags         closings
// @Produce      json
// @Param        period path string true "Period, YYYY-MM"
// @Success      200 {object} response.APIResponse{data=StatusResponse}
// @Router       /closings/{period}/status [get]
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	month, err := period.Parse(chi.URLParam(r, "period"))
	if err != nil {
		response.FromError(w, err)
		return
	}

	closed, err := h.service.IsMonthClosed(r.Context(), month)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, &StatusResponse{Period: month, Closed: closed})
}

// Close handles POST /closings/{period}
// @Summary      Close a month
// @Description  Migrates the period's pending payables to the next month and records the closure.
// @Description  When some payables fail the response is 409 with the partial result in details.
// @Tags         closings
// @Produce      json
// @Param        period path string true "Period, YYYY-MM"
// @Success      201 {object} response.APIResponse{data=Result}
// @Failure      409 {object} response.APIResponse
// @Router       /closings/{period} [post]
func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.GetActorID(r.Context())

	month, err := period.Parse(chi.URLParam(r, "period"))
	if err != nil {
		response.FromError(w, err)
		return
	}

	result, err := h.service.CloseMonth(r.Context(), month, actorID)
	if err != nil {
		if result != nil {
			response.ErrorWithDetails(w, err, result)
			return
		}
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, result)
}
