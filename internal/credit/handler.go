package credit

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/schoolfinance/pkg/middleware"
	"github.com/fkhayef/schoolfinance/pkg/request"
	"github.com/fkhayef/schoolfinance/pkg/response"
)

// Handler handles HTTP requests for credit ledger operations
type Handler struct {
	service *Service
}

// NewHandler creates a new credit handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for credit endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/{studentId}", h.GetBalance)
	r.Get("/{studentId}/verify", h.Verify)
	r.Post("/{studentId}/additions", h.Add)
	r.Post("/{studentId}/consumptions", h.Consume)

	return r
}

// GetBalance handles GET /credits/{studentId}
// @Summary      Get credit balance and history
// @Tags         credits
// @Produce      json
// @Param        studentId path string true "Student ID"
// @Success      200 {object} response.APIResponse{data=BalanceResponse}
// @Router       /credits/{studentId} [get]
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentId")

	balance, err := h.service.GetBalance(r.Context(), studentID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	history, err := h.service.GetHistory(r.Context(), studentID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, &BalanceResponse{StudentID: studentID, Balance: balance, History: history})
}

// Verify handles GET /credits/{studentId}/verify
// @Summary      Replay a student's credit ledger
// @Tags         credits
// @Produce      json
// @Param        studentId path string true "Student ID"
// @Success      200 {object} response.APIResponse{data=Verification}
// @Router       /credits/{studentId}/verify [get]
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.Verify(r.Context(), chi.URLParam(r, "studentId"))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, v)
}

// Add handles POST /credits/{studentId}/additions
// @Summary      Add credit to a student
// @Tags         credits
// @Accept       json
// @Produce      json
// @Param        studentId path string true "Student ID"
// @Param        request body AddCreditRequest true "Addition"
// @Success      201 {object} response.APIResponse{data=BalanceResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /credits/{studentId}/additions [post]
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.GetActorID(r.Context())
	studentID := chi.URLParam(r, "studentId")

	var req AddCreditRequest
	if err := request.DecodeAndValidate(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	balance, err := h.service.AddCredit(r.Context(), studentID, req.Amount, req.Reason, actorID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, &BalanceResponse{StudentID: studentID, Balance: balance})
}

// Consume handles POST /credits/{studentId}/consumptions
// @Summary      Consume student credit
// @Tags         credits
// @Accept       json
// @Produce      json
// @Param        studentId path string true "Student ID"
// @Param        request body ConsumeCreditRequest true "Consumption"
// @Success      201 {object} response.APIResponse{data=BalanceResponse}
// @Failure      422 {object} response.APIResponse
// @Router       /credits/{studentId}/consumptions [post]
func (h *Handler) Consume(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.GetActorID(r.Context())
	studentID := chi.URLParam(r, "studentId")

	var req ConsumeCreditRequest
	if err := request.DecodeAndValidate(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	balance, err := h.service.ConsumeCredit(r.Context(), studentID, req.Amount, req.RelatedChargeID, req.Reason, actorID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, &BalanceResponse{StudentID: studentID, Balance: balance})
}
