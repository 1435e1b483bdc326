package payment

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/schoolfinance/pkg/middleware"
	"github.com/fkhayef/schoolfinance/pkg/request"
	"github.com/fkhayef/schoolfinance/pkg/response"
)

// Handler handles HTTP requests for payment operations
type Handler struct {
	service *Service
}

// NewHandler creates a new payment handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for payment endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/students/{studentId}/statement", h.Statement)

	r.Route("/charges/{chargeId}", func(r chi.Router) {
		r.Get("/late-fee", h.LateFee)
		r.Post("/proof", h.SubmitProof)
		r.Post("/approve", h.Approve)
		r.Post("/reject", h.Reject)
		r.Post("/settle", h.Settle)
		r.Post("/cancel", h.Cancel)
	})

	return r
}

func parseAsOf(r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return time.Now().UTC(), true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// LateFee handles GET /payments/charges/{chargeId}/late-fee
// @Summary      Compute the late fee of a charge
// @Tags         payments
// @Produce      json
// @Param        chargeId path string true "Charge ID"
// @Param        as_of query string false "Date, YYYY-MM-DD (default today)"
// @Success      200 {object} response.APIResponse{data=LateFee}
// @Failure      404 {object} response.APIResponse
// @Router       /payments/charges/{chargeId}/late-fee [get]
func (h *Handler) LateFee(w http.ResponseWriter, r *http.Request) {
	asOf, ok := parseAsOf(r)
	if !ok {
		response.BadRequest(w, "Invalid as_of date, expected YYYY-MM-DD")
		return
	}

	fee, err := h.service.LateFeeFor(r.Context(), chi.URLParam(r, "chargeId"), asOf)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, fee)
}

// Statement handles GET /payments/students/{studentId}/statement
// @Summary      Open charges of a student with late fees
// @Tags         payments
// @Produce      json
// @Param        studentId path string true "Student ID"
// @Param        as_of query string false "Date, YYYY-MM-DD (default today)"
// @Success      200 {object} response.APIResponse{data=Statement}
// @Router       /payments/students/{studentId}/statement [get]
func (h *Handler) Statement(w http.ResponseWriter, r *http.Request) {
	asOf, ok := parseAsOf(r)
	if !ok {
		response.BadRequest(w, "Invalid as_of date, expected YYYY-MM-DD")
		return
	}

	stmt, err := h.service.OutstandingFor(r.Context(), chi.URLParam(r, "studentId"), asOf)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, stmt)
}

// SubmitProof handles POST /payments/charges/{chargeId}/proof
// @Summary      Submit proof of payment
// @Description  Moves a pending charge to under_review
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        chargeId path string true "Charge ID"
// @Param        request body SubmitProofRequest true "Proof"
// @Success      200 {object} response.APIResponse{data=charge.Charge}
// @Failure      409 {object} response.APIResponse
// @Router       /payments/charges/{chargeId}/proof [post]
func (h *Handler) SubmitProof(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.GetActorID(r.Context())

	var req SubmitProofRequest
	if err := request.DecodeAndValidate(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	c, err := h.service.SubmitProof(r.Context(), chi.URLParam(r, "chargeId"), req.ProofRef, actorID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, c)
}

// Approve handles POST /payments/charges/{chargeId}/approve
// @Summary      Approve a submitted payment
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        chargeId path string true "Charge ID"
// @Param        request body ApproveRequest false "Approval"
// @Success      200 {object} response.APIResponse{data=charge.Charge}
// @Failure      409 {object} response.APIResponse
// @Router       /payments/charges/{chargeId}/approve [post]
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.GetActorID(r.Context())

	var req ApproveRequest
	if r.ContentLength != 0 {
		if err := request.DecodeAndValidate(r, &req); err != nil {
			response.BadRequest(w, err.Error())
			return
		}
	}

	c, err := h.service.ApprovePayment(r.Context(), chi.URLParam(r, "chargeId"), &req, actorID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, c)
}

// Reject handles POST /payments/charges/{chargeId}/reject
// @Summary      Reject a submitted payment
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        chargeId path string true "Charge ID"
// @Param        request body RejectRequest false "Rejection"
// @Success      200 {object} response.APIResponse{data=charge.Charge}
// @Failure      409 {object} response.APIResponse
// @Router       /payments/charges/{chargeId}/reject [post]
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.GetActorID(r.Context())

	var req RejectRequest
	if r.ContentLength != 0 {
		if err := request.DecodeAndValidate(r, &req); err != nil {
			response.BadRequest(w, err.Error())
			return
		}
	}

	c, err := h.service.RejectPayment(r.Context(), chi.URLParam(r, "chargeId"), req.Reason, actorID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, c)
}

// Settle handles POST /payments/charges/{chargeId}/settle
// @Summary      Settle a charge directly
// @Description  Applies an optional discount and credit, then records the payment
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        chargeId path string true "Charge ID"
// @Param        request body SettleRequest true "Settlement"
// @Success      200 {object} response.APIResponse{data=charge.Charge}
// @Failure      400 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Failure      422 {object} response.APIResponse
// @Router       /payments/charges/{chargeId}/settle [post]
func (h *Handler) Settle(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.GetActorID(r.Context())

	var req SettleRequest
	if err := request.DecodeAndValidate(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	c, err := h.service.SettleDirectly(r.Context(), chi.URLParam(r, "chargeId"), &req, actorID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, c)
}

// Cancel handles POST /payments/charges/{chargeId}/cancel
// @Summary      Cancel a charge
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        chargeId path string true "Charge ID"
// @Param        request body CancelRequest true "Cancellation"
// @Success      200 {object} response.APIResponse{data=charge.Charge}
// @Failure      409 {object} response.APIResponse
// @Router       /payments/charges/{chargeId}/cancel [post]
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.GetActorID(r.Context())

	var req CancelRequest
	if err := request.DecodeAndValidate(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	c, err := h.service.Cancel(r.Context(), chi.URLParam(r, "chargeId"), req.Reason, actorID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, c)
}
