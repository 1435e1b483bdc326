package response

import (
	"encoding/json"
	"net/http"

	"github.com/fkhayef/schoolfinance/pkg/apperr"
)

// APIResponse is the standard response wrapper
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// APIError represents an error response
type APIError struct {
	Code     string      `json:"code"`
	Message  string      `json:"message"`
	EntityID string      `json:"entity_id,omitempty"`
	Details  interface{} `json:"details,omitempty"`
}

// Meta contains pagination and other metadata
type Meta struct {
	Page       int `json:"page,omitempty"`
	PerPage    int `json:"per_page,omitempty"`
	Total      int `json:"total,omitempty"`
	TotalPages int `json:"total_pages,omitempty"`
}

// JSON sends a JSON response with the given status code
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := APIResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	json.NewEncoder(w).Encode(response)
}

// JSONWithMeta sends a JSON response with pagination metadata
func JSONWithMeta(w http.ResponseWriter, status int, data interface{}, meta *Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := APIResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
		Meta:    meta,
	}

	json.NewEncoder(w).Encode(response)
}

// Error sends an error JSON response
func Error(w http.ResponseWriter, status int, code, message string) {
	writeError(w, status, &APIError{Code: code, Message: message})
}

// ErrorWithDetails sends an error JSON response that also carries data, e.g. a partial batch result
func ErrorWithDetails(w http.ResponseWriter, err error, details interface{}) {
	status, apiErr := describe(err)
	apiErr.Details = details
	writeError(w, status, apiErr)
}

// FromError maps a classified domain error to its HTTP status and renders it
func FromError(w http.ResponseWriter, err error) {
	status, apiErr := describe(err)
	writeError(w, status, apiErr)
}

// StatusFor returns the HTTP status used for an error kind
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindStateConflict:
		return http.StatusConflict
	case apperr.KindInsufficientFunds:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func describe(err error) (int, *APIError) {
	e, ok := apperr.As(err)
	if !ok {
		return http.StatusInternalServerError, &APIError{Code: "INTERNAL_ERROR", Message: "internal error"}
	}
	return StatusFor(e.Kind), &APIError{Code: e.Code, Message: e.Message, EntityID: e.EntityID}
}

func writeError(w http.ResponseWriter, status int, apiErr *APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := APIResponse{
		Success: false,
		Error:   apiErr,
	}

	json.NewEncoder(w).Encode(response)
}

// Common error responses
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, "BAD_REQUEST", message)
}

func InternalError(w http.ResponseWriter, message string) {
	Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", message)
}

func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, "UNAUTHORIZED", message)
}
