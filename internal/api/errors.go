package api

import (
	"encoding/json"
	"net/http"

	remerrors "github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/errors"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/types"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error types.ServiceError `json:"error"`
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, statusCode int, code, message string, details map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error: types.ServiceError{
			Code:    code,
			Message: message,
			Details: details,
		},
	}

	json.NewEncoder(w).Encode(response)
}

// respondServiceError maps any error onto the taxonomy and writes the
// envelope with its HTTP status.
func respondServiceError(w http.ResponseWriter, err error) {
	cerr := remerrors.Categorize(err)
	respondError(w, cerr.StatusCode, cerr.Code, cerr.Message, cerr.Details)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// parseJSONBody parses JSON request body.
func parseJSONBody(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// Request-shape error codes; everything downstream speaks the taxonomy in
// internal/errors.
const (
	ErrCodeInvalidInput = "INVALID_INPUT"
)
