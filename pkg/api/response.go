package api

import (
	"encoding/json"
	"net/http"

	"github.com/matzehuels/healthviz/pkg/errors"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Stage   string `json:"stage,omitempty"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.CodeOr(err, errors.ErrCodeInternal)
	writeJSON(w, statusFor(code), ErrorResponse{
		Code:    string(code),
		Stage:   string(errors.StageOf(err)),
		Message: errors.UserMessage(err),
	})
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidPath, errors.ErrCodeUnsupported:
		return http.StatusBadRequest
	case errors.ErrCodeEmptyDataset, errors.ErrCodeMalformedMeasure, errors.ErrCodeMissingStageValue, errors.ErrCodeLookupMiss:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNetwork, errors.ErrCodeTimeout:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
