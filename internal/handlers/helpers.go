package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"textdesk-backend/internal/models"
	"textdesk-backend/internal/prompts"
	"textdesk-backend/internal/services"
)

// Localizer resolves UI strings. *i18n.Catalog satisfies it.
type Localizer interface {
	T(lang, key string) string
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func requestID(r *http.Request) string {
	if id := chimiddleware.GetReqID(r.Context()); id != "" {
		return id
	}
	return r.Header.Get("X-Request-ID")
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: requestID(r),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: requestID(r),
		},
	}
}

// handleServiceError maps service and catalog errors onto the JSON error
// envelope. Messages are localized through loc in lang.
func handleServiceError(w http.ResponseWriter, r *http.Request, loc Localizer, lang string, err error) {
	var (
		validation  *services.ValidationError
		notFound    *services.NotFoundError
		unsupported *services.UnsupportedError
	)

	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", loc.T(lang, "errors.validation"), validation.Fields, r))
	case errors.As(err, &unsupported):
		writeJSON(w, http.StatusUnsupportedMediaType, errorResp("UNSUPPORTED", loc.T(lang, "import.unsupported"), r))
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", notFound.Message, r))
	case errors.Is(err, prompts.ErrTemplateNotFound):
		writeJSON(w, http.StatusNotFound, errorResp("TEMPLATE_NOT_FOUND", loc.T(lang, "errors.template_not_found"), r))
	case errors.Is(err, prompts.ErrChildRequired), errors.Is(err, prompts.ErrNotAMenu):
		writeJSON(w, http.StatusBadRequest, errorResp("INVALID_TEMPLATE_SELECTION", loc.T(lang, "errors.template_child_required"), r))
	case errors.Is(err, services.ErrCapabilityUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorResp("CAPABILITY_UNAVAILABLE", loc.T(lang, "errors.capability_unavailable"), r))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", loc.T(lang, "errors.unexpected"), r))
	}
}
