package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"textdesk-backend/internal/middleware"
	"textdesk-backend/internal/models"
	"textdesk-backend/internal/services"
)

type TransformHandler struct {
	registry  *services.SessionRegistry
	extractor services.Capability[services.TextExtractor]
	catalog   languageCatalog
	langs     languageResolver
	logger    *zap.Logger
}

func NewTransformHandler(registry *services.SessionRegistry, caps services.Capabilities, catalog languageCatalog, prefs preferenceRepository, logger *zap.Logger) *TransformHandler {
	return &TransformHandler{
		registry:  registry,
		extractor: caps.DocumentImport,
		catalog:   catalog,
		langs:     languageResolver{catalog: catalog, prefs: prefs},
		logger:    logger,
	}
}

// Apply runs one catalog action over the submitted text.
func (h *TransformHandler) Apply(w http.ResponseWriter, r *http.Request) {
	lang := h.langs.resolve(r)

	var req models.TransformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", h.catalog.T(lang, "errors.invalid_request"), r))
		return
	}
	if strings.TrimSpace(req.TemplateID) == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", h.catalog.T(lang, "errors.validation"),
			map[string]string{"template_id": "required"}, r))
		return
	}

	clientID := middleware.GetClientID(r.Context())
	ws := h.registry.ForClient(clientID, lang)
	if ws.Transforms.Language() != lang {
		h.registry.SetLanguage(clientID, lang)
	}

	result, accepted, err := ws.Transforms.ApplyTemplate(r.Context(), req.TemplateID, req.ChildID, req.Text)
	if err != nil {
		handleServiceError(w, r, h.catalog, lang, err)
		return
	}

	writeJSON(w, http.StatusOK, models.TransformResponse{Accepted: accepted, Result: result})
}

// Import extracts plain text from an uploaded document for the processor
// input. Nothing is sent to the model.
func (h *TransformHandler) Import(w http.ResponseWriter, r *http.Request) {
	lang := h.langs.resolve(r)

	extractor, ok := h.extractor.Get()
	if !ok {
		handleServiceError(w, r, h.catalog, lang, services.ErrCapabilityUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, services.MaxImportBytes+1<<20)
	if err := r.ParseMultipartForm(services.MaxImportBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", h.catalog.T(lang, "import.too_large"), r))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", h.catalog.T(lang, "errors.validation"),
			map[string]string{"file": "required"}, r))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, services.MaxImportBytes+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", h.catalog.T(lang, "import.failed"), r))
		return
	}

	text, err := extractor.ExtractText(header.Filename, data)
	if err != nil {
		h.logger.Info("Document import failed",
			zap.String("client_id", middleware.GetClientID(r.Context()).String()),
			zap.String("filename", header.Filename),
			zap.Error(err),
		)
		var unsupported *services.UnsupportedError
		var validation *services.ValidationError
		if errors.As(err, &unsupported) || errors.As(err, &validation) {
			handleServiceError(w, r, h.catalog, lang, err)
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, errorResp("EXTRACTION_FAILED", h.catalog.T(lang, "import.failed"), r))
		return
	}

	writeJSON(w, http.StatusOK, models.ImportResponse{Text: text, WordCount: len(strings.Fields(text))})
}
