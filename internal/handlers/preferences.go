package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"textdesk-backend/internal/middleware"
	"textdesk-backend/internal/models"
	"textdesk-backend/internal/repository"
	"textdesk-backend/internal/services"
)

type PreferenceHandler struct {
	prefs    preferenceRepository
	registry *services.SessionRegistry
	catalog  languageCatalog
	langs    languageResolver
	logger   *zap.Logger
}

func NewPreferenceHandler(prefs preferenceRepository, registry *services.SessionRegistry, catalog languageCatalog, logger *zap.Logger) *PreferenceHandler {
	return &PreferenceHandler{
		prefs:    prefs,
		registry: registry,
		catalog:  catalog,
		langs:    languageResolver{catalog: catalog, prefs: prefs},
		logger:   logger,
	}
}

func validTheme(theme string) bool {
	switch theme {
	case models.ThemeLight, models.ThemeDark, models.ThemeSystem:
		return true
	}
	return false
}

// current returns the saved preferences, or defaults when nothing is saved.
func (h *PreferenceHandler) current(r *http.Request) (*models.Preferences, error) {
	clientID := middleware.GetClientID(r.Context())
	p, err := h.prefs.Get(r.Context(), clientID)
	if errors.Is(err, repository.ErrNotFound) {
		return &models.Preferences{
			ClientID: clientID,
			Language: h.catalog.Match(r.Header.Get("Accept-Language")),
			Theme:    models.ThemeSystem,
		}, nil
	}
	return p, err
}

func (h *PreferenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.current(r)
	if err != nil {
		h.logger.Error("Failed to load preferences", zap.Error(err))
		handleServiceError(w, r, h.catalog, h.langs.resolve(r), err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PreferenceHandler) Update(w http.ResponseWriter, r *http.Request) {
	lang := h.langs.resolve(r)

	var req models.UpdatePreferencesRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", h.catalog.T(lang, "errors.invalid_request"), r))
		return
	}

	fields := map[string]string{}
	if req.Theme != nil && !validTheme(*req.Theme) {
		fields["theme"] = "must be one of light, dark, system"
	}
	if req.Language != nil && !h.catalog.Supports(*req.Language) {
		fields["language"] = "unsupported"
	}
	if len(fields) > 0 {
		handleServiceError(w, r, h.catalog, lang, &services.ValidationError{Fields: fields})
		return
	}

	p, err := h.current(r)
	if err != nil {
		h.logger.Error("Failed to load preferences", zap.Error(err))
		handleServiceError(w, r, h.catalog, lang, err)
		return
	}
	if req.Theme != nil {
		p.Theme = *req.Theme
	}
	if req.Language != nil {
		p.Language = *req.Language
	}

	if err := h.prefs.Upsert(r.Context(), p); err != nil {
		h.logger.Error("Failed to save preferences", zap.String("client_id", p.ClientID.String()), zap.Error(err))
		handleServiceError(w, r, h.catalog, lang, err)
		return
	}

	h.registry.SetLanguage(p.ClientID, p.Language)
	writeJSON(w, http.StatusOK, p)
}
