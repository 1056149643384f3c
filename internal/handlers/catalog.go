package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"textdesk-backend/internal/prompts"
	"textdesk-backend/internal/services"
)

type bundleCatalog interface {
	languageCatalog
	Bundle(lang string) map[string]interface{}
	Languages() []string
}

type I18nHandler struct {
	catalog bundleCatalog
}

func NewI18nHandler(catalog bundleCatalog) *I18nHandler {
	return &I18nHandler{catalog: catalog}
}

// Bundle returns every UI string for one language. Unsupported codes are
// matched to the closest supported language.
func (h *I18nHandler) Bundle(w http.ResponseWriter, r *http.Request) {
	lang := h.catalog.Normalize(chi.URLParam(r, "lang"))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"language":  lang,
		"languages": h.catalog.Languages(),
		"strings":   h.catalog.Bundle(lang),
	})
}

type TemplateHandler struct {
	templates *prompts.Catalog
	langs     languageResolver
}

func NewTemplateHandler(templates *prompts.Catalog, catalog languageCatalog, prefs preferenceRepository) *TemplateHandler {
	return &TemplateHandler{
		templates: templates,
		langs:     languageResolver{catalog: catalog, prefs: prefs},
	}
}

func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	lang := h.langs.resolve(r)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"language":  lang,
		"templates": h.templates.Localized(lang),
	})
}

type CapabilityHandler struct {
	caps services.Capabilities
}

func NewCapabilityHandler(caps services.Capabilities) *CapabilityHandler {
	return &CapabilityHandler{caps: caps}
}

func (h *CapabilityHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.caps.Report())
}
