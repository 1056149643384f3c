package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"textdesk-backend/internal/middleware"
	"textdesk-backend/internal/models"
)

type preferenceRepository interface {
	Get(ctx context.Context, clientID uuid.UUID) (*models.Preferences, error)
	Upsert(ctx context.Context, p *models.Preferences) error
}

// languageCatalog is the part of *i18n.Catalog used to pick a language.
type languageCatalog interface {
	Localizer
	Normalize(lang string) string
	Match(acceptLanguage string) string
	Supports(lang string) bool
}

// languageResolver picks the UI language for a request: an explicit ?lang=,
// then the client's saved preference, then Accept-Language.
type languageResolver struct {
	catalog languageCatalog
	prefs   preferenceRepository
}

func (l languageResolver) resolve(r *http.Request) string {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return l.catalog.Normalize(lang)
	}

	if l.prefs != nil {
		if clientID := middleware.GetClientID(r.Context()); clientID != uuid.Nil {
			if p, err := l.prefs.Get(r.Context(), clientID); err == nil && l.catalog.Supports(p.Language) {
				return p.Language
			}
		}
	}

	return l.catalog.Match(r.Header.Get("Accept-Language"))
}
