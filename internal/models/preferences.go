package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

type Preferences struct {
	ClientID  uuid.UUID `json:"client_id"`
	Language  string    `json:"language"`
	Theme     string    `json:"theme"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UpdatePreferencesRequest struct {
	Language *string `json:"language"`
	Theme    *string `json:"theme"`
}

type ClientTokenResponse struct {
	ClientID    uuid.UUID `json:"client_id"`
	AccessToken string    `json:"access_token"`
	ExpiresIn   int       `json:"expires_in"`
}

type CapabilityReport struct {
	Speech         bool   `json:"speech_transcription"`
	DocumentImport bool   `json:"document_import"`
	Clipboard      string `json:"clipboard"`
}
