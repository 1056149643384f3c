package handlers

import (
	"encoding/json"
	"net/http"

	"textdesk-backend/internal/middleware"
	"textdesk-backend/internal/models"
	"textdesk-backend/internal/services"
)

// examplesKey holds the starter prompts shown while a chat is empty.
const examplesKey = "chat.examples"

type examplesCatalog interface {
	languageCatalog
	List(lang, key string) []string
}

type ChatHandler struct {
	registry *services.SessionRegistry
	catalog  examplesCatalog
	langs    languageResolver
}

func NewChatHandler(registry *services.SessionRegistry, catalog examplesCatalog, prefs preferenceRepository) *ChatHandler {
	return &ChatHandler{
		registry: registry,
		catalog:  catalog,
		langs:    languageResolver{catalog: catalog, prefs: prefs},
	}
}

// session returns the caller's chat, switched to the request language.
func (h *ChatHandler) session(r *http.Request) (*services.Session, string) {
	clientID := middleware.GetClientID(r.Context())
	lang := h.langs.resolve(r)

	ws := h.registry.ForClient(clientID, lang)
	if ws.Chat.Language() != lang {
		h.registry.SetLanguage(clientID, lang)
	}
	return ws.Chat, lang
}

func (h *ChatHandler) state(s *services.Session, lang string, accepted bool) models.ChatState {
	msgs := s.Messages()
	st := models.ChatState{
		Accepted: accepted,
		InFlight: s.InFlight(),
		Messages: msgs,
	}
	if len(msgs) == 0 {
		st.Examples = h.catalog.List(lang, examplesKey)
	}
	return st
}

func (h *ChatHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, lang := h.session(r)
	writeJSON(w, http.StatusOK, h.state(s, lang, true))
}

// Post runs one chat turn and returns once the reply (or the localized error
// in its place) has been appended.
func (h *ChatHandler) Post(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		lang := h.langs.resolve(r)
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", h.catalog.T(lang, "errors.invalid_request"), r))
		return
	}

	s, lang := h.session(r)
	accepted := s.PostUserMessage(r.Context(), req.Message)
	writeJSON(w, http.StatusOK, h.state(s, lang, accepted))
}

func (h *ChatHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	s, lang := h.session(r)
	accepted := s.RegenerateLastReply(r.Context())
	writeJSON(w, http.StatusOK, h.state(s, lang, accepted))
}

func (h *ChatHandler) Clear(w http.ResponseWriter, r *http.Request) {
	s, lang := h.session(r)
	accepted := s.Clear()
	writeJSON(w, http.StatusOK, h.state(s, lang, accepted))
}
