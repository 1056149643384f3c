package handlers

import (
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"textdesk-backend/internal/middleware"
	"textdesk-backend/internal/models"
	"textdesk-backend/internal/services"
)

// maxAudioBytes caps a single dictation upload.
const maxAudioBytes = 20 << 20

type SpeechHandler struct {
	transcriber services.Capability[services.Transcriber]
	catalog     languageCatalog
	langs       languageResolver
	logger      *zap.Logger
}

func NewSpeechHandler(caps services.Capabilities, catalog languageCatalog, prefs preferenceRepository, logger *zap.Logger) *SpeechHandler {
	return &SpeechHandler{
		transcriber: caps.Speech,
		catalog:     catalog,
		langs:       languageResolver{catalog: catalog, prefs: prefs},
		logger:      logger,
	}
}

// Transcribe turns a dictation recording into text and appends it to the
// "existing" form field, which holds what is already in the input box.
func (h *SpeechHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	lang := h.langs.resolve(r)

	transcriber, ok := h.transcriber.Get()
	if !ok {
		handleServiceError(w, r, h.catalog, lang, services.ErrCapabilityUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAudioBytes+1<<20)
	if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", h.catalog.T(lang, "errors.invalid_request"), r))
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", h.catalog.T(lang, "errors.validation"),
			map[string]string{"audio": "required"}, r))
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(io.LimitReader(file, maxAudioBytes))
	if err != nil || len(audio) == 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", h.catalog.T(lang, "errors.validation"),
			map[string]string{"audio": "empty"}, r))
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || strings.HasPrefix(mimeType, "application/octet-stream") {
		mimeType = "audio/webm"
	}

	transcript, err := transcriber.TranscribeAudio(r.Context(), audio, mimeType)
	if err != nil {
		h.logger.Error("Transcription failed",
			zap.String("client_id", middleware.GetClientID(r.Context()).String()),
			zap.Int("audio_bytes", len(audio)),
			zap.Error(err),
		)
		writeJSON(w, http.StatusBadGateway, errorResp("TRANSCRIPTION_FAILED", h.catalog.T(lang, "speech.failed"), r))
		return
	}

	writeJSON(w, http.StatusOK, models.TranscriptionResponse{
		Transcript: transcript,
		Text:       services.AppendTranscript(r.FormValue("existing"), transcript),
	})
}
