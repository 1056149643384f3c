package services

import (
	"context"
	"strings"
	"unicode"

	"textdesk-backend/internal/models"
)

// Capability is an optional feature resolved once at startup: either
// Available with a handle, or Unavailable.
type Capability[T any] struct {
	handle T
	ok     bool
}

func Available[T any](handle T) Capability[T] {
	return Capability[T]{handle: handle, ok: true}
}

func Unavailable[T any]() Capability[T] {
	return Capability[T]{}
}

func (c Capability[T]) Get() (T, bool) {
	return c.handle, c.ok
}

func (c Capability[T]) IsAvailable() bool {
	return c.ok
}

type Transcriber interface {
	TranscribeAudio(ctx context.Context, audio []byte, mimeType string) (string, error)
}

type TextExtractor interface {
	ExtractText(filename string, data []byte) (string, error)
}

type Capabilities struct {
	Speech         Capability[Transcriber]
	DocumentImport Capability[TextExtractor]
}

func ResolveCapabilities(speechEnabled bool, transcriber Transcriber, extractor TextExtractor) Capabilities {
	caps := Capabilities{
		Speech:         Unavailable[Transcriber](),
		DocumentImport: Unavailable[TextExtractor](),
	}
	if speechEnabled && transcriber != nil {
		caps.Speech = Available(transcriber)
	}
	if extractor != nil {
		caps.DocumentImport = Available(extractor)
	}
	return caps
}

// Report is what the UI uses to show or hide features. The clipboard lives
// entirely in the browser.
func (c Capabilities) Report() models.CapabilityReport {
	return models.CapabilityReport{
		Speech:         c.Speech.IsAvailable(),
		DocumentImport: c.DocumentImport.IsAvailable(),
		Clipboard:      "client",
	}
}

// AppendTranscript adds dictated text to what the user already typed.
func AppendTranscript(existing, transcript string) string {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return existing
	}
	if existing == "" {
		return transcript
	}
	last := []rune(existing)
	if unicode.IsSpace(last[len(last)-1]) {
		return existing + transcript
	}
	return existing + " " + transcript
}
