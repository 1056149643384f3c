package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"textdesk-backend/internal/handlers"
	"textdesk-backend/internal/middleware"
	"textdesk-backend/internal/websocket"
)

type Dependencies struct {
	ClientAuth *middleware.ClientAuth

	// ClientLimiter guards client creation per remote address; ModelLimiter
	// guards every route that reaches the language model, per client.
	ClientLimiter *middleware.RateLimiter
	ModelLimiter  *middleware.RateLimiter

	Clients      *handlers.ClientHandler
	I18n         *handlers.I18nHandler
	Capabilities *handlers.CapabilityHandler
	Templates    *handlers.TemplateHandler
	Chat         *handlers.ChatHandler
	Transform    *handlers.TransformHandler
	Speech       *handlers.SpeechHandler
	Preferences  *handlers.PreferenceHandler
	Hub          *websocket.Hub

	FrontendURL string
}

func New(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{deps.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Public Routes ────
		r.With(deps.ClientLimiter.Middleware).Post("/clients", deps.Clients.Create)
		r.Get("/i18n/{lang}", deps.I18n.Bundle)
		r.Get("/capabilities", deps.Capabilities.Get)
		r.Get("/templates", deps.Templates.List)

		// ──── Client Routes ────
		r.Group(func(r chi.Router) {
			r.Use(deps.ClientAuth.Middleware)

			r.Route("/chat", func(r chi.Router) {
				r.Get("/", deps.Chat.Get)
				r.Delete("/", deps.Chat.Clear)
				r.With(deps.ModelLimiter.Middleware).Post("/messages", deps.Chat.Post)
				r.With(deps.ModelLimiter.Middleware).Post("/regenerate", deps.Chat.Regenerate)
			})

			r.Route("/transform", func(r chi.Router) {
				r.With(deps.ModelLimiter.Middleware).Post("/", deps.Transform.Apply)
				r.Post("/import", deps.Transform.Import)
			})

			r.With(deps.ModelLimiter.Middleware).Post("/speech/transcribe", deps.Speech.Transcribe)

			r.Get("/preferences", deps.Preferences.Get)
			r.Put("/preferences", deps.Preferences.Update)
		})

		// ──── WebSocket ────
		r.Get("/ws", deps.Hub.HandleWebSocket)
	})

	return r
}
