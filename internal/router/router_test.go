package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"textdesk-backend/internal/handlers"
	"textdesk-backend/internal/i18n"
	"textdesk-backend/internal/middleware"
	"textdesk-backend/internal/models"
	"textdesk-backend/internal/prompts"
	"textdesk-backend/internal/repository"
	"textdesk-backend/internal/services"
	"textdesk-backend/internal/websocket"
)

type echoGateway struct{}

func (echoGateway) SendChatTurn(ctx context.Context, conv *services.Conversation, text string) (string, error) {
	return "echo: " + text, nil
}

func (echoGateway) ResetConversationContext(conv *services.Conversation) {}

func (echoGateway) RunTransform(ctx context.Context, instruction, input string) (string, error) {
	return input, nil
}

type memoryPrefs struct{}

func (memoryPrefs) Get(ctx context.Context, clientID uuid.UUID) (*models.Preferences, error) {
	return nil, repository.ErrNotFound
}

func (memoryPrefs) Upsert(ctx context.Context, p *models.Preferences) error { return nil }

const frontend = "http://localhost:5173"

func newTestRouter(t *testing.T, modelLimit int) (http.Handler, *middleware.ClientAuth) {
	t.Helper()

	catalog, err := i18n.Load()
	require.NoError(t, err)
	templates, err := prompts.NewDefault(catalog)
	require.NoError(t, err)

	logger := zap.NewNop()
	auth := middleware.NewClientAuth("router-secret")
	caps := services.ResolveCapabilities(false, nil, services.NewFileExtractService())
	registry := services.NewSessionRegistry(echoGateway{}, templates, catalog, nil, time.Hour, logger)
	prefs := memoryPrefs{}

	return New(Dependencies{
		ClientAuth:    auth,
		ClientLimiter: middleware.NewRateLimiter(10, time.Minute),
		ModelLimiter:  middleware.NewRateLimiter(modelLimit, time.Minute),
		Clients:       handlers.NewClientHandler(auth, logger),
		I18n:          handlers.NewI18nHandler(catalog),
		Capabilities:  handlers.NewCapabilityHandler(caps),
		Templates:     handlers.NewTemplateHandler(templates, catalog, prefs),
		Chat:          handlers.NewChatHandler(registry, catalog, prefs),
		Transform:     handlers.NewTransformHandler(registry, caps, catalog, prefs, logger),
		Speech:        handlers.NewSpeechHandler(caps, catalog, prefs, logger),
		Preferences:   handlers.NewPreferenceHandler(prefs, registry, catalog, logger),
		Hub:           websocket.NewHub(nil, auth, frontend, logger),
		FrontendURL:   frontend,
	}), auth
}

func TestRouter_PublicRoutes(t *testing.T) {
	r, _ := newTestRouter(t, 5)

	for _, path := range []string{"/health", "/api/v1/capabilities", "/api/v1/templates", "/api/v1/i18n/de"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}
}

func TestRouter_ClientRoutesRequireToken(t *testing.T) {
	r, _ := newTestRouter(t, 5)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/chat", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRouter_ChatFlowWithIssuedToken(t *testing.T) {
	r, _ := newTestRouter(t, 5)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/clients", nil))
	require.Equal(t, http.StatusCreated, rr.Code)

	var client models.ClientTokenResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&client))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/messages", jsonBody(t, models.ChatRequest{Message: "Hi"}))
	req.Header.Set("Authorization", "Bearer "+client.AccessToken)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var st models.ChatState
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&st))
	require.Len(t, st.Messages, 2)
	assert.Equal(t, "echo: Hi", st.Messages[1].Content)
	assert.NotEmpty(t, rr.Header().Get("Content-Type"))
}

func TestRouter_ModelRoutesAreRateLimited(t *testing.T) {
	r, auth := newTestRouter(t, 1)
	token, err := auth.GenerateClientToken(uuid.New())
	require.NoError(t, err)

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/transform",
			jsonBody(t, models.TransformRequest{TemplateID: "summarize", Text: "text"}))
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusTooManyRequests, send())
}

func TestRouter_CORSPreflight(t *testing.T) {
	r, _ := newTestRouter(t, 5)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/chat/messages", nil)
	req.Header.Set("Origin", frontend)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, frontend, rr.Header().Get("Access-Control-Allow-Origin"))
}
