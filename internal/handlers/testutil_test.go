package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"textdesk-backend/internal/i18n"
	"textdesk-backend/internal/middleware"
	"textdesk-backend/internal/models"
	"textdesk-backend/internal/prompts"
	"textdesk-backend/internal/repository"
	"textdesk-backend/internal/services"
)

type stubGateway struct {
	mu         sync.Mutex
	reply      string
	err        error
	chats      []string
	transforms [][2]string
}

func (g *stubGateway) SendChatTurn(ctx context.Context, conv *services.Conversation, text string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.chats = append(g.chats, text)
	if g.err != nil {
		return "", &services.UpstreamError{Op: "chat", Err: g.err}
	}
	return g.reply, nil
}

func (g *stubGateway) ResetConversationContext(conv *services.Conversation) {}

func (g *stubGateway) RunTransform(ctx context.Context, instruction, input string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.transforms = append(g.transforms, [2]string{instruction, input})
	if g.err != nil {
		return "", &services.UpstreamError{Op: "transform", Err: g.err}
	}
	return g.reply, nil
}

type stubPrefRepo struct {
	prefs     map[uuid.UUID]*models.Preferences
	getErr    error
	upsertErr error
	upserts   int
}

func (s *stubPrefRepo) Get(ctx context.Context, clientID uuid.UUID) (*models.Preferences, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	p, ok := s.prefs[clientID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *stubPrefRepo) Upsert(ctx context.Context, p *models.Preferences) error {
	s.upserts++
	if s.upsertErr != nil {
		return s.upsertErr
	}
	if s.prefs == nil {
		s.prefs = make(map[uuid.UUID]*models.Preferences)
	}
	p.UpdatedAt = time.Now()
	cp := *p
	s.prefs[p.ClientID] = &cp
	return nil
}

func loadCatalog(t *testing.T) *i18n.Catalog {
	t.Helper()
	c, err := i18n.Load()
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	return c
}

func newTestRegistry(t *testing.T, gw services.Gateway) (*services.SessionRegistry, *i18n.Catalog, *prompts.Catalog) {
	t.Helper()
	cat := loadCatalog(t)
	templates, err := prompts.NewDefault(cat)
	if err != nil {
		t.Fatalf("prompt catalog: %v", err)
	}
	return services.NewSessionRegistry(gw, templates, cat, nil, time.Hour, zap.NewNop()), cat, templates
}

func withClient(req *http.Request, clientID uuid.UUID) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), middleware.ClientIDKey, clientID))
}

func jsonRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartRequest(t *testing.T, target, field, filename string, data []byte, extra map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range extra {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write(data)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
	return out
}
