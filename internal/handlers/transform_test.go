package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"textdesk-backend/internal/models"
	"textdesk-backend/internal/services"
)

func newTestTransformHandler(t *testing.T, gw *stubGateway, caps services.Capabilities) *TransformHandler {
	t.Helper()
	registry, cat, _ := newTestRegistry(t, gw)
	return NewTransformHandler(registry, caps, cat, &stubPrefRepo{}, zap.NewNop())
}

func TestTransformHandler_ApplyLeaf(t *testing.T) {
	gw := &stubGateway{reply: "Short."}
	h := newTestTransformHandler(t, gw, services.Capabilities{})
	cat := loadCatalog(t)

	body := models.TransformRequest{TemplateID: "summarize", Text: "A long text."}
	rr := httptest.NewRecorder()
	h.Apply(rr, withClient(jsonRequest(t, http.MethodPost, "/api/v1/transform", body), uuid.New()))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	resp := decode[models.TransformResponse](t, rr)
	if !resp.Accepted || resp.Result != "Short." {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(gw.transforms) != 1 || gw.transforms[0][0] != cat.T("en", "prompts.summarize.instruction") {
		t.Fatalf("unexpected transform calls: %v", gw.transforms)
	}
}

func TestTransformHandler_ApplyTranslateChild(t *testing.T) {
	gw := &stubGateway{reply: "Hola"}
	h := newTestTransformHandler(t, gw, services.Capabilities{})

	body := models.TransformRequest{TemplateID: "translate", ChildID: "es", Text: "Hello"}
	rr := httptest.NewRecorder()
	h.Apply(rr, withClient(jsonRequest(t, http.MethodPost, "/api/v1/transform?lang=de", body), uuid.New()))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if got := gw.transforms[0][0]; got != "Translate the following text into Spanish:" {
		t.Fatalf("translate instruction must stay in English, got %q", got)
	}
}

func TestTransformHandler_ApplySelectionErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       models.TransformRequest
		wantStatus int
		wantCode   string
	}{
		{"menu without child", models.TransformRequest{TemplateID: "tone", Text: "hi"}, http.StatusBadRequest, "INVALID_TEMPLATE_SELECTION"},
		{"child on leaf", models.TransformRequest{TemplateID: "summarize", ChildID: "x", Text: "hi"}, http.StatusBadRequest, "INVALID_TEMPLATE_SELECTION"},
		{"unknown template", models.TransformRequest{TemplateID: "nope", Text: "hi"}, http.StatusNotFound, "TEMPLATE_NOT_FOUND"},
		{"unknown child", models.TransformRequest{TemplateID: "translate", ChildID: "xx", Text: "hi"}, http.StatusNotFound, "TEMPLATE_NOT_FOUND"},
		{"missing template id", models.TransformRequest{Text: "hi"}, http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gw := &stubGateway{reply: "unused"}
			h := newTestTransformHandler(t, gw, services.Capabilities{})

			rr := httptest.NewRecorder()
			h.Apply(rr, withClient(jsonRequest(t, http.MethodPost, "/api/v1/transform", tc.body), uuid.New()))

			if rr.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, rr.Code)
			}
			resp := decode[models.ErrorResponse](t, rr)
			if resp.Error.Code != tc.wantCode {
				t.Fatalf("expected code %s, got %s", tc.wantCode, resp.Error.Code)
			}
			if len(gw.transforms) != 0 {
				t.Fatalf("nothing should be sent, got %v", gw.transforms)
			}
		})
	}
}

func TestTransformHandler_ApplyBlankText(t *testing.T) {
	gw := &stubGateway{}
	h := newTestTransformHandler(t, gw, services.Capabilities{})

	rr := httptest.NewRecorder()
	h.Apply(rr, withClient(jsonRequest(t, http.MethodPost, "/api/v1/transform", models.TransformRequest{TemplateID: "summarize", Text: " \n"}), uuid.New()))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if resp := decode[models.TransformResponse](t, rr); resp.Accepted {
		t.Fatalf("blank text must not be accepted")
	}
}

func TestTransformHandler_ApplyUpstreamFailure(t *testing.T) {
	gw := &stubGateway{err: errors.New("quota")}
	h := newTestTransformHandler(t, gw, services.Capabilities{})
	cat := loadCatalog(t)

	rr := httptest.NewRecorder()
	h.Apply(rr, withClient(jsonRequest(t, http.MethodPost, "/api/v1/transform?lang=es", models.TransformRequest{TemplateID: "summarize", Text: "texto"}), uuid.New()))

	resp := decode[models.TransformResponse](t, rr)
	if !resp.Accepted || resp.Result != cat.T("es", "transform.error.generic") {
		t.Fatalf("expected localized error as result, got %+v", resp)
	}
}

type stubExtractor struct {
	text string
	err  error
}

func (s stubExtractor) ExtractText(filename string, data []byte) (string, error) {
	return s.text, s.err
}

func TestTransformHandler_ImportUnavailable(t *testing.T) {
	h := newTestTransformHandler(t, &stubGateway{}, services.ResolveCapabilities(false, nil, nil))

	rr := httptest.NewRecorder()
	h.Import(rr, withClient(multipartRequest(t, "/api/v1/transform/import", "file", "a.txt", []byte("hi"), nil), uuid.New()))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, rr.Code)
	}
	if resp := decode[models.ErrorResponse](t, rr); resp.Error.Code != "CAPABILITY_UNAVAILABLE" {
		t.Fatalf("unexpected error code %s", resp.Error.Code)
	}
}

func TestTransformHandler_ImportText(t *testing.T) {
	caps := services.ResolveCapabilities(false, nil, services.NewFileExtractService())
	gw := &stubGateway{}
	h := newTestTransformHandler(t, gw, caps)

	rr := httptest.NewRecorder()
	h.Import(rr, withClient(multipartRequest(t, "/api/v1/transform/import", "file", "notes.txt", []byte("three little words"), nil), uuid.New()))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	resp := decode[models.ImportResponse](t, rr)
	if resp.Text != "three little words" || resp.WordCount != 3 {
		t.Fatalf("unexpected import response: %+v", resp)
	}
	if len(gw.transforms) != 0 {
		t.Fatalf("import must not reach the model")
	}
}

func TestTransformHandler_ImportErrors(t *testing.T) {
	tests := []struct {
		name       string
		extractor  services.TextExtractor
		field      string
		wantStatus int
	}{
		{"unsupported type", services.NewFileExtractService(), "file", http.StatusUnsupportedMediaType},
		{"missing file", services.NewFileExtractService(), "", http.StatusBadRequest},
		{"extraction failure", stubExtractor{err: errors.New("corrupt")}, "file", http.StatusUnprocessableEntity},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			caps := services.ResolveCapabilities(false, nil, tc.extractor)
			h := newTestTransformHandler(t, &stubGateway{}, caps)

			rr := httptest.NewRecorder()
			h.Import(rr, withClient(multipartRequest(t, "/api/v1/transform/import", tc.field, "program.exe", []byte("MZ"), nil), uuid.New()))

			if rr.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tc.wantStatus, rr.Code, rr.Body.String())
			}
		})
	}
}
