package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// TransformSeparator joins an instruction and the user's text into one prompt.
const TransformSeparator = "\n\n---\n\n"

const (
	fileActivePolls    = 20
	fileActiveInterval = 2 * time.Second
)

// chatStream is a remote conversation; *genai.ChatSession satisfies it.
type chatStream interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type modelBackend interface {
	StartChat() chatStream
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// fileStore is the slice of the Gemini File API used for transcription.
type fileStore interface {
	UploadFile(ctx context.Context, name string, r io.Reader, opts *genai.UploadFileOptions) (*genai.File, error)
	GetFile(ctx context.Context, name string) (*genai.File, error)
	DeleteFile(ctx context.Context, name string) error
}

type genaiBackend struct {
	model *genai.GenerativeModel
}

func (b genaiBackend) StartChat() chatStream {
	return b.model.StartChat()
}

func (b genaiBackend) GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	return b.model.GenerateContent(ctx, parts...)
}

// Conversation is the handle to one remote chat context. The zero value has
// no context yet; the first turn creates it.
type Conversation struct {
	mu     sync.Mutex
	stream chatStream
}

// Active reports whether a remote context has been created.
func (c *Conversation) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stream != nil
}

// GeminiService is the only component that talks to the Gemini API.
type GeminiService struct {
	client   *genai.Client
	backend  modelBackend
	files    fileStore
	logger   *zap.Logger
	rateChan chan struct{} // Token bucket
}

func NewGeminiService(apiKey, modelName string, temperature float32, concurrentReqs int, logger *zap.Logger) (*GeminiService, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingCredential
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(0.95)

	s := newGeminiService(genaiBackend{model: model}, client, concurrentReqs, logger)
	s.client = client
	return s, nil
}

func newGeminiService(backend modelBackend, files fileStore, concurrentReqs int, logger *zap.Logger) *GeminiService {
	if concurrentReqs < 1 {
		concurrentReqs = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &GeminiService{
		backend:  backend,
		files:    files,
		logger:   logger,
		rateChan: rateChan,
	}
}

func (s *GeminiService) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

// acquireRate blocks until a rate slot is available
func (s *GeminiService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *GeminiService) releaseRate() {
	s.rateChan <- struct{}{}
}

// SendChatTurn sends text on the conversation's remote context, creating the
// context on first use, and returns the reply.
func (s *GeminiService) SendChatTurn(ctx context.Context, conv *Conversation, text string) (string, error) {
	if err := s.acquireRate(ctx); err != nil {
		return "", &UpstreamError{Op: "chat", Err: err}
	}
	defer s.releaseRate()

	conv.mu.Lock()
	if conv.stream == nil {
		conv.stream = s.backend.StartChat()
		s.logger.Debug("Started remote chat context")
	}
	stream := conv.stream
	conv.mu.Unlock()

	resp, err := stream.SendMessage(ctx, genai.Text(text))
	if err != nil {
		return "", &UpstreamError{Op: "chat", Err: err}
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &UpstreamError{Op: "chat", Err: errNoCandidates}
	}
	s.logFinish("chat", resp)

	return extractText(resp), nil
}

// ResetConversationContext drops the remote context so the next turn starts fresh.
func (s *GeminiService) ResetConversationContext(conv *Conversation) {
	conv.mu.Lock()
	defer conv.mu.Unlock()
	conv.stream = nil
}

// RunTransform issues one stateless completion for instruction applied to input.
// A response without text yields "".
func (s *GeminiService) RunTransform(ctx context.Context, instruction, input string) (string, error) {
	if err := s.acquireRate(ctx); err != nil {
		return "", &UpstreamError{Op: "transform", Err: err}
	}
	defer s.releaseRate()

	resp, err := s.backend.GenerateContent(ctx, genai.Text(BuildTransformPrompt(instruction, input)))
	if err != nil {
		return "", &UpstreamError{Op: "transform", Err: err}
	}
	if resp == nil {
		return "", nil
	}
	s.logFinish("transform", resp)

	return extractText(resp), nil
}

// BuildTransformPrompt is the exact request body of a transform.
func BuildTransformPrompt(instruction, input string) string {
	return instruction + TransformSeparator + input
}

// TranscribeAudio uses Gemini File API to transcribe uploaded audio bytes.
func (s *GeminiService) TranscribeAudio(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("audio payload is empty")
	}

	if err := s.acquireRate(ctx); err != nil {
		return "", &UpstreamError{Op: "transcribe", Err: err}
	}
	defer s.releaseRate()

	file, err := s.files.UploadFile(ctx, "", bytes.NewReader(audio), &genai.UploadFileOptions{
		DisplayName: "dictation",
		MIMEType:    mimeType,
	})
	if err != nil {
		return "", &UpstreamError{Op: "transcribe", Err: fmt.Errorf("upload audio: %w", err)}
	}

	// Ensure remote file is cleaned up
	defer s.files.DeleteFile(context.Background(), file.Name)

	for i := 0; i < fileActivePolls && file.State != genai.FileStateActive; i++ {
		current, getErr := s.files.GetFile(ctx, file.Name)
		if getErr != nil {
			return "", &UpstreamError{Op: "transcribe", Err: fmt.Errorf("get uploaded file status: %w", getErr)}
		}
		file = current

		if file.State == genai.FileStateActive {
			break
		}
		if file.State == genai.FileStateFailed {
			return "", &UpstreamError{Op: "transcribe", Err: fmt.Errorf("gemini failed to process uploaded audio")}
		}

		select {
		case <-ctx.Done():
			return "", &UpstreamError{Op: "transcribe", Err: ctx.Err()}
		case <-time.After(fileActiveInterval):
		}
	}

	if file.State != genai.FileStateActive {
		return "", &UpstreamError{Op: "transcribe", Err: fmt.Errorf("audio file did not become active in time")}
	}

	prompt := "Transcribe the provided audio verbatim. Return plain text only, without markdown, headers, or explanations."

	resp, err := s.backend.GenerateContent(ctx,
		genai.Text(prompt),
		genai.FileData{MIMEType: mimeType, URI: file.URI},
	)
	if err != nil {
		return "", &UpstreamError{Op: "transcribe", Err: err}
	}

	return strings.TrimSpace(extractText(resp)), nil
}

func (s *GeminiService) logFinish(op string, resp *genai.GenerateContentResponse) {
	for i, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonStop {
			s.logger.Warn("Gemini stopped early",
				zap.String("op", op),
				zap.Int("candidate", i),
				zap.String("finish_reason", cand.FinishReason.String()),
			)
		}
	}
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
