package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"textdesk-backend/internal/models"
)

const chatErrorKey = "chat.error.generic"

// ChatGateway is the part of GeminiService a chat session needs.
type ChatGateway interface {
	SendChatTurn(ctx context.Context, conv *Conversation, text string) (string, error)
	ResetConversationContext(conv *Conversation)
}

// Localizer resolves UI strings. *i18n.Catalog satisfies it.
type Localizer interface {
	T(lang, key string) string
}

// Session is one client's chat: the ordered messages shown in the UI plus the
// handle to the remote context. At most one turn is in flight at a time.
type Session struct {
	clientID uuid.UUID
	gateway  ChatGateway
	loc      Localizer
	events   EventPublisher
	logger   *zap.Logger
	guard    *inFlightGuard
	conv     *Conversation
	now      func() time.Time

	mu       sync.Mutex
	lang     string
	messages []models.Message
}

func NewSession(clientID uuid.UUID, gateway ChatGateway, loc Localizer, lang string, events EventPublisher, logger *zap.Logger) *Session {
	if events == nil {
		events = NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		clientID: clientID,
		gateway:  gateway,
		loc:      loc,
		events:   events,
		logger:   logger,
		guard:    newInFlightGuard(),
		conv:     &Conversation{},
		now:      time.Now,
		lang:     lang,
	}
}

// PostUserMessage runs one chat turn. It returns false without side effects
// when text is blank or another turn is still in flight.
func (s *Session) PostUserMessage(ctx context.Context, text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	release, ok := s.guard.tryEnter()
	if !ok {
		return false
	}
	defer release()

	s.runTurn(ctx, text)
	return true
}

// RegenerateLastReply retries the most recent user turn. When the history
// ends with a model reply, that reply and the message it answered are dropped
// before the user text is sent again. When it ends with a user message,
// nothing is dropped.
func (s *Session) RegenerateLastReply(ctx context.Context) bool {
	release, ok := s.guard.tryEnter()
	if !ok {
		return false
	}
	defer release()

	s.mu.Lock()
	idx := -1
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].Role == models.RoleUser {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	text := s.messages[idx].Content
	if s.messages[len(s.messages)-1].Role == models.RoleModel {
		s.messages = s.messages[:idx]
	}
	s.mu.Unlock()

	s.runTurn(ctx, text)
	return true
}

// Clear empties the history and discards the remote context. It is refused
// while a turn is in flight.
func (s *Session) Clear() bool {
	release, ok := s.guard.tryEnter()
	if !ok {
		return false
	}
	defer release()

	s.mu.Lock()
	s.messages = nil
	s.mu.Unlock()

	s.gateway.ResetConversationContext(s.conv)
	return true
}

// runTurn must be called with the guard held.
func (s *Session) runTurn(ctx context.Context, text string) {
	s.appendMessage(models.RoleUser, text)

	// The turn runs to completion even if the requester goes away.
	callCtx := context.WithoutCancel(ctx)

	publishStatus(callCtx, s.events, s.clientID, models.WSChatStatus, true)
	defer publishStatus(callCtx, s.events, s.clientID, models.WSChatStatus, false)

	reply, err := s.gateway.SendChatTurn(callCtx, s.conv, text)
	if err != nil {
		s.logger.Error("Chat turn failed",
			zap.String("client_id", s.clientID.String()),
			zap.Int("message_count", s.Len()),
			zap.Error(err),
		)
		reply = s.loc.T(s.Language(), chatErrorKey)
	}

	s.appendMessage(models.RoleModel, reply)
}

func (s *Session) appendMessage(role models.Role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, models.Message{
		Role:      role,
		Content:   content,
		CreatedAt: s.now().UTC(),
	})
}

// Messages returns a snapshot of the history in conversation order.
func (s *Session) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

func (s *Session) InFlight() bool {
	return s.guard.busy()
}

func (s *Session) Language() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lang
}

func (s *Session) SetLanguage(lang string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lang = lang
}

// discard drops the remote context without touching the history. Used when
// the whole session is evicted.
func (s *Session) discard() {
	s.gateway.ResetConversationContext(s.conv)
}
