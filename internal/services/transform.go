package services

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"textdesk-backend/internal/models"
)

const transformErrorKey = "transform.error.generic"

// TransformGateway is the part of GeminiService the text processor needs.
type TransformGateway interface {
	RunTransform(ctx context.Context, instruction, input string) (string, error)
}

// InstructionResolver turns a template selection into one instruction.
// *prompts.Catalog satisfies it.
type InstructionResolver interface {
	Resolve(id, childID, lang string) (string, error)
}

// Invoker applies one instruction to one text. It keeps no history; the only
// state is the in-flight slot and the active language.
type Invoker struct {
	clientID  uuid.UUID
	gateway   TransformGateway
	templates InstructionResolver
	loc       Localizer
	events    EventPublisher
	logger    *zap.Logger
	guard     *inFlightGuard

	mu   sync.Mutex
	lang string
}

func NewInvoker(clientID uuid.UUID, gateway TransformGateway, templates InstructionResolver, loc Localizer, lang string, events EventPublisher, logger *zap.Logger) *Invoker {
	if events == nil {
		events = NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Invoker{
		clientID:  clientID,
		gateway:   gateway,
		templates: templates,
		loc:       loc,
		events:    events,
		logger:    logger,
		guard:     newInFlightGuard(),
		lang:      lang,
	}
}

// Apply runs instruction over input. The bool is false when the call was
// refused (blank input or a transform already in flight). Upstream failures
// come back as the localized error text, never as an error value.
func (inv *Invoker) Apply(ctx context.Context, instruction, input string) (string, bool) {
	if strings.TrimSpace(input) == "" {
		return "", false
	}

	release, ok := inv.guard.tryEnter()
	if !ok {
		return "", false
	}
	defer release()

	callCtx := context.WithoutCancel(ctx)

	publishStatus(callCtx, inv.events, inv.clientID, models.WSTransformStatus, true)
	defer publishStatus(callCtx, inv.events, inv.clientID, models.WSTransformStatus, false)

	result, err := inv.gateway.RunTransform(callCtx, instruction, input)
	if err != nil {
		inv.logger.Error("Transform failed",
			zap.String("client_id", inv.clientID.String()),
			zap.Int("input_length", len(input)),
			zap.Error(err),
		)
		return inv.loc.T(inv.Language(), transformErrorKey), true
	}

	return result, true
}

// ApplyTemplate resolves a catalog selection in the active language and
// applies it. Menu templates must come with a child selection.
func (inv *Invoker) ApplyTemplate(ctx context.Context, templateID, childID, input string) (string, bool, error) {
	if strings.TrimSpace(input) == "" {
		return "", false, nil
	}

	instruction, err := inv.templates.Resolve(templateID, childID, inv.Language())
	if err != nil {
		return "", false, err
	}

	result, accepted := inv.Apply(ctx, instruction, input)
	return result, accepted, nil
}

func (inv *Invoker) InFlight() bool {
	return inv.guard.busy()
}

func (inv *Invoker) Language() string {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.lang
}

func (inv *Invoker) SetLanguage(lang string) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.lang = lang
}
