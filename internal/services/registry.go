package services

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Gateway is everything the per-client flows need from GeminiService.
type Gateway interface {
	ChatGateway
	TransformGateway
}

// ClientWorkspace holds the two flows of one browser client.
type ClientWorkspace struct {
	Chat       *Session
	Transforms *Invoker
	lastSeen   time.Time
}

// SessionRegistry creates workspaces on first use and evicts idle ones.
type SessionRegistry struct {
	gateway   Gateway
	templates InstructionResolver
	loc       Localizer
	events    EventPublisher
	logger    *zap.Logger
	idleTTL   time.Duration
	now       func() time.Time

	mu       sync.Mutex
	clients  map[uuid.UUID]*ClientWorkspace
	stopChan chan struct{}
	done     chan struct{}
}

func NewSessionRegistry(gateway Gateway, templates InstructionResolver, loc Localizer, events EventPublisher, idleTTL time.Duration, logger *zap.Logger) *SessionRegistry {
	if events == nil {
		events = NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionRegistry{
		gateway:   gateway,
		templates: templates,
		loc:       loc,
		events:    events,
		logger:    logger,
		idleTTL:   idleTTL,
		now:       time.Now,
		clients:   make(map[uuid.UUID]*ClientWorkspace),
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// ForClient returns the client's workspace, creating it in lang if needed.
func (r *SessionRegistry) ForClient(clientID uuid.UUID, lang string) *ClientWorkspace {
	r.mu.Lock()
	defer r.mu.Unlock()

	ws, ok := r.clients[clientID]
	if !ok {
		ws = &ClientWorkspace{
			Chat:       NewSession(clientID, r.gateway, r.loc, lang, r.events, r.logger),
			Transforms: NewInvoker(clientID, r.gateway, r.templates, r.loc, lang, r.events, r.logger),
		}
		r.clients[clientID] = ws
		r.logger.Debug("Created client workspace", zap.String("client_id", clientID.String()))
	}
	ws.lastSeen = r.now()
	return ws
}

// SetLanguage switches the language of an existing workspace.
func (r *SessionRegistry) SetLanguage(clientID uuid.UUID, lang string) {
	r.mu.Lock()
	ws, ok := r.clients[clientID]
	r.mu.Unlock()
	if !ok {
		return
	}
	ws.Chat.SetLanguage(lang)
	ws.Transforms.SetLanguage(lang)
}

func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Sweep evicts workspaces idle for longer than the TTL. Busy workspaces are
// kept until their call completes.
func (r *SessionRegistry) Sweep() int {
	now := r.now()

	r.mu.Lock()
	var evicted []*ClientWorkspace
	for id, ws := range r.clients {
		if now.Sub(ws.lastSeen) <= r.idleTTL {
			continue
		}
		if ws.Chat.InFlight() || ws.Transforms.InFlight() {
			continue
		}
		delete(r.clients, id)
		evicted = append(evicted, ws)
	}
	r.mu.Unlock()

	for _, ws := range evicted {
		ws.Chat.discard()
	}
	if len(evicted) > 0 {
		r.logger.Info("Evicted idle client workspaces", zap.Int("count", len(evicted)))
	}
	return len(evicted)
}

func (r *SessionRegistry) Start(interval time.Duration) {
	go func() {
		defer close(r.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-r.stopChan:
				return
			case <-ticker.C:
				r.Sweep()
			}
		}
	}()
}

// Stop ends the sweep loop and waits for it. Only valid after Start.
func (r *SessionRegistry) Stop() {
	select {
	case <-r.stopChan:
		return
	default:
		close(r.stopChan)
	}
	<-r.done
}
