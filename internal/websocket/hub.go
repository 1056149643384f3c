package websocket

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"textdesk-backend/internal/services"
)

type tokenParser interface {
	ParseClientToken(token string) (uuid.UUID, error)
}

// Hub fans the Redis updates of a client out to every open tab of that
// client. One subscription exists per client while it has connections.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID][]*websocket.Conn
	cancelFuncs map[uuid.UUID]context.CancelFunc

	redisClient *redis.Client
	tokens      tokenParser
	upgrader    websocket.Upgrader
	logger      *zap.Logger
}

func NewHub(redisClient *redis.Client, tokens tokenParser, allowedOrigin string, logger *zap.Logger) *Hub {
	h := &Hub{
		connections: make(map[uuid.UUID][]*websocket.Conn),
		cancelFuncs: make(map[uuid.UUID]context.CancelFunc),
		redisClient: redisClient,
		tokens:      tokens,
		logger:      logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowedOrigin == "*" || strings.EqualFold(origin, allowedOrigin)
		},
	}
	return h
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Browsers cannot set headers on a websocket handshake.
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	clientID, err := h.tokens.ParseClientToken(tokenStr)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	h.registerConnection(clientID, conn)

	go func() {
		defer h.unregisterConnection(clientID, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

func (h *Hub) registerConnection(clientID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[clientID] = append(h.connections[clientID], conn)

	if len(h.connections[clientID]) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[clientID] = cancel
		go h.subscribe(ctx, clientID)
	}

	h.logger.Debug("WebSocket connected",
		zap.String("client_id", clientID.String()),
		zap.Int("connections", len(h.connections[clientID])),
	)
}

func (h *Hub) unregisterConnection(clientID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()

	conns := h.connections[clientID]
	for i, c := range conns {
		if c == conn {
			h.connections[clientID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}

	if len(h.connections[clientID]) == 0 {
		delete(h.connections, clientID)
		if cancel, ok := h.cancelFuncs[clientID]; ok {
			cancel()
			delete(h.cancelFuncs, clientID)
		}
	}

	h.logger.Debug("WebSocket disconnected", zap.String("client_id", clientID.String()))
}

func (h *Hub) subscribe(ctx context.Context, clientID uuid.UUID) {
	pubsub := h.redisClient.Subscribe(ctx, services.ClientChannel(clientID))
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(clientID, []byte(msg.Payload))
		}
	}
}

// broadcast is only called from the client's single subscription goroutine,
// so each connection has one writer.
func (h *Hub) broadcast(clientID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.connections[clientID] {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Debug("WebSocket write failed", zap.String("client_id", clientID.String()), zap.Error(err))
		}
	}
}

// ConnectionCount reports how many sockets are open for clientID.
func (h *Hub) ConnectionCount(clientID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[clientID])
}

// Shutdown closes every connection and stops all subscriptions.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, conns := range h.connections {
		for _, c := range conns {
			c.Close()
		}
		if cancel, ok := h.cancelFuncs[id]; ok {
			cancel()
		}
	}
	h.connections = make(map[uuid.UUID][]*websocket.Conn)
	h.cancelFuncs = make(map[uuid.UUID]context.CancelFunc)
}
