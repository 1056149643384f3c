package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"textdesk-backend/internal/models"
)

// EventPublisher pushes status updates to every open tab of a client.
type EventPublisher interface {
	Publish(ctx context.Context, clientID uuid.UUID, msg models.WSMessage)
}

// ClientChannel is the Redis pub/sub channel carrying a client's updates.
func ClientChannel(clientID uuid.UUID) string {
	return fmt.Sprintf("client_updates:%s", clientID.String())
}

type RedisPublisher struct {
	redis  *redis.Client
	logger *zap.Logger
}

func NewRedisPublisher(redisClient *redis.Client, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{redis: redisClient, logger: logger}
}

// Publish sends a WebSocket update via Redis pub/sub. Failures are logged and
// otherwise ignored; status updates are advisory.
func (p *RedisPublisher) Publish(ctx context.Context, clientID uuid.UUID, msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		p.logger.Warn("Failed to encode update", zap.String("type", msg.Type), zap.Error(err))
		return
	}
	if err := p.redis.Publish(ctx, ClientChannel(clientID), string(data)).Err(); err != nil {
		p.logger.Warn("Failed to publish update",
			zap.String("client_id", clientID.String()),
			zap.String("type", msg.Type),
			zap.Error(err),
		)
	}
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, uuid.UUID, models.WSMessage) {}

func publishStatus(ctx context.Context, events EventPublisher, clientID uuid.UUID, kind string, busy bool) {
	events.Publish(ctx, clientID, models.WSMessage{
		Type:    kind,
		Payload: models.FlowStatus{ClientID: clientID, Busy: busy},
	})
}
