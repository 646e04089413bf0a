package services

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/nerdworks/dealerai-backend/internal/platform/logger"
	"github.com/nerdworks/dealerai-backend/internal/utils"
)

// Notifier pushes chat events to listening frontends. Delivery is best-effort:
// a broken notifier never fails the conversation that triggered it.
type Notifier interface {
	Broadcast(ctx context.Context, threadID, event string, payload any)
}

// ChatNotifier publishes chat events on redis pub/sub channels named
// "<prefix>-<threadID>"; a websocket gateway relays them to browsers.
type ChatNotifier struct {
	rdb    *redis.Client
	prefix string
	log    *logger.Logger
}

func NewChatNotifier(rdb *redis.Client, baseLog *logger.Logger) *ChatNotifier {
	return &ChatNotifier{
		rdb:    rdb,
		prefix: utils.GetEnv("CHAT_CHANNEL_PREFIX", "chat", baseLog),
		log:    baseLog.With("service", "ChatNotifier"),
	}
}

func (n *ChatNotifier) Broadcast(ctx context.Context, threadID, event string, payload any) {
	envelope := map[string]any{
		"event":   event,
		"thread":  threadID,
		"payload": payload,
	}
	raw, err := json.Marshal(envelope)
	if err != nil {
		n.log.Warn("failed to encode chat event", "event", event, "thread", threadID, "error", err)
		return
	}
	channel := n.prefix + "-" + threadID
	if err := n.rdb.Publish(ctx, channel, raw).Err(); err != nil {
		n.log.Warn("failed to publish chat event", "channel", channel, "event", event, "error", err)
	}
}

// NopNotifier drops events. Used when redis is not configured.
type NopNotifier struct{}

func (NopNotifier) Broadcast(context.Context, string, string, any) {}
