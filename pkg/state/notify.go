package state

import (
	"context"
	"encoding/json"

	"github.com/rogue-datahub/atlasx/pkg/redis"
	"go.uber.org/zap"
)

// Event is what subscribers receive when a session domain changes.
type Event struct {
	Session string `json:"session"`
	Domain  Domain `json:"domain"`
	Event   string `json:"event"`
	Status  Status `json:"status"`
}

// Publisher is the Redis side of the fan-out.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{})
}

// RedisNotifier publishes events on the session's channel. Publishing is best effort.
type RedisNotifier struct {
	publisher Publisher
	logger    *zap.Logger
}

func NewRedisNotifier(publisher Publisher, logger *zap.Logger) *RedisNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisNotifier{publisher: publisher, logger: logger}
}

func (n *RedisNotifier) Notify(ctx context.Context, session string, domain Domain, st Status) {
	payload, err := json.Marshal(Event{Session: session, Domain: domain, Event: domain.Event(), Status: st})
	if err != nil {
		n.logger.Warn("failed to encode state event", zap.Error(err))
		return
	}
	n.publisher.Publish(ctx, redis.SessionChannel(session, domain.Event()), string(payload))
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, session string, domain Domain, st Status)

func (f NotifierFunc) Notify(ctx context.Context, session string, domain Domain, st Status) {
	f(ctx, session, domain, st)
}

// Fanout notifies several notifiers in order.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, session string, domain Domain, st Status) {
	for _, n := range f {
		if n != nil {
			n.Notify(ctx, session, domain, st)
		}
	}
}
