package content

import (
	"context"

	"github.com/kapu/conference-companion-go/internal/constants"
)

// RefreshChannel is the pub/sub channel refresh events are published on.
var RefreshChannel = constants.RedisConfig.KeyPrefix + "events:refresh"

// Publisher is the pub/sub side of the cache.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) error
}

// PubSubNotifier fans refresh events out to every instance through Redis.
type PubSubNotifier struct {
	publisher Publisher
	channel   string
}

func NewPubSubNotifier(publisher Publisher) *PubSubNotifier {
	return &PubSubNotifier{publisher: publisher, channel: RefreshChannel}
}

func (n *PubSubNotifier) NotifyRefresh(ctx context.Context, event RefreshEvent) error {
	return n.publisher.Publish(ctx, n.channel, event)
}
