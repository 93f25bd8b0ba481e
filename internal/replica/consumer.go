package replica

import (
	"context"
	"encoding/json"
	"errors"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/adiwirasena/koperasi-pos-backend/pkg/feed"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/logger"
)

type applier interface {
	Apply(env feed.Envelope) error
}

// Consumer drains the change-feed subscription into the replica cache.
type Consumer struct {
	cache        applier
	subscription *pubsub.Subscriber
	logg         *logger.Logger
}

// NewConsumer constructs a consumer that watches the provided subscription.
func NewConsumer(cache applier, subscription *pubsub.Subscriber, logg *logger.Logger) (*Consumer, error) {
	if cache == nil {
		return nil, errors.New("replica cache is required")
	}
	if subscription == nil {
		return nil, errors.New("change feed subscription is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Consumer{cache: cache, subscription: subscription, logg: logg}, nil
}

// Run processes messages until the context is canceled or the subscription
// errors.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"table":      msg.Attributes["table"],
		"op":         msg.Attributes["op"],
		"account_id": msg.Attributes["account_id"],
	})

	var env feed.Envelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		c.logg.Error(logCtx, "failed to unmarshal feed envelope", err)
		return processResult{ack: true}
	}

	if err := c.cache.Apply(env); err != nil {
		if errors.Is(err, ErrInvalidEnvelope) {
			c.logg.Warn(logCtx, "dropping invalid feed envelope")
			return processResult{ack: true}
		}
		c.logg.Error(logCtx, "failed to apply feed envelope", err)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "feed envelope applied")
	return processResult{ack: true}
}
