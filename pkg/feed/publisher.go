package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/adiwirasena/koperasi-pos-backend/pkg/logger"
)

type messagePublisher interface {
	Publish(ctx context.Context, msg *pubsub.Message) *pubsub.PublishResult
}

// Publisher pushes row-change envelopes onto the change-feed topic.
type Publisher struct {
	topic messagePublisher
	logg  *logger.Logger
}

// NewPublisher wires a publisher around the change-feed topic handle.
func NewPublisher(topic *pubsub.Publisher, logg *logger.Logger) (*Publisher, error) {
	if topic == nil {
		return nil, errors.New("change feed topic is required")
	}
	return &Publisher{topic: topic, logg: logg}, nil
}

// Publish sends one envelope and waits for the server ack.
func (p *Publisher) Publish(ctx context.Context, env Envelope) error {
	if !env.Valid() {
		return fmt.Errorf("invalid envelope for table %q", env.Table)
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshaling envelope: %w", err)
	}
	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: Attributes(env),
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publishing change event: %w", err)
	}
	if p.logg != nil {
		logCtx := p.logg.WithFields(ctx, map[string]any{
			"event_id": env.EventID,
			"table":    env.Table,
			"op":       string(env.Op),
		})
		p.logg.Info(logCtx, "change event published")
	}
	return nil
}

// Attributes builds the message attributes used for subscription filtering.
func Attributes(env Envelope) map[string]string {
	return map[string]string{
		"table":      env.Table,
		"op":         string(env.Op),
		"account_id": env.AccountID.String(),
	}
}
