package replica

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/adiwirasena/koperasi-pos-backend/pkg/feed"
	"github.com/adiwirasena/koperasi-pos-backend/pkg/logger"
)

type stubApplier struct {
	applied []feed.Envelope
	err     error
}

func (s *stubApplier) Apply(env feed.Envelope) error {
	if s.err != nil {
		return s.err
	}
	s.applied = append(s.applied, env)
	return nil
}

func buildMessage(t *testing.T, env feed.Envelope) *pubsub.Message {
	t.Helper()
	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return &pubsub.Message{Data: data, Attributes: feed.Attributes(env)}
}

func newTestConsumer(t *testing.T, cache applier) *Consumer {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	consumer, err := NewConsumer(cache, &pubsub.Subscriber{}, logg)
	if err != nil {
		t.Fatalf("new consumer: %v", err)
	}
	return consumer
}

func TestConsumerAppliesEnvelope(t *testing.T) {
	t.Parallel()

	cache := &stubApplier{}
	consumer := newTestConsumer(t, cache)

	env, err := feed.NewEnvelope(feed.TableProducts, feed.OpInsert, uuid.New(), uuid.New(), map[string]any{"name": "Kopi"})
	if err != nil {
		t.Fatalf("new envelope: %v", err)
	}

	result := consumer.process(context.Background(), buildMessage(t, env))
	if !result.ack || result.nack {
		t.Fatalf("expected ack, got %+v", result)
	}
	if len(cache.applied) != 1 || cache.applied[0].RowID != env.RowID {
		t.Fatalf("expected envelope applied, got %+v", cache.applied)
	}
}

func TestConsumerAcksMalformedPayload(t *testing.T) {
	t.Parallel()

	cache := &stubApplier{}
	consumer := newTestConsumer(t, cache)

	result := consumer.process(context.Background(), &pubsub.Message{Data: []byte("not json")})
	if !result.ack || result.nack {
		t.Fatalf("expected malformed payload acked, got %+v", result)
	}
	if len(cache.applied) != 0 {
		t.Fatal("expected nothing applied")
	}
}

func TestConsumerAcksInvalidEnvelope(t *testing.T) {
	t.Parallel()

	cache := &stubApplier{err: ErrInvalidEnvelope}
	consumer := newTestConsumer(t, cache)

	env := feed.Envelope{Table: feed.TableProducts, Op: "TRUNCATE", RowID: uuid.New()}
	result := consumer.process(context.Background(), buildMessage(t, env))
	if !result.ack || result.nack {
		t.Fatalf("expected invalid envelope acked, got %+v", result)
	}
}

func TestConsumerNacksApplyFailure(t *testing.T) {
	t.Parallel()

	cache := &stubApplier{err: errors.New("transient")}
	consumer := newTestConsumer(t, cache)

	env, err := feed.NewEnvelope(feed.TableProducts, feed.OpInsert, uuid.New(), uuid.New(), nil)
	if err != nil {
		t.Fatalf("new envelope: %v", err)
	}
	result := consumer.process(context.Background(), buildMessage(t, env))
	if result.ack || !result.nack {
		t.Fatalf("expected nack for apply failure, got %+v", result)
	}
}
