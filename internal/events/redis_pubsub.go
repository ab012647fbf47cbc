package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var ErrUntypedEvent = errors.New("event type is required")

type RedisPublisher struct {
	client redis.UniversalClient
	log    *zap.Logger
}

func NewRedisPublisher(client redis.UniversalClient, log *zap.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, log: log}
}

func encode(event Event) ([]byte, error) {
	if event.Type == "" {
		return nil, ErrUntypedEvent
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	return json.Marshal(event)
}

func (p *RedisPublisher) Publish(ctx context.Context, stream string, event Event) error {
	data, err := encode(event)
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, stream, data).Err(); err != nil {
		p.log.Warn("publish failed", zap.String("stream", stream), zap.String("type", event.Type), zap.Error(err))
		return err
	}
	return nil
}

// PublishBatch sends all events in one pipelined round trip.
func (p *RedisPublisher) PublishBatch(ctx context.Context, stream string, batch []Event) error {
	if len(batch) == 0 {
		return nil
	}
	payloads := make([][]byte, 0, len(batch))
	for _, e := range batch {
		data, err := encode(e)
		if err != nil {
			return err
		}
		payloads = append(payloads, data)
	}

	_, err := p.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, data := range payloads {
			pipe.Publish(ctx, stream, data)
		}
		return nil
	})
	if err != nil {
		p.log.Warn("batch publish failed", zap.String("stream", stream), zap.Int("events", len(batch)), zap.Error(err))
		return fmt.Errorf("publish %d events: %w", len(batch), err)
	}
	return nil
}

type RedisSubscriber struct {
	client redis.UniversalClient
	log    *zap.Logger
}

func NewRedisSubscriber(client redis.UniversalClient, log *zap.Logger) *RedisSubscriber {
	return &RedisSubscriber{client: client, log: log}
}

// Subscribe delivers messages from stream to handler on a background
// goroutine until ctx is cancelled. A panicking handler drops that event
// only.
func (s *RedisSubscriber) Subscribe(ctx context.Context, stream string, handler func(Event)) error {
	pubsub := s.client.Subscribe(ctx, stream)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}
	ch := pubsub.Channel()

	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					s.log.Error("failed to unmarshal event", zap.String("stream", stream), zap.Error(err))
					continue
				}
				s.deliver(stream, event, handler)
			}
		}
	}()

	s.log.Info("subscribed", zap.String("stream", stream))
	return nil
}

func (s *RedisSubscriber) deliver(stream string, event Event, handler func(Event)) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("event handler panicked",
				zap.String("stream", stream),
				zap.String("type", event.Type),
				zap.Any("panic", r),
			)
		}
	}()
	handler(event)
}
