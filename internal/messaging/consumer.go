package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// Handler processes a single event.
type Handler[T any] func(ctx context.Context, event *T) error

// Consumer reads one topic in order and hands decoded events to a typed handler.
type Consumer[T any] struct {
	subscriber message.Subscriber
	topic      string
	handler    Handler[T]
	logger     *zap.Logger
	stop       context.CancelFunc
	done       chan struct{}
}

// NewConsumer creates a consumer of JSON-encoded T events on topic.
func NewConsumer[T any](
	subscriber message.Subscriber,
	topic string,
	handler Handler[T],
	logger *zap.Logger,
) *Consumer[T] {
	return &Consumer[T]{
		subscriber: subscriber,
		topic:      topic,
		handler:    handler,
		logger:     logger.With(zap.String("topic", topic)),
		done:       make(chan struct{}),
	}
}

func (c *Consumer[T]) Topic() string {
	return c.topic
}

// Start subscribes and processes messages in the background until ctx ends,
// the subscription closes, or Shutdown is called.
func (c *Consumer[T]) Start(ctx context.Context) error {
	runCtx, stop := context.WithCancel(ctx)

	msgs, err := c.subscriber.Subscribe(runCtx, c.topic)
	if err != nil {
		stop()
		close(c.done)

		return fmt.Errorf("subscribe to %s: %w", c.topic, err)
	}

	c.stop = stop

	go c.run(runCtx, msgs)

	return nil
}

func (c *Consumer[T]) run(ctx context.Context, msgs <-chan *message.Message) {
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			c.process(ctx, msg)
		}
	}
}

// process acks handled messages and nacks handler failures for redelivery.
// Messages that can never succeed are acked and dropped.
func (c *Consumer[T]) process(ctx context.Context, msg *message.Message) {
	log := c.logger.With(zap.String("messageId", msg.UUID))

	if eventType := msg.Metadata.Get(MetadataEventType); eventType != "" && eventType != c.topic {
		log.Warn("dropping event of another type", zap.String("eventType", eventType))
		msg.Ack()

		return
	}

	event := new(T)
	if err := json.Unmarshal(msg.Payload, event); err != nil {
		log.Error("dropping undecodable event", zap.Error(err))
		msg.Ack()

		return
	}

	if err := c.handler(ctx, event); err != nil {
		log.Error("event handler failed", zap.Error(err))
		msg.Nack()

		return
	}

	msg.Ack()
	log.Debug("event handled")
}

// Shutdown stops the consumer and waits for the in-flight message.
func (c *Consumer[T]) Shutdown() error {
	if c.stop != nil {
		c.stop()
	}

	<-c.done

	return nil
}
