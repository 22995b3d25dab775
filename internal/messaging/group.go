package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// Runnable is anything the group can start and stop.
type Runnable interface {
	Start(ctx context.Context) error
	Shutdown() error
}

// ConsumerGroup runs consumers that share one subscriber. The group owns the
// subscriber and closes it after its consumers.
type ConsumerGroup struct {
	subscriber message.Subscriber
	logger     *zap.Logger
	members    []Runnable
}

func NewConsumerGroup(subscriber message.Subscriber, logger *zap.Logger) *ConsumerGroup {
	return &ConsumerGroup{
		subscriber: subscriber,
		logger:     logger,
	}
}

func (g *ConsumerGroup) Add(member Runnable) {
	g.members = append(g.members, member)
}

// Start starts members in order. If one fails, the ones already running are
// stopped in reverse order before the error is returned.
func (g *ConsumerGroup) Start(ctx context.Context) error {
	for i, member := range g.members {
		if err := member.Start(ctx); err != nil {
			_ = stopAll(g.members[:i])

			return fmt.Errorf("start consumer %d of %d: %w", i+1, len(g.members), err)
		}
	}

	g.logger.Info("consumer group started", zap.Int("consumers", len(g.members)))

	return nil
}

// Shutdown stops every member in reverse order, then closes the subscriber.
// All failures are reported together.
func (g *ConsumerGroup) Shutdown() error {
	g.logger.Info("stopping consumer group")

	err := stopAll(g.members)
	if closeErr := g.subscriber.Close(); closeErr != nil {
		err = errors.Join(err, fmt.Errorf("close subscriber: %w", closeErr))
	}

	return err
}

func stopAll(members []Runnable) error {
	var errs []error

	for i := len(members) - 1; i >= 0; i-- {
		if err := members[i].Shutdown(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
