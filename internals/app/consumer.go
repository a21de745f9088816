package app

import (
	"context"

	"watchpost/pkg/rabbitmq"
)

func StartConsumer(ctx context.Context, c *Container) {

	eventHandler := rabbitmq.NewEventHandler(c.Processor)

	// Consume ranges over the delivery channel until the broker closes
	// it or the context is cancelled.
	go func() {
		if err := c.Consumer.Consume(ctx, eventHandler); err != nil {
			c.Logger.Error().
				Err(err).
				Msg("rabbitmq consumer stopped")
		}
	}()
}
