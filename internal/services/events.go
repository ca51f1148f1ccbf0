package services

import (
	"context"

	"emipilot/internal/amqp"
)

// EventPublisher announces committed changes. *amqp.Client implements it.
type EventPublisher interface {
	Publish(ctx context.Context, ev *amqp.Event) error
}

// NoopPublisher drops every event. Used when AMQP is not configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *amqp.Event) error { return nil }
