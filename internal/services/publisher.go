// Package services – RequestPublisher
package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-dining-concierge/internal/domain"
	"github.com/tbourn/go-dining-concierge/internal/queue"
	"github.com/tbourn/go-dining-concierge/internal/sysutil"
)

// RequestPublisher serializes dining requests onto the queue. It satisfies
// dialog.Publisher. Failures are returned, never retried.
type RequestPublisher struct {
	Queue queue.Publisher
}

// Publish encodes req and enqueues it.
func (p *RequestPublisher) Publish(ctx context.Context, req domain.DiningRequest) error {
	body, err := queue.EncodeRequest(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}
	id, err := p.Queue.Publish(ctx, body)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}
	zerolog.Ctx(ctx).Info().
		Str("message_id", id).
		Str("cuisine", req.Cuisine).
		Str("email", sysutil.MaskEmail(req.Email)).
		Msg("dining request enqueued")
	return nil
}
