// Package services – Consumer
//
// This file implements the queue consumer, the scheduled half of the
// concierge. Each invocation receives at most one dining request and walks
// it through recommendation lookup and email notification. Poison messages
// (not JSON, or missing cuisine or email) and requests with no matching
// restaurant are deleted; any failure before the delete leaves the message
// for redelivery, so processing is at-least-once. An optional Deduper keeps
// a redelivered message from being emailed twice.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/go-dining-concierge/internal/domain"
	"github.com/tbourn/go-dining-concierge/internal/notify"
	"github.com/tbourn/go-dining-concierge/internal/observability"
	"github.com/tbourn/go-dining-concierge/internal/queue"
	"github.com/tbourn/go-dining-concierge/internal/sysutil"
)

// Outcome is the result of one consumer invocation.
type Outcome string

const (
	OutcomeEmpty     Outcome = "empty"
	OutcomeInvalid   Outcome = "invalid"
	OutcomeNotFound  Outcome = "not_found"
	OutcomeNotified  Outcome = "notified"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeError     Outcome = "error"
)

// Deduper records notified messages so a redelivery is not emailed twice.
type Deduper interface {
	Seen(ctx context.Context, messageID string) (bool, error)
	Mark(ctx context.Context, messageID, cuisine, restaurantID string) error
}

// Recommend is the lookup the consumer drives; *Recommender implements it.
type Recommend interface {
	Recommend(ctx context.Context, cuisine string) (*domain.RestaurantDetails, error)
}

// Consumer processes at most one queued dining request per invocation.
// Deleting the message is the processed marker: any error returned before
// the delete leaves it on the queue for a later poll.
type Consumer struct {
	// Queue is polled once per invocation.
	Queue queue.Receiver
	// Recommender picks the restaurant for the request's cuisine.
	Recommender Recommend
	// Notifier emails the recommendation to the requester.
	Notifier notify.Notifier

	// Deduper is optional; without it a redelivered message may be emailed
	// again.
	Deduper Deduper
}

// ProcessOne fetches one message and drives it through lookup and
// notification.
func (c *Consumer) ProcessOne(ctx context.Context) (Outcome, error) {
	out, err := c.processOne(ctx)
	observability.QueueMessages.WithLabelValues(string(out)).Inc()
	return out, err
}

func (c *Consumer) processOne(ctx context.Context) (Outcome, error) {
	ctx, span := otel.Tracer("services/Consumer").Start(ctx, "ProcessOne")
	defer span.End()

	msg, err := c.Queue.Receive(ctx)
	if err != nil {
		span.RecordError(err)
		return OutcomeError, fmt.Errorf("receive: %w", err)
	}
	if msg == nil {
		return OutcomeEmpty, nil
	}
	span.SetAttributes(attribute.String("messaging.message.id", msg.ID))
	logger := zerolog.Ctx(ctx).With().Str("message_id", msg.ID).Logger()

	req, err := queue.DecodeRequest(msg.Body)
	if err != nil {
		logger.Warn().Err(err).Msg("dropping invalid message")
		return c.finish(ctx, msg, OutcomeInvalid)
	}

	if c.Deduper != nil {
		seen, err := c.Deduper.Seen(ctx, msg.ID)
		if err != nil {
			logger.Warn().Err(err).Msg("dedupe lookup failed")
		} else if seen {
			logger.Info().Msg("message already notified; deleting")
			return c.finish(ctx, msg, OutcomeDuplicate)
		}
	}

	details, err := c.Recommender.Recommend(ctx, req.Cuisine)
	if errors.Is(err, ErrNoRecommendation) {
		logger.Info().Str("cuisine", req.Cuisine).Msg("no restaurant found")
		return c.finish(ctx, msg, OutcomeNotFound)
	}
	if err != nil {
		span.RecordError(err)
		return OutcomeError, err
	}

	err = c.Notifier.Notify(ctx, notify.Recommendation{
		Email:   req.Email,
		Cuisine: req.Cuisine,
		Name:    details.Name,
		Address: details.Address,
	})
	if err != nil {
		observability.Notifications.WithLabelValues("error").Inc()
		span.RecordError(err)
		return OutcomeError, fmt.Errorf("notify: %w", err)
	}
	observability.Notifications.WithLabelValues("sent").Inc()
	logger.Info().
		Str("email", sysutil.MaskEmail(req.Email)).
		Str("restaurant_id", details.RestaurantID).
		Msg("recommendation sent")

	if c.Deduper != nil {
		if err := c.Deduper.Mark(ctx, msg.ID, req.Cuisine, details.RestaurantID); err != nil {
			logger.Warn().Err(err).Msg("record processed message failed")
		}
	}
	return c.finish(ctx, msg, OutcomeNotified)
}

func (c *Consumer) finish(ctx context.Context, msg *queue.Message, out Outcome) (Outcome, error) {
	if err := c.Queue.Delete(ctx, msg); err != nil {
		return OutcomeError, fmt.Errorf("delete %s: %w", msg.ID, err)
	}
	return out, nil
}
