// Package services – Conversation
//
// The front-end turn: one utterance in, the dialog engine's first reply out.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-dining-concierge/internal/dialog"
)

// FallbackReply is returned when the engine produced no text message.
const FallbackReply = "Sorry, I didn't understand that."

// Conversation relays front-end utterances to the dialog engine.
type Conversation struct {
	// Engine is the managed or local dialog engine.
	Engine dialog.Engine
}

// Converse sends text for sessionID and returns the bot's first reply.
func (c *Conversation) Converse(ctx context.Context, sessionID, text string) (string, error) {
	ctx, span := otel.Tracer("services/Conversation").Start(ctx, "Converse",
		trace.WithAttributes(attribute.String("session.id", sessionID)),
	)
	defer span.End()

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyMessage
	}
	msgs, err := c.Engine.Recognize(ctx, sessionID, text)
	if err != nil {
		span.RecordError(err)
		zerolog.Ctx(ctx).Error().Err(err).Str("session_id", sessionID).Msg("dialog engine failed")
		return "", fmt.Errorf("%w: %w", ErrEngineFailure, err)
	}
	for _, m := range msgs {
		if strings.TrimSpace(m.Content) != "" {
			return m.Content, nil
		}
	}
	return FallbackReply, nil
}
