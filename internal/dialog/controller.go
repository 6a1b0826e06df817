package dialog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-dining-concierge/internal/domain"
	"github.com/tbourn/go-dining-concierge/internal/observability"
)

// Fixed conversation replies.
const (
	MsgBookingFailed = "Booking failed, please try again later."
	MsgUnknownIntent = "I'm not sure how to handle that request."
)

// State is the controller state reached by a turn.
type State string

const (
	StateElicitingSlot State = "eliciting-slot"
	StateValidating    State = "validating"
	StateFulfilled     State = "fulfilled"
	StateFailed        State = "failed"
	StateUnknownIntent State = "unknown-intent"
)

// ErrMissingIntent is returned for an event without an intent name.
var ErrMissingIntent = errors.New("dialog event has no intent name")

// Publisher hands a completed request downstream. Implementations must not
// retry; an error moves the conversation to the failed state.
type Publisher interface {
	Publish(ctx context.Context, req domain.DiningRequest) error
}

// Controller drives one turn of the dining suggestions conversation. It
// keeps no state between turns: slots and session attributes come in with
// the event and go back out in the response.
type Controller struct {
	Publisher Publisher
}

// NewController returns a Controller publishing completed requests to pub.
func NewController(pub Publisher) *Controller {
	return &Controller{Publisher: pub}
}

// Handle processes one code-hook event.
func (c *Controller) Handle(ctx context.Context, ev Event) (Response, error) {
	resp, state, err := c.Turn(ctx, ev)
	if err == nil {
		observability.DialogTurns.WithLabelValues(string(state)).Inc()
	}
	return resp, err
}

// Turn is Handle that also reports the state reached.
func (c *Controller) Turn(ctx context.Context, ev Event) (Response, State, error) {
	intent := ev.SessionState.Intent
	ctx, span := otel.Tracer("dialog/Controller").Start(ctx, "Turn",
		trace.WithAttributes(attribute.String("intent.name", intent.Name)),
	)
	defer span.End()

	logger := zerolog.Ctx(ctx)

	if strings.TrimSpace(intent.Name) == "" {
		return Response{}, "", ErrMissingIntent
	}
	attrs := ev.SessionState.SessionAttributes

	if intent.Name != domain.IntentDiningSuggestions {
		logger.Info().Str("intent", intent.Name).Msg("unhandled intent")
		return closeResponse(attrs, intent.Name, nil, IntentFulfilled, MsgUnknownIntent), StateUnknownIntent, nil
	}

	values := SlotValuesFrom(intent.Slots)

	if slot, missing := values.FirstMissing(); missing {
		logger.Debug().Str("slot", string(slot)).Msg("eliciting missing slot")
		return elicit(attrs, intent, slot, fmt.Sprintf("Please provide %s.", slot)), StateElicitingSlot, nil
	}

	span.AddEvent(string(StateValidating))
	if res := Validate(values); !res.IsValid {
		logger.Info().Str("slot", string(*res.ViolatedSlot)).Msg("slot rejected")
		return elicit(attrs, intent, *res.ViolatedSlot, *res.Message), StateElicitingSlot, nil
	}

	req, err := buildRequest(values)
	if err != nil {
		// Validate already accepted every field; reaching this is a bug.
		return Response{}, "", err
	}

	if err := c.Publisher.Publish(ctx, req); err != nil {
		span.RecordError(err)
		logger.Error().Err(err).Msg("publish dining request failed")
		return closeResponse(attrs, intent.Name, intent.Slots, IntentFailed, MsgBookingFailed), StateFailed, nil
	}

	msg := fmt.Sprintf(
		"Based on your request, here are some %s restaurant recommendations in %s for %d people at %s. We will send detailed information to %s.",
		strings.TrimSpace(*values.Cuisine), strings.TrimSpace(*values.Location), req.NumberOfPeople,
		req.DiningTime, req.Email,
	)
	return closeResponse(attrs, intent.Name, intent.Slots, IntentFulfilled, msg), StateFulfilled, nil
}

// buildRequest turns validated slots into a DiningRequest. Location and
// cuisine are stored as their canonical lower-case values so that the
// downstream exact-match search finds them.
func buildRequest(v SlotValues) (domain.DiningRequest, error) {
	loc, ok := domain.CanonicalLocation(*v.Location)
	if !ok {
		return domain.DiningRequest{}, fmt.Errorf("unsupported location %q", *v.Location)
	}
	cuisine, ok := domain.CanonicalCuisine(*v.Cuisine)
	if !ok {
		return domain.DiningRequest{}, fmt.Errorf("unsupported cuisine %q", *v.Cuisine)
	}
	n, msg := ParsePartySize(*v.NumberOfPeople)
	if msg != "" {
		return domain.DiningRequest{}, errors.New(msg)
	}
	return domain.DiningRequest{
		Location:       loc,
		Cuisine:        cuisine,
		DiningTime:     strings.TrimSpace(*v.DiningTime),
		NumberOfPeople: n,
		Email:          strings.TrimSpace(*v.Email),
	}, nil
}

func elicit(attrs map[string]string, intent Intent, slot domain.Slot, msg string) Response {
	return Response{
		SessionState: SessionState{
			DialogAction:      &DialogAction{Type: ActionElicitSlot, SlotToElicit: string(slot)},
			SessionAttributes: attrs,
			Intent:            Intent{Name: intent.Name, Slots: intent.Slots, State: IntentInProgress},
		},
		Messages: plainText(msg),
	}
}

func closeResponse(attrs map[string]string, intentName string, slots Slots, state, msg string) Response {
	return Response{
		SessionState: SessionState{
			DialogAction:      &DialogAction{Type: ActionClose},
			SessionAttributes: attrs,
			Intent:            Intent{Name: intentName, Slots: slots, State: state},
		},
		Messages: plainText(msg),
	}
}
