package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-dining-concierge/internal/sysutil"
)

// ErrNoRecipient is returned when the recommendation has no email address.
var ErrNoRecipient = errors.New("recipient email is empty")

// SESAPI is the subset of the SES v2 client used by SES.
type SESAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SES sends recommendations through Amazon SES from a single sender.
type SES struct {
	Client SESAPI
	Sender string
}

// NewSES returns an SES notifier.
func NewSES(client SESAPI, sender string) *SES {
	return &SES{Client: client, Sender: sender}
}

// Notify implements Notifier.
func (s *SES) Notify(ctx context.Context, rec Recommendation) error {
	msg := Compose(rec)
	if msg.To == "" {
		return ErrNoRecipient
	}
	out, err := s.Client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.Sender),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject)},
				Body:    &types.Body{Text: &types.Content{Data: aws.String(msg.Body)}},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send: %w", err)
	}
	zerolog.Ctx(ctx).Info().
		Str("to", sysutil.MaskEmail(msg.To)).
		Str("message_id", aws.ToString(out.MessageId)).
		Msg("email sent")
	return nil
}

// Log writes the composed email to the logger instead of sending it.
type Log struct{}

// Notify implements Notifier.
func (Log) Notify(ctx context.Context, rec Recommendation) error {
	msg := Compose(rec)
	if msg.To == "" {
		return ErrNoRecipient
	}
	zerolog.Ctx(ctx).Info().
		Str("to", sysutil.MaskEmail(msg.To)).
		Str("subject", msg.Subject).
		Str("body", msg.Body).
		Msg("email (log transport)")
	return nil
}
