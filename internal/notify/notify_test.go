package notify

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/rs/zerolog"
)

type fakeSES struct {
	in  *sesv2.SendEmailInput
	err error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("m-1")}, nil
}

var sample = Recommendation{
	Email:   "jane@example.com",
	Cuisine: "italian",
	Name:    "Luigi's",
	Address: "1 Main St, New York, NY 10001",
}

func TestCompose(t *testing.T) {
	msg := Compose(sample)
	if msg.Subject != "Your italian restaurant recommendation" {
		t.Fatalf("subject = %q", msg.Subject)
	}
	for _, want := range []string{
		"Hi,",
		"Based on your request, we recommend:",
		"Restaurant: Luigi's",
		"Cuisine: italian",
		"Address: 1 Main St, New York, NY 10001",
		"Enjoy your meal!",
	} {
		if !strings.Contains(msg.Body, want) {
			t.Fatalf("body missing %q:\n%s", want, msg.Body)
		}
	}
	if msg.To != "jane@example.com" {
		t.Fatalf("to = %q", msg.To)
	}
}

func TestSES_Notify(t *testing.T) {
	f := &fakeSES{}
	n := NewSES(f, "concierge@example.com")
	if err := n.Notify(context.Background(), sample); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if aws.ToString(f.in.FromEmailAddress) != "concierge@example.com" {
		t.Fatalf("from = %q", aws.ToString(f.in.FromEmailAddress))
	}
	if got := f.in.Destination.ToAddresses; len(got) != 1 || got[0] != "jane@example.com" {
		t.Fatalf("to = %v", got)
	}
	simple := f.in.Content.Simple
	if aws.ToString(simple.Subject.Data) != "Your italian restaurant recommendation" {
		t.Fatalf("subject = %q", aws.ToString(simple.Subject.Data))
	}
	if simple.Body.Html != nil || simple.Body.Text == nil {
		t.Fatalf("expected a text-only body")
	}
}

func TestSES_ErrorsSurface(t *testing.T) {
	boom := errors.New("throttled")
	n := NewSES(&fakeSES{err: boom}, "s@example.com")
	if err := n.Notify(context.Background(), sample); !errors.Is(err, boom) {
		t.Fatalf("err = %v; want wrapped %v", err, boom)
	}

	f := &fakeSES{}
	n = NewSES(f, "s@example.com")
	if err := n.Notify(context.Background(), Recommendation{Cuisine: "thai"}); !errors.Is(err, ErrNoRecipient) {
		t.Fatalf("err = %v; want ErrNoRecipient", err)
	}
	if f.in != nil {
		t.Fatalf("SES should not be called without a recipient")
	}
}

func TestLog_NotifyMasksRecipient(t *testing.T) {
	var buf bytes.Buffer
	ctx := zerolog.New(&buf).WithContext(context.Background())
	if err := (Log{}).Notify(ctx, sample); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "jane@example.com") {
		t.Fatalf("raw email logged: %s", out)
	}
	if !strings.Contains(out, "j***@example.com") || !strings.Contains(out, "restaurant recommendation") {
		t.Fatalf("unexpected log output: %s", out)
	}
}

var (
	_ Notifier = (*SES)(nil)
	_ Notifier = Log{}
)
