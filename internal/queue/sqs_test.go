package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

type fakeSQS struct {
	sent     []*sqs.SendMessageInput
	received []*sqs.ReceiveMessageInput
	deleted  []*sqs.DeleteMessageInput
	msgs     []sqstypes.Message
	err      error
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, in)
	return &sqs.SendMessageOutput{MessageId: aws.String("mid-1")}, nil
}

func (f *fakeSQS) ReceiveMessage(_ context.Context, in *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.received = append(f.received, in)
	return &sqs.ReceiveMessageOutput{Messages: f.msgs}, nil
}

func (f *fakeSQS) DeleteMessage(_ context.Context, in *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deleted = append(f.deleted, in)
	return &sqs.DeleteMessageOutput{}, nil
}

func (f *fakeSQS) GetQueueAttributes(_ context.Context, _ *sqs.GetQueueAttributesInput, _ ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error) {
	return &sqs.GetQueueAttributesOutput{}, f.err
}

func TestSQS_Publish(t *testing.T) {
	f := &fakeSQS{}
	q := NewSQS(f, "https://sqs/q", 2*time.Second)

	id, err := q.Publish(context.Background(), []byte(`{"cuisine":"indian"}`))
	if err != nil || id != "mid-1" {
		t.Fatalf("Publish = %q, %v", id, err)
	}
	if len(f.sent) != 1 || aws.ToString(f.sent[0].QueueUrl) != "https://sqs/q" ||
		aws.ToString(f.sent[0].MessageBody) != `{"cuisine":"indian"}` {
		t.Fatalf("unexpected send %+v", f.sent)
	}
}

func TestSQS_ReceiveShortPollOneMessage(t *testing.T) {
	f := &fakeSQS{msgs: []sqstypes.Message{{
		MessageId: aws.String("m1"), Body: aws.String("body"), ReceiptHandle: aws.String("rh"),
	}}}
	q := NewSQS(f, "u", 2*time.Second)

	m, err := q.Receive(context.Background())
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if m.ID != "m1" || string(m.Body) != "body" || m.Receipt != "rh" {
		t.Fatalf("unexpected message %+v", m)
	}
	in := f.received[0]
	if in.MaxNumberOfMessages != 1 || in.WaitTimeSeconds != 2 {
		t.Fatalf("expected 1 message / 2s wait, got %d / %d", in.MaxNumberOfMessages, in.WaitTimeSeconds)
	}

	if err := q.Delete(context.Background(), m); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if aws.ToString(f.deleted[0].ReceiptHandle) != "rh" {
		t.Fatalf("delete used wrong receipt")
	}
}

func TestSQS_ReceiveEmpty(t *testing.T) {
	q := NewSQS(&fakeSQS{}, "u", 0)
	m, err := q.Receive(context.Background())
	if m != nil || err != nil {
		t.Fatalf("empty queue should return nil, nil; got %v, %v", m, err)
	}
}

func TestSQS_ErrorsWrapped(t *testing.T) {
	boom := errors.New("boom")
	q := NewSQS(&fakeSQS{err: boom}, "u", 0)
	ctx := context.Background()

	if _, err := q.Publish(ctx, nil); !errors.Is(err, boom) {
		t.Fatalf("Publish err = %v", err)
	}
	if _, err := q.Receive(ctx); !errors.Is(err, boom) {
		t.Fatalf("Receive err = %v", err)
	}
	if err := q.Delete(ctx, &Message{ID: "x"}); !errors.Is(err, boom) {
		t.Fatalf("Delete err = %v", err)
	}
	if err := q.Ping(ctx); !errors.Is(err, boom) {
		t.Fatalf("Ping err = %v", err)
	}
}
