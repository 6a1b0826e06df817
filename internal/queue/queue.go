// Package queue carries DiningRequests from the dialog to the recommendation
// worker. Delivery is at-least-once: a received message stays on the queue
// until it is deleted, and an invocation that fails before Delete leaves it
// for a later poll.
package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tbourn/go-dining-concierge/internal/domain"
)

// ErrInvalidBody marks a message that can never be processed (poison).
var ErrInvalidBody = errors.New("invalid request message")

// Message is one received queue message.
type Message struct {
	ID      string
	Body    []byte
	Receipt string // backend handle needed to delete the message
}

// Publisher enqueues message bodies.
type Publisher interface {
	Publish(ctx context.Context, body []byte) (string, error)
}

// Receiver polls and acknowledges messages. Receive returns (nil, nil) when
// no message arrived within the backend's short wait.
type Receiver interface {
	Receive(ctx context.Context) (*Message, error)
	Delete(ctx context.Context, m *Message) error
}

// Queue is a full backend.
type Queue interface {
	Publisher
	Receiver
	Ping(ctx context.Context) error
}

// EncodeRequest serializes a request as
// {location, cuisine, dining_time, number_of_people, email}.
func EncodeRequest(req domain.DiningRequest) ([]byte, error) {
	return json.Marshal(req)
}

type wireRequest struct {
	Location       string          `json:"location"`
	Cuisine        string          `json:"cuisine"`
	DiningTime     string          `json:"dining_time"`
	NumberOfPeople json.RawMessage `json:"number_of_people"`
	Email          string          `json:"email"`
}

// DecodeRequest parses a message body. Only cuisine and email are required;
// their absence (or a body that is not a JSON object) yields ErrInvalidBody.
// Cuisine is lower-cased to match the stored index values. number_of_people
// may be a number or a numeric string.
func DecodeRequest(body []byte) (domain.DiningRequest, error) {
	var w wireRequest
	if err := json.Unmarshal(body, &w); err != nil {
		return domain.DiningRequest{}, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	req := domain.DiningRequest{
		Location:   strings.TrimSpace(w.Location),
		Cuisine:    strings.ToLower(strings.TrimSpace(w.Cuisine)),
		DiningTime: strings.TrimSpace(w.DiningTime),
		Email:      strings.TrimSpace(w.Email),
	}
	if req.Cuisine == "" {
		return req, fmt.Errorf("%w: missing cuisine", ErrInvalidBody)
	}
	if req.Email == "" {
		return req, fmt.Errorf("%w: missing email", ErrInvalidBody)
	}
	req.NumberOfPeople = partySize(w.NumberOfPeople)
	return req, nil
}

func partySize(raw json.RawMessage) int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n
		}
	}
	return 0
}
