// Package dialog implements the slot-filling conversation for the
// DiningSuggestionsIntent: slot validation, the dialog state machine, the
// code-hook wire types of the dialog engine and the engines that drive a
// conversation turn by turn.
package dialog

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Dialog action types, intent states and message content types of the
// dialog engine's code-hook contract.
const (
	ActionElicitSlot = "ElicitSlot"
	ActionClose      = "Close"

	IntentInProgress = "InProgress"
	IntentFulfilled  = "Fulfilled"
	IntentFailed     = "Failed"

	ContentPlainText = "PlainText"
)

// SlotValue is a slot as it appears on the wire: either a bare string or a
// wrapper object {"value": {"interpretedValue": ...}}. It is normalized to a
// single optional string on decode; the original JSON is kept so the slot
// can be echoed back unmodified.
type SlotValue struct {
	text string
	set  bool
	raw  json.RawMessage
}

type slotWrapper struct {
	Value *struct {
		OriginalValue    *string  `json:"originalValue,omitempty"`
		InterpretedValue *string  `json:"interpretedValue,omitempty"`
		ResolvedValues   []string `json:"resolvedValues,omitempty"`
	} `json:"value"`
}

// NewSlotValue builds a wrapper-shaped slot holding v.
func NewSlotValue(v string) *SlotValue {
	type value struct {
		OriginalValue    string   `json:"originalValue"`
		InterpretedValue string   `json:"interpretedValue"`
		ResolvedValues   []string `json:"resolvedValues"`
	}
	raw, _ := json.Marshal(struct {
		Value value `json:"value"`
	}{value{v, v, []string{v}}})
	return &SlotValue{text: v, set: strings.TrimSpace(v) != "", raw: raw}
}

// UnmarshalJSON accepts null, a bare string or the wrapper object.
func (s *SlotValue) UnmarshalJSON(b []byte) error {
	*s = SlotValue{raw: append(json.RawMessage(nil), b...)}
	trimmed := bytes.TrimSpace(b)
	switch {
	case len(trimmed) == 0, bytes.Equal(trimmed, []byte("null")):
		return nil
	case trimmed[0] == '"':
		var str string
		if err := json.Unmarshal(trimmed, &str); err != nil {
			return err
		}
		s.text = str
	default:
		var w slotWrapper
		if err := json.Unmarshal(trimmed, &w); err != nil {
			return err
		}
		if w.Value != nil && w.Value.InterpretedValue != nil {
			s.text = *w.Value.InterpretedValue
		}
	}
	s.set = strings.TrimSpace(s.text) != ""
	return nil
}

// MarshalJSON echoes the slot exactly as it was received.
func (s SlotValue) MarshalJSON() ([]byte, error) {
	if len(s.raw) == 0 {
		if !s.set {
			return []byte("null"), nil
		}
		return json.Marshal(s.text)
	}
	return s.raw, nil
}

// Value returns the normalized text and whether the slot carries a
// non-blank value.
func (s *SlotValue) Value() (string, bool) {
	if s == nil || !s.set {
		return "", false
	}
	return s.text, true
}

// Ptr returns the value as an optional string (nil when unset).
func (s *SlotValue) Ptr() *string {
	v, ok := s.Value()
	if !ok {
		return nil
	}
	return &v
}

// Slots maps slot names to their wire values. A nil entry is an unset slot.
type Slots map[string]*SlotValue

// DialogAction tells the engine what to do next.
type DialogAction struct {
	Type         string `json:"type"`
	SlotToElicit string `json:"slotToElicit,omitempty"`
}

// Intent is the intent being filled.
type Intent struct {
	Name  string `json:"name"`
	Slots Slots  `json:"slots,omitempty"`
	State string `json:"state,omitempty"`
}

// SessionState carries the conversation state between engine and code hook.
type SessionState struct {
	DialogAction      *DialogAction     `json:"dialogAction,omitempty"`
	Intent            Intent            `json:"intent"`
	SessionAttributes map[string]string `json:"sessionAttributes,omitempty"`
}

// Message is one bot utterance.
type Message struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// Event is a code-hook invocation sent by the dialog engine.
type Event struct {
	SessionID        string       `json:"sessionId,omitempty"`
	InputTranscript  string       `json:"inputTranscript,omitempty"`
	InvocationSource string       `json:"invocationSource,omitempty"`
	SessionState     SessionState `json:"sessionState"`
}

// Response is the code-hook reply.
type Response struct {
	SessionState SessionState `json:"sessionState"`
	Messages     []Message    `json:"messages"`
}

// FirstMessage returns the content of the first message, if any.
func (r Response) FirstMessage() (string, bool) {
	if len(r.Messages) == 0 {
		return "", false
	}
	return r.Messages[0].Content, true
}

// Terminal reports whether the response closes the conversation.
func (r Response) Terminal() bool {
	return r.SessionState.DialogAction != nil && r.SessionState.DialogAction.Type == ActionClose
}

func plainText(content string) []Message {
	return []Message{{ContentType: ContentPlainText, Content: content}}
}
