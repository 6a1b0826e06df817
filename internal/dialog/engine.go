package dialog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lexruntimev2"

	"github.com/tbourn/go-dining-concierge/internal/domain"
)

// Engine runs one user utterance through a dialog engine and returns the
// bot's messages. The engine owns session continuity.
type Engine interface {
	Recognize(ctx context.Context, sessionID, text string) ([]Message, error)
}

// Handler processes one code-hook event; *Controller implements it.
type Handler interface {
	Handle(ctx context.Context, ev Event) (Response, error)
}

// ---- managed engine ----

// LexAPI is the subset of the Lex V2 runtime client used by LexEngine.
type LexAPI interface {
	RecognizeText(ctx context.Context, in *lexruntimev2.RecognizeTextInput, optFns ...func(*lexruntimev2.Options)) (*lexruntimev2.RecognizeTextOutput, error)
}

// LexEngine sends utterances to a managed Lex V2 bot. The bot invokes the
// Controller through its code hook.
type LexEngine struct {
	Client     LexAPI
	BotID      string
	BotAliasID string
	LocaleID   string
}

// Recognize implements Engine.
func (e *LexEngine) Recognize(ctx context.Context, sessionID, text string) ([]Message, error) {
	out, err := e.Client.RecognizeText(ctx, &lexruntimev2.RecognizeTextInput{
		BotId:      aws.String(e.BotID),
		BotAliasId: aws.String(e.BotAliasID),
		LocaleId:   aws.String(e.LocaleID),
		SessionId:  aws.String(sessionID),
		Text:       aws.String(text),
	})
	if err != nil {
		return nil, fmt.Errorf("lex recognize text: %w", err)
	}
	msgs := make([]Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		msgs = append(msgs, Message{
			ContentType: string(m.ContentType),
			Content:     aws.ToString(m.Content),
		})
	}
	return msgs, nil
}

// ---- built-in engine ----

// SessionStore persists local dialog sessions. Load returns
// domain.ErrNotFound for an unknown session.
type SessionStore interface {
	Load(ctx context.Context, id string) (*domain.DialogSession, error)
	Save(ctx context.Context, s *domain.DialogSession) error
	Delete(ctx context.Context, id string) error
}

// LocalEngine is a minimal dialog engine for running without a managed bot.
// Every session fills DiningSuggestionsIntent: the user's text is assigned
// to the slot the previous turn elicited, then the Handler decides the next
// step. Sessions are removed once a turn closes the conversation.
type LocalEngine struct {
	Sessions SessionStore
	Handler  Handler
}

// Recognize implements Engine.
func (e *LocalEngine) Recognize(ctx context.Context, sessionID, text string) ([]Message, error) {
	sess, err := e.Sessions.Load(ctx, sessionID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		sess = &domain.DialogSession{ID: sessionID, Intent: domain.IntentDiningSuggestions}
	case err != nil:
		return nil, fmt.Errorf("load session: %w", err)
	}

	slots := Slots{}
	if err := decodeJSON(sess.Slots, &slots); err != nil {
		return nil, fmt.Errorf("decode session slots: %w", err)
	}
	if slots == nil {
		slots = Slots{}
	}
	attrs := map[string]string{}
	if err := decodeJSON(sess.Attributes, &attrs); err != nil {
		return nil, fmt.Errorf("decode session attributes: %w", err)
	}
	for _, slot := range domain.SlotOrder {
		if _, ok := slots[string(slot)]; !ok {
			slots[string(slot)] = nil
		}
	}
	if sess.ElicitSlot != "" && strings.TrimSpace(text) != "" {
		slots[sess.ElicitSlot] = NewSlotValue(strings.TrimSpace(text))
	}

	resp, err := e.Handler.Handle(ctx, Event{
		SessionID:        sessionID,
		InputTranscript:  text,
		InvocationSource: "DialogCodeHook",
		SessionState: SessionState{
			Intent:            Intent{Name: sess.Intent, Slots: slots, State: IntentInProgress},
			SessionAttributes: attrs,
		},
	})
	if err != nil {
		return nil, err
	}

	if resp.Terminal() {
		if err := e.Sessions.Delete(ctx, sessionID); err != nil {
			return nil, fmt.Errorf("delete session: %w", err)
		}
		return resp.Messages, nil
	}

	// The controller echoes the slots it was sent. A slot being elicited is
	// cleared so a rejected value is asked for again.
	sess.ElicitSlot = ""
	if a := resp.SessionState.DialogAction; a != nil && a.Type == ActionElicitSlot {
		sess.ElicitSlot = a.SlotToElicit
		slots[a.SlotToElicit] = nil
	}
	rawSlots, err := json.Marshal(slots)
	if err != nil {
		return nil, err
	}
	rawAttrs, err := json.Marshal(resp.SessionState.SessionAttributes)
	if err != nil {
		return nil, err
	}
	sess.Slots = string(rawSlots)
	sess.Attributes = string(rawAttrs)
	if err := e.Sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return resp.Messages, nil
}

func decodeJSON(s string, v any) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), v)
}
