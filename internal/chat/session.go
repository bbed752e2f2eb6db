// Package chat models one linear conversation with the AI assistant:
// local-first message log, single-flight dispatch, and regeneration of
// prior assistant turns.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/baikal-ai/baikalctl/internal/platform"
)

// Assistant dispatches one turn. *platform.Assistant satisfies it.
type Assistant interface {
	Chat(ctx context.Context, message string, history []platform.TurnMessage) (string, error)
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrorNotice is the fixed assistant turn appended when a dispatch fails.
// Failures are absorbed into the conversation, never thrown further.
const ErrorNotice = "The assistant could not respond. Please try again in a moment."

var (
	// ErrEmptyMessage rejects blank sends before anything is appended.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrBusy rejects a send while another turn is in flight.
	ErrBusy = errors.New("a message is already in flight")
)

// Message is one conversation turn. The timestamp never goes on the wire.
type Message struct {
	Role    string
	Content string
	Time    time.Time
}

// Session owns the message sequence for the lifetime of the chat view.
// One outstanding assistant request at a time; appends happen in
// invocation order.
type Session struct {
	assistant Assistant
	log       *slog.Logger
	now       func() time.Time

	messages []Message
	inFlight bool
}

func NewSession(assistant Assistant, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{assistant: assistant, log: log, now: time.Now}
}

// Messages returns the current sequence, oldest first.
func (s *Session) Messages() []Message { return s.messages }

// Len returns the number of turns.
func (s *Session) Len() int { return len(s.messages) }

// Send appends the user message optimistically, dispatches it with the
// full prior history, and appends the reply. Blank input and concurrent
// sends are rejected before anything is appended or sent. Dispatch
// failures are absorbed as an error-notice assistant turn: Send returns
// nil for them.
func (s *Session) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}
	if s.inFlight {
		return ErrBusy
	}

	// History is rebuilt from the in-memory sequence at call time and
	// excludes the message being sent.
	history := wireHistory(s.messages)
	s.append(RoleUser, text)
	s.dispatch(ctx, text, history)
	return nil
}

// Regenerate re-issues the user turn nearest before index, discarding the
// assistant turn at index. A no-op when index is out of range, when the
// turn at index is not an assistant turn, or when no user turn precedes
// it. Failure handling is identical to Send.
func (s *Session) Regenerate(ctx context.Context, index int) error {
	if s.inFlight {
		return ErrBusy
	}
	if index < 0 || index >= len(s.messages) || s.messages[index].Role != RoleAssistant {
		return nil
	}

	prompt := ""
	found := false
	for i := index - 1; i >= 0; i-- {
		if s.messages[i].Role == RoleUser {
			prompt = s.messages[i].Content
			found = true
			break
		}
	}
	if !found {
		return nil
	}

	s.messages = append(s.messages[:index], s.messages[index+1:]...)
	// The wire history is rebuilt from the spliced sequence, so the
	// removed assistant turn is excluded.
	s.dispatch(ctx, prompt, wireHistory(s.messages))
	return nil
}

// Clear discards the whole sequence. No-op when already empty.
func (s *Session) Clear() {
	s.messages = nil
}

func (s *Session) dispatch(ctx context.Context, message string, history []platform.TurnMessage) {
	s.inFlight = true
	defer func() { s.inFlight = false }()

	reply, err := s.assistant.Chat(ctx, message, history)
	if err != nil {
		s.log.Warn("assistant turn failed", "error", err)
		s.append(RoleAssistant, ErrorNotice)
		return
	}
	s.append(RoleAssistant, reply)
}

func (s *Session) append(role, content string) {
	s.messages = append(s.messages, Message{Role: role, Content: content, Time: s.now()})
}

func wireHistory(messages []Message) []platform.TurnMessage {
	history := make([]platform.TurnMessage, len(messages))
	for i, m := range messages {
		history[i] = platform.TurnMessage{Role: m.Role, Content: m.Content}
	}
	return history
}
