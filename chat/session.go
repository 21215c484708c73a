// Package chat implements the per-turn question answering flow:
// history-aware query reformulation, retrieval, and answer generation
// over a conversation session.
package chat

import (
	"github.com/tmc/langchaingo/llms"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a conversation.
type Turn struct {
	Role    Role
	Content string
}

// TurnState tracks where a session is in processing the current turn.
type TurnState string

const (
	StateIdle          TurnState = "idle"
	StateReformulating TurnState = "reformulating"
	StateRetrieving    TurnState = "retrieving"
	StateGenerating    TurnState = "generating"
	StateFailed        TurnState = "failed"
)

// Session holds the ordered turn history for one user. A session
// processes turns sequentially; it is not safe for concurrent use.
type Session struct {
	ID      string
	history []Turn
	state   TurnState
	lastErr error
}

// NewSession creates an empty session.
func NewSession(id string) *Session {
	return &Session{ID: id, state: StateIdle}
}

// Append records a completed turn at the end of the history.
func (s *Session) Append(turn Turn) {
	s.history = append(s.history, turn)
}

// History returns the ordered turn history. The returned slice is a
// copy; mutating it does not affect the session.
func (s *Session) History() []Turn {
	out := make([]Turn, len(s.history))
	copy(out, s.history)
	return out
}

// State reports the session's current turn state.
func (s *Session) State() TurnState {
	return s.state
}

// LastError returns the error from the most recent failed turn, or nil.
func (s *Session) LastError() error {
	return s.lastErr
}

func (s *Session) setState(state TurnState) {
	s.state = state
}

// fail records the failure reason and returns the session to idle so
// the next turn can proceed.
func (s *Session) fail(err error) {
	s.lastErr = err
	s.state = StateIdle
}

func (s *Session) succeed() {
	s.lastErr = nil
	s.state = StateIdle
}

// historyMessages converts the turn history into chat messages.
func historyMessages(history []Turn) []llms.MessageContent {
	messages := make([]llms.MessageContent, 0, len(history))
	for _, turn := range history {
		role := llms.ChatMessageTypeHuman
		if turn.Role == RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(role, turn.Content))
	}
	return messages
}
