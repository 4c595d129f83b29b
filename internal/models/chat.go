package models

import "strings"

// Role identifies the author of a chat turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatTurn is a single message in a design conversation. Turns are
// immutable once appended to a conversation.
type ChatTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Conversation is the ordered sequence of turns for one design session.
type Conversation []ChatTurn

// UserMessages returns the content of every user turn, in order.
func (c Conversation) UserMessages() []string {
	var msgs []string
	for _, t := range c {
		if t.Role == RoleUser {
			msgs = append(msgs, t.Content)
		}
	}
	return msgs
}

// LastUserMessage returns the content of the most recent user turn,
// or the empty string if the conversation has no user turn.
func (c Conversation) LastUserMessage() string {
	for i := len(c) - 1; i >= 0; i-- {
		if c[i].Role == RoleUser {
			return c[i].Content
		}
	}
	return ""
}

// HasUserTurn reports whether the conversation contains at least one user turn.
func (c Conversation) HasUserTurn() bool {
	for _, t := range c {
		if t.Role == RoleUser {
			return true
		}
	}
	return false
}

// Transcript renders the user/assistant exchange as plain text. The
// transcript is attached to custom-function requirements so the code
// generator can recover rules the extractor may have paraphrased.
func (c Conversation) Transcript() string {
	var b strings.Builder
	for _, t := range c {
		switch t.Role {
		case RoleUser:
			b.WriteString("User: ")
		case RoleAssistant:
			b.WriteString("Assistant: ")
		default:
			continue
		}
		b.WriteString(t.Content)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
