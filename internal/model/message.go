// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the Peaka chat client.
package model

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns the transcript label for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Peaka AI Assistant"
	default:
		return string(r)
	}
}

// =============================================================================
// FORMAT TYPE
// =============================================================================

// Format tells the renderer how to present message content.
// It never alters Content itself.
type Format string

const (
	// FormatMarkdown is free text, rendered as markdown.
	FormatMarkdown Format = "markdown"
	// FormatJSON is pretty-printed JSON taken from a structured payload.
	FormatJSON Format = "json"
)

// =============================================================================
// CHAT MESSAGE TYPE
// =============================================================================

// ChatMessage is one turn in a thread.
type ChatMessage struct {
	Role     Role   `json:"role" yaml:"role"`
	Content  string `json:"content" yaml:"content"`
	ThreadID string `json:"threadId" yaml:"thread_id"`
	Format   Format `json:"format,omitempty" yaml:"format,omitempty"`
}

// NewUserMessage creates a user message for the given thread.
func NewUserMessage(content, threadID string) ChatMessage {
	return ChatMessage{
		Role:     RoleUser,
		Content:  content,
		ThreadID: threadID,
		Format:   FormatMarkdown,
	}
}

// NewAssistantMessage creates an assistant message for the given thread.
func NewAssistantMessage(content, threadID string, format Format) ChatMessage {
	if format == "" {
		format = FormatMarkdown
	}
	return ChatMessage{
		Role:     RoleAssistant,
		Content:  content,
		ThreadID: threadID,
		Format:   format,
	}
}

// IsUser returns true if the message was written by the user.
func (m ChatMessage) IsUser() bool {
	return m.Role == RoleUser
}

// IsAssistant returns true if the message came from the remote agent.
func (m ChatMessage) IsAssistant() bool {
	return m.Role == RoleAssistant
}

// CloneMessages returns a copy of msgs that shares no backing array.
// A nil input yields an empty, non-nil slice.
func CloneMessages(msgs []ChatMessage) []ChatMessage {
	out := make([]ChatMessage, len(msgs))
	copy(out, msgs)
	return out
}
