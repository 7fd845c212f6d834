// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package messages loads thread history and sends chat messages.
package messages

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jeranaias/peakabot-tui/internal/content"
	"github.com/jeranaias/peakabot-tui/internal/model"
	"github.com/jeranaias/peakabot-tui/internal/peaka"
)

// NoResponse is the assistant text used when a chat turn carries no reply.
const NoResponse = "No response."

var (
	// ErrInvalidSession is returned when called without a valid session.
	ErrInvalidSession = errors.New("no valid session")

	// ErrEmptyMessage is returned by Send for blank text.
	ErrEmptyMessage = errors.New("message is empty")
)

// Synchronizer talks to the thread and chat endpoints.
type Synchronizer struct {
	client *peaka.Client
	log    zerolog.Logger
}

// New creates a Synchronizer.
func New(client *peaka.Client, log zerolog.Logger) *Synchronizer {
	return &Synchronizer{
		client: client,
		log:    log.With().Str("component", "messages").Logger(),
	}
}

// Load fetches the history of threadID and normalizes it into chat
// messages, preserving remote order.
func (s *Synchronizer) Load(ctx context.Context, session *model.Session, threadID string) ([]model.ChatMessage, error) {
	if !session.IsValid() {
		return nil, ErrInvalidSession
	}

	raw, err := s.client.Thread(ctx, session.Key, session.ProjectID, threadID)
	if err != nil {
		s.log.Error().Err(err).Str("thread", threadID).Msg("failed to load thread")
		return nil, fmt.Errorf("load thread %s: %w", threadID, err)
	}

	out := make([]model.ChatMessage, 0, len(raw))
	for _, m := range raw {
		text, format := s.display(content.FromRawJSON(m.Kwargs.Content), threadID)
		out = append(out, model.ChatMessage{
			Role:     roleOf(m),
			Content:  text,
			ThreadID: threadID,
			Format:   format,
		})
	}
	s.log.Debug().Str("thread", threadID).Int("count", len(out)).Msg("thread loaded")
	return out, nil
}

// Send posts text to threadID and returns the assistant reply. isNewThread
// only affects logging; the remote service creates unknown threads itself.
func (s *Synchronizer) Send(ctx context.Context, session *model.Session, threadID string, isNewThread bool, text string) (model.ChatMessage, error) {
	if !session.IsValid() {
		return model.ChatMessage{}, ErrInvalidSession
	}
	if strings.TrimSpace(text) == "" {
		return model.ChatMessage{}, ErrEmptyMessage
	}

	s.log.Debug().Str("thread", threadID).Bool("new_thread", isNewThread).Msg("sending message")

	raw, err := s.client.Chat(ctx, session.Key, session.ProjectID, peaka.ChatRequest{
		Message:  text,
		ThreadID: threadID,
	})
	if err != nil {
		s.log.Error().Err(err).Str("thread", threadID).Msg("failed to send message")
		return model.ChatMessage{}, fmt.Errorf("send to thread %s: %w", threadID, err)
	}

	reply, ok := lastReply(raw)
	if !ok {
		return model.NewAssistantMessage(NoResponse, threadID, model.FormatMarkdown), nil
	}
	body := content.FromRawJSON(reply.Kwargs.Content)
	if body == "" {
		return model.NewAssistantMessage(NoResponse, threadID, model.FormatMarkdown), nil
	}

	text, format := s.display(body, threadID)
	return model.NewAssistantMessage(text, threadID, format), nil
}

// display applies the structured payload rule, logging parse failures.
func (s *Synchronizer) display(raw, threadID string) (string, model.Format) {
	p := content.Parse(raw)
	if p.Err != nil {
		s.log.Debug().Err(p.Err).Str("thread", threadID).Msg("content looked like JSON but did not parse")
	}
	return p.Text()
}

// roleOf maps the last id stack element to a role.
func roleOf(m peaka.RawMessage) model.Role {
	if m.Marker() == peaka.MarkerHuman {
		return model.RoleUser
	}
	return model.RoleAssistant
}

// lastReply finds the last message whose id stack marks it as agent output.
func lastReply(raw []peaka.RawMessage) (peaka.RawMessage, bool) {
	for i := len(raw) - 1; i >= 0; i-- {
		if raw[i].HasMarker(peaka.MarkerFunction, peaka.MarkerAI) {
			return raw[i], true
		}
	}
	return peaka.RawMessage{}, false
}
