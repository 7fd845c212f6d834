// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/peakabot-tui/internal/model"
)

func TestReduce_DoesNotAliasInput(t *testing.T) {
	s := initialState()
	s.Session = model.NewSession("k", model.Identity{ProjectID: "p"})
	s.ActiveThreadID = "t1"
	s.Messages = make([]model.ChatMessage, 1, 8)
	s.Messages[0] = model.NewUserMessage("a", "t1")

	next := reduce(s, messageSubmitted{seq: 1, message: model.NewUserMessage("b", "t1")})
	next.Messages[0].Content = "changed"

	assert.Equal(t, "a", s.Messages[0].Content)
	assert.Len(t, s.Messages, 1)
	assert.False(t, s.AwaitingReply)
	assert.True(t, next.AwaitingReply)
}

func TestReduce_HistoryForOtherEpochDropped(t *testing.T) {
	s := reduce(initialState(), threadSelected{threadID: "t1"})
	epoch := s.Epoch
	s = reduce(s, conversationReset{})

	s = reduce(s, historyLoaded{epoch: epoch, threadID: "t1", messages: []model.ChatMessage{{Content: "late"}}})
	assert.Empty(t, s.Messages)
	assert.False(t, s.MessagesLoaded)
}

func TestReduce_SessionChangeResetsConversation(t *testing.T) {
	s := reduce(initialState(), sessionValidated{session: model.NewSession("k1", model.Identity{ProjectID: "p1"})})
	s = reduce(s, threadsRequested{})
	s = reduce(s, threadsLoaded{gen: s.SessionGen, threads: []model.Thread{{ThreadID: "t"}}})
	assert.Equal(t, Loaded, s.ThreadsState)

	same := reduce(s, sessionValidated{session: model.NewSession("k1", model.Identity{ProjectID: "p1"})})
	assert.Len(t, same.Threads, 1, "revalidating the same key keeps threads")

	other := reduce(s, sessionValidated{session: model.NewSession("k2", model.Identity{ProjectID: "p2"})})
	assert.Empty(t, other.Threads)
	assert.Equal(t, NotLoaded, other.ThreadsState)
	assert.Equal(t, "p2", other.Session.ProjectID)
}

func TestReduce_ValidationFromBeforeClearDropped(t *testing.T) {
	s := reduce(initialState(), sessionValidated{session: model.NewSession("k1", model.Identity{ProjectID: "p1"})})
	gen := s.ClearGen
	s = reduce(s, credentialsCleared{})
	assert.Equal(t, gen+1, s.ClearGen)

	late := reduce(s, sessionValidated{gen: gen, session: model.NewSession("k1", model.Identity{ProjectID: "p1"})})
	assert.Nil(t, late.Session)

	late = reduce(s, sessionRejected{gen: gen, key: "typo"})
	assert.Nil(t, late.Session)

	fresh := reduce(s, sessionValidated{gen: s.ClearGen, session: model.NewSession("k2", model.Identity{ProjectID: "p2"})})
	assert.True(t, fresh.HasSession())
}

func TestLoadState_String(t *testing.T) {
	assert.Equal(t, "not-loaded", NotLoaded.String())
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "loaded", Loaded.String())
}

func TestPrimaryLabel(t *testing.T) {
	s := initialState()
	assert.Equal(t, LabelNewConversation, PrimaryLabel(s))

	s.Session = model.NewSession("k", model.Identity{})
	assert.Equal(t, LabelLoadThreads, PrimaryLabel(s))
	s.ThreadsState = Loading
	assert.Equal(t, LabelLoadThreads, PrimaryLabel(s))
	s.ThreadsState = Loaded
	assert.Equal(t, LabelNewConversation, PrimaryLabel(s))
}
