// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"github.com/jeranaias/peakabot-tui/internal/model"
)

// =============================================================================
// LOAD STATE
// =============================================================================

// LoadState tracks the one-shot thread directory load.
type LoadState int

const (
	NotLoaded LoadState = iota
	Loading
	Loaded
)

// String returns the state name.
func (s LoadState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	default:
		return "not-loaded"
	}
}

// =============================================================================
// STATE
// =============================================================================

// State is everything the controller owns. Values handed out by Snapshot
// are deep copies and may be kept or modified freely.
type State struct {
	// Session is nil before any key was entered. An invalid session keeps
	// the typed key so the view can show it.
	Session *model.Session

	// Threads holds fetched threads in remote order followed by locally
	// started threads in creation order.
	Threads      []model.Thread
	ThreadsState LoadState

	// ActiveThreadID is "" when no thread is active.
	ActiveThreadID string
	Messages       []model.ChatMessage
	MessagesLoaded bool

	AwaitingReply bool

	// Epoch changes whenever the active conversation is replaced. Results
	// of requests started under an older epoch are dropped.
	Epoch uint64
	// SessionGen changes whenever the session is replaced or cleared.
	SessionGen uint64
	// SendSeq identifies the outstanding send.
	SendSeq uint64
	// ClearGen changes whenever the credentials are cleared. Validations
	// started under an older value are dropped.
	ClearGen uint64
}

// HasSession reports whether a validated session is active.
func (s State) HasSession() bool {
	return s.Session.IsValid()
}

// ActiveThread returns the active thread, if any.
func (s State) ActiveThread() (model.Thread, bool) {
	if s.ActiveThreadID == "" {
		return model.Thread{}, false
	}
	if i := model.FindThread(s.Threads, s.ActiveThreadID); i >= 0 {
		return s.Threads[i], true
	}
	return model.Thread{ThreadID: s.ActiveThreadID}, true
}

// clone returns a deep copy of s.
func (s State) clone() State {
	cp := s
	cp.Session = s.Session.Clone()
	cp.Threads = model.CloneThreads(s.Threads)
	cp.Messages = model.CloneMessages(s.Messages)
	return cp
}

// =============================================================================
// ACTIONS
// =============================================================================

// action is a state transition request. Only this package dispatches actions.
type action interface {
	isAction()
}

type (
	// gen is the ClearGen the validation started under.
	sessionValidated struct {
		gen     uint64
		session *model.Session
	}
	sessionRejected struct {
		gen uint64
		key string
	}

	threadsRequested struct{}
	threadsLoaded    struct {
		gen     uint64
		threads []model.Thread
	}

	conversationReset struct{}
	threadSelected    struct{ threadID string }
	historyLoaded     struct {
		epoch    uint64
		threadID string
		messages []model.ChatMessage
	}

	messageSubmitted struct {
		seq       uint64
		newThread *model.Thread
		message   model.ChatMessage
	}
	replyReceived struct {
		seq      uint64
		epoch    uint64
		threadID string
		// reply is nil when the send failed.
		reply *model.ChatMessage
	}

	credentialsCleared struct{}
)

func (sessionValidated) isAction()   {}
func (sessionRejected) isAction()    {}
func (threadsRequested) isAction()   {}
func (threadsLoaded) isAction()      {}
func (conversationReset) isAction()  {}
func (threadSelected) isAction()     {}
func (historyLoaded) isAction()      {}
func (messageSubmitted) isAction()   {}
func (replyReceived) isAction()      {}
func (credentialsCleared) isAction() {}

// =============================================================================
// REDUCER
// =============================================================================

// reduce returns the state after applying a. It never mutates s's slices.
func reduce(s State, a action) State {
	switch a := a.(type) {
	case sessionValidated:
		if a.gen != s.ClearGen {
			return s
		}
		prevKey := ""
		if s.Session != nil {
			prevKey = s.Session.Key
		}
		if prevKey != "" && prevKey != a.session.Key {
			// A different key may belong to another project: start over.
			s = resetConversation(s)
		}
		s.Session = a.session.Clone()
		s.SessionGen++

	case sessionRejected:
		if a.gen != s.ClearGen {
			return s
		}
		if s.Session != nil {
			s.Session = s.Session.Invalidated()
			s.Session.Key = a.key
		} else {
			s.Session = &model.Session{Key: a.key}
		}

	case threadsRequested:
		s.ThreadsState = Loading

	case threadsLoaded:
		if a.gen != s.SessionGen || s.ThreadsState != Loading {
			return s
		}
		threads := make([]model.Thread, 0, len(a.threads)+len(s.Threads))
		threads = append(threads, a.threads...)
		threads = append(threads, s.Threads...)
		s.Threads = threads
		s.ThreadsState = Loaded

	case conversationReset:
		s.ActiveThreadID = ""
		s.Messages = []model.ChatMessage{}
		s.MessagesLoaded = false
		s.Epoch++

	case threadSelected:
		s.ActiveThreadID = a.threadID
		s.Messages = []model.ChatMessage{}
		s.MessagesLoaded = false
		s.Epoch++

	case historyLoaded:
		if a.epoch != s.Epoch || a.threadID != s.ActiveThreadID {
			return s
		}
		s.Messages = model.CloneMessages(a.messages)
		s.MessagesLoaded = true

	case messageSubmitted:
		if a.newThread != nil {
			s.Threads = append(model.CloneThreads(s.Threads), *a.newThread)
			s.ActiveThreadID = a.newThread.ThreadID
			s.MessagesLoaded = true
		}
		s.Messages = append(model.CloneMessages(s.Messages), a.message)
		s.AwaitingReply = true
		s.SendSeq = a.seq

	case replyReceived:
		if a.seq == s.SendSeq {
			s.AwaitingReply = false
		}
		if a.reply == nil || a.epoch != s.Epoch || a.threadID != s.ActiveThreadID {
			return s
		}
		s.Messages = append(model.CloneMessages(s.Messages), *a.reply)

	case credentialsCleared:
		s = resetConversation(s)
		s.Session = nil
		s.SessionGen++
		s.ClearGen++
	}
	return s
}

// resetConversation returns s with everything but the counters and the
// session back at initial values.
func resetConversation(s State) State {
	return State{
		Session:      s.Session,
		Threads:      []model.Thread{},
		ThreadsState: NotLoaded,
		Messages:     []model.ChatMessage{},
		Epoch:        s.Epoch + 1,
		SessionGen:   s.SessionGen,
		SendSeq:      s.SendSeq,
		ClearGen:     s.ClearGen,
	}
}

// initialState is the state of a fresh controller.
func initialState() State {
	return State{
		Threads:  []model.Thread{},
		Messages: []model.ChatMessage{},
	}
}
