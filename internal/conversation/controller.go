// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversation owns the chat session state and orchestrates key
// validation, thread listing and message exchange.
//
// State changes go through a pure reducer. Controller methods run remote
// calls without holding the lock and dispatch the results as actions, so
// the view can read a consistent Snapshot at any time.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jeranaias/peakabot-tui/internal/model"
)

// Button labels of the primary sidebar action.
const (
	LabelLoadThreads     = "Load Conversations..."
	LabelNewConversation = "New Conversation"
)

// Error variables for rejected operations. None of them changes state.
var (
	// ErrNoSession indicates the operation needs a validated API key.
	ErrNoSession = errors.New("please enter an API key")

	// ErrEmptyMessage indicates the submitted text was blank.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrAwaitingReply indicates a send is already outstanding.
	ErrAwaitingReply = errors.New("still waiting for the previous reply")

	// ErrThreadsAlreadyLoaded indicates the thread list was already requested.
	ErrThreadsAlreadyLoaded = errors.New("threads already loaded")

	// ErrUnknownThread indicates SelectThread was given an empty id.
	ErrUnknownThread = errors.New("no thread id given")
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Authenticator validates keys and manages the credential slot.
type Authenticator interface {
	Validate(ctx context.Context, key string) (*model.Session, error)
	Restore(ctx context.Context) (*model.Session, string, error)
	Remember(key string) error
	SlotKey() (string, error)
	Forget() error
}

// ThreadLister fetches the thread directory. It never fails.
type ThreadLister interface {
	List(ctx context.Context, session *model.Session) []model.Thread
}

// MessageSync loads history and sends messages.
type MessageSync interface {
	Load(ctx context.Context, session *model.Session, threadID string) ([]model.ChatMessage, error)
	Send(ctx context.Context, session *model.Session, threadID string, isNewThread bool, text string) (model.ChatMessage, error)
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller is safe for concurrent use.
type Controller struct {
	auth     Authenticator
	threads  ThreadLister
	messages MessageSync
	log      zerolog.Logger

	mu    sync.Mutex
	state State
}

// New creates a controller with no session.
func New(auth Authenticator, threads ThreadLister, messages MessageSync, log zerolog.Logger) *Controller {
	return &Controller{
		auth:     auth,
		threads:  threads,
		messages: messages,
		log:      log.With().Str("component", "conversation").Logger(),
		state:    initialState(),
	}
}

// dispatch applies a under the lock and returns the new state.
func (c *Controller) dispatch(a action) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dispatchLocked(a)
}

func (c *Controller) dispatchLocked(a action) State {
	c.state = reduce(c.state, a)
	return c.state
}

// Snapshot returns a deep copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// session returns a copy of the current session and its generation.
func (c *Controller) session() (*model.Session, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Session.Clone(), c.state.SessionGen
}

// clearGen returns the current credential clear generation.
func (c *Controller) clearGen() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.ClearGen
}

// =============================================================================
// CREDENTIALS
// =============================================================================

// EnterKey validates key. On failure the session keeps the typed key and is
// marked not valid. A result that arrives after the credentials were
// cleared is dropped and reported as false.
func (c *Controller) EnterKey(ctx context.Context, key string) bool {
	key = strings.TrimSpace(key)
	gen := c.clearGen()
	session, err := c.auth.Validate(ctx, key)
	if err != nil {
		c.reject(gen, key)
		return false
	}
	return c.accept(gen, session)
}

// Restore validates the key in the credential slot, if any. It reports
// whether a valid session resulted.
func (c *Controller) Restore(ctx context.Context) bool {
	gen := c.clearGen()
	session, key, err := c.auth.Restore(ctx)
	switch {
	case session != nil && err == nil:
		return c.accept(gen, session)
	case key != "":
		c.reject(gen, key)
	}
	return false
}

// accept applies a validated session started under gen and stores its key.
// The slot is written under the lock so ClearCredentials cannot interleave.
func (c *Controller) accept(gen uint64, session *model.Session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.ClearGen != gen {
		c.log.Debug().Str("key", session.KeyFingerprint()).Msg("dropped validation that started before credentials were cleared")
		return false
	}
	c.dispatchLocked(sessionValidated{gen: gen, session: session})
	if err := c.auth.Remember(session.Key); err != nil {
		c.log.Error().Err(err).Msg("failed to store API key")
	}
	return true
}

// reject marks the session started under gen as not valid.
func (c *Controller) reject(gen uint64, key string) {
	c.dispatch(sessionRejected{gen: gen, key: key})
}

// ClearCredentials erases the slot and resets every piece of state.
// The state is reset even when erasing the slot fails.
func (c *Controller) ClearCredentials() error {
	c.mu.Lock()
	err := c.auth.Forget()
	c.dispatchLocked(credentialsCleared{})
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

// Sync reconciles the session with the credential slot after another
// process changed it. A cleared slot tears the session down without
// touching the slot; a different key is validated. It reports whether the
// state changed.
func (c *Controller) Sync(ctx context.Context) (bool, error) {
	key, err := c.auth.SlotKey()
	if err != nil {
		return false, fmt.Errorf("read credential slot: %w", err)
	}

	current, _ := c.session()
	currentKey := ""
	if current.IsValid() {
		currentKey = current.Key
	}

	switch {
	case key == currentKey:
		return false, nil
	case key == "":
		c.log.Info().Msg("credential slot cleared externally")
		c.dispatch(credentialsCleared{})
		return true, nil
	default:
		c.log.Info().Str("key", model.Fingerprint(key)).Msg("credential slot changed externally")
		c.EnterKey(ctx, key)
		return true, nil
	}
}

// =============================================================================
// THREADS
// =============================================================================

// LoadThreads fetches the thread directory once per session.
func (c *Controller) LoadThreads(ctx context.Context) error {
	c.mu.Lock()
	if !c.state.HasSession() {
		c.mu.Unlock()
		return ErrNoSession
	}
	if c.state.ThreadsState != NotLoaded {
		c.mu.Unlock()
		return ErrThreadsAlreadyLoaded
	}
	st := c.dispatchLocked(threadsRequested{})
	session, gen := st.Session.Clone(), st.SessionGen
	c.mu.Unlock()

	threads := c.threads.List(ctx, session)

	after := c.dispatch(threadsLoaded{gen: gen, threads: threads})
	if after.SessionGen != gen {
		c.log.Debug().Msg("dropped thread list for a replaced session")
	}
	return nil
}

// NewConversation deactivates the current thread. The thread list is kept.
func (c *Controller) NewConversation() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.HasSession() {
		return ErrNoSession
	}
	c.dispatchLocked(conversationReset{})
	return nil
}

// PrimaryLabel returns the label of the single sidebar button.
func (c *Controller) PrimaryLabel() string {
	return PrimaryLabel(c.Snapshot())
}

// PrimaryLabel returns the sidebar button label for s.
func PrimaryLabel(s State) string {
	if s.HasSession() && s.ThreadsState != Loaded {
		return LabelLoadThreads
	}
	return LabelNewConversation
}

// PrimaryAction runs the sidebar button: load the thread list the first
// time, start a new conversation afterwards.
func (c *Controller) PrimaryAction(ctx context.Context) error {
	st := c.Snapshot()
	switch {
	case !st.HasSession():
		return ErrNoSession
	case st.ThreadsState == NotLoaded:
		return c.LoadThreads(ctx)
	case st.ThreadsState == Loading:
		return nil
	default:
		return c.NewConversation()
	}
}

// SelectThread activates threadID and replaces the transcript with its
// history. A failed load leaves the transcript empty.
func (c *Controller) SelectThread(ctx context.Context, threadID string) error {
	if threadID == "" {
		return ErrUnknownThread
	}

	c.mu.Lock()
	if !c.state.HasSession() {
		c.mu.Unlock()
		return ErrNoSession
	}
	st := c.dispatchLocked(threadSelected{threadID: threadID})
	session, epoch := st.Session.Clone(), st.Epoch
	c.mu.Unlock()

	msgs, err := c.messages.Load(ctx, session, threadID)
	if err != nil {
		msgs = []model.ChatMessage{}
	}

	after := c.dispatch(historyLoaded{epoch: epoch, threadID: threadID, messages: msgs})
	if after.Epoch != epoch {
		c.log.Debug().Str("thread", threadID).Msg("dropped stale thread history")
	}
	return nil
}

// =============================================================================
// MESSAGES
// =============================================================================

// Submit sends text to the active thread, starting a new thread when none
// is active. The user message is shown immediately; the reply is appended
// when it arrives unless the user has moved to another conversation.
//
// Only one send may be outstanding. The returned message is the reply,
// also when it was dropped from the transcript.
func (c *Controller) Submit(ctx context.Context, text string) (model.ChatMessage, error) {
	c.mu.Lock()
	switch {
	case !c.state.HasSession():
		c.mu.Unlock()
		return model.ChatMessage{}, ErrNoSession
	case strings.TrimSpace(text) == "":
		c.mu.Unlock()
		return model.ChatMessage{}, ErrEmptyMessage
	case c.state.AwaitingReply:
		c.mu.Unlock()
		return model.ChatMessage{}, ErrAwaitingReply
	}

	threadID := c.state.ActiveThreadID
	var newThread *model.Thread
	if threadID == "" {
		t := model.NewThread(text, c.state.Session.ProjectID)
		newThread = &t
		threadID = t.ThreadID
	}

	seq := c.state.SendSeq + 1
	st := c.dispatchLocked(messageSubmitted{
		seq:       seq,
		newThread: newThread,
		message:   model.NewUserMessage(text, threadID),
	})
	session, epoch := st.Session.Clone(), st.Epoch
	c.mu.Unlock()

	reply, err := c.messages.Send(ctx, session, threadID, newThread != nil, text)
	if err != nil {
		c.dispatch(replyReceived{seq: seq, epoch: epoch, threadID: threadID})
		return model.ChatMessage{}, err
	}

	after := c.dispatch(replyReceived{seq: seq, epoch: epoch, threadID: threadID, reply: &reply})
	if after.Epoch != epoch || after.ActiveThreadID != threadID {
		c.log.Info().Str("thread", threadID).Msg("reply arrived after leaving the thread; it will show on reload")
	}
	return reply, nil
}
