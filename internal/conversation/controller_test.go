// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/peakabot-tui/internal/model"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeAuth struct {
	mu       sync.Mutex
	goodKey  string
	slot     string
	forgets  int
	forgetFn func() error

	// started is signalled and gate awaited by Validate when set.
	started chan struct{}
	gate    chan struct{}
}

func (f *fakeAuth) Validate(_ context.Context, key string) (*model.Session, error) {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	if key != f.goodKey {
		return nil, errors.New("invalid API key")
	}
	return model.NewSession(key, model.Identity{ProjectID: "p1", Email: "dev@example.com"}), nil
}

func (f *fakeAuth) Remember(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slot = key
	return nil
}

func (f *fakeAuth) Restore(ctx context.Context) (*model.Session, string, error) {
	key, _ := f.SlotKey()
	if key == "" {
		return nil, "", nil
	}
	s, err := f.Validate(ctx, key)
	return s, key, err
}

func (f *fakeAuth) SlotKey() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.slot, nil
}

func (f *fakeAuth) Forget() error {
	f.mu.Lock()
	f.slot = ""
	f.forgets++
	f.mu.Unlock()
	if f.forgetFn != nil {
		return f.forgetFn()
	}
	return nil
}

type fakeLister struct {
	threads []model.Thread
	calls   atomic.Int32
	gate    chan struct{}
}

func (f *fakeLister) List(_ context.Context, s *model.Session) []model.Thread {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	if !s.IsValid() {
		return []model.Thread{}
	}
	return model.CloneThreads(f.threads)
}

type sendCall struct {
	threadID string
	isNew    bool
	text     string
}

type fakeSync struct {
	mu      sync.Mutex
	history map[string][]model.ChatMessage
	loadErr error
	sends   []sendCall

	// reply builds the Send result. nil = echo "re: <text>".
	reply func(threadID, text string) (model.ChatMessage, error)
	// gate, when set, blocks Send until closed.
	gate chan struct{}
	// gates blocks Send per message text, checked before gate.
	gates map[string]chan struct{}
	// started is signalled when Send begins.
	started chan struct{}
}

func (f *fakeSync) Load(_ context.Context, _ *model.Session, threadID string) ([]model.ChatMessage, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return model.CloneMessages(f.history[threadID]), nil
}

func (f *fakeSync) Send(_ context.Context, _ *model.Session, threadID string, isNew bool, text string) (model.ChatMessage, error) {
	f.mu.Lock()
	f.sends = append(f.sends, sendCall{threadID, isNew, text})
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if g, ok := f.gates[text]; ok {
		<-g
	} else if f.gate != nil {
		<-f.gate
	}
	if f.reply != nil {
		return f.reply(threadID, text)
	}
	return model.NewAssistantMessage("re: "+text, threadID, model.FormatMarkdown), nil
}

func (f *fakeSync) sendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sends)
}

const key = "valid-key"

func newController(t *testing.T) (*Controller, *fakeAuth, *fakeLister, *fakeSync) {
	t.Helper()
	a := &fakeAuth{goodKey: key}
	l := &fakeLister{threads: []model.Thread{
		{ThreadID: "t1", DisplayName: "Revenue", ProjectID: "p1"},
		{ThreadID: "t2", DisplayName: "Churn", ProjectID: "p1"},
	}}
	s := &fakeSync{history: map[string][]model.ChatMessage{
		"t1": {
			model.NewUserMessage("q1", "t1"),
			model.NewAssistantMessage("a1", "t1", model.FormatMarkdown),
		},
		"t2": {model.NewUserMessage("q2", "t2")},
	}}
	return New(a, l, s, zerolog.Nop()), a, l, s
}

func loggedIn(t *testing.T) (*Controller, *fakeAuth, *fakeLister, *fakeSync) {
	t.Helper()
	c, a, l, s := newController(t)
	require.True(t, c.EnterKey(context.Background(), key))
	return c, a, l, s
}

// =============================================================================
// CREDENTIALS
// =============================================================================

func TestEnterKey(t *testing.T) {
	c, _, _, _ := newController(t)
	ctx := context.Background()

	assert.False(t, c.EnterKey(ctx, "nope"))
	st := c.Snapshot()
	require.NotNil(t, st.Session)
	assert.False(t, st.Session.Valid)
	assert.Equal(t, "nope", st.Session.Key)

	assert.True(t, c.EnterKey(ctx, "  "+key+" "))
	st = c.Snapshot()
	assert.True(t, st.HasSession())
	assert.Equal(t, "p1", st.Session.ProjectID)

	// A later bad key keeps the typed key, marks the session invalid.
	assert.False(t, c.EnterKey(ctx, "typo"))
	st = c.Snapshot()
	assert.False(t, st.Session.Valid)
	assert.Equal(t, "typo", st.Session.Key)
}

func TestRestore(t *testing.T) {
	c, a, _, _ := newController(t)
	assert.False(t, c.Restore(context.Background()), "empty slot")
	assert.Nil(t, c.Snapshot().Session)

	a.slot = key
	assert.True(t, c.Restore(context.Background()))
	assert.True(t, c.Snapshot().HasSession())

	c2, a2, _, _ := newController(t)
	a2.slot = "revoked"
	assert.False(t, c2.Restore(context.Background()))
	assert.Equal(t, "revoked", c2.Snapshot().Session.Key)
}

func TestClearCredentials_ResetsEverything(t *testing.T) {
	c, a, _, _ := loggedIn(t)
	ctx := context.Background()

	require.NoError(t, c.LoadThreads(ctx))
	require.NoError(t, c.SelectThread(ctx, "t1"))
	_, err := c.Submit(ctx, "more")
	require.NoError(t, err)

	before := c.Snapshot()
	require.NotEmpty(t, before.Threads)
	require.NotEmpty(t, before.Messages)

	require.NoError(t, c.ClearCredentials())

	st := c.Snapshot()
	assert.Nil(t, st.Session)
	assert.Empty(t, st.Threads)
	assert.Empty(t, st.Messages)
	assert.Empty(t, st.ActiveThreadID)
	assert.Equal(t, NotLoaded, st.ThreadsState)
	assert.False(t, st.MessagesLoaded)
	assert.False(t, st.AwaitingReply)
	assert.Equal(t, 1, a.forgets)
	slot, _ := a.SlotKey()
	assert.Empty(t, slot)
}

func TestEnterKey_StoresAcceptedKey(t *testing.T) {
	c, a, _, _ := newController(t)

	assert.False(t, c.EnterKey(context.Background(), "nope"))
	slot, _ := a.SlotKey()
	assert.Empty(t, slot, "rejected key must not be stored")

	require.True(t, c.EnterKey(context.Background(), key))
	slot, _ = a.SlotKey()
	assert.Equal(t, key, slot)
}

func TestClearCredentials_DuringValidation(t *testing.T) {
	c, a, _, _ := newController(t)
	a.started = make(chan struct{})
	a.gate = make(chan struct{})

	result := make(chan bool, 1)
	go func() { result <- c.EnterKey(context.Background(), key) }()

	<-a.started
	require.NoError(t, c.ClearCredentials())
	close(a.gate)

	select {
	case ok := <-result:
		assert.False(t, ok, "validation started before the clear must be dropped")
	case <-time.After(5 * time.Second):
		t.Fatal("EnterKey did not return")
	}

	st := c.Snapshot()
	assert.Nil(t, st.Session)
	assert.False(t, st.HasSession())
	slot, _ := a.SlotKey()
	assert.Empty(t, slot, "cleared key must not be written back")
}

func TestClearCredentials_DuringRejectedValidation(t *testing.T) {
	c, a, _, _ := newController(t)
	a.started = make(chan struct{})
	a.gate = make(chan struct{})

	done := make(chan struct{})
	go func() {
		c.EnterKey(context.Background(), "typo")
		close(done)
	}()

	<-a.started
	require.NoError(t, c.ClearCredentials())
	close(a.gate)
	<-done

	assert.Nil(t, c.Snapshot().Session, "a late rejection must not bring the typed key back")
}

func TestClearCredentials_SlotErrorStillResets(t *testing.T) {
	c, a, _, _ := loggedIn(t)
	a.forgetFn = func() error { return errors.New("permission denied") }

	assert.Error(t, c.ClearCredentials())
	assert.Nil(t, c.Snapshot().Session)
}

func TestSync(t *testing.T) {
	c, a, _, _ := loggedIn(t)
	ctx := context.Background()
	require.NoError(t, c.LoadThreads(ctx))

	changed, err := c.Sync(ctx)
	require.NoError(t, err)
	assert.False(t, changed, "slot matches session")

	// Another process logs out.
	a.mu.Lock()
	a.slot = ""
	a.mu.Unlock()

	changed, err = c.Sync(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	st := c.Snapshot()
	assert.Nil(t, st.Session)
	assert.Empty(t, st.Threads)
	assert.Zero(t, a.forgets, "external logout must not touch the slot again")

	// Another process logs in.
	a.mu.Lock()
	a.slot = key
	a.mu.Unlock()
	changed, err = c.Sync(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, c.Snapshot().HasSession())
}

// =============================================================================
// THREADS
// =============================================================================

func TestLoadThreads(t *testing.T) {
	c, _, l, _ := newController(t)
	ctx := context.Background()

	assert.ErrorIs(t, c.LoadThreads(ctx), ErrNoSession)
	assert.Zero(t, l.calls.Load())

	require.True(t, c.EnterKey(ctx, key))
	require.NoError(t, c.LoadThreads(ctx))
	assert.ErrorIs(t, c.LoadThreads(ctx), ErrThreadsAlreadyLoaded)
	assert.Equal(t, int32(1), l.calls.Load())

	st := c.Snapshot()
	assert.Equal(t, Loaded, st.ThreadsState)
	if diff := cmp.Diff(l.threads, st.Threads); diff != "" {
		t.Errorf("threads mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadThreads_TriState(t *testing.T) {
	c, _, l, _ := loggedIn(t)
	l.gate = make(chan struct{})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- c.LoadThreads(ctx) }()

	require.Eventually(t, func() bool { return c.Snapshot().ThreadsState == Loading }, time.Second, 5*time.Millisecond)
	assert.Equal(t, LabelLoadThreads, c.PrimaryLabel())
	assert.ErrorIs(t, c.LoadThreads(ctx), ErrThreadsAlreadyLoaded, "no double fetch while loading")
	assert.NoError(t, c.PrimaryAction(ctx), "button is a no-op while loading")

	// A conversation started while loading stays after the fetched threads.
	_, err := c.Submit(ctx, "local first")
	require.NoError(t, err)

	close(l.gate)
	require.NoError(t, <-done)

	st := c.Snapshot()
	require.Len(t, st.Threads, 3)
	assert.Equal(t, "t1", st.Threads[0].ThreadID)
	assert.Equal(t, "t2", st.Threads[1].ThreadID)
	assert.Equal(t, "local first", st.Threads[2].DisplayName)
	assert.Equal(t, int32(1), l.calls.Load())
}

func TestLoadThreads_DroppedAfterClear(t *testing.T) {
	c, _, l, _ := loggedIn(t)
	l.gate = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- c.LoadThreads(context.Background()) }()
	require.Eventually(t, func() bool { return c.Snapshot().ThreadsState == Loading }, time.Second, 5*time.Millisecond)

	require.NoError(t, c.ClearCredentials())
	close(l.gate)
	require.NoError(t, <-done)

	st := c.Snapshot()
	assert.Empty(t, st.Threads)
	assert.Equal(t, NotLoaded, st.ThreadsState)
}

func TestPrimaryAction(t *testing.T) {
	c, _, l, _ := newController(t)
	ctx := context.Background()

	assert.Equal(t, LabelNewConversation, c.PrimaryLabel())
	assert.ErrorIs(t, c.PrimaryAction(ctx), ErrNoSession)

	require.True(t, c.EnterKey(ctx, key))
	assert.Equal(t, LabelLoadThreads, c.PrimaryLabel())

	require.NoError(t, c.PrimaryAction(ctx))
	assert.Equal(t, int32(1), l.calls.Load())
	assert.Equal(t, LabelNewConversation, c.PrimaryLabel())

	require.NoError(t, c.SelectThread(ctx, "t1"))
	require.NoError(t, c.PrimaryAction(ctx))
	st := c.Snapshot()
	assert.Empty(t, st.ActiveThreadID)
	assert.Empty(t, st.Messages)
	assert.Len(t, st.Threads, 2, "threads survive a new conversation")
	assert.Equal(t, int32(1), l.calls.Load())
}

func TestNewConversation_NoSession(t *testing.T) {
	c, _, _, _ := newController(t)
	assert.ErrorIs(t, c.NewConversation(), ErrNoSession)
}

func TestSelectThread(t *testing.T) {
	c, _, _, s := loggedIn(t)
	ctx := context.Background()

	require.NoError(t, c.SelectThread(ctx, "t1"))
	st := c.Snapshot()
	assert.Equal(t, "t1", st.ActiveThreadID)
	assert.True(t, st.MessagesLoaded)
	if diff := cmp.Diff(s.history["t1"], st.Messages); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}

	// Idempotent reload.
	require.NoError(t, c.SelectThread(ctx, "t1"))
	if diff := cmp.Diff(st.Messages, c.Snapshot().Messages); diff != "" {
		t.Errorf("second load differs (-first +second):\n%s", diff)
	}

	require.NoError(t, c.SelectThread(ctx, "t2"))
	assert.Len(t, c.Snapshot().Messages, 1, "sequence replaced wholesale")

	assert.ErrorIs(t, c.SelectThread(ctx, ""), ErrUnknownThread)
}

func TestSelectThread_FailureIsEmpty(t *testing.T) {
	c, _, _, s := loggedIn(t)
	s.loadErr = errors.New("boom")

	require.NoError(t, c.SelectThread(context.Background(), "t1"))
	st := c.Snapshot()
	assert.Equal(t, "t1", st.ActiveThreadID)
	assert.Empty(t, st.Messages)
	assert.NotNil(t, st.Messages)
}

// =============================================================================
// SUBMIT
// =============================================================================

func TestSubmit_NewThread(t *testing.T) {
	c, _, _, s := loggedIn(t)
	s.reply = func(threadID, _ string) (model.ChatMessage, error) {
		return model.NewAssistantMessage("Hi there", threadID, model.FormatMarkdown), nil
	}

	reply, err := c.Submit(context.Background(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, "Hi there", reply.Content)

	st := c.Snapshot()
	require.Len(t, st.Threads, 1)
	th := st.Threads[0]
	assert.Equal(t, "Hello", th.DisplayName)
	assert.Equal(t, "p1", th.ProjectID)
	assert.Equal(t, th.ThreadID, st.ActiveThreadID)
	assert.False(t, st.AwaitingReply)

	want := []model.ChatMessage{
		model.NewUserMessage("Hello", th.ThreadID),
		model.NewAssistantMessage("Hi there", th.ThreadID, model.FormatMarkdown),
	}
	if diff := cmp.Diff(want, st.Messages); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, s.sends, 1)
	assert.Equal(t, sendCall{threadID: th.ThreadID, isNew: true, text: "Hello"}, s.sends[0])

	// Second message goes to the same thread.
	_, err = c.Submit(context.Background(), "again")
	require.NoError(t, err)
	assert.Equal(t, sendCall{threadID: th.ThreadID, isNew: false, text: "again"}, s.sends[1])
	assert.Len(t, c.Snapshot().Threads, 1)
}

func TestSubmit_ExistingThread(t *testing.T) {
	c, _, _, s := loggedIn(t)
	ctx := context.Background()
	require.NoError(t, c.SelectThread(ctx, "t2"))

	_, err := c.Submit(ctx, "follow up")
	require.NoError(t, err)

	assert.Equal(t, sendCall{threadID: "t2", isNew: false, text: "follow up"}, s.sends[0])
	assert.Len(t, c.Snapshot().Messages, 3)
}

func TestSubmit_Rejections(t *testing.T) {
	c, _, _, s := newController(t)
	ctx := context.Background()

	_, err := c.Submit(ctx, "hi")
	assert.ErrorIs(t, err, ErrNoSession)

	c.EnterKey(ctx, "wrong")
	_, err = c.Submit(ctx, "hi")
	assert.ErrorIs(t, err, ErrNoSession, "invalid session cannot send")

	c.EnterKey(ctx, key)
	_, err = c.Submit(ctx, "  \n ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	assert.Zero(t, s.sendCount())
	assert.Empty(t, c.Snapshot().Messages)
	assert.Empty(t, c.Snapshot().Threads)
}

func TestSubmit_WhileAwaitingIsNoop(t *testing.T) {
	c, _, _, s := loggedIn(t)
	s.gate = make(chan struct{})
	s.started = make(chan struct{}, 1)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(ctx, "first")
		done <- err
	}()
	<-s.started

	before := c.Snapshot()
	assert.True(t, before.AwaitingReply)

	_, err := c.Submit(ctx, "second")
	assert.ErrorIs(t, err, ErrAwaitingReply)
	if diff := cmp.Diff(before.Messages, c.Snapshot().Messages); diff != "" {
		t.Errorf("sequence changed (-before +after):\n%s", diff)
	}
	assert.Equal(t, 1, s.sendCount())

	close(s.gate)
	require.NoError(t, <-done)
	assert.False(t, c.Snapshot().AwaitingReply)
}

func TestSubmit_Failure(t *testing.T) {
	c, _, _, s := loggedIn(t)
	s.reply = func(string, string) (model.ChatMessage, error) {
		return model.ChatMessage{}, errors.New("HTTP 500")
	}

	_, err := c.Submit(context.Background(), "test")
	require.Error(t, err)

	st := c.Snapshot()
	require.Len(t, st.Messages, 1)
	assert.Equal(t, "test", st.Messages[0].Content)
	assert.True(t, st.Messages[0].IsUser())
	assert.False(t, st.AwaitingReply)
}

func TestSubmit_StaleReplyDropped(t *testing.T) {
	c, _, _, s := loggedIn(t)
	s.gate = make(chan struct{})
	s.started = make(chan struct{}, 1)
	ctx := context.Background()

	require.NoError(t, c.SelectThread(ctx, "t1"))

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(ctx, "slow question")
		done <- err
	}()
	<-s.started

	// Switch threads while the reply is in flight.
	require.NoError(t, c.SelectThread(ctx, "t2"))
	close(s.gate)
	require.NoError(t, <-done)

	st := c.Snapshot()
	assert.Equal(t, "t2", st.ActiveThreadID)
	if diff := cmp.Diff(s.history["t2"], st.Messages); diff != "" {
		t.Errorf("t2 transcript polluted (-want +got):\n%s", diff)
	}
	assert.False(t, st.AwaitingReply)
}

func TestSubmit_ReplyAfterClearDoesNotUnlockNewSend(t *testing.T) {
	c, _, _, s := loggedIn(t)
	s.gates = map[string]chan struct{}{
		"one": make(chan struct{}),
		"two": make(chan struct{}),
	}
	s.started = make(chan struct{}, 2)
	ctx := context.Background()

	first := make(chan error, 1)
	go func() {
		_, err := c.Submit(ctx, "one")
		first <- err
	}()
	<-s.started

	require.NoError(t, c.ClearCredentials())
	require.True(t, c.EnterKey(ctx, key))

	second := make(chan error, 1)
	go func() {
		_, err := c.Submit(ctx, "two")
		second <- err
	}()
	<-s.started

	// Release only the first send.
	close(s.gates["one"])
	require.NoError(t, <-first)
	assert.True(t, c.Snapshot().AwaitingReply, "old reply must not clear the new send's flag")

	close(s.gates["two"])
	require.NoError(t, <-second)
	st := c.Snapshot()
	assert.False(t, st.AwaitingReply)
	require.Len(t, st.Messages, 2)
	assert.Equal(t, "two", st.Messages[0].Content)
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	c, _, _, _ := loggedIn(t)
	require.NoError(t, c.SelectThread(context.Background(), "t1"))

	st := c.Snapshot()
	st.Messages[0].Content = "tampered"
	st.Session.Key = "stolen"

	fresh := c.Snapshot()
	assert.Equal(t, "q1", fresh.Messages[0].Content)
	assert.Equal(t, key, fresh.Session.Key)
}
