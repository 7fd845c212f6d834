// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/jeranaias/peakabot-tui/internal/conversation"
	"github.com/jeranaias/peakabot-tui/internal/render"
	"github.com/jeranaias/peakabot-tui/internal/ui/styles"
)

// =============================================================================
// FOCUS
// =============================================================================

// Focus identifies the pane receiving key input.
type Focus int

const (
	FocusKey Focus = iota
	FocusSidebar
	FocusTranscript
	FocusComposer
	focusCount
)

// String returns the pane name.
func (f Focus) String() string {
	switch f {
	case FocusKey:
		return "key"
	case FocusSidebar:
		return "sidebar"
	case FocusTranscript:
		return "transcript"
	case FocusComposer:
		return "composer"
	default:
		return "unknown"
	}
}

// =============================================================================
// OPTIONS
// =============================================================================

// DefaultSidebarWidth is the sidebar width when Options leaves it unset.
const DefaultSidebarWidth = 30

// Options configures New.
type Options struct {
	Theme    *styles.Theme
	Renderer *render.Renderer

	// AutoValidate reports whether a partially typed key should be
	// validated without waiting for enter. Nil disables auto-validation.
	AutoValidate func(key string) bool

	SidebarWidth int
	// WordWrap caps the markdown wrap width. 0 follows the transcript pane.
	WordWrap int
	Log      zerolog.Logger

	// Context bounds every controller call. Defaults to Background.
	Context context.Context
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	ctrl  Controller
	ctx   context.Context
	theme *styles.Theme
	rend  *render.Renderer
	log   zerolog.Logger
	keys  KeyMap

	autoValidate func(string) bool
	sidebarWidth int
	wordWrap     int

	// Dimensions
	width  int
	height int
	ready  bool

	focus Focus

	// state is the last controller snapshot.
	state conversation.State

	// Key field
	keyInput   textinput.Model
	lastTried  string
	validating bool

	// Sidebar
	filter    textinput.Model
	filtering bool
	cursor    int // 0 is the primary button, n > 0 the n-th visible thread

	// Transcript
	viewport viewport.Model
	rendered renderKey

	// Composer
	composer textarea.Model
	sending  bool

	spinner spinner.Model

	// Status line
	status     string
	statusKind statusKind
}

// renderKey identifies the transcript content last put into the viewport.
type renderKey struct {
	epoch    uint64
	gen      uint64
	count    int
	loaded   bool
	width    int
	hasState bool
}

type statusKind int

const (
	statusInfo statusKind = iota
	statusSuccess
	statusWarning
	statusError
)

// New creates a chat model. The stored key, if any, is validated by Init.
func New(ctrl Controller, opts Options) Model {
	if opts.Theme == nil {
		opts.Theme = styles.NewTheme()
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.SidebarWidth <= 0 {
		opts.SidebarWidth = DefaultSidebarWidth
	}

	ki := textinput.New()
	ki.Prompt = ""
	ki.Placeholder = "paste your Peaka API key"
	ki.EchoMode = textinput.EchoPassword
	ki.EchoCharacter = '*'
	ki.CharLimit = 256
	ki.Focus()

	fi := textinput.New()
	fi.Prompt = "/ "
	fi.Placeholder = "filter"
	fi.CharLimit = 128

	ta := textarea.New()
	ta.Placeholder = "Type a message..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 8192
	ta.SetHeight(3)
	ta.KeyMap.InsertNewline.SetKeys("alt+enter", "ctrl+j")
	ta.Blur()

	vp := viewport.New(80, 20)

	// ASCII spinner works on every terminal
	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = opts.Theme.Spinner

	m := Model{
		ctrl:         ctrl,
		ctx:          opts.Context,
		theme:        opts.Theme,
		rend:         opts.Renderer,
		log:          opts.Log.With().Str("component", "tui").Logger(),
		keys:         DefaultKeyMap(),
		autoValidate: opts.AutoValidate,
		sidebarWidth: opts.SidebarWidth,
		wordWrap:     opts.WordWrap,
		focus:        FocusKey,
		keyInput:     ki,
		filter:       fi,
		viewport:     vp,
		composer:     ta,
		spinner:      sp,
		validating:   true,
	}
	m.state = ctrl.Snapshot()
	return m
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init restores the stored key and starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		restoreCmd(m.ctx, m.ctrl),
		m.spinner.Tick,
	)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		m.refresh()
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case restoredMsg:
		return m.handleRestored(msg)
	case keyValidatedMsg:
		return m.handleKeyValidated(msg)
	case primaryDoneMsg:
		return m.handlePrimaryDone(msg)
	case threadSelectedMsg:
		return m.handleThreadSelected(msg)
	case replyMsg:
		return m.handleReply(msg)
	case credentialsClearedMsg:
		return m.handleCredentialsCleared(msg)
	case SlotChangedMsg:
		return m, syncCmd(m.ctx, m.ctrl)
	case syncedMsg:
		return m.handleSynced(msg)
	}

	// Cursor blink and other component messages
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.keyInput, cmd = m.keyInput.Update(msg)
	cmds = append(cmds, cmd)
	m.composer, cmd = m.composer.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// View renders the model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	return m.render()
}

// =============================================================================
// STATE
// =============================================================================

// refresh takes a new snapshot and brings the widgets in line with it.
func (m *Model) refresh() {
	m.state = m.ctrl.Snapshot()
	m.clampCursor()
	m.updateViewport()
}

// busy reports whether a request the user is waiting on is in flight.
func (m *Model) busy() bool {
	return m.validating || m.sending || m.state.AwaitingReply || m.state.ThreadsState == conversation.Loading
}

// awaiting reports whether the composer is locked.
func (m *Model) awaiting() bool {
	return m.sending || m.state.AwaitingReply
}

// setStatus replaces the status line.
func (m *Model) setStatus(kind statusKind, text string) {
	m.statusKind = kind
	m.status = text
}

// setFocus moves key input to f.
func (m *Model) setFocus(f Focus) tea.Cmd {
	m.focus = f
	m.keyInput.Blur()
	m.composer.Blur()
	if f != FocusSidebar {
		m.stopFiltering()
	}

	switch f {
	case FocusKey:
		return m.keyInput.Focus()
	case FocusComposer:
		return m.composer.Focus()
	}
	return nil
}

// =============================================================================
// LAYOUT
// =============================================================================

// Fixed rows: header, key line, status bar.
const (
	chromeHeight   = 3
	composerHeight = 3
	paneBorder     = 2 // top and bottom, or left and right
	panePadding    = 2 // Padding(0, 1)
)

// layout holds the outer sizes of the panes.
type layout struct {
	sidebar    int // 0 when hidden
	right      int
	body       int
	transcript int
	composer   int
}

func (m *Model) layout() layout {
	l := layout{body: m.height - chromeHeight}
	if l.body < 8 {
		l.body = 8
	}
	if styles.GetLayoutMode(m.width) == styles.LayoutWide {
		l.sidebar = m.sidebarWidth
		if l.sidebar > m.width/2 {
			l.sidebar = m.width / 2
		}
	}
	l.right = m.width - l.sidebar
	l.composer = composerHeight + paneBorder
	l.transcript = l.body - l.composer
	return l
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true

	l := m.layout()
	inner := l.right - paneBorder - panePadding
	if inner < 10 {
		inner = 10
	}

	m.viewport.Width = inner
	m.viewport.Height = l.transcript - paneBorder
	if m.viewport.Height < 1 {
		m.viewport.Height = 1
	}
	m.composer.SetWidth(inner)
	m.keyInput.Width = m.width - 20
	if l.sidebar > 0 {
		m.filter.Width = l.sidebar - paneBorder - panePadding - len(m.filter.Prompt)
	}

	if m.rend != nil {
		wrap := inner
		if m.wordWrap > 0 && m.wordWrap < wrap {
			wrap = m.wordWrap
		}
		if err := m.rend.SetWidth(wrap); err != nil {
			m.log.Warn().Err(err).Msg("failed to resize markdown renderer")
		}
	}

	m.rendered = renderKey{}
	m.refresh()
	return m, nil
}
