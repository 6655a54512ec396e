package bubbletea

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/parleyhq/parley"
)

var _ tea.Model = Model{}

// Model is the Bubble Tea model for the parley TUI. It holds the latest
// store snapshot and re-renders on every state change; it never mutates
// transcript state directly.
type Model struct {
	// Input is the text input component. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable transcript area. Exported for test access.
	Viewport viewport.Model
	// Spinner animates in-flight streaming entries. Exported for test access.
	Spinner spinner.Model

	store  *parley.Store
	ctrl   Controller
	theme  parley.Theme
	styles Styles

	state   parley.State
	stateCh chan parley.State
	ready   bool
}

// New creates a TUI Model over the given store and session controller. It
// registers itself as the store's change listener.
func New(store *parley.Store, ctrl Controller, theme parley.Theme) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.Prompt = ""
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	ch := make(chan parley.State, 1)
	store.Subscribe(pump(ch))

	return Model{
		Input:   ti,
		Spinner: sp,
		store:   store,
		ctrl:    ctrl,
		theme:   theme,
		styles:  NewStyles(theme),
		state:   store.State(),
		stateCh: ch,
	}
}

// State returns the snapshot the model last rendered.
func (m Model) State() parley.State { return m.state }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.Spinner.Tick, listenForState(m.stateCh))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StateMsg:
		m.state = msg.State
		m.Viewport.SetContent(m.renderTranscript())
		m.Viewport.GotoBottom()
		return m, listenForState(m.stateCh)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		if m.state.CanCancel {
			// Only in-flight entries show the spinner frame.
			m.Viewport.SetContent(m.renderTranscript())
			m.Viewport.GotoBottom()
		}
		return m, cmd
	}

	// Viewport always receives messages for scrolling.
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)

	m.Input, cmd = m.Input.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	const chromeHeight = 3 // status line, input line, separators
	vpHeight := msg.Height - chromeHeight
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m.Viewport.SetContent(m.renderTranscript())
		m.Viewport.GotoBottom()
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}

	m.Input.Width = msg.Width
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.state.CanCancel {
			m.ctrl.StopAllStreams()
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyEsc:
		if m.state.CanCancel {
			m.ctrl.StopAllStreams()
		}
		return m, nil

	case tea.KeyEnter:
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			return m, nil
		}
		return m.submit(text)
	}

	// When idle, pass keys to both input (typing) and viewport (scrolling).
	// Only non-character keys reach the viewport so letters don't scroll.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	if msg.Type != tea.KeyRunes {
		m.Viewport, cmd = m.Viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.Input, cmd = m.Input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// submit handles a completed input line: a slash command or a chat message.
func (m Model) submit(text string) (tea.Model, tea.Cmd) {
	m.Input.SetValue("")
	m.store.Dispatch(parley.SetInput{Text: ""})

	if cmd, rest, ok := parseCommand(text); ok {
		return m.runCommand(cmd, rest)
	}

	// Refusals (mode, auth) surface as transcript entries via the manager.
	_, _ = m.ctrl.StartStream(context.Background(), text, m.state.Mode)
	return m, nil
}

// parseCommand splits "/cmd rest"; ok is false for plain messages.
func parseCommand(text string) (cmd, rest string, ok bool) {
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	cmd, rest, _ = strings.Cut(text[1:], " ")
	return cmd, strings.TrimSpace(rest), true
}

func (m Model) runCommand(cmd, rest string) (tea.Model, tea.Cmd) {
	switch cmd {
	case "clear":
		m.store.Dispatch(parley.ClearHistory{})

	case "mode":
		mode := parley.Mode(rest)
		switch mode {
		case parley.ModeChat, parley.ModeThinking, parley.ModeVoice, parley.ModeFiles:
			m.store.Dispatch(parley.SetMode{Mode: mode})
			m.store.Dispatch(parley.AppendEntry{Entry: parley.ActionEntry{
				EntryID:   uuid.NewString(),
				Text:      "Switched to " + rest + " mode",
				Timestamp: time.Now(),
			}})
		default:
			m.store.Dispatch(parley.AppendEntry{Entry: parley.ActionEntry{
				EntryID:   uuid.NewString(),
				Text:      "Unknown mode: " + rest,
				Timestamp: time.Now(),
			}})
		}

	case "quit":
		return m, tea.Quit

	default:
		m.store.Dispatch(parley.AppendEntry{Entry: parley.ActionEntry{
			EntryID:   uuid.NewString(),
			Text:      "Unknown command: /" + cmd,
			Timestamp: time.Now(),
		}})
	}
	return m, nil
}
