package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/dpcq/cli"
	"github.com/nathoo/dpcq/command"
	"github.com/nathoo/dpcq/config"
	"github.com/nathoo/dpcq/engine"
)

// rawLine stores an unstyled output line with its classification,
// so we can re-wrap and re-style when the terminal is resized.
type rawLine struct {
	text    string
	kind    lineKind
	isInput bool
}

// Model is the Bubble Tea model for the cultivation TUI.
type Model struct {
	engine     *engine.Engine
	dispatcher *command.Dispatcher
	cfg        *config.Config
	actor      engine.Actor

	viewport viewport.Model
	input    textinput.Model
	history  *History

	rawLines []rawLine

	// profile feeds the status bar; joined is false until the actor
	// has a character.
	profile engine.Profile
	joined  bool

	width    int
	height   int
	ready    bool
	quitting bool
}

// outputMsg carries a command reply into the Update loop.
type outputMsg struct {
	input    string
	lines    []string
	isSystem bool
}

// announceMsg carries a group broadcast from the engine.
type announceMsg struct{ text string }

// New creates a TUI model acting as the configured user.
func New(eng *engine.Engine, d *command.Dispatcher, cfg *config.Config) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	m := Model{
		engine:     eng,
		dispatcher: d,
		cfg:        cfg,
		actor:      cli.ActorFor(cfg, cfg.UserID, cfg.UserName),
		input:      ti,
		history:    NewHistory(100),
	}
	m.refreshProfile()
	return m
}

// Run starts the Bubble Tea program. attach receives the sink that
// forwards group broadcasts into the program.
func Run(ctx context.Context, m Model, attach func(engine.Sink)) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	group := m.actor.GroupID
	attach(func(groupID, text string) {
		if groupID == group {
			p.Send(announceMsg{text: text})
		}
	})
	_, err := p.Run()
	return err
}

// Init greets the player.
func (m Model) Init() tea.Cmd {
	greet := fmt.Sprintf("You are %s in group %s. Type help for commands, /help for the terminal.", m.actor.Name, m.actor.GroupID)
	return tea.Batch(textinput.Blink, func() tea.Msg {
		return outputMsg{lines: []string{greet}, isSystem: true}
	})
}

// Update handles key presses, resizes, replies and broadcasts.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		vpHeight := max(m.height-2, 1) // status bar + input line
		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}
		m.refreshViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			return m.handleEnter()

		case "up":
			if prev, ok := m.history.Prev(); ok {
				m.input.SetValue(prev)
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if next, ok := m.history.Next(); ok {
				m.input.SetValue(next)
				m.input.CursorEnd()
			} else {
				m.input.SetValue("")
				m.history.ResetCursor()
			}
			return m, nil

		case "pgup", "pgdown":
			var vpCmd tea.Cmd
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}

	case outputMsg:
		m = m.appendOutput(msg)

	case announceMsg:
		m.refreshProfile()
		m = m.appendOutput(outputMsg{lines: announced(msg.text)})
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	return m, inputCmd
}

func announced(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = "» " + l
	}
	return lines
}

// handleEnter processes the submitted input line.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")
	if input == "" {
		return m, nil
	}

	lower := strings.ToLower(input)
	if lower == "again" || lower == "g" {
		last, ok := m.history.Last()
		if !ok {
			m = m.appendOutput(outputMsg{input: input, lines: []string{"Nothing to repeat."}, isSystem: true})
			return m, nil
		}
		input = last
	}
	m.history.Push(input)
	m.history.ResetCursor()

	if output, quit, ok := m.handleMeta(input); ok {
		m = m.appendOutput(outputMsg{input: input, lines: output, isSystem: true})
		if quit {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	reply := m.dispatcher.Handle(context.Background(), m.actor, input)
	m.refreshProfile()
	var lines []string
	if reply != "" {
		lines = strings.Split(reply, "\n")
	}
	m = m.appendOutput(outputMsg{input: input, lines: lines})
	return m, nil
}

// refreshProfile reloads the status bar data.
func (m *Model) refreshProfile() {
	prof, out := m.engine.Profile(context.Background(), m.actor)
	m.profile, m.joined = prof, out.Failure == nil
}

// appendOutput adds lines to the transcript and refreshes the viewport.
func (m Model) appendOutput(msg outputMsg) Model {
	if msg.input != "" {
		m.rawLines = append(m.rawLines, rawLine{text: "> " + msg.input, isInput: true})
	}
	for _, line := range msg.lines {
		kind := kindSystem
		if !msg.isSystem {
			kind = classifyLine(line)
		}
		m.rawLines = append(m.rawLines, rawLine{text: line, kind: kind})
	}
	m.rawLines = append(m.rawLines, rawLine{})
	m.refreshViewport()
	return m
}

// refreshViewport re-wraps and re-styles all raw lines at the current width.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	width := max(m.width, 10)

	styled := make([]string, 0, len(m.rawLines))
	for _, rl := range m.rawLines {
		if rl.text == "" {
			styled = append(styled, "")
			continue
		}
		wrapped := wordWrap(rl.text, width)
		if rl.isInput {
			styled = append(styled, stylePlayerInput.Render(wrapped))
			continue
		}
		styled = append(styled, renderLineKind(wrapped, rl.kind))
	}

	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// wordWrap wraps text to the given display width. Words are split on
// spaces; a word wider than the line (common in unspaced Chinese) is
// broken between runes.
func wordWrap(text string, width int) string {
	if width <= 0 || lipgloss.Width(text) <= width {
		return text
	}

	var b strings.Builder
	lineLen := 0
	newline := func() {
		b.WriteByte('\n')
		lineLen = 0
	}
	for i, word := range strings.Fields(text) {
		wLen := lipgloss.Width(word)
		if i > 0 {
			if lineLen+1+wLen <= width {
				b.WriteByte(' ')
				lineLen++
			} else {
				newline()
			}
		}
		if wLen <= width-lineLen {
			b.WriteString(word)
			lineLen += wLen
			continue
		}
		for _, r := range word {
			rw := lipgloss.Width(string(r))
			if lineLen+rw > width {
				newline()
			}
			b.WriteRune(r)
			lineLen += rw
		}
	}
	return b.String()
}

// View renders the layout: transcript, status bar, input.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}
	return m.viewport.View() + "\n" + m.renderStatusBar() + "\n" + m.input.View()
}

// handleMeta runs terminal commands. ok is false for anything that
// should go to the game instead.
func (m *Model) handleMeta(input string) (output []string, quit, ok bool) {
	if !strings.HasPrefix(input, "/") {
		return nil, false, false
	}
	parts := strings.Fields(input)
	switch parts[0] {
	case "/quit", "/exit":
		return []string{"Goodbye."}, true, true

	case "/help":
		return cli.MetaHelp(), false, true

	case "/as":
		if len(parts) < 2 {
			return []string{"Usage: /as <user-id> [name]"}, false, true
		}
		name := parts[1]
		if len(parts) > 2 {
			name = strings.Join(parts[2:], " ")
		}
		m.actor = cli.ActorFor(m.cfg, parts[1], name)
		m.refreshProfile()
		return []string{fmt.Sprintf("Now acting as %s (%s).", m.actor.Name, m.actor.UserID)}, false, true

	case "/whoami":
		role := "player"
		if m.actor.Admin {
			role = "admin"
		}
		return []string{fmt.Sprintf("%s (%s), %s of group %s", m.actor.Name, m.actor.UserID, role, m.actor.GroupID)}, false, true
	}
	return nil, false, false
}

// viewportKeyMap returns a viewport keymap with Up/Down disabled
// (we use those for input history).
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
