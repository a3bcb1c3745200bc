package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/masterchat/internal/models"
)

const thinkInterval = 300 * time.Millisecond

// ErrInterrupted is returned when the user aborts a call with Ctrl+C.
var ErrInterrupted = errors.New("interrupted")

// Theme holds the color scheme for the terminal output.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
	Title   lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
	Title:   lipgloss.Color("#D7AF5F"), // gold
}

// Style functions for dynamic theming
func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) masterStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Title).Bold(true)
}

// thinkTickMsg advances the waiting animation.
type thinkTickMsg time.Time

// replyMsg carries the finished call result.
type replyMsg struct {
	turn models.ChatTurn
	err  error
}

// consultModel is the bubbletea model shown while a call is in flight.
type consultModel struct {
	label    string
	call     func(context.Context) (models.ChatTurn, error)
	ctx      context.Context
	cancel   context.CancelFunc
	theme    Theme
	frame    int
	turn     models.ChatTurn
	err      error
	done     bool
	quitting bool
}

func newConsultModel(label string, call func(context.Context) (models.ChatTurn, error)) consultModel {
	ctx, cancel := context.WithCancel(context.Background())
	return consultModel{
		label:  label,
		call:   call,
		ctx:    ctx,
		cancel: cancel,
		theme:  defaultTheme,
	}
}

// Init starts the call and the waiting animation.
func (m consultModel) Init() tea.Cmd {
	return tea.Batch(m.consult(), thinkCmd())
}

// Update handles messages and returns the updated model.
func (m consultModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancel()
			m.quitting = true
			return m, tea.Quit
		}

	case thinkTickMsg:
		if m.done {
			return m, nil
		}
		m.frame++
		return m, thinkCmd()

	case replyMsg:
		m.done = true
		m.turn = msg.turn
		m.err = msg.err
		return m, tea.Quit
	}

	return m, nil
}

// View renders the waiting line.
func (m consultModel) View() tea.View {
	if m.done || m.quitting {
		return tea.NewView("")
	}
	dots := ""
	for i := 0; i <= m.frame%3; i++ {
		dots += "."
	}
	hint := m.theme.hintStyle().Render("Press Ctrl+C to abort")
	return tea.NewView(fmt.Sprintf("%s%s  %s\n", m.theme.statusStyle().Render(m.label), dots, hint))
}

// consult runs the call as a command so Update() never blocks.
func (m consultModel) consult() tea.Cmd {
	return func() tea.Msg {
		turn, err := m.call(m.ctx)
		return replyMsg{turn: turn, err: err}
	}
}

func thinkCmd() tea.Cmd {
	return tea.Tick(thinkInterval, func(t time.Time) tea.Msg {
		return thinkTickMsg(t)
	})
}

// runConsult shows the waiting animation while the call runs and returns its
// result. Ctrl+C cancels the call's context and yields ErrInterrupted.
func runConsult(label string, call func(context.Context) (models.ChatTurn, error)) (models.ChatTurn, error) {
	model := newConsultModel(label, call)
	defer model.cancel()

	p := tea.NewProgram(model)
	finalModel, err := p.Run()
	if err != nil {
		return models.ChatTurn{}, fmt.Errorf("consult UI error: %w", err)
	}

	if m, ok := finalModel.(consultModel); ok {
		if m.quitting {
			return models.ChatTurn{}, ErrInterrupted
		}
		return m.turn, m.err
	}
	return models.ChatTurn{}, nil
}
