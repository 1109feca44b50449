package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// PromptModel asks for a single line of input
type PromptModel struct {
	title     string
	input     textinput.Model
	value     string
	submitted bool
	cancelled bool
}

// NewPrompt creates a prompt with the given title and placeholder
func NewPrompt(title, placeholder string) PromptModel {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "➤ "
	ti.PromptStyle = SelectedStyle
	ti.CharLimit = 2048
	ti.Width = 80
	ti.Focus()

	return PromptModel{title: title, input: ti}
}

func (m PromptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m PromptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyCtrlD:
			m.cancelled = true
			return m, tea.Quit
		case tea.KeyEnter:
			m.value = strings.TrimSpace(m.input.Value())
			m.submitted = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m PromptModel) View() string {
	if m.submitted || m.cancelled {
		return ""
	}

	var view strings.Builder
	view.WriteString(TitleStyle.Render(m.title))
	view.WriteString("\n")
	view.WriteString(m.input.View())
	view.WriteString("\n")
	view.WriteString(HelpStyle.Render("enter: submit • esc: quit"))
	view.WriteString("\n")
	return view.String()
}

// Value returns the submitted text
func (m PromptModel) Value() string { return m.value }

// Cancelled reports whether the user quit instead of submitting
func (m PromptModel) Cancelled() bool { return m.cancelled }

// RunPrompt displays the prompt. ok is false when the user quit.
func RunPrompt(title, placeholder string) (value string, ok bool, err error) {
	final, err := tea.NewProgram(NewPrompt(title, placeholder)).Run()
	if err != nil {
		return "", false, err
	}
	m := final.(PromptModel)
	if m.Cancelled() {
		return "", false, nil
	}
	return m.Value(), true, nil
}
