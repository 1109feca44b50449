package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/billmal071/litdl/internal/db"
)

// HistoryItem wraps a history record for the list component
type HistoryItem struct {
	Record *db.Record
}

func (h HistoryItem) Title() string {
	if h.Record.Title != "" {
		return h.Record.Title
	}
	return h.Record.URL
}

func (h HistoryItem) Description() string {
	parts := []string{string(h.Record.Status)}
	if h.Record.Kind != "" {
		parts = append(parts, h.Record.Kind)
	}
	if h.Record.Parts > 0 {
		parts = append(parts, fmt.Sprintf("%d parts", h.Record.Parts))
	}
	parts = append(parts, h.Record.UpdatedAt.Format("2006-01-02 15:04"))
	return strings.Join(parts, " | ")
}

func (h HistoryItem) FilterValue() string { return h.Title() + " " + h.Record.URL }

// HistoryDelegate handles rendering of history items
type HistoryDelegate struct{}

func (d HistoryDelegate) Height() int                             { return 2 }
func (d HistoryDelegate) Spacing() int                            { return 1 }
func (d HistoryDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d HistoryDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	h, ok := item.(HistoryItem)
	if !ok {
		return
	}

	title := h.Title()
	if r := []rune(title); len(r) > 70 {
		title = string(r[:67]) + "..."
	}

	var str string
	if index == m.Index() {
		str = SelectedStyle.Render(fmt.Sprintf("  ➤ %d. %s", index+1, title))
	} else {
		str = NormalStyle.Render(fmt.Sprintf("    %d. %s", index+1, title))
	}
	str += "\n      " + StatusStyle(string(h.Record.Status)).Render(h.Description())

	fmt.Fprint(w, str)
}

// HistorySelectorModel is the Bubble Tea model for picking a processed book
type HistorySelectorModel struct {
	list     list.Model
	selected *db.Record
	quitting bool
}

// NewHistorySelector creates a new history selector TUI
func NewHistorySelector(records []*db.Record) HistorySelectorModel {
	items := make([]list.Item, len(records))
	for i, r := range records {
		items[i] = HistoryItem{Record: r}
	}

	l := list.New(items, HistoryDelegate{}, 80, 20)
	l.Title = "Processed Books"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)
	l.Styles.Title = TitleStyle

	return HistorySelectorModel{list: l}
}

func (m HistorySelectorModel) Init() tea.Cmd {
	return nil
}

func (m HistorySelectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// keys go to the filter input while it is open
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			if item, ok := m.list.SelectedItem().(HistoryItem); ok {
				m.selected = item.Record
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m HistorySelectorModel) View() string {
	if m.selected != nil {
		return SuccessStyle.Render(fmt.Sprintf("\n  ✓ Selected: %s\n", HistoryItem{Record: m.selected}.Title()))
	}
	if m.quitting {
		return DimStyle.Render("\n  Cancelled.\n")
	}

	var view strings.Builder
	view.WriteString("\n")
	view.WriteString(m.list.View())
	view.WriteString("\n")
	view.WriteString(HelpStyle.Render("  ↑/↓: navigate • enter: select • /: filter • q: cancel"))
	return view.String()
}

// Selected returns the chosen record, nil if the user cancelled
func (m HistorySelectorModel) Selected() *db.Record {
	return m.selected
}

// RunHistorySelector displays the TUI and returns the chosen record
func RunHistorySelector(records []*db.Record) (*db.Record, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no history available")
	}

	final, err := tea.NewProgram(NewHistorySelector(records)).Run()
	if err != nil {
		return nil, err
	}
	return final.(HistorySelectorModel).Selected(), nil
}
