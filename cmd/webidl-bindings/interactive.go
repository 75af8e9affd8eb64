package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#3C3C3C")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	detailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type browserTab int

const (
	tabTypes browserTab = iota
	tabBindings
	tabBinds
	numTabs
)

func (t browserTab) String() string {
	switch t {
	case tabTypes:
		return "Types"
	case tabBindings:
		return "Bindings"
	default:
		return "Binds"
	}
}

type interactiveModel struct {
	filename string
	report   report
	filter   textinput.Model
	visible  []int
	selected int
	tab      browserTab
	expanded bool
}

func newInteractiveModel(filename string, r report) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "filter"
	ti.Prompt = "/ "
	ti.Width = 40

	m := &interactiveModel{
		filename: filename,
		report:   r,
		filter:   ti,
		tab:      tabTypes,
	}
	m.applyFilter()
	return m
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) items() []item {
	switch m.tab {
	case tabTypes:
		return m.report.types
	case tabBindings:
		return m.report.bindings
	default:
		return m.report.binds
	}
}

// applyFilter recomputes the visible rows: items whose label or detail
// contains the filter text, case-insensitively.
func (m *interactiveModel) applyFilter() {
	query := strings.ToLower(m.filter.Value())
	m.visible = m.visible[:0]
	for i, it := range m.items() {
		if query == "" || matches(it, query) {
			m.visible = append(m.visible, i)
		}
	}
	if m.selected >= len(m.visible) {
		m.selected = max(len(m.visible)-1, 0)
	}
}

func matches(it item, query string) bool {
	if strings.Contains(strings.ToLower(it.label), query) {
		return true
	}
	for _, d := range it.detail {
		if strings.Contains(strings.ToLower(d), query) {
			return true
		}
	}
	return false
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.filter.Focused() {
		switch key.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "enter", "esc":
			m.filter.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		m.applyFilter()
		return m, cmd
	}

	switch key.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}

	case "down", "j":
		if m.selected < len(m.visible)-1 {
			m.selected++
		}

	case "tab", "right", "l":
		m.switchTab((m.tab + 1) % numTabs)

	case "shift+tab", "left", "h":
		m.switchTab((m.tab + numTabs - 1) % numTabs)

	case "enter", " ":
		m.expanded = !m.expanded

	case "/":
		m.filter.Focus()
		return m, textinput.Blink

	case "esc":
		m.filter.SetValue("")
		m.applyFilter()
	}

	return m, nil
}

func (m *interactiveModel) switchTab(t browserTab) {
	m.tab = t
	m.selected = 0
	m.expanded = false
	m.applyFilter()
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Web IDL Bindings"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	for t := range numTabs {
		style := tabStyle
		if t == m.tab {
			style = activeTabStyle
		}
		b.WriteString(style.Render(fmt.Sprintf("%s (%d)", t, m.countFor(t))))
	}
	b.WriteString("\n\n")

	items := m.items()
	if len(m.visible) == 0 {
		b.WriteString(helpStyle.Render("  nothing to show"))
		b.WriteString("\n")
	}
	for row, i := range m.visible {
		it := items[i]
		label := it.label
		switch {
		case row == m.selected:
			b.WriteString(selectedStyle.Render("> " + label))
		case !it.ok:
			b.WriteString("  " + errorStyle.Render(label))
		default:
			b.WriteString("  " + labelStyle.Render(label))
		}
		b.WriteString("\n")
		if row == m.selected && m.expanded {
			for _, d := range it.detail {
				b.WriteString("      ")
				b.WriteString(detailStyle.Render(d))
				b.WriteString("\n")
			}
		}
	}

	b.WriteString("\n")
	b.WriteString(m.filter.View())
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("↑/↓ select • enter details • tab switch • / filter • q quit"))

	return b.String()
}

func (m *interactiveModel) countFor(t browserTab) int {
	switch t {
	case tabTypes:
		return len(m.report.types)
	case tabBindings:
		return len(m.report.bindings)
	default:
		return len(m.report.binds)
	}
}

func runInteractive(filename string, r report) error {
	p := tea.NewProgram(newInteractiveModel(filename, r), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
