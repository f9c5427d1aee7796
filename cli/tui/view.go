package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/sussybocca/Server.x-2/editor"
)

// View renders the TUI
func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	if m.focus == FocusHelp {
		return m.renderHelp()
	}

	return m.renderMain()
}

// renderMain renders the browser. The tab bar is always the first line and
// the address bar the second one, suggestions follow directly below.
func (m *Model) renderMain() string {
	var sections []string

	sections = append(sections, m.renderTabs())
	sections = append(sections, m.renderAddress())

	if suggestions := m.renderSuggestions(); suggestions != "" {
		sections = append(sections, suggestions)
	}

	sections = append(sections, m.renderContent())
	sections = append(sections, m.renderStatus())

	if m.focus == FocusInput {
		sections = append(sections, m.renderInput())
	}

	sections = append(sections, m.renderHelpBar())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

const closeMark = "×"

// renderTabs renders the tab bar and remembers where every tab was drawn.
func (m *Model) renderTabs() string {
	m.tabs = m.tabs[:0]

	var labels []string
	x := 0
	for i, tab := range m.session.Tabs() {
		name := tab.Location.Name()
		if name == "" {
			name = tab.Location.String()
		}
		label := fmt.Sprintf("%d %s %s", i+1, name, closeMark)

		style := m.theme.TabStyle
		if i == m.session.ActiveIndex() {
			style = m.theme.ActiveTabStyle
		}

		rendered := style.Render(label)
		width := lipgloss.Width(rendered)
		closeAt := x + width - style.GetPaddingRight() - lipgloss.Width(closeMark)
		m.tabs = append(m.tabs, tabSpan{start: x, close: closeAt, end: x + width})
		x += width

		labels = append(labels, rendered)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, labels...)
}

func (m *Model) renderAddress() string {
	return m.theme.AddressStyle.Render(m.addressInput.View())
}

func (m *Model) renderSuggestions() string {
	suggestions := m.visibleSuggestions()
	if len(suggestions) == 0 {
		return ""
	}

	lines := make([]string, 0, len(suggestions))
	for i, suggestion := range suggestions {
		style := m.theme.SuggestionStyle
		if i == m.address.HoverIndex() {
			style = m.theme.HoveredSuggestionStyle
		}
		lines = append(lines, style.Render(suggestion))
	}

	return strings.Join(lines, "\n")
}

// renderContent renders the tree pane and the content pane side by side
func (m *Model) renderContent() string {
	height := m.getVisibleLines() + 2

	if m.editor.State() == editor.StateNotFound {
		notFound, _ := m.editor.Render()
		return m.theme.BorderStyle.
			Width(m.width - 4).
			Height(height).
			Render(m.theme.NotFoundStyle.Render(notFound))
	}

	leftWidth := m.treeWidth()
	rightWidth := m.width - leftWidth - 4 // Account for borders

	treeBorder := m.theme.FocusedBorderStyle
	contentBorder := m.theme.BorderStyle
	if m.focus == FocusEditor {
		treeBorder, contentBorder = contentBorder, treeBorder
	}

	treeBox := treeBorder.
		Width(leftWidth).
		Height(height).
		Render(m.renderTree())

	contentBox := contentBorder.
		Width(rightWidth).
		Height(height).
		Render(m.renderFile())

	return lipgloss.JoinHorizontal(lipgloss.Top, treeBox, contentBox)
}

func (m *Model) treeWidth() int {
	return max(m.width/3, 24)
}

// renderTree renders the visible part of the flattened tree
func (m *Model) renderTree() string {
	switch m.editor.State() {
	case editor.StateEmpty, editor.StateLoading:
		return m.theme.ContentStyle.Render("Loading...")
	}

	var lines []string
	visibleLines := m.getVisibleLines()

	start := m.offset
	end := min(m.offset+visibleLines, len(m.entries))

	active, _ := m.editor.Active()
	for i := start; i < end; i++ {
		lines = append(lines, m.renderEntry(m.entries[i], i == m.cursor, m.entries[i].ID == active.ID))
	}

	return strings.Join(lines, "\n")
}

// renderEntry renders a single file or folder line
func (m *Model) renderEntry(entry *Entry, selected, active bool) string {
	var style lipgloss.Style
	switch {
	case selected:
		style = m.theme.SelectedItemStyle
	case active:
		style = m.theme.ActiveItemStyle
	case entry.IsDir:
		style = m.theme.DirectoryStyle
	default:
		style = m.theme.FileStyle
	}

	nameWidth := max(m.treeWidth()-14, 8)
	name := entry.DisplayName()
	if runes := []rune(name); len(runes) > nameWidth {
		name = string(runes[:nameWidth-3]) + "..."
	} else {
		name += strings.Repeat(" ", max(nameWidth-lipgloss.Width(name), 0))
	}

	return style.Render(fmt.Sprintf("%s %s %8s", entry.Icon(), name, entry.DisplaySize()))
}

// renderFile renders the content pane: the text area while editing, the
// raw server view, or the content of the active file.
func (m *Model) renderFile() string {
	if m.focus == FocusEditor {
		return m.content.View()
	}

	if m.showRaw {
		raw, err := m.editor.Render()
		if err != nil {
			return m.theme.ErrorStyle.Render(fmt.Sprintf("Error: %v", err))
		}
		return m.theme.ContentStyle.Render(m.clip(raw))
	}

	active, ok := m.editor.Active()
	if !ok {
		return m.theme.ContentStyle.Render("No file selected")
	}

	header := m.theme.TitleStyle.Render(fmt.Sprintf("%s  [%s]", active.Name, editor.Language(active.Name)))
	if active.Content == "" {
		return header + "\n\n" + m.theme.ContentStyle.Render("(empty file)")
	}

	return header + "\n\n" + m.theme.ContentStyle.Render(m.clip(active.Content))
}

// clip limits text to the lines that fit into the content pane
func (m *Model) clip(text string) string {
	lines := strings.Split(text, "\n")
	maxLines := m.getVisibleLines() - 2
	if len(lines) > maxLines {
		lines = lines[:maxLines]
		lines = append(lines, "...")
	}

	return strings.Join(lines, "\n")
}

// renderStatus renders the status bar
func (m *Model) renderStatus() string {
	left := m.editor.DisplayName()
	if m.editor.State() == editor.StateLoaded {
		left = fmt.Sprintf("%s  %d/%d", left, m.cursor+1, len(m.entries))
	}

	var right string
	switch {
	case m.editor.Saving():
		right = m.theme.SavingStyle.Render("Saving...")
	case m.errorMsg != "":
		right = m.theme.ErrorStyle.Render(m.errorMsg)
	case m.statusMsg != "":
		right = m.statusMsg
	}

	spacing := max(m.width-lipgloss.Width(left)-lipgloss.Width(right)-4, 0)

	statusLine := left + strings.Repeat(" ", spacing) + right
	return m.theme.StatusBarStyle.Width(m.width).Render(statusLine)
}

// renderInput renders the name prompt
func (m *Model) renderInput() string {
	return m.theme.CommandStyle.Render(m.nameInput.View())
}

// renderHelpBar renders the bottom help bar
func (m *Model) renderHelpBar() string {
	if m.focus == FocusEditor {
		return m.theme.HelpStyle.Render(m.help.ShortHelpView([]key.Binding{m.keys.Commit, m.keys.Cancel}))
	}

	return m.theme.HelpStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp()))
}

// renderHelp renders the full help screen
func (m *Model) renderHelp() string {
	sections := []string{
		m.theme.TitleStyle.Render("Server.X - Help"),
		"",
		m.help.FullHelpView(m.keys.FullHelp()),
		"",
		m.theme.HelpStyle.Render("Press ? or q to return"),
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
