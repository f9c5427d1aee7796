package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sussybocca/Server.x-2/data"
	"github.com/sussybocca/Server.x-2/editor"
)

// Messages for async operations
type treeLoadedMsg struct {
	result editor.Result
}

type treeSavedMsg struct {
	result editor.SaveResult
}

type suggestionsLoadedMsg struct {
	locations  []data.VirtualLocation
	err        error
	generation uint64
}

// Commands for async operations
func (m *Model) loadTree() tea.Cmd {
	request := m.editor.Begin(m.session.Active().Location)
	m.refreshEntries()

	ctx, gw, logger := m.ctx, m.gw, m.log
	return func() tea.Msg {
		logger.Debug("Loading '%s'", request.Location)
		return treeLoadedMsg{result: request.Fetch(ctx, gw)}
	}
}

func (m *Model) saveTree() tea.Cmd {
	request, ok := m.editor.BeginSave()
	if !ok {
		m.statusMsg = "Nothing to save"
		return nil
	}

	ctx, gw := m.ctx, m.gw
	return func() tea.Msg {
		return treeSavedMsg{result: request.Store(ctx, gw)}
	}
}

// seedSuggestions fetches the public locations. After one success the
// list is kept for the lifetime of the browser, a failed request is retried
// the next time the address bar gets focus.
func (m *Model) seedSuggestions() tea.Cmd {
	generation := m.address.Generation()
	m.seeding = true

	ctx, gw := m.ctx, m.gw
	return func() tea.Msg {
		locations, err := gw.ListPublicLocations(ctx)
		return suggestionsLoadedMsg{
			locations:  locations,
			err:        err,
			generation: generation,
		}
	}
}
