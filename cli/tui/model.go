package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sussybocca/Server.x-2/address"
	"github.com/sussybocca/Server.x-2/editor"
	"github.com/sussybocca/Server.x-2/gateway"
	"github.com/sussybocca/Server.x-2/log"
	"github.com/sussybocca/Server.x-2/session"
	"github.com/sussybocca/Server.x-2/tree"
)

// Focus represents the part of the browser receiving key presses
type Focus int

const (
	FocusTree Focus = iota
	FocusAddress
	FocusEditor
	FocusInput
	FocusConfirm
	FocusHelp
)

// InputType represents what kind of name we're collecting
type InputType int

const (
	InputNewFile InputType = iota
	InputNewDir
	InputRename
)

// maxSuggestions limits how many suggestions are drawn below the address bar.
const maxSuggestions = 8

// Model represents the state of the browser
type Model struct {
	// Core components
	ctx   context.Context
	gw    gateway.Gateway
	log   *log.Logger
	theme *Theme
	keys  KeyMap
	help  help.Model

	// Navigation state
	session *session.Session
	address *address.State
	editor  *editor.Editor

	// Tree state
	entries []*Entry
	cursor  int
	offset  int

	// View state
	width   int
	height  int
	showRaw bool
	tabs    []tabSpan

	// Set while a suggestion request is in flight
	seeding bool

	// Focus state
	focus        Focus
	inputType    InputType
	nameInput    textinput.Model
	addressInput textinput.Model
	content      textarea.Model
	editing      tree.NodeID

	// Status
	statusMsg string
	errorMsg  string
}

// tabSpan is the horizontal extent of one tab label on the first line.
// Clicks in [close, end) hit the close mark.
type tabSpan struct {
	start int
	close int
	end   int
}

// NewModel creates a browser that persists through gw. The gateway must
// already be open.
func NewModel(ctx context.Context, gw gateway.Gateway, opts ...ModelOption) (*Model, error) {
	options := newDefaultModelOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	logger := options.Logger
	ed, err := editor.New(
		editor.WithLogger(logger.Named("editor")),
		editor.WithTimeout(options.Timeout),
	)
	if err != nil {
		return nil, err
	}

	sess := session.New(session.WithHome(options.Home))
	if options.Start != "" {
		sess.Navigate(options.Start)
	}

	addressInput := textinput.New()
	addressInput.Prompt = "› "
	addressInput.Placeholder = "server://..."
	addressInput.CharLimit = 512
	addressInput.SetValue(string(sess.Active().Location))

	nameInput := textinput.New()
	nameInput.CharLimit = 256

	content := textarea.New()
	content.ShowLineNumbers = true
	content.CharLimit = 0

	return &Model{
		ctx:          ctx,
		gw:           gw,
		log:          logger,
		theme:        options.Theme,
		keys:         DefaultKeyMap(),
		help:         help.New(),
		session:      sess,
		address:      address.New(sess.Active().Location),
		editor:       ed,
		addressInput: addressInput,
		nameInput:    nameInput,
		content:      content,
	}, nil
}

// Init loads the server of the first tab and the suggestion list
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadTree(), m.seedSuggestions())
}

// Update handles messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.addressInput.Width = max(msg.Width-4, 10)
		m.resizeEditor()
		return m, nil

	case treeLoadedMsg:
		if !m.editor.Apply(msg.result) {
			return m, nil
		}

		m.refreshEntries()
		if m.editor.LoadError() != nil {
			m.errorMsg = fmt.Sprintf("Failed to load %s", msg.result.Location)
			return m, nil
		}

		m.errorMsg = ""
		if active, ok := m.editor.Active(); ok && m.editor.State() == editor.StateLoaded {
			m.moveCursorTo(active.ID)
		}
		return m, nil

	case treeSavedMsg:
		if msg.result.Err != nil {
			m.errorMsg = fmt.Sprintf("Failed to save %s", msg.result.Location)
		} else if msg.result.Location == m.editor.Location() {
			m.statusMsg = "Saved"
		}
		m.editor.FinishSave(msg.result)
		return m, nil

	case suggestionsLoadedMsg:
		m.seeding = false
		if msg.err != nil {
			m.log.Error("Failed to list public locations: %v", msg.err)
			return m, nil
		}
		if !m.address.SetKnown(msg.generation, msg.locations) {
			m.log.Debug("Ignoring stale suggestions (gen %d, current %d)", msg.generation, m.address.Generation())
		}
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}

	// Forward everything else (cursor blinks) to the focused widget
	return m.updateFocused(msg)
}

func (m *Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.focus {
	case FocusAddress:
		m.addressInput, cmd = m.addressInput.Update(msg)
	case FocusInput:
		m.nameInput, cmd = m.nameInput.Update(msg)
	case FocusEditor:
		m.content, cmd = m.content.Update(msg)
	}

	return m, cmd
}

// handleKeyPress processes keyboard input based on current focus
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	// Tab handling works everywhere except while typing text
	if m.focus != FocusEditor && m.focus != FocusInput {
		if cmd, ok := m.handleTabKeys(msg); ok {
			return m, cmd
		}
	}

	switch m.focus {
	case FocusAddress:
		return m.handleAddressKeys(msg)
	case FocusEditor:
		return m.handleEditorKeys(msg)
	case FocusInput:
		return m.handleInputKeys(msg)
	case FocusConfirm:
		return m.handleConfirmKeys(msg)
	case FocusHelp:
		return m.handleHelpKeys(msg)
	}

	return m.handleTreeKeys(msg)
}

func (m *Model) handleTabKeys(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.OpenTab):
		m.session.Open()
		return m.navigated(), true

	case key.Matches(msg, m.keys.CloseTab):
		return m.closeTab(m.session.ActiveIndex()), true

	case key.Matches(msg, m.keys.SelectTab):
		index := int(msg.Runes[0] - '1')
		return m.selectTab(index), true

	case m.focus == FocusTree && key.Matches(msg, m.keys.NextTab):
		return m.selectTab((m.session.ActiveIndex() + 1) % m.session.Len()), true

	case m.focus == FocusTree && key.Matches(msg, m.keys.PrevTab):
		return m.selectTab((m.session.ActiveIndex() + m.session.Len() - 1) % m.session.Len()), true
	}

	return nil, false
}

// handleTreeKeys processes keys while the tree pane is focused
func (m *Model) handleTreeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.statusMsg = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.focus = FocusHelp
		return m, nil

	case key.Matches(msg, m.keys.FocusAddress):
		return m, m.focusAddress()

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)

	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
		m.offset = 0

	case key.Matches(msg, m.keys.Bottom):
		m.moveCursor(len(m.entries))

	case key.Matches(msg, m.keys.Open):
		if entry := m.currentEntry(); entry != nil && !entry.IsDir {
			m.editor.Select(entry.ID)
		}

	case key.Matches(msg, m.keys.NewFile):
		return m, m.startInput(InputNewFile, "New file name:", "")

	case key.Matches(msg, m.keys.NewDir):
		return m, m.startInput(InputNewDir, "New folder name:", "")

	case key.Matches(msg, m.keys.Rename):
		if entry := m.currentEntry(); entry != nil && entry.Depth > 0 {
			return m, m.startInput(InputRename, "New name:", entry.Name)
		}

	case key.Matches(msg, m.keys.Delete):
		if entry := m.currentEntry(); entry != nil && entry.Depth > 0 {
			m.focus = FocusConfirm
			m.statusMsg = fmt.Sprintf("Delete %s? (y/n)", entry.Name)
		}

	case key.Matches(msg, m.keys.Edit):
		return m, m.startEditing()

	case key.Matches(msg, m.keys.Save):
		return m, m.saveTree()

	case key.Matches(msg, m.keys.ToggleRaw):
		m.showRaw = !m.showRaw

	case key.Matches(msg, m.keys.Reload):
		return m, m.loadTree()
	}

	return m, nil
}

// handleAddressKeys processes keys while the address bar is focused
func (m *Model) handleAddressKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.blurAddress()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m, m.submitAddress(m.address.Submit())

	case msg.Type == tea.KeyUp:
		m.address.Up()
		return m, nil

	case msg.Type == tea.KeyDown:
		m.address.Down()
		return m, nil
	}

	var cmd tea.Cmd
	m.addressInput, cmd = m.addressInput.Update(msg)
	if m.addressInput.Value() != m.address.Input() {
		m.address.SetInput(m.addressInput.Value())
	}

	return m, cmd
}

// handleEditorKeys processes keys while a file's content is being edited
func (m *Model) handleEditorKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Commit):
		if m.editor.SetContent(m.editing, m.content.Value()) {
			m.refreshEntries()
			m.statusMsg = "Content updated"
		}
		m.stopEditing()
		return m, nil

	case key.Matches(msg, m.keys.Cancel):
		m.stopEditing()
		m.statusMsg = "Edit discarded"
		return m, nil
	}

	var cmd tea.Cmd
	m.content, cmd = m.content.Update(msg)
	return m, cmd
}

// handleInputKeys processes keys when collecting a name
func (m *Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		m.cancelInput()
		return m, nil

	case tea.KeyEnter:
		m.submitInput()
		return m, nil
	}

	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.focus = FocusTree
	m.statusMsg = ""

	answer := strings.ToLower(msg.String())
	if answer != "y" {
		return m, nil
	}

	if entry := m.currentEntry(); entry != nil {
		if m.editor.Remove(entry.ID) {
			m.refreshEntries()
			m.statusMsg = fmt.Sprintf("Deleted %s", entry.Name)
		}
	}

	return m, nil
}

// handleHelpKeys processes keys in help mode
func (m *Model) handleHelpKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Help), key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.Cancel):
		m.focus = FocusTree
	}
	return m, nil
}

// handleMouse maps clicks on the tab bar and the suggestion list, and
// pointer movement over suggestions.
func (m *Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Y == 0:
		if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		for i, span := range m.tabs {
			switch {
			case msg.X >= span.close && msg.X < span.end:
				return m, m.closeTab(i)
			case msg.X >= span.start && msg.X < span.end:
				return m, m.selectTab(i)
			}
		}

	case msg.Y == 1:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && m.focus != FocusAddress {
			return m, m.focusAddress()
		}

	case m.focus == FocusAddress && msg.Y >= 2:
		index := msg.Y - 2
		if index >= len(m.visibleSuggestions()) {
			return m, nil
		}

		switch {
		case msg.Action == tea.MouseActionMotion:
			m.address.Hover(index)
		case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
			if location, ok := m.address.Pick(index); ok {
				return m, m.submitAddress(location)
			}
		}
	}

	return m, nil
}

// selectTab activates tab i and loads its location when it changed
func (m *Model) selectTab(i int) tea.Cmd {
	if i == m.session.ActiveIndex() || !m.session.Select(i) {
		return nil
	}

	return m.navigated()
}

// closeTab closes tab i, which does not need to be the active one.
func (m *Model) closeTab(i int) tea.Cmd {
	m.session.Close(i)
	return m.navigated()
}

// navigated resets the per-location state after the active tab changed or
// was pointed elsewhere, and loads the new location.
func (m *Model) navigated() tea.Cmd {
	location := m.session.Active().Location

	m.address.Sync(location)
	m.addressInput.SetValue(string(location))
	m.addressInput.Blur()

	if m.focus == FocusEditor {
		m.stopEditing()
	}
	m.focus = FocusTree
	m.showRaw = false
	m.statusMsg = ""
	m.errorMsg = ""

	return m.loadTree()
}

func (m *Model) focusAddress() tea.Cmd {
	m.focus = FocusAddress
	m.address.SetInput(m.addressInput.Value())

	cmds := []tea.Cmd{m.addressInput.Focus()}
	if !m.address.Seeded() && !m.seeding {
		cmds = append(cmds, m.seedSuggestions())
	}

	return tea.Batch(cmds...)
}

func (m *Model) blurAddress() {
	m.focus = FocusTree
	m.address.Sync(m.session.Active().Location)
	m.addressInput.SetValue(m.address.Input())
	m.addressInput.Blur()
}

// submitAddress navigates the active tab to raw. Blank input resolves like
// any other text.
func (m *Model) submitAddress(raw string) tea.Cmd {
	m.session.Navigate(raw)
	return m.navigated()
}

// visibleSuggestions returns the suggestions drawn below the address bar
func (m *Model) visibleSuggestions() []string {
	if m.focus != FocusAddress {
		return nil
	}

	filtered := m.address.Filtered()
	suggestions := make([]string, 0, min(len(filtered), maxSuggestions))
	for i, location := range filtered {
		if i == maxSuggestions {
			break
		}
		suggestions = append(suggestions, string(location))
	}

	return suggestions
}

// startInput enters input mode with the specified type and prompt
func (m *Model) startInput(inputType InputType, prompt, value string) tea.Cmd {
	if m.editor.State() != editor.StateLoaded {
		m.statusMsg = "Nothing loaded"
		return nil
	}

	m.focus = FocusInput
	m.inputType = inputType
	m.nameInput.Prompt = prompt + " "
	m.nameInput.SetValue(value)
	m.errorMsg = ""
	m.statusMsg = ""

	return m.nameInput.Focus()
}

// cancelInput exits input mode without taking action
func (m *Model) cancelInput() {
	m.focus = FocusTree
	m.nameInput.Blur()
	m.nameInput.SetValue("")
}

// submitInput applies the collected name to the tree
func (m *Model) submitInput() {
	value := strings.TrimSpace(m.nameInput.Value())
	m.cancelInput()

	if value == "" {
		return
	}

	switch m.inputType {
	case InputNewFile:
		if id, ok := m.editor.Add(m.targetFolder(), value, tree.KindFile); ok {
			m.refreshEntries()
			m.moveCursorTo(id)
		}
	case InputNewDir:
		if id, ok := m.editor.Add(m.targetFolder(), value, tree.KindFolder); ok {
			m.refreshEntries()
			m.moveCursorTo(id)
		}
	case InputRename:
		if entry := m.currentEntry(); entry != nil && m.editor.Rename(entry.ID, value) {
			m.refreshEntries()
		}
	}
}

// targetFolder returns the folder new nodes are added to: the folder under
// the cursor, or the parent of the file under the cursor.
func (m *Model) targetFolder() tree.NodeID {
	entry := m.currentEntry()
	if entry == nil {
		return ""
	}

	if entry.IsDir {
		return entry.ID
	}

	return entry.Parent
}

// startEditing opens the content of the file under the cursor, or of the
// active file, in the text area.
func (m *Model) startEditing() tea.Cmd {
	target, ok := m.editor.Active()
	if entry := m.currentEntry(); entry != nil && !entry.IsDir {
		if m.editor.Select(entry.ID) {
			target, ok = m.editor.Active()
		}
	}

	if !ok || !target.IsFile() {
		m.statusMsg = "No file selected"
		return nil
	}

	m.focus = FocusEditor
	m.editing = target.ID
	m.content.SetValue(target.Content)
	m.resizeEditor()

	return m.content.Focus()
}

func (m *Model) stopEditing() {
	m.focus = FocusTree
	m.editing = ""
	m.content.Blur()
}

func (m *Model) resizeEditor() {
	if m.width == 0 {
		return
	}

	m.content.SetWidth(max(m.width-m.treeWidth()-6, 10))
	m.content.SetHeight(max(m.getVisibleLines(), 3))
}

// refreshEntries rebuilds the tree pane after the tree changed
func (m *Model) refreshEntries() {
	var current tree.NodeID
	if entry := m.currentEntry(); entry != nil {
		current = entry.ID
	}

	m.entries = buildEntries(m.editor)

	if current != "" && m.moveCursorTo(current) {
		return
	}
	m.moveCursor(0)
}

// moveCursorTo places the cursor on node id if it is visible
func (m *Model) moveCursorTo(id tree.NodeID) bool {
	for i, entry := range m.entries {
		if entry.ID == id {
			m.cursor = i
			m.moveCursor(0)
			return true
		}
	}

	return false
}

// moveCursor moves the cursor by delta, handling bounds and scrolling
func (m *Model) moveCursor(delta int) {
	if len(m.entries) == 0 {
		m.cursor = 0
		m.offset = 0
		return
	}

	m.cursor = min(max(m.cursor+delta, 0), len(m.entries)-1)

	visibleLines := m.getVisibleLines()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visibleLines {
		m.offset = m.cursor - visibleLines + 1
	}
}

// getVisibleLines returns how many tree entries can be displayed
func (m *Model) getVisibleLines() int {
	// Tab bar, address bar, borders, status and help
	reserved := 7
	available := m.height - reserved
	if available < 5 {
		return 5
	}
	return available
}

// currentEntry returns the entry under the cursor
func (m *Model) currentEntry() *Entry {
	if m.cursor >= 0 && m.cursor < len(m.entries) {
		return m.entries[m.cursor]
	}
	return nil
}
