package tui

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sussybocca/Server.x-2/data"
	"github.com/sussybocca/Server.x-2/editor"
	"github.com/sussybocca/Server.x-2/gateway"
	"github.com/sussybocca/Server.x-2/gateway/ephemeral"
)

// countingGateway counts how often the public locations are listed.
type countingGateway struct {
	*ephemeral.EphemeralGateway
	lists atomic.Int32
}

func (cg *countingGateway) ListPublicLocations(ctx context.Context) ([]data.VirtualLocation, error) {
	cg.lists.Add(1)
	return cg.EphemeralGateway.ListPublicLocations(ctx)
}

// failingGateway fails every load.
type failingGateway struct {
	gateway.Gateway
}

func (fg *failingGateway) LoadTree(ctx context.Context, location data.VirtualLocation) (*data.Server, error) {
	return nil, errors.New("connection reset")
}

func newTestModel(t *testing.T) (*Model, gateway.Gateway) {
	t.Helper()

	gw := newTestGateway(t)
	return newTestModelWith(t, gw), gw
}

// newTestGateway serves home, demo and docs publicly and hidden privately.
func newTestGateway(t *testing.T) *ephemeral.EphemeralGateway {
	t.Helper()
	ctx := t.Context()

	gw := ephemeral.NewEphemeralGateway()
	if err := gw.Open(ctx); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	home := data.NewServer(data.HomeLocation, "Home", true)
	home.Files = data.NewFolder(data.RootName,
		data.NewFile("index.html", "<h1>home</h1>"),
		data.NewFolder("src", data.NewFile("main.js", "run()")),
	)
	demo := data.NewServer("server://demo", "Demo", true)
	demo.Files = data.NewFolder(data.RootName, data.NewFile("readme.md", "# demo"))
	docs := data.NewServer("server://docs", "Docs", true)
	hidden := data.NewServer("server://hidden", "Hidden", false)

	for _, server := range []*data.Server{home, demo, docs, hidden} {
		if err := gw.CreateServer(ctx, server); err != nil {
			t.Fatalf("CreateServer failed: %v", err)
		}
	}

	return gw
}

func newTestModelWith(t *testing.T, gw gateway.Gateway) *Model {
	t.Helper()

	m, err := NewModel(t.Context(), gw)
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}

	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	drain(t, m, m.Init())

	return m
}

// drain runs cmd and feeds the browser's own messages back into the model.
// Cursor blink commands never finish in time and are dropped.
func drain(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()

	if cmd == nil {
		return
	}

	done := make(chan tea.Msg, 1)
	go func() {
		done <- cmd()
	}()

	select {
	case msg := <-done:
		switch msg := msg.(type) {
		case tea.BatchMsg:
			for _, next := range msg {
				drain(t, m, next)
			}
		case treeLoadedMsg, treeSavedMsg, suggestionsLoadedMsg:
			_, next := m.Update(msg)
			drain(t, m, next)
		}
	case <-time.After(250 * time.Millisecond):
	}
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+t":
		return tea.KeyMsg{Type: tea.KeyCtrlT}
	case "ctrl+w":
		return tea.KeyMsg{Type: tea.KeyCtrlW}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	}

	if strings.HasPrefix(k, "alt+") {
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(strings.TrimPrefix(k, "alt+")), Alt: true}
	}

	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func press(t *testing.T, m *Model, keys ...string) {
	t.Helper()

	for _, k := range keys {
		_, cmd := m.Update(keyMsg(k))
		drain(t, m, cmd)
	}
}

func typeText(t *testing.T, m *Model, text string) {
	t.Helper()

	for _, r := range text {
		press(t, m, string(r))
	}
}

func findEntry(m *Model, name string) (int, *Entry) {
	for i, entry := range m.entries {
		if entry.Name == name {
			return i, entry
		}
	}
	return -1, nil
}

func TestInit_LoadsHome(t *testing.T) {
	m, _ := newTestModel(t)

	if m.editor.State() != editor.StateLoaded {
		t.Fatalf("Expected home to be loaded, got %s", m.editor.State())
	}

	// root, index.html, src, main.js
	if len(m.entries) != 4 {
		t.Fatalf("Expected 4 entries, got %d", len(m.entries))
	}

	active, ok := m.editor.Active()
	if !ok || active.Name != "index.html" {
		t.Errorf("Expected index.html to be active, got %+v", active)
	}
	if entry := m.currentEntry(); entry == nil || entry.ID != active.ID {
		t.Errorf("Expected the cursor on the active file")
	}

	view := m.View()
	if !strings.Contains(view, "index.html") || !strings.Contains(view, "<h1>home</h1>") {
		t.Errorf("Expected the tree and content in the view:\n%s", view)
	}
}

func TestAddressBar_SuggestAndNavigate(t *testing.T) {
	m, _ := newTestModel(t)

	press(t, m, "/")
	if m.focus != FocusAddress {
		t.Fatalf("Expected the address bar to be focused")
	}
	if !m.address.Seeded() {
		t.Fatalf("Expected suggestions to be seeded")
	}

	m.addressInput.SetValue("")
	m.address.SetInput("")
	typeText(t, m, "DE")

	suggestions := m.visibleSuggestions()
	if len(suggestions) != 1 || suggestions[0] != "server://demo" {
		t.Fatalf("Expected only server://demo, got %v", suggestions)
	}

	press(t, m, "down", "enter")

	if m.session.Active().Location != "server://demo" {
		t.Errorf("Expected server://demo, got %s", m.session.Active().Location)
	}
	if m.editor.Location() != "server://demo" || m.editor.State() != editor.StateLoaded {
		t.Errorf("Expected demo to be loaded, got %s (%s)", m.editor.Location(), m.editor.State())
	}
	if m.focus != FocusTree || m.addressInput.Value() != "server://demo" {
		t.Errorf("Expected the address bar to sync and blur, got %q", m.addressInput.Value())
	}
}

func TestAddressBar_PrivateServersNotSuggested(t *testing.T) {
	m, _ := newTestModel(t)

	press(t, m, "/")
	for _, known := range m.address.Known() {
		if known == "server://hidden" {
			t.Errorf("Private server must not be suggested")
		}
	}
}

func TestAddressBar_RawInputResolves(t *testing.T) {
	m, _ := newTestModel(t)

	press(t, m, "/")
	m.addressInput.SetValue("")
	m.address.SetInput("")
	typeText(t, m, "nowhere")
	press(t, m, "enter")

	if m.session.Active().Location != "server://nowhere" {
		t.Fatalf("Expected server://nowhere, got %s", m.session.Active().Location)
	}
	if m.editor.State() != editor.StateNotFound {
		t.Fatalf("Expected not found, got %s", m.editor.State())
	}
	if !strings.Contains(m.View(), "Server not found: server://nowhere") {
		t.Errorf("Expected the not found view")
	}
}

func TestAddressBar_SuggestionsSeededOnce(t *testing.T) {
	gw := &countingGateway{EphemeralGateway: newTestGateway(t)}
	m := newTestModelWith(t, gw)

	for _, target := range []string{"demo", "docs"} {
		press(t, m, "/")
		m.addressInput.SetValue(target)
		m.address.SetInput(target)
		press(t, m, "enter")

		if m.editor.Location() != data.Resolve(target) {
			t.Fatalf("Expected %s to be loaded, got %s", target, m.editor.Location())
		}
	}

	press(t, m, "ctrl+t", "/")
	if !m.address.Seeded() {
		t.Errorf("Expected the suggestions to survive navigation")
	}
	if got := gw.lists.Load(); got != 1 {
		t.Errorf("Expected one listing for the browser lifetime, got %d", got)
	}
}

func TestAddressBar_BlankSubmitNavigates(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  data.VirtualLocation
	}{
		{"empty", "", "server://"},
		{"space", " ", "server:// "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(tst *testing.T) {
			m, _ := newTestModel(tst)

			press(tst, m, "/")
			m.addressInput.SetValue(tt.input)
			m.address.SetInput(tt.input)
			press(tst, m, "enter")

			if m.session.Active().Location != tt.want {
				tst.Fatalf("Expected %q, got %q", tt.want, m.session.Active().Location)
			}
			if m.editor.Location() != tt.want || m.editor.State() != editor.StateNotFound {
				tst.Errorf("Expected %q to be looked up, got %q (%s)", tt.want, m.editor.Location(), m.editor.State())
			}
			if m.focus != FocusTree || m.addressInput.Value() != string(tt.want) {
				tst.Errorf("Expected the address bar to sync and blur, got %q", m.addressInput.Value())
			}
		})
	}
}

func TestAddressBar_EscapeRestoresLocation(t *testing.T) {
	m, _ := newTestModel(t)

	press(t, m, "/")
	typeText(t, m, "xyz")
	press(t, m, "esc")

	if m.focus != FocusTree {
		t.Errorf("Expected tree focus after escape")
	}
	if m.addressInput.Value() != string(data.HomeLocation) {
		t.Errorf("Expected the address to reset, got %q", m.addressInput.Value())
	}
}

func TestTabs(t *testing.T) {
	m, _ := newTestModel(t)

	m.session.Navigate("demo")
	drain(t, m, m.navigated())

	press(t, m, "ctrl+t")
	if m.session.Len() != 2 || m.session.ActiveIndex() != 1 {
		t.Fatalf("Expected a second active tab, got %d/%d", m.session.ActiveIndex(), m.session.Len())
	}
	if m.editor.Location() != data.HomeLocation {
		t.Errorf("Expected the new tab to load home, got %s", m.editor.Location())
	}

	press(t, m, "alt+1")
	if m.session.ActiveIndex() != 0 || m.editor.Location() != "server://demo" {
		t.Errorf("Expected alt+1 to switch back to demo, got %s", m.editor.Location())
	}

	press(t, m, "tab")
	if m.session.ActiveIndex() != 1 {
		t.Errorf("Expected tab to cycle to the second tab")
	}

	press(t, m, "alt+9")
	if m.session.ActiveIndex() != 1 {
		t.Errorf("Out of range tab selection must be ignored")
	}

	press(t, m, "ctrl+w")
	if m.session.Len() != 1 || m.session.ActiveIndex() != 0 {
		t.Errorf("Expected one tab left, got %d/%d", m.session.ActiveIndex(), m.session.Len())
	}
	if m.editor.Location() != "server://demo" {
		t.Errorf("Expected the remaining tab to load, got %s", m.editor.Location())
	}

	press(t, m, "ctrl+w")
	if m.session.Len() != 1 || m.session.Active().Location != data.HomeLocation {
		t.Errorf("Closing the last tab should leave a home tab")
	}
}

// openThreeTabs leaves home, demo and docs open with docs active.
func openThreeTabs(t *testing.T, m *Model) {
	t.Helper()

	m.session.Open()
	m.session.Navigate("demo")
	m.session.Open()
	m.session.Navigate("docs")
	drain(t, m, m.navigated())
}

func clickClose(t *testing.T, m *Model, i int) {
	t.Helper()

	m.View()
	span := m.tabs[i]
	_, cmd := m.Update(tea.MouseMsg{X: span.close, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	drain(t, m, cmd)
}

func TestMouse_CloseTab(t *testing.T) {
	t.Run("before active", func(tst *testing.T) {
		m, _ := newTestModel(tst)
		openThreeTabs(tst, m)

		if !strings.Contains(m.View(), "3 docs "+closeMark) {
			tst.Fatalf("Expected a close mark on every tab:\n%s", m.View())
		}

		clickClose(tst, m, 0)

		if m.session.Len() != 2 || m.session.Tabs()[0].Location != "server://demo" {
			tst.Fatalf("Expected demo and docs to stay open, got %v", m.session.Tabs())
		}
		if m.session.ActiveIndex() != 1 || m.editor.Location() != "server://docs" {
			tst.Errorf("Expected docs to stay active, got %d (%s)", m.session.ActiveIndex(), m.editor.Location())
		}
	})

	t.Run("after active", func(tst *testing.T) {
		m, _ := newTestModel(tst)
		openThreeTabs(tst, m)
		drain(tst, m, m.selectTab(1))

		clickClose(tst, m, 2)

		if m.session.Len() != 2 || m.session.Tabs()[1].Location != "server://demo" {
			tst.Fatalf("Expected home and demo to stay open, got %v", m.session.Tabs())
		}
		// The active index steps back even when a later tab closes
		if m.session.ActiveIndex() != 0 || m.editor.Location() != data.HomeLocation {
			tst.Errorf("Expected home to be active, got %d (%s)", m.session.ActiveIndex(), m.editor.Location())
		}
	})

	t.Run("label selects", func(tst *testing.T) {
		m, _ := newTestModel(tst)
		openThreeTabs(tst, m)

		m.View()
		span := m.tabs[0]
		_, cmd := m.Update(tea.MouseMsg{X: span.close - 1, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
		drain(tst, m, cmd)

		if m.session.Len() != 3 || m.session.ActiveIndex() != 0 {
			tst.Errorf("Expected a click beside the close mark to select, got %d/%d", m.session.ActiveIndex(), m.session.Len())
		}
	})
}

func TestLoadFailure_KeepsTreeEditable(t *testing.T) {
	m, gw := newTestModel(t)

	// Later loads fail without touching the stored servers
	m.gw = &failingGateway{Gateway: gw}
	press(t, m, "ctrl+r")

	if m.editor.State() != editor.StateLoaded {
		t.Fatalf("Expected home to stay loaded, got %s", m.editor.State())
	}
	if !strings.Contains(m.View(), "Failed to load server://home") {
		t.Errorf("Expected the load error in the status bar")
	}

	press(t, m, "n")
	if m.focus != FocusInput {
		t.Errorf("Expected the tree to stay editable after a failed reload")
	}
}

func TestTree_AddEditSave(t *testing.T) {
	m, gw := newTestModel(t)

	// Add below the folder under the cursor
	i, _ := findEntry(m, "src")
	m.cursor = i

	press(t, m, "n")
	if m.focus != FocusInput {
		t.Fatalf("Expected the name prompt")
	}
	typeText(t, m, "util.js")
	press(t, m, "enter")

	_, entry := findEntry(m, "util.js")
	if entry == nil {
		t.Fatalf("Expected util.js in the tree")
	}
	if path, _ := m.editor.PathOf(entry.ID); path.String() != "/src/util.js" {
		t.Errorf("Expected /src/util.js, got %s", path)
	}
	if active, _ := m.editor.Active(); active.ID != entry.ID {
		t.Errorf("Expected the new file to be active")
	}

	// Edit its content
	press(t, m, "e")
	if m.focus != FocusEditor {
		t.Fatalf("Expected the editor to be focused")
	}
	typeText(t, m, "hello")
	press(t, m, "ctrl+s")

	view, err := m.editor.Lookup(entry.ID)
	if err != nil || view.Content != "hello" {
		t.Fatalf("Expected content hello, got %q (%v)", view.Content, err)
	}

	// Save the whole tree
	_, cmd := m.Update(keyMsg("S"))
	if !m.editor.Saving() || !strings.Contains(m.View(), "Saving...") {
		t.Errorf("Expected the saving indicator")
	}
	drain(t, m, cmd)

	if m.editor.Saving() {
		t.Errorf("Expected the saving flag to clear")
	}

	stored, err := gw.LoadTree(t.Context(), data.HomeLocation)
	if err != nil {
		t.Fatalf("LoadTree failed: %v", err)
	}
	if !stored.Tree().Equal(m.editor.Snapshot().Files) {
		t.Errorf("Stored tree differs from the edited one")
	}
}

func TestTree_EditDiscard(t *testing.T) {
	m, _ := newTestModel(t)

	press(t, m, "e")
	typeText(t, m, "changed")
	press(t, m, "esc")

	active, _ := m.editor.Active()
	if active.Content != "<h1>home</h1>" {
		t.Errorf("Escape must discard the edit, got %q", active.Content)
	}
}

func TestTree_RenameAndDelete(t *testing.T) {
	m, _ := newTestModel(t)

	i, src := findEntry(m, "src")
	m.cursor = i

	press(t, m, "r")
	if m.nameInput.Value() != "src" {
		t.Errorf("Expected the current name as default, got %q", m.nameInput.Value())
	}
	m.nameInput.SetValue("")
	typeText(t, m, "lib")
	press(t, m, "enter")

	if _, entry := findEntry(m, "lib"); entry == nil || entry.ID != src.ID {
		t.Fatalf("Expected src to be renamed to lib in place")
	}

	// Declining keeps the node
	press(t, m, "d", "n")
	if _, entry := findEntry(m, "lib"); entry == nil {
		t.Fatalf("Declined delete removed the node")
	}

	press(t, m, "d", "y")
	if _, entry := findEntry(m, "lib"); entry != nil {
		t.Errorf("Expected lib to be deleted")
	}
	if _, entry := findEntry(m, "main.js"); entry != nil {
		t.Errorf("Expected the subtree to be deleted")
	}
	if _, ok := m.editor.Active(); ok {
		t.Errorf("Expected no active node after a delete")
	}
}

func TestTree_RootCannotBeRenamedOrDeleted(t *testing.T) {
	m, _ := newTestModel(t)
	m.cursor = 0

	press(t, m, "r")
	if m.focus != FocusTree {
		t.Errorf("Renaming the root must not open the prompt")
	}

	press(t, m, "d")
	if m.focus != FocusTree {
		t.Errorf("Deleting the root must not ask for confirmation")
	}
}

func TestMouse_SuggestionsAndTabs(t *testing.T) {
	m, _ := newTestModel(t)

	press(t, m, "/")
	m.addressInput.SetValue("")
	m.address.SetInput("")

	// home, demo, docs
	if got := len(m.visibleSuggestions()); got != 3 {
		t.Fatalf("Expected 3 suggestions, got %d", got)
	}

	m.Update(tea.MouseMsg{X: 4, Y: 3, Action: tea.MouseActionMotion})
	if m.address.HoverIndex() != 1 {
		t.Errorf("Expected pointer hover on suggestion 1, got %d", m.address.HoverIndex())
	}

	_, cmd := m.Update(tea.MouseMsg{X: 4, Y: 4, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	drain(t, m, cmd)
	if m.editor.Location() != "server://docs" {
		t.Fatalf("Expected a click to open server://docs, got %s", m.editor.Location())
	}

	press(t, m, "ctrl+t")
	m.View()

	span := m.tabs[0]
	_, cmd = m.Update(tea.MouseMsg{X: span.start, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	drain(t, m, cmd)
	if m.session.ActiveIndex() != 0 || m.editor.Location() != "server://docs" {
		t.Errorf("Expected a click on the first tab to select it")
	}
}

func TestStaleLoadIsDiscarded(t *testing.T) {
	m, _ := newTestModel(t)

	m.session.Navigate("demo")
	slow := m.navigated()
	m.session.Navigate("docs")
	fast := m.navigated()

	drain(t, m, fast)
	drain(t, m, slow)

	if m.editor.Location() != "server://docs" || m.editor.DisplayName() != "Docs" {
		t.Errorf("Expected docs to stay loaded, got %s", m.editor.Location())
	}
	if _, entry := findEntry(m, "readme.md"); entry != nil {
		t.Errorf("Stale tree of demo was shown")
	}
}

func TestBuildEntries(t *testing.T) {
	m, _ := newTestModel(t)

	_, script := findEntry(m, "main.js")
	_, src := findEntry(m, "src")
	if script == nil || src == nil {
		t.Fatalf("Expected src and main.js")
	}

	if script.Parent != src.ID || script.Depth != 2 {
		t.Errorf("Unexpected entry %+v", script)
	}
	if script.Path.String() != "/src/main.js" {
		t.Errorf("Unexpected path %s", script.Path)
	}
	if script.DisplayName() != "    main.js" || src.DisplayName() != "  src/" {
		t.Errorf("Unexpected display names %q %q", script.DisplayName(), src.DisplayName())
	}
	if script.DisplaySize() != "5 B" || src.DisplaySize() != "<DIR>" {
		t.Errorf("Unexpected sizes %q %q", script.DisplaySize(), src.DisplaySize())
	}
}
