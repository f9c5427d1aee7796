package editor

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sussybocca/Server.x-2/data"
	"github.com/sussybocca/Server.x-2/gateway"
	"github.com/sussybocca/Server.x-2/gateway/ephemeral"
	"github.com/sussybocca/Server.x-2/log"
	"github.com/sussybocca/Server.x-2/tree"
)

// failingGateway answers every call with err.
type failingGateway struct {
	*ephemeral.EphemeralGateway
	err error
}

func (fg *failingGateway) LoadTree(ctx context.Context, location data.VirtualLocation) (*data.Server, error) {
	return nil, fg.err
}

func (fg *failingGateway) SaveTree(ctx context.Context, location data.VirtualLocation, files *data.FileNode) error {
	return fg.err
}

// emptyGateway loads neither a server nor an error.
type emptyGateway struct {
	*ephemeral.EphemeralGateway
}

func (eg *emptyGateway) LoadTree(ctx context.Context, location data.VirtualLocation) (*data.Server, error) {
	return nil, nil
}

func newGateway(t *testing.T, servers ...*data.Server) gateway.Gateway {
	t.Helper()

	gw := ephemeral.NewEphemeralGateway()
	if err := gw.Open(t.Context()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	for _, server := range servers {
		if err := gw.CreateServer(t.Context(), server); err != nil {
			t.Fatalf("CreateServer failed: %v", err)
		}
	}

	return gw
}

func sampleServer() *data.Server {
	server := data.NewServer("server://demo", "Demo", true)
	server.Files = data.NewFolder(data.RootName,
		data.NewFolder("assets"),
		data.NewFile("index.html", "<h1>demo</h1>"),
		data.NewFile("app.js", "run()"),
	)
	return server
}

func newEditor(t *testing.T, opts ...Option) *Editor {
	t.Helper()

	e, err := New(opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return e
}

func TestLoad_SelectsFirstFile(t *testing.T) {
	gw := newGateway(t, sampleServer())
	e := newEditor(t)

	if err := e.Load(t.Context(), gw, "server://demo"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if e.State() != StateLoaded {
		t.Fatalf("Expected loaded, got %s", e.State())
	}
	if e.DisplayName() != "Demo" {
		t.Errorf("Expected display name Demo, got %q", e.DisplayName())
	}

	active, ok := e.Active()
	if !ok || active.Name != "index.html" {
		t.Errorf("Expected index.html to be active, got %+v", active)
	}
}

func TestLoad_NotFound(t *testing.T) {
	gw := newGateway(t)
	e := newEditor(t)

	err := e.Load(t.Context(), gw, "server://nowhere")
	if !errors.Is(err, data.ErrNotExist) {
		t.Fatalf("Expected ErrNotExist, got %v", err)
	}
	if e.State() != StateNotFound {
		t.Errorf("Expected not found, got %s", e.State())
	}

	view, err := e.Render()
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if view != "Server not found: server://nowhere" {
		t.Errorf("Unexpected view %q", view)
	}
}

func TestLoad_FailureKeepsTree(t *testing.T) {
	gw := newGateway(t, sampleServer())

	var buf bytes.Buffer
	e := newEditor(t, WithLogger(log.NewWriterLogger("editor", &buf, log.Debug)))

	if err := e.Load(t.Context(), gw, "server://demo"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	before := e.Snapshot()

	broken := &failingGateway{EphemeralGateway: ephemeral.NewEphemeralGateway(), err: errors.New("boom")}
	if err := e.Load(t.Context(), broken, "server://demo"); err == nil {
		t.Fatalf("Expected the load to fail")
	}

	if e.State() != StateLoaded {
		t.Errorf("Expected the loaded server to stay editable, got %s", e.State())
	}
	if e.LoadError() == nil {
		t.Errorf("Expected the load error to be kept")
	}
	if !e.Root().IsFolder() || len(e.Root().Children) != len(before.Files.Children) {
		t.Errorf("Failed reload must keep the previous tree")
	}
	if !strings.Contains(buf.String(), "boom") {
		t.Errorf("Expected the failure to be logged, got %q", buf.String())
	}

	// Edits and saves keep working against the good gateway
	if _, ok := e.Add("", "notes.txt", tree.KindFile); !ok {
		t.Fatalf("Add after a failed reload was ignored")
	}
	if err := e.Save(t.Context(), gw); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	stored, err := gw.LoadTree(t.Context(), "server://demo")
	if err != nil {
		t.Fatalf("LoadTree failed: %v", err)
	}
	if len(stored.Tree().Children) != len(before.Files.Children)+1 {
		t.Errorf("Expected notes.txt to be saved, got %d children", len(stored.Tree().Children))
	}

	if err := e.Load(t.Context(), gw, "server://demo"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if e.LoadError() != nil {
		t.Errorf("Expected a successful load to clear the error, got %v", e.LoadError())
	}
}

func TestLoad_FirstFailure(t *testing.T) {
	e := newEditor(t)

	broken := &failingGateway{EphemeralGateway: ephemeral.NewEphemeralGateway(), err: errors.New("boom")}
	if err := e.Load(t.Context(), broken, "server://demo"); err == nil {
		t.Fatalf("Expected the load to fail")
	}

	if e.State() != StateFailed {
		t.Errorf("Expected failed, got %s", e.State())
	}
	if _, ok := e.Add("", "a.txt", tree.KindFile); ok {
		t.Errorf("Add on a failed server should be ignored")
	}
}

func TestLoad_EmptyResult(t *testing.T) {
	e := newEditor(t)

	err := e.Load(t.Context(), &emptyGateway{ephemeral.NewEphemeralGateway()}, "server://demo")
	if !errors.Is(err, ErrEmptyResult) {
		t.Fatalf("Expected ErrEmptyResult, got %v", err)
	}
	if e.State() != StateFailed {
		t.Errorf("Expected failed, got %s", e.State())
	}

	// Results built by hand take the same path
	request := e.Begin("server://demo")
	if !e.Apply(Result{Location: request.Location, gen: request.gen}) {
		t.Fatalf("Current result was discarded")
	}
	if !errors.Is(e.LoadError(), ErrEmptyResult) || e.State() != StateFailed {
		t.Errorf("Expected ErrEmptyResult and failed, got %v and %s", e.LoadError(), e.State())
	}
}

func TestApply_DiscardsStaleResult(t *testing.T) {
	other := data.NewServer("server://other", "", true)
	gw := newGateway(t, sampleServer(), other)
	e := newEditor(t)

	slow := e.Begin("server://demo")
	fast := e.Begin("server://other")

	if !e.Apply(fast.Fetch(t.Context(), gw)) {
		t.Fatalf("Current result was discarded")
	}
	if e.Apply(slow.Fetch(t.Context(), gw)) {
		t.Errorf("Stale result was applied")
	}

	if e.Location() != "server://other" || e.DisplayName() != "other" {
		t.Errorf("Expected server://other to stay loaded, got %s", e.Location())
	}
}

func TestApply_ReloadOfSameLocationSupersedesOlder(t *testing.T) {
	gw := newGateway(t, sampleServer())
	e := newEditor(t)

	first := e.Begin("server://demo")
	second := e.Begin("server://demo")

	if e.Apply(first.Fetch(t.Context(), gw)) {
		t.Errorf("Older request of the same location was applied")
	}
	if e.State() != StateLoading {
		t.Errorf("Expected loading, got %s", e.State())
	}
	if !e.Apply(second.Fetch(t.Context(), gw)) {
		t.Errorf("Latest request was discarded")
	}
}

func TestNavigationDropsTree(t *testing.T) {
	gw := newGateway(t, sampleServer())
	e := newEditor(t)

	if err := e.Load(t.Context(), gw, "server://demo"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	e.Begin("server://elsewhere")
	if len(e.Root().Children) != 0 {
		t.Errorf("Expected an empty tree after navigating away")
	}
	if _, ok := e.Active(); ok {
		t.Errorf("Expected no active node after navigating away")
	}
}

func TestMutations(t *testing.T) {
	gw := newGateway(t, sampleServer())
	e := newEditor(t)

	if err := e.Load(t.Context(), gw, "server://demo"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	assets, err := e.Find(tree.Path{"assets"})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}

	revision := e.Revision()

	// Adding a file activates it
	id, ok := e.Add(assets.ID, "logo.svg", tree.KindFile)
	if !ok {
		t.Fatalf("Add failed")
	}
	if active, _ := e.Active(); active.ID != id {
		t.Errorf("Expected the new file to be active")
	}

	// Adding a folder leaves the active node alone
	if _, ok := e.Add("", "docs", tree.KindFolder); !ok {
		t.Fatalf("Add folder failed")
	}
	if active, _ := e.Active(); active.ID != id {
		t.Errorf("Adding a folder changed the active node")
	}

	if !e.SetContent(id, "<svg/>") {
		t.Errorf("SetContent failed")
	}
	if !e.Rename(id, "icon.svg") {
		t.Errorf("Rename failed")
	}

	path, err := e.PathOf(id)
	if err != nil || path.String() != "/assets/icon.svg" {
		t.Errorf("Expected /assets/icon.svg, got %s (%v)", path, err)
	}

	if e.Revision() == revision {
		t.Errorf("Expected the revision to change")
	}

	// Invalid edits are no-ops
	if _, ok := e.Add(id, "nested", tree.KindFile); ok {
		t.Errorf("Adding below a file should fail")
	}
	if e.SetContent(assets.ID, "text") {
		t.Errorf("Setting content of a folder should fail")
	}
	if e.Remove(e.Root().ID) {
		t.Errorf("Removing the root should fail")
	}

	// Any delete clears the active node
	index, _ := e.Find(tree.Path{"index.html"})
	if !e.Remove(index.ID) {
		t.Fatalf("Remove failed")
	}
	if _, ok := e.Active(); ok {
		t.Errorf("Expected no active node after a delete")
	}
}

func TestSelect(t *testing.T) {
	gw := newGateway(t, sampleServer())
	e := newEditor(t)

	if err := e.Load(t.Context(), gw, "server://demo"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	app, _ := e.Find(tree.Path{"app.js"})
	assets, _ := e.Find(tree.Path{"assets"})

	if !e.Select(app.ID) {
		t.Errorf("Select of a file failed")
	}
	if e.Select(assets.ID) {
		t.Errorf("Folders must not be selectable")
	}
	if active, _ := e.Active(); active.ID != app.ID {
		t.Errorf("Expected app.js to stay active")
	}
}

func TestMutationsRequireLoadedServer(t *testing.T) {
	e := newEditor(t)
	e.Begin("server://pending")

	if _, ok := e.Add("", "a.txt", tree.KindFile); ok {
		t.Errorf("Add while loading should be ignored")
	}
	if _, ok := e.BeginSave(); ok {
		t.Errorf("Save while loading should be ignored")
	}
}

func TestSave(t *testing.T) {
	gw := newGateway(t, sampleServer())
	e := newEditor(t)

	if err := e.Load(t.Context(), gw, "server://demo"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, ok := e.Add("", "new.txt", tree.KindFile); !ok {
		t.Fatalf("Add failed")
	}

	if err := e.Save(t.Context(), gw); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if e.Saving() {
		t.Errorf("Saving flag still raised")
	}

	stored, err := gw.LoadTree(t.Context(), "server://demo")
	if err != nil {
		t.Fatalf("LoadTree failed: %v", err)
	}
	if !stored.Tree().Equal(e.Snapshot().Files) {
		t.Errorf("Stored tree differs from the edited one")
	}
}

func TestSave_SavingFlag(t *testing.T) {
	gw := newGateway(t, sampleServer())
	e := newEditor(t)

	if err := e.Load(t.Context(), gw, "server://demo"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	first, _ := e.BeginSave()
	second, _ := e.BeginSave()
	if !e.Saving() {
		t.Fatalf("Expected the saving flag")
	}

	if e.FinishSave(first.Store(t.Context(), gw)) {
		t.Errorf("Older save must not clear the flag")
	}
	if !e.Saving() {
		t.Errorf("Saving flag cleared too early")
	}

	if !e.FinishSave(second.Store(t.Context(), gw)) || e.Saving() {
		t.Errorf("Latest save should clear the flag")
	}
}

func TestSave_FailureOnlyClearsFlag(t *testing.T) {
	gw := newGateway(t, sampleServer())
	e := newEditor(t)

	if err := e.Load(t.Context(), gw, "server://demo"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, ok := e.Add("", "kept.txt", tree.KindFile); !ok {
		t.Fatalf("Add failed")
	}

	broken := &failingGateway{EphemeralGateway: ephemeral.NewEphemeralGateway(), err: errors.New("disk full")}
	if err := e.Save(t.Context(), broken); err == nil {
		t.Fatalf("Expected the save to fail")
	}

	if e.Saving() {
		t.Errorf("Saving flag still raised after failure")
	}
	if _, err := e.Find(tree.Path{"kept.txt"}); err != nil {
		t.Errorf("Failed save must keep the edits: %v", err)
	}
}

func TestOptions(t *testing.T) {
	if _, err := New(WithTimeout(-1)); err == nil {
		t.Errorf("Expected negative timeout to be rejected")
	}
	if _, err := New(WithLogger(nil)); err == nil {
		t.Errorf("Expected nil logger to be rejected")
	}
}
