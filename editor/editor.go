// Package editor owns the editing session of a single location: it loads
// the server tree through a gateway, applies edits and hands the tree back
// on save.
//
// Gateway calls are split into a Begin step, a Fetch/Store step that may
// run on another goroutine and an Apply/Finish step. Results that belong to
// an older request are discarded.
package editor

import (
	"context"
	"errors"

	"github.com/sussybocca/Server.x-2/data"
	"github.com/sussybocca/Server.x-2/gateway"
	"github.com/sussybocca/Server.x-2/log"
	"github.com/sussybocca/Server.x-2/tree"
)

// ErrEmptyResult is reported when a gateway answers a load with neither a
// server nor an error.
var ErrEmptyResult = errors.New("serverx: gateway returned no server")

type State int

const (
	StateEmpty State = iota
	StateLoading
	StateLoaded
	StateNotFound
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateNotFound:
		return "not found"
	case StateFailed:
		return "failed"
	default:
		return "empty"
	}
}

type Editor struct {
	log     *log.Logger
	options *EditorOptions

	location data.VirtualLocation
	server   *data.Server
	tree     *tree.Tree
	active   tree.NodeID
	state    State

	loadGen  uint64
	loadErr  error
	saveGen  uint64
	saving   bool
	revision uint64
}

func New(opts ...Option) (*Editor, error) {
	options := newDefaultEditorOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	return &Editor{
		log:     options.Logger,
		options: options,
		tree:    tree.New(),
	}, nil
}

func (e *Editor) Location() data.VirtualLocation {
	return e.location
}

func (e *Editor) State() State {
	return e.state
}

func (e *Editor) Saving() bool {
	return e.saving
}

// DisplayName returns the name of the loaded server, or the location name
// while nothing is loaded.
func (e *Editor) DisplayName() string {
	if e.server != nil && e.server.DisplayName != "" {
		return e.server.DisplayName
	}

	return e.location.Name()
}

// Revision changes whenever the visible tree changes, either by an edit or
// by a load replacing it.
func (e *Editor) Revision() uint64 {
	return e.revision
}

// Active returns the node selected for content editing, if any.
func (e *Editor) Active() (tree.NodeView, bool) {
	if e.active == "" {
		return tree.NodeView{}, false
	}

	view, err := e.tree.Lookup(e.active)
	if err != nil {
		return tree.NodeView{}, false
	}

	return view, true
}

func (e *Editor) Root() tree.NodeView {
	return e.tree.Root()
}

func (e *Editor) Lookup(id tree.NodeID) (tree.NodeView, error) {
	return e.tree.Lookup(id)
}

func (e *Editor) Find(path tree.Path) (tree.NodeView, error) {
	return e.tree.Find(path)
}

func (e *Editor) PathOf(id tree.NodeID) (tree.Path, error) {
	return e.tree.PathOf(id)
}

func (e *Editor) Walk(fn func(path tree.Path, depth int, n tree.NodeView) bool) {
	e.tree.Walk(fn)
}

// Snapshot returns the current server record with the edited tree.
func (e *Editor) Snapshot() *data.Server {
	if e.state != StateLoaded {
		return nil
	}

	server := e.server.Clone()
	server.Files = e.tree.Serialize()
	return server
}

// Request is a pending load of one location.
type Request struct {
	Location data.VirtualLocation

	gen     uint64
	options *EditorOptions
}

// Result is the outcome of a Request, to be handed to Apply.
type Result struct {
	Location data.VirtualLocation
	Server   *data.Server
	Err      error

	gen uint64
}

// Begin starts loading location. Navigating to a different location drops
// the current tree right away, reloading the same location keeps it until
// the result arrives.
func (e *Editor) Begin(location data.VirtualLocation) Request {
	e.loadGen++

	if location != e.location {
		e.location = location
		e.server = nil
		e.tree = tree.New()
		e.active = ""
		e.revision++
	}
	e.state = StateLoading
	e.loadErr = nil

	return Request{
		Location: location,
		gen:      e.loadGen,
		options:  e.options,
	}
}

// Fetch runs the request against gw. It does not touch the editor and is
// safe to call from another goroutine.
func (r Request) Fetch(ctx context.Context, gw gateway.Gateway) Result {
	if r.options != nil && r.options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.options.Timeout)
		defer cancel()
	}

	server, err := gw.LoadTree(ctx, r.Location)
	if err == nil && server == nil {
		err = ErrEmptyResult
	}

	return Result{
		Location: r.Location,
		Server:   server,
		Err:      err,
		gen:      r.gen,
	}
}

// Apply installs a load result. It returns false when the result belongs to
// an outdated request and was discarded.
func (e *Editor) Apply(result Result) bool {
	if result.gen != e.loadGen || result.Location != e.location {
		e.log.Debug("Discarding stale load of '%s'", result.Location)
		return false
	}

	err := result.Err
	if err == nil && result.Server == nil {
		err = ErrEmptyResult
	}

	switch {
	case errors.Is(err, data.ErrNotExist):
		e.log.Debug("Server '%s' not found", result.Location)
		e.server = nil
		e.tree = tree.New()
		e.active = ""
		e.state = StateNotFound
		e.revision++

	case err != nil:
		e.failLoad(result.Location, err)

	default:
		server := result.Server
		e.tree = tree.Deserialize(server.Tree())
		server.Files = nil
		e.server = server
		e.active = ""
		if first, ok := e.tree.FirstFile(); ok {
			e.active = first.ID
		}
		e.state = StateLoaded
		e.revision++
		e.log.Debug("Loaded '%s' with %d nodes", result.Location, e.tree.Len())
	}

	return true
}

// failLoad keeps the current tree. A server that was loaded before stays
// editable, otherwise the session is marked failed.
func (e *Editor) failLoad(location data.VirtualLocation, err error) {
	e.log.Error("Failed to load '%s': %v", location, err)
	e.loadErr = err

	if e.server != nil {
		e.state = StateLoaded
		return
	}
	e.state = StateFailed
}

// LoadError returns the error of the last applied load, nil after a
// successful or not found load.
func (e *Editor) LoadError() error {
	return e.loadErr
}

// Load is the synchronous form of Begin, Fetch and Apply.
func (e *Editor) Load(ctx context.Context, gw gateway.Gateway, location data.VirtualLocation) error {
	result := e.Begin(location).Fetch(ctx, gw)
	e.Apply(result)

	return result.Err
}

// SaveRequest carries a copy of the tree to store.
type SaveRequest struct {
	Location data.VirtualLocation
	Files    *data.FileNode

	gen     uint64
	options *EditorOptions
}

type SaveResult struct {
	Location data.VirtualLocation
	Err      error

	gen uint64
}

// BeginSave snapshots the tree for saving and raises the saving flag.
// Nothing can be saved unless a server is loaded.
func (e *Editor) BeginSave() (SaveRequest, bool) {
	if e.state != StateLoaded {
		e.log.Debug("Ignoring save of '%s' in state %s", e.location, e.state)
		return SaveRequest{}, false
	}

	e.saveGen++
	e.saving = true

	return SaveRequest{
		Location: e.location,
		Files:    e.tree.Serialize(),
		gen:      e.saveGen,
		options:  e.options,
	}, true
}

// Store writes the request through gw. It is safe to call from another
// goroutine.
func (r SaveRequest) Store(ctx context.Context, gw gateway.Gateway) SaveResult {
	if r.options != nil && r.options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.options.Timeout)
		defer cancel()
	}

	return SaveResult{
		Location: r.Location,
		Err:      gw.SaveTree(ctx, r.Location, r.Files),
		gen:      r.gen,
	}
}

// FinishSave clears the saving flag once the latest save has completed.
// Failures are logged and otherwise ignored.
func (e *Editor) FinishSave(result SaveResult) bool {
	if result.Err != nil {
		e.log.Error("Failed to save '%s': %v", result.Location, result.Err)
	} else {
		e.log.Info("Saved '%s'", result.Location)
	}

	if result.gen != e.saveGen {
		return false
	}

	e.saving = false
	return true
}

// Save is the synchronous form of BeginSave, Store and FinishSave.
func (e *Editor) Save(ctx context.Context, gw gateway.Gateway) error {
	request, ok := e.BeginSave()
	if !ok {
		return nil
	}

	result := request.Store(ctx, gw)
	e.FinishSave(result)

	return result.Err
}
