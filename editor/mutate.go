package editor

import (
	"github.com/sussybocca/Server.x-2/tree"
)

func (e *Editor) editable(op string) bool {
	if e.state != StateLoaded {
		e.log.Debug("Ignoring %s on '%s' in state %s", op, e.location, e.state)
		return false
	}

	return true
}

// Add creates a node below parent, or below the root when parent is empty.
// A new file becomes the active node.
func (e *Editor) Add(parent tree.NodeID, name string, kind tree.Kind) (tree.NodeID, bool) {
	if !e.editable("add") {
		return "", false
	}

	if parent == "" {
		parent = e.tree.RootID()
	}

	id, err := e.tree.AddChildID(parent, name, kind)
	if err != nil {
		e.log.Debug("Failed to add %s '%s': %v", kind, name, err)
		return "", false
	}

	if kind == tree.KindFile {
		e.active = id
	}

	e.revision++
	return id, true
}

func (e *Editor) Rename(id tree.NodeID, name string) bool {
	if !e.editable("rename") {
		return false
	}

	if err := e.tree.RenameID(id, name); err != nil {
		e.log.Debug("Failed to rename '%s': %v", id, err)
		return false
	}

	e.revision++
	return true
}

// Remove deletes the node and its subtree. Any delete clears the active node.
func (e *Editor) Remove(id tree.NodeID) bool {
	if !e.editable("remove") {
		return false
	}

	if err := e.tree.RemoveID(id); err != nil {
		e.log.Debug("Failed to remove '%s': %v", id, err)
		return false
	}

	e.active = ""
	e.revision++
	return true
}

func (e *Editor) SetContent(id tree.NodeID, text string) bool {
	if !e.editable("edit") {
		return false
	}

	if err := e.tree.SetContentID(id, text); err != nil {
		e.log.Debug("Failed to set content of '%s': %v", id, err)
		return false
	}

	e.revision++
	return true
}

// Select makes the file id the active node. Folders cannot be selected.
func (e *Editor) Select(id tree.NodeID) bool {
	view, err := e.tree.Lookup(id)
	if err != nil || !view.IsFile() {
		return false
	}

	e.active = id
	return true
}
